package pipeline

import (
	"fmt"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

// Budgets de caractères des contenus injectés dans les prompts
const (
	qualityInputBudget  = 12000
	lessonSourceBudget  = 15000
	quizSourceBudget    = 3000
	quizExplanationSize = 2000
	fallbackSourceSize  = 1500
)

func summarizePrompt(chunk string) string {
	return fmt.Sprintf(`Analyze the following section of a document and extract:
1. The main topics it covers (3 to 5 topics)
2. The key concepts it introduces (3 to 7 concepts)
3. A concise summary (2 to 3 paragraphs)

Text:
%s

Answer with JSON only:
{
  "topics": ["topic1", "topic2"],
  "concepts": ["concept1", "concept2"],
  "summary": "Summary of the section..."
}`, chunk)
}

func qualityPrompt(summaries string) string {
	return fmt.Sprintf(`Rate the source material described by these section summaries:

%s

Score each criterion from 1 to 10:
1. SPECIFICITY: concrete details, steps and examples rather than vague advice
2. TECHNICAL_DEPTH: comprehensive and detailed rather than surface-level
3. ACTIONABILITY: tells the reader exactly what to do rather than pure theory

Answer with JSON only:
{
  "specificity_score": <1-10>,
  "technical_depth_score": <1-10>,
  "actionability_score": <1-10>,
  "average_score": <average of the three scores>,
  "mode": "<PRESERVE or ENHANCE>",
  "reasoning": "<one sentence>"
}

Rules:
- average >= 7: mode = "PRESERVE" (the source is good, keep it faithful)
- average < 7: mode = "ENHANCE" (the source needs improvement)`, summaries)
}

func overviewPrompt(summaries string, topics, concepts []string) string {
	return fmt.Sprintf(`These are the section summaries of a document. Write a unified overview of it.

Section summaries:
%s

Topics found: %s
Concepts found: %s

Answer with JSON only:
{
  "title": "Title inferred from the content",
  "main_themes": ["theme1", "theme2"],
  "key_concepts": ["concept1", "concept2"],
  "target_audience": "Who this document is for",
  "learning_objectives": ["objective1", "objective2"]
}`, summaries, strings.Join(topics, ", "), strings.Join(concepts, ", "))
}

func structurePrompt(overview models.Overview, sections int) string {
	return fmt.Sprintf(`Design a course for a document with these characteristics:

Title: %s
Main themes: %s
Key concepts: %s
Learning objectives: %s

The document has %d sections, numbered from 0 to %d.

Create 4 to 8 chapters with 2 to 5 lessons each. Group related themes in the same chapter,
and order lessons so that each one builds on the previous ones.

Answer with JSON only:
{
  "chapters": [
    {
      "title": "Chapter title",
      "description": "Short chapter description",
      "lessons": [
        {
          "title": "Lesson title",
          "topics_to_cover": ["topic1", "topic2"],
          "source_chunk_indices": [0, 1]
        }
      ]
    }
  ]
}`,
		overview.Title,
		strings.Join(overview.MainThemes, ", "),
		strings.Join(overview.KeyConcepts, ", "),
		strings.Join(overview.LearningObjectives, ", "),
		sections, sections-1)
}

func lessonPrompt(mode models.GenerationMode, title string, topics []string, source string) string {
	source = truncateRunes(source, lessonSourceBudget)
	if mode == models.ModePreserve {
		return fmt.Sprintf(`You are writing a lesson from HIGH-QUALITY source material. Stay faithful to the source:
keep its accuracy, terminology, structure and examples, and do not add content of your own.

Lesson: %s
Topics to cover: %s
Source content: %s

Answer with this JSON structure:
{
  "introduction": "What this lesson covers, in 2-3 sentences faithful to the source",
  "explanation": "The main content in 3-5 paragraphs, keeping the technical depth and the source's own examples",
  "key_concepts": [{"term": "concept", "definition": "definition taken from the source"}],
  "examples": [{"title": "Example title", "content": "example from the source"}],
  "keyPoints": [
    {"title": "Key takeaway", "description": "What it means and why it matters"},
    {"title": "Second takeaway", "description": "Explanation"},
    {"title": "Third takeaway", "description": "Explanation"}
  ],
  "summary": "What was learned, in 2-3 sentences",
  "before_you_move_on": [
    "Make sure you can explain X in your own words",
    "Make sure you understand why Y matters",
    "Make sure you can do Z without looking"
  ]
}

IMPORTANT:
- Return ONLY the JSON object
- Do NOT invent examples or facts that are not in the source
- Do NOT simplify the technical content
- Every keyPoint needs both a title AND a description`, title, strings.Join(topics, ", "), source)
	}

	return fmt.Sprintf(`You are writing a lesson from GENERIC source material that needs improvement. Make it concrete:
add real examples, turn vague advice into specific steps, and cut the fluff.

Lesson: %s
Topics to cover: %s
Source content: %s

Answer with this JSON structure:
{
  "introduction": "Why this lesson matters, in 2-3 engaging sentences",
  "explanation": "The main content in 3-5 paragraphs. Keep the source concepts, make vague advice specific, add concrete real-world examples, and say exactly HOW to do what the source only names",
  "key_concepts": [{"term": "concept", "definition": "clear and practical definition"}],
  "examples": [
    {"title": "Concrete example", "content": "A specific scenario with details"},
    {"title": "Second example", "content": "A real-world application"}
  ],
  "common_mistakes": [
    {"mistake": "What people usually get wrong", "correction": "The right approach"}
  ],
  "actionable_steps": [
    {"step": "A specific action", "details": "How to do it concretely"}
  ],
  "keyPoints": [
    {"title": "Key takeaway", "description": "What it means and why it matters"},
    {"title": "Second takeaway", "description": "Explanation"},
    {"title": "Third takeaway", "description": "Explanation"}
  ],
  "summary": "What was learned, in 2-3 sentences",
  "before_you_move_on": [
    "A specific thing to check you understand",
    "Another checkpoint",
    "A third checkpoint"
  ]
}

IMPORTANT:
- Return ONLY the JSON object
- DO add concrete examples from your own knowledge
- DO rewrite vague advice as actionable steps
- Every keyPoint needs both a title AND a real description
- Keep the core concepts of the source`, title, strings.Join(topics, ", "), source)
}

// lessonDigest résume le contenu d'une leçon pour le prompt d'évaluation
func lessonDigest(content *models.LessonContent) string {
	var points []string
	for _, kp := range content.KeyPoints {
		if kp.Description == "" {
			points = append(points, kp.Title)
			continue
		}
		points = append(points, kp.Title+": "+kp.Description)
	}
	return fmt.Sprintf("Introduction: %s\nExplanation: %s\nKey Points: %s\nSummary: %s\n",
		content.Introduction,
		truncateRunes(content.Explanation, quizExplanationSize),
		strings.Join(points, "; "),
		content.Summary)
}

const mcqTemplate = `    {
      "type": "mcq",
      "difficulty": %d,
      "question_type": "%s",
      "id": "q%d",
      "question": "%s",
      "options": ["A) ...", "B) ...", "C) ...", "D) ..."],
      "correctAnswer": %d,
      "explanation": "Why this answer is correct"
    }`

type questionSlot struct {
	difficulty int
	kind       models.QuestionType
	example    string
	answer     int
}

var basicSlots = []questionSlot{
	{1, models.QuestionRecall, "What is X?", 1},
	{1, models.QuestionRecall, "Which statement describes Y?", 0},
	{2, models.QuestionUnderstand, "Why would you use X instead of Y?", 2},
	{2, models.QuestionUnderstand, "What is the main difference between X and Y?", 3},
}

var fullSlots = append(append([]questionSlot{}, basicSlots...),
	questionSlot{3, models.QuestionApply, "Scenario: [realistic situation]. What should you do?", 1},
	questionSlot{3, models.QuestionApply, "You need to [task]. Which approach works best?", 0},
	questionSlot{4, models.QuestionAnalyze, "Look at this [setup]. What is wrong with it?", 2},
)

func renderSlots(slots []questionSlot) string {
	items := make([]string, 0, len(slots))
	for i, s := range slots {
		items = append(items, fmt.Sprintf(mcqTemplate, s.difficulty, s.kind, i+1, s.example, s.answer))
	}
	return strings.Join(items, ",\n")
}

func quizPrompt(profile QuizProfile, title string, content *models.LessonContent, source string) string {
	digest := lessonDigest(content)
	if profile == QuizBasic {
		return fmt.Sprintf(`Write a quiz for this lesson.

Lesson title: %s
Lesson content: %s

Write exactly 4 multiple-choice questions:
{
  "questions": [
%s
  ]
}

Question types:
- RECALL (2): definitions and facts, difficulty 1
- UNDERSTAND (2): compare, contrast, explain why, difficulty 2

Options must be real answers, not letters or placeholders.
correctAnswer is 0-indexed (0=A, 1=B, 2=C, 3=D).`, title, digest, renderSlots(basicSlots))
	}

	return fmt.Sprintf(`Write a quiz for this lesson that tests UNDERSTANDING, not only recall.

Lesson title: %s
Lesson content: %s
Source excerpt: %s

Write exactly 7 multiple-choice questions in tiers, plus one short-answer question:
{
  "questions": [
%s
  ],
  "short_answer": [
    {
      "type": "short_answer",
      "id": "sa1",
      "question": "Explain in your own words why X matters.",
      "sampleAnswer": "A model answer"
    }
  ]
}

Question types:
- RECALL (2): definitions, identification, facts, difficulty 1
- UNDERSTAND (2): compare, contrast, relationships, difficulty 2
- APPLY (2): scenarios and practical decisions, difficulty 3
- ANALYZE (1): find the flaw, debug, critique, difficulty 4

Options must be real answers, not letters or placeholders.
correctAnswer is 0-indexed (0=A, 1=B, 2=C, 3=D).`, title, digest, truncateRunes(source, quizSourceBudget), renderSlots(fullSlots))
}
