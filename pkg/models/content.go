package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GenerationMode pilote le style de génération des leçons
type GenerationMode string

const (
	ModePreserve GenerationMode = "PRESERVE"
	ModeEnhance  GenerationMode = "ENHANCE"
)

// PreserveThreshold est la moyenne à partir de laquelle la source est conservée telle quelle
const PreserveThreshold = 7.0

// ModeForAverage retourne le mode correspondant à une moyenne de qualité
func ModeForAverage(average float64) GenerationMode {
	if average >= PreserveThreshold {
		return ModePreserve
	}
	return ModeEnhance
}

// ChunkSummary résume un morceau de texte source
type ChunkSummary struct {
	Topics   []string `json:"topics"`
	Concepts []string `json:"concepts"`
	Summary  string   `json:"summary"`
}

// QualityVerdict est l'évaluation de la qualité du contenu source
type QualityVerdict struct {
	SpecificityScore    int            `json:"specificity_score"`
	TechnicalDepthScore int            `json:"technical_depth_score"`
	ActionabilityScore  int            `json:"actionability_score"`
	AverageScore        float64        `json:"average_score"`
	Mode                GenerationMode `json:"mode"`
	Reasoning           string         `json:"reasoning"`
}

// ToJSON convertit le verdict pour la persistance
func (q QualityVerdict) ToJSON() JSON {
	return JSON{
		"specificity_score":     q.SpecificityScore,
		"technical_depth_score": q.TechnicalDepthScore,
		"actionability_score":   q.ActionabilityScore,
		"average_score":         q.AverageScore,
		"mode":                  string(q.Mode),
		"reasoning":             q.Reasoning,
	}
}

// Overview est la synthèse thématique du document
type Overview struct {
	Title              string   `json:"title"`
	MainThemes         []string `json:"main_themes"`
	KeyConcepts        []string `json:"key_concepts"`
	TargetAudience     string   `json:"target_audience"`
	LearningObjectives []string `json:"learning_objectives"`
}

// CourseStructure est le squelette du cours, rempli au fil du pipeline
type CourseStructure struct {
	Chapters []ChapterPlan `json:"chapters"`
}

// LessonCount retourne le nombre total de leçons
func (s *CourseStructure) LessonCount() int {
	total := 0
	for _, ch := range s.Chapters {
		total += len(ch.Lessons)
	}
	return total
}

type ChapterPlan struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Lessons     []LessonPlan `json:"lessons"`
}

type LessonPlan struct {
	Title              string         `json:"title"`
	TopicsToCover      []string       `json:"topics_to_cover"`
	SourceChunkIndices []int          `json:"source_chunk_indices"`
	Content            *LessonContent `json:"content,omitempty"`
	Quiz               Assessment     `json:"quiz,omitempty"`
}

// KeyPoint accepte un objet {title, description} ou une simple chaîne
type KeyPoint struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (k *KeyPoint) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		k.Title = text
		k.Description = ""
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid key point: %w", err)
	}
	k.Title = stringField(raw, "title", "point", "name")
	k.Description = stringField(raw, "description", "details", "explanation")
	return nil
}

// LessonContent est le contenu pédagogique d'une leçon
type LessonContent struct {
	Introduction    string        `json:"introduction"`
	Explanation     string        `json:"explanation"`
	KeyConcepts     []interface{} `json:"key_concepts,omitempty"`
	Examples        []interface{} `json:"examples"`
	CommonMistakes  []interface{} `json:"common_mistakes,omitempty"`
	ActionableSteps []interface{} `json:"actionable_steps,omitempty"`
	KeyPoints       []KeyPoint    `json:"keyPoints"`
	Summary         string        `json:"summary"`
	BeforeYouMoveOn []string      `json:"before_you_move_on,omitempty"`
}

// StripEnhancements retire les champs réservés au mode ENHANCE payant
func (c *LessonContent) StripEnhancements() {
	c.CommonMistakes = nil
	c.ActionableSteps = nil
	c.BeforeYouMoveOn = nil
}

// QuestionType est la catégorie cognitive d'une question
type QuestionType string

const (
	QuestionRecall     QuestionType = "recall"
	QuestionUnderstand QuestionType = "understand"
	QuestionApply      QuestionType = "apply"
	QuestionAnalyze    QuestionType = "analyze"
)

const (
	ItemMCQ         = "mcq"
	ItemShortAnswer = "short_answer"
)

// OptionList accepte des options sous forme de chaînes ou d'objets
type OptionList []string

func (o *OptionList) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]interface{}:
			out = append(out, stringField(v, "text", "option", "content", "label"))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	*o = out
	return nil
}

// AssessmentItem est une question d'évaluation (QCM ou réponse libre)
type AssessmentItem struct {
	Type          string       `json:"type"`
	ID            string       `json:"id"`
	Question      string       `json:"question"`
	Options       OptionList   `json:"options,omitempty"`
	CorrectAnswer int          `json:"correctAnswer"`
	Difficulty    int          `json:"difficulty,omitempty"`
	QuestionType  QuestionType `json:"question_type,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
	SampleAnswer  string       `json:"sampleAnswer,omitempty"`
}

// IsMCQ indique si la question est un QCM
func (a AssessmentItem) IsMCQ() bool {
	return a.Type == "" || a.Type == ItemMCQ
}

// Assessment est la liste ordonnée des questions d'une leçon
type Assessment []AssessmentItem

// MCQCount retourne le nombre de QCM
func (a Assessment) MCQCount() int {
	n := 0
	for _, item := range a {
		if item.IsMCQ() {
			n++
		}
	}
	return n
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
			return fmt.Sprint(v)
		}
	}
	return ""
}
