package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

// Tailles des profils d'évaluation
const (
	basicMCQs        = 4
	fullMCQs         = 7
	fullShortAnswers = 1
	minQuestionText  = 10
)

var (
	optionLabel   = regexp.MustCompile(`^[A-Da-d][).]\s*`)
	genericOption = regexp.MustCompile(`^option\s+[a-d1-4]$`)
)

// IsPlaceholderOption détecte une option générique. L'étiquette "A)" ou "A." demandée
// au modèle est retirée avant l'examen: seul le texte restant compte. Il est générique
// s'il est vide ou trop court (3 caractères au plus), "...", "placeholder" ou "Option X".
func IsPlaceholderOption(option string) bool {
	clean := strings.TrimSpace(option)
	clean = strings.ToLower(strings.TrimSpace(optionLabel.ReplaceAllString(clean, "")))
	if len([]rune(clean)) <= 3 {
		return true
	}
	if strings.Trim(clean, ".… ") == "" || clean == "placeholder" {
		return true
	}
	return genericOption.MatchString(clean)
}

// ValidQuestion indique si un QCM porte de vraies options et un énoncé suffisant
func ValidQuestion(item models.AssessmentItem) bool {
	if len(item.Options) == 0 {
		return false
	}
	placeholders := 0
	for _, opt := range item.Options {
		if IsPlaceholderOption(opt) {
			placeholders++
		}
	}
	if placeholders == len(item.Options) {
		return false
	}
	return len([]rune(strings.TrimSpace(item.Question))) > minQuestionText
}

// GenerateAssessment produit l'évaluation d'une leçon selon le profil. Si aucun QCM
// valide n'est obtenu après une nouvelle tentative, une question déterministe est émise.
// Le profil de base relance une fois pour compléter ses quatre QCM.
func (g *Generator) GenerateAssessment(ctx context.Context, profile QuizProfile, title string, content *models.LessonContent, source string) (models.Assessment, error) {
	prompt := quizPrompt(profile, title, content, source)
	required := 0
	if profile == QuizBasic {
		required = basicMCQs
	}

	var valid, shortAnswers models.Assessment
	seen := make(map[string]bool)
	for attempt := 1; attempt <= quizAttempts; attempt++ {
		response, err := g.complete(ctx, "assessment", prompt, quizOptions)
		if err != nil {
			return nil, err
		}

		obj, err := ExtractJSON(response)
		if err != nil {
			g.log.Warnf("Generator.GenerateAssessment: %q attempt %d: %v", title, attempt, err)
			continue
		}

		questions, short := parseAssessment(obj)
		for _, q := range questions {
			if !ValidQuestion(q) {
				g.log.Debugf("Generator.GenerateAssessment: skipping placeholder question %q", truncateRunes(q.Question, 50))
				continue
			}
			key := strings.ToLower(q.Question)
			if seen[key] {
				continue
			}
			seen[key] = true
			valid = append(valid, q)
		}
		shortAnswers = append(shortAnswers, short...)

		if len(valid) == 0 {
			g.log.Warnf("Generator.GenerateAssessment: %q attempt %d: no valid questions", title, attempt)
			continue
		}
		if len(valid) < required && attempt < quizAttempts {
			g.log.Infof("Generator.GenerateAssessment: %q has %d/%d questions, asking again", title, len(valid), required)
			continue
		}
		return shapeAssessment(profile, valid, shortAnswers), nil
	}

	if len(valid) > 0 {
		return shapeAssessment(profile, valid, shortAnswers), nil
	}
	g.log.Infof("Generator.GenerateAssessment: using fallback quiz for %q", title)
	return FallbackAssessment(title), nil
}

// parseAssessment sépare QCM et questions à réponse libre. Les réponses libres
// peuvent arriver dans "short_answer" ou mêlées aux questions.
func parseAssessment(obj map[string]interface{}) (models.Assessment, models.Assessment) {
	var questions, shortAnswers models.Assessment
	decode := func(raw interface{}) (models.AssessmentItem, bool) {
		var item models.AssessmentItem
		if err := remarshal(raw, &item); err != nil {
			return item, false
		}
		item.Question = strings.TrimSpace(item.Question)
		return item, item.Question != ""
	}

	for _, raw := range interfaceSlice(obj["questions"]) {
		item, ok := decode(raw)
		if !ok {
			continue
		}
		if item.Type == models.ItemShortAnswer {
			shortAnswers = append(shortAnswers, item)
			continue
		}
		item.Type = models.ItemMCQ
		questions = append(questions, item)
	}
	for _, raw := range interfaceSlice(obj["short_answer"]) {
		if item, ok := decode(raw); ok {
			item.Type = models.ItemShortAnswer
			item.Options = nil
			shortAnswers = append(shortAnswers, item)
		}
	}
	return questions, shortAnswers
}

// shapeAssessment applique les tailles du profil et numérote les questions
func shapeAssessment(profile QuizProfile, questions, shortAnswers models.Assessment) models.Assessment {
	maxMCQ, maxShort := fullMCQs, fullShortAnswers
	if profile == QuizBasic {
		maxMCQ, maxShort = basicMCQs, 0
	}
	if len(questions) > maxMCQ {
		questions = questions[:maxMCQ]
	}
	if len(shortAnswers) > maxShort {
		shortAnswers = shortAnswers[:maxShort]
	}

	out := make(models.Assessment, 0, len(questions)+len(shortAnswers))
	for i, q := range questions {
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			q.CorrectAnswer = 0
		}
		if q.Difficulty < 1 || q.Difficulty > 4 {
			q.Difficulty = difficultyFor(q.QuestionType)
		}
		out = append(out, q)
	}
	for i, sa := range shortAnswers {
		if sa.ID == "" {
			sa.ID = fmt.Sprintf("sa%d", i+1)
		}
		out = append(out, sa)
	}
	return out
}

func difficultyFor(kind models.QuestionType) int {
	switch kind {
	case models.QuestionUnderstand:
		return 2
	case models.QuestionApply:
		return 3
	case models.QuestionAnalyze:
		return 4
	default:
		return 1
	}
}

// FallbackAssessment retourne l'unique question de repli référençant le titre de la leçon
func FallbackAssessment(title string) models.Assessment {
	subject := "this topic"
	if words := strings.Fields(title); len(words) > 0 {
		subject = words[0]
	}
	return models.Assessment{{
		Type:     models.ItemMCQ,
		ID:       "q1",
		Question: fmt.Sprintf("What is the main focus of the lesson '%s'?", title),
		Options: models.OptionList{
			"A) Understanding the core concepts of " + subject,
			"B) Learning unrelated historical facts",
			"C) Practicing advanced mathematics only",
			"D) None of the above",
		},
		CorrectAnswer: 0,
		Difficulty:    1,
		QuestionType:  models.QuestionRecall,
		Explanation:   fmt.Sprintf("This lesson focuses on %s, covering its key concepts and applications.", title),
	}}
}
