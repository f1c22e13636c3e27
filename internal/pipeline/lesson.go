package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

const lessonKeyPoints = 3

// GenerateLesson rédige le contenu d'une leçon dans le mode demandé. Deux tentatives
// au plus, puis un contenu déterministe construit à partir du titre et des sujets.
func (g *Generator) GenerateLesson(ctx context.Context, mode models.GenerationMode, plan models.LessonPlan, source string) (*models.LessonContent, error) {
	prompt := lessonPrompt(mode, plan.Title, plan.TopicsToCover, source)

	for attempt := 1; attempt <= lessonAttempts; attempt++ {
		response, err := g.complete(ctx, "lesson", prompt, lessonOptions)
		if err != nil {
			return nil, err
		}

		obj, err := ExtractJSON(response)
		if err != nil {
			g.log.Warnf("Generator.GenerateLesson: %q attempt %d: %v", plan.Title, attempt, err)
			continue
		}

		content := RepairContent(obj, plan.Title, plan.TopicsToCover)
		if content.Explanation == "" {
			g.log.Warnf("Generator.GenerateLesson: %q attempt %d: empty explanation", plan.Title, attempt)
			continue
		}
		return content, nil
	}

	g.log.Infof("Generator.GenerateLesson: using fallback content for %q", plan.Title)
	return FallbackLesson(mode, plan.Title, plan.TopicsToCover, source), nil
}

// RepairContent normalise l'objet renvoyé par le modèle en contenu de leçon.
// Une explication contenant elle-même l'objet JSON attendu est dépliée: ses clés
// complètent les champs vides et son explication, si elle existe, remplace la chaîne
// d'origine. Sans explication imbriquée, le texte est reconstruit depuis ses points clés.
func RepairContent(obj map[string]interface{}, title string, topics []string) *models.LessonContent {
	if explanation, ok := obj["explanation"].(string); ok && strings.HasPrefix(strings.TrimSpace(explanation), "{") {
		if nested, ok := parseObject(strings.TrimSpace(explanation)); ok {
			merged := make(map[string]interface{}, len(obj)+len(nested))
			for k, v := range obj {
				merged[k] = v
			}
			for k, v := range nested {
				if k == "explanation" || isEmptyValue(merged[k]) {
					merged[k] = v
				}
			}
			if _, has := nested["explanation"]; !has {
				if rebuilt := explanationFrom(nested); rebuilt != "" {
					merged["explanation"] = rebuilt
				}
			}
			obj = merged
		}
	}

	content := &models.LessonContent{
		Introduction:    stringValue(obj["introduction"]),
		Explanation:     stringValue(obj["explanation"]),
		KeyConcepts:     interfaceSlice(obj["key_concepts"]),
		Examples:        interfaceSlice(obj["examples"]),
		CommonMistakes:  interfaceSlice(obj["common_mistakes"]),
		ActionableSteps: interfaceSlice(obj["actionable_steps"]),
		KeyPoints:       keyPoints(obj["keyPoints"]),
		Summary:         stringValue(obj["summary"]),
		BeforeYouMoveOn: stringSlice(obj["before_you_move_on"]),
	}
	if content.Examples == nil {
		content.Examples = []interface{}{}
	}

	if len(content.KeyPoints) == 0 {
		for _, topic := range firstN(topics, lessonKeyPoints) {
			content.KeyPoints = append(content.KeyPoints, models.KeyPoint{
				Title:       "Understanding " + topic,
				Description: "Core concepts related to " + topic,
			})
		}
	}
	for i := range content.KeyPoints {
		if content.KeyPoints[i].Description == "" {
			content.KeyPoints[i].Description = fmt.Sprintf(
				"Understanding %s is essential for mastering this topic. This concept builds on the foundations covered in the lesson.",
				content.KeyPoints[i].Title)
		}
	}

	if content.Introduction == "" || content.Introduction == fmt.Sprintf("In this lesson, we'll explore %s.", title) {
		focus := "key concepts"
		if len(topics) > 0 {
			focus = strings.Join(firstN(topics, 2), ", ")
		}
		content.Introduction = fmt.Sprintf(
			"This lesson covers %s, focusing on %s. Understanding these fundamentals is essential for building a strong foundation.",
			title, focus)
	}
	if content.Summary == "" || content.Summary == fmt.Sprintf("This lesson covered the key aspects of %s.", title) {
		content.Summary = fmt.Sprintf(
			"In this lesson, we explored %s. The key concepts covered will help you understand and apply these principles in practice.",
			title)
	}
	return content
}

func explanationFrom(nested map[string]interface{}) string {
	var parts []string
	for _, kp := range keyPoints(nested["keyPoints"]) {
		switch {
		case kp.Title != "" && kp.Description != "":
			parts = append(parts, kp.Title+": "+kp.Description)
		case kp.Description != "":
			parts = append(parts, kp.Description)
		default:
			parts = append(parts, kp.Title)
		}
	}
	if len(parts) == 0 {
		return stringValue(nested["introduction"])
	}
	return strings.Join(parts, "\n\n")
}

// keyPoints décode chaque élément avec les règles tolérantes de models.KeyPoint
// et écarte ceux qui n'ont ni titre ni description
func keyPoints(v interface{}) []models.KeyPoint {
	var out []models.KeyPoint
	for _, item := range interfaceSlice(v) {
		var kp models.KeyPoint
		if err := remarshal(item, &kp); err != nil {
			continue
		}
		if kp.Title == "" && kp.Description == "" {
			continue
		}
		out = append(out, kp)
	}
	return out
}

// FallbackLesson construit un contenu de leçon sans appel au modèle
func FallbackLesson(mode models.GenerationMode, title string, topics []string, source string) *models.LessonContent {
	covered := firstN(topics, lessonKeyPoints)
	excerpt := truncateRunes(source, fallbackSourceSize)

	if mode == models.ModePreserve {
		focus := "essential concepts"
		if len(topics) > 0 {
			focus = strings.Join(firstN(topics, 2), ", ")
		}
		if excerpt == "" {
			excerpt = "The material covers foundational principles that build upon each other."
		}
		content := &models.LessonContent{
			Introduction: fmt.Sprintf("This lesson covers %s, focusing on %s. Understanding these fundamentals is crucial for your learning journey.", title, focus),
			Explanation:  fmt.Sprintf("In studying %s, we explore several important concepts. %s", title, excerpt),
			KeyConcepts:  []interface{}{},
			Examples:     []interface{}{},
			Summary:      fmt.Sprintf("This lesson covered the essential aspects of %s. Review the key concepts and ensure you understand how they connect.", title),
		}
		for _, topic := range covered {
			content.KeyConcepts = append(content.KeyConcepts, map[string]interface{}{
				"term":       topic,
				"definition": "A fundamental concept in " + title,
			})
			content.KeyPoints = append(content.KeyPoints, models.KeyPoint{
				Title:       "Understanding " + topic,
				Description: "Master the core principles of " + topic,
			})
			content.BeforeYouMoveOn = append(content.BeforeYouMoveOn, "Make sure you understand "+topic)
		}
		return content
	}

	subject := title
	practice := "the concepts"
	if len(topics) > 0 {
		subject = topics[0]
		practice = topics[0]
	}
	if excerpt == "" {
		excerpt = "This topic encompasses several key principles that work together."
	}
	content := &models.LessonContent{
		Introduction: fmt.Sprintf("This lesson covers %s, an important topic that will help you develop practical skills. Understanding these concepts is essential for real-world applications.", title),
		Explanation:  fmt.Sprintf("Let's dive into %s. %s", title, excerpt),
		KeyConcepts:  []interface{}{},
		Examples: []interface{}{
			map[string]interface{}{"title": "Applying " + subject, "content": "Consider how this applies in practice..."},
		},
		CommonMistakes: []interface{}{
			map[string]interface{}{
				"mistake":    "Rushing without understanding fundamentals",
				"correction": "Take time to understand each concept before moving on",
			},
		},
		ActionableSteps: []interface{}{
			map[string]interface{}{"step": "Practice " + practice, "details": "Work through examples to reinforce your understanding"},
		},
		Summary: fmt.Sprintf("This lesson covered %s. Apply what you've learned through practice and review.", title),
	}
	for _, topic := range covered {
		content.KeyConcepts = append(content.KeyConcepts, map[string]interface{}{
			"term":       topic,
			"definition": fmt.Sprintf("A core concept in %s that you need to master", title),
		})
		content.KeyPoints = append(content.KeyPoints, models.KeyPoint{
			Title:       "Master " + topic,
			Description: fmt.Sprintf("Understanding %s is crucial for applying these concepts", topic),
		})
		content.BeforeYouMoveOn = append(content.BeforeYouMoveOn, "Verify you understand "+topic)
	}
	return content
}
