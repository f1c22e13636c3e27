package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/llm"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

var tracer = otel.Tracer("ocf-coursegen/pipeline")

// Paramètres d'appel par étape
var (
	summarizeOptions = llm.Options{Temperature: 0.7, MaxTokens: 4096}
	qualityOptions   = llm.Options{Temperature: 0.3, MaxTokens: 1024}
	overviewOptions  = llm.Options{Temperature: 0.7, MaxTokens: 4096}
	structureOptions = llm.Options{Temperature: 0.7, MaxTokens: 8192}
	lessonOptions    = llm.Options{Temperature: 0.7, MaxTokens: 6144}
	quizOptions      = llm.Options{Temperature: 0.7, MaxTokens: 6144}
)

const (
	lessonAttempts = 2
	quizAttempts   = 2

	fallbackChapters       = 5
	fallbackLessonsPerPart = 3
	overviewThemes         = 5
	overviewConcepts       = 10
)

// Generator enchaîne les appels au service de complétion pour chaque étape du pipeline
type Generator struct {
	llm llm.Completer
	log *logger.Logger
}

// NewGenerator crée un générateur au-dessus d'un client de complétion
func NewGenerator(completer llm.Completer, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{llm: completer, log: log.Named("pipeline")}
}

func (g *Generator) complete(ctx context.Context, stage string, prompt string, opts llm.Options) (string, error) {
	ctx, span := tracer.Start(ctx, "pipeline."+stage)
	defer span.End()
	span.SetAttributes(attribute.String("pipeline.stage", stage))

	response, err := g.llm.Complete(ctx, llm.User(prompt), opts)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%s: %w", stage, err)
	}
	return response, nil
}

// Summarize résume un morceau de texte. Une réponse illisible donne un résumé brut.
func (g *Generator) Summarize(ctx context.Context, chunk string) (models.ChunkSummary, error) {
	response, err := g.complete(ctx, "summarize", summarizePrompt(chunk), summarizeOptions)
	if err != nil {
		return models.ChunkSummary{}, err
	}

	obj, err := ExtractJSON(response)
	if err != nil {
		g.log.Warnf("Generator.Summarize: %v, keeping raw response", err)
		return models.ChunkSummary{Topics: []string{}, Concepts: []string{}, Summary: response}, nil
	}

	return models.ChunkSummary{
		Topics:   nonNil(stringSlice(obj["topics"])),
		Concepts: nonNil(stringSlice(obj["concepts"])),
		Summary:  stringValue(obj["summary"]),
	}, nil
}

// DetectQuality note la qualité de la source. La moyenne et le mode sont recalculés
// à partir des sous-scores bornés, quelle que soit la réponse du modèle.
func (g *Generator) DetectQuality(ctx context.Context, summaries []models.ChunkSummary) (models.QualityVerdict, error) {
	joined := make([]string, 0, len(summaries))
	for _, s := range summaries {
		joined = append(joined, s.Summary)
	}
	input := truncateRunes(strings.Join(joined, "\n\n"), qualityInputBudget)

	response, err := g.complete(ctx, "quality", qualityPrompt(input), qualityOptions)
	if err != nil {
		return models.QualityVerdict{}, err
	}

	obj, err := ExtractJSON(response)
	if err != nil {
		g.log.Warnf("Generator.DetectQuality: %v, using neutral verdict", err)
		return neutralVerdict(), nil
	}

	verdict := NewVerdict(
		score(obj["specificity_score"]),
		score(obj["technical_depth_score"]),
		score(obj["actionability_score"]),
		stringValue(obj["reasoning"]),
	)
	if declared := models.GenerationMode(strings.ToUpper(stringValue(obj["mode"]))); declared != "" && declared != verdict.Mode {
		g.log.Debugf("Generator.DetectQuality: model declared %s, average %.2f gives %s", declared, verdict.AverageScore, verdict.Mode)
	}
	return verdict, nil
}

// NewVerdict construit un verdict cohérent: PRESERVE si et seulement si la moyenne atteint le seuil
func NewVerdict(specificity, depth, actionability int, reasoning string) models.QualityVerdict {
	specificity = clampScore(specificity)
	depth = clampScore(depth)
	actionability = clampScore(actionability)
	average := math.Round(float64(specificity+depth+actionability)/3*100) / 100
	return models.QualityVerdict{
		SpecificityScore:    specificity,
		TechnicalDepthScore: depth,
		ActionabilityScore:  actionability,
		AverageScore:        average,
		Mode:                models.ModeForAverage(average),
		Reasoning:           reasoning,
	}
}

func neutralVerdict() models.QualityVerdict {
	return NewVerdict(5, 5, 5, "Could not parse quality detection response")
}

func score(v interface{}) int {
	if f, ok := floatValue(v); ok {
		return int(math.Round(f))
	}
	if n, ok := intValue(v); ok {
		return n
	}
	return 5
}

func clampScore(s int) int {
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

// SynthesizeOverview fusionne sujets et concepts de tous les morceaux en une vue d'ensemble
func (g *Generator) SynthesizeOverview(ctx context.Context, summaries []models.ChunkSummary) (models.Overview, error) {
	var topics, concepts, texts []string
	for i, s := range summaries {
		topics = append(topics, s.Topics...)
		concepts = append(concepts, s.Concepts...)
		texts = append(texts, fmt.Sprintf("Section %d: %s", i+1, s.Summary))
	}
	topics = dedupe(topics)
	concepts = dedupe(concepts)

	fallback := models.Overview{
		Title:              "Course from Book",
		MainThemes:         firstN(topics, overviewThemes),
		KeyConcepts:        firstN(concepts, overviewConcepts),
		TargetAudience:     "General readers",
		LearningObjectives: []string{},
	}

	response, err := g.complete(ctx, "overview", overviewPrompt(strings.Join(texts, "\n\n"), topics, concepts), overviewOptions)
	if err != nil {
		return models.Overview{}, err
	}

	obj, err := ExtractJSON(response)
	if err != nil {
		g.log.Warnf("Generator.SynthesizeOverview: %v, using merged topics", err)
		return fallback, nil
	}

	overview := models.Overview{
		Title:              stringValue(obj["title"]),
		MainThemes:         stringSlice(obj["main_themes"]),
		KeyConcepts:        stringSlice(obj["key_concepts"]),
		TargetAudience:     stringValue(obj["target_audience"]),
		LearningObjectives: nonNil(stringSlice(obj["learning_objectives"])),
	}
	if overview.Title == "" {
		overview.Title = fallback.Title
	}
	if len(overview.MainThemes) == 0 {
		overview.MainThemes = fallback.MainThemes
	}
	if len(overview.KeyConcepts) == 0 {
		overview.KeyConcepts = fallback.KeyConcepts
	}
	if overview.TargetAudience == "" {
		overview.TargetAudience = fallback.TargetAudience
	}
	return overview, nil
}

// SynthesizeStructure demande le plan du cours. Les indices de morceaux hors bornes
// sont écartés; une leçon sans indice valide pointe sur le premier morceau.
func (g *Generator) SynthesizeStructure(ctx context.Context, overview models.Overview, summaries []models.ChunkSummary) (*models.CourseStructure, error) {
	response, err := g.complete(ctx, "structure", structurePrompt(overview, len(summaries)), structureOptions)
	if err != nil {
		return nil, err
	}

	obj, err := ExtractJSON(response)
	if err != nil {
		g.log.Warnf("Generator.SynthesizeStructure: %v, using one chapter per section", err)
		return fallbackStructure(summaries), nil
	}

	structure := parseStructure(obj, len(summaries))
	if structure.LessonCount() == 0 {
		g.log.Warnf("Generator.SynthesizeStructure: reply has no lessons, using one chapter per section")
		return fallbackStructure(summaries), nil
	}
	return structure, nil
}

func parseStructure(obj map[string]interface{}, chunks int) *models.CourseStructure {
	structure := &models.CourseStructure{}
	for _, rawChapter := range interfaceSlice(obj["chapters"]) {
		chapterObj, ok := rawChapter.(map[string]interface{})
		if !ok {
			continue
		}
		chapter := models.ChapterPlan{
			Title:       stringValue(chapterObj["title"]),
			Description: stringValue(chapterObj["description"]),
		}
		for _, rawLesson := range interfaceSlice(chapterObj["lessons"]) {
			lessonObj, ok := rawLesson.(map[string]interface{})
			if !ok {
				continue
			}
			title := stringValue(lessonObj["title"])
			if title == "" {
				continue
			}
			chapter.Lessons = append(chapter.Lessons, models.LessonPlan{
				Title:              title,
				TopicsToCover:      nonNil(stringSlice(lessonObj["topics_to_cover"])),
				SourceChunkIndices: validIndices(intSlice(lessonObj["source_chunk_indices"]), chunks),
			})
		}
		if chapter.Title == "" || len(chapter.Lessons) == 0 {
			continue
		}
		structure.Chapters = append(structure.Chapters, chapter)
	}
	return structure
}

func validIndices(indices []int, chunks int) []int {
	out := make([]int, 0, len(indices))
	seen := map[int]bool{}
	for _, idx := range indices {
		if idx < chunks && !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	if len(out) == 0 && chunks > 0 {
		return []int{0}
	}
	return out
}

// fallbackStructure crée un chapitre par morceau (cinq au plus), chacun avec
// jusqu'à trois leçons tirées des sujets du morceau
func fallbackStructure(summaries []models.ChunkSummary) *models.CourseStructure {
	structure := &models.CourseStructure{}
	for i, s := range summaries {
		if i >= fallbackChapters {
			break
		}
		topics := firstN(s.Topics, fallbackLessonsPerPart)
		if len(topics) == 0 {
			topics = []string{"Main Content"}
		}
		chapter := models.ChapterPlan{
			Title:       fmt.Sprintf("Chapter %d", i+1),
			Description: truncateRunes(s.Summary, 200),
		}
		for _, topic := range topics {
			chapter.Lessons = append(chapter.Lessons, models.LessonPlan{
				Title:              topic,
				TopicsToCover:      []string{topic},
				SourceChunkIndices: []int{i},
			})
		}
		structure.Chapters = append(structure.Chapters, chapter)
	}
	return structure
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
