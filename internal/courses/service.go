// Package courses persiste et relit les cours produits par le pipeline
package courses

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/pipeline"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
)

// descriptionThemes est le nombre de thèmes cités dans la description d'un cours
const descriptionThemes = 3

type CourseService interface {
	SaveCourse(ctx context.Context, job *models.Job, result *pipeline.Result) (*models.Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
	GetCourseByJob(ctx context.Context, jobID uuid.UUID) (*models.Course, error)
	GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
}

type courseService struct {
	repo   CourseRepository
	tracer trace.Tracer
	log    *logger.Logger
}

func NewCourseService(repo CourseRepository, log *logger.Logger) CourseService {
	if log == nil {
		log = logger.Nop()
	}
	return &courseService{
		repo:   repo,
		tracer: otel.Tracer("ocf-coursegen/courses"),
		log:    log.Named("courses"),
	}
}

// SaveCourse enregistre le cours, puis un chapitre par entrée du plan et une leçon
// par leçon planifiée, dans l'ordre du plan
func (s *courseService) SaveCourse(ctx context.Context, job *models.Job, result *pipeline.Result) (*models.Course, error) {
	ctx, span := s.tracer.Start(ctx, "CourseService.SaveCourse")
	defer span.End()

	course := BuildCourse(job, result)
	if err := s.repo.Create(ctx, course); err != nil {
		span.RecordError(err)
		s.log.Errorf("CourseService.SaveCourse: Failed to save course for job %s: %v", job.ID, err)
		return nil, fmt.Errorf("failed to save course: %w", err)
	}

	span.SetAttributes(
		attribute.String("course.id", course.ID.String()),
		attribute.Int("course.chapters", len(course.Chapters)),
	)
	s.log.Infof("CourseService.SaveCourse: Course %s saved for job %s (%d chapters)", course.ID, job.ID, len(course.Chapters))
	return course, nil
}

// BuildCourse convertit le résultat du pipeline en enregistrements à persister
func BuildCourse(job *models.Job, result *pipeline.Result) *models.Course {
	structure := models.CourseStructure{Chapters: []models.ChapterPlan{}}
	if result.Structure != nil {
		structure = *result.Structure
	}

	title := strings.TrimSpace(result.Overview.Title)
	if title == "" {
		title = job.Title
	}

	course := &models.Course{
		JobID:         job.ID,
		OwnerID:       job.OwnerID,
		Title:         title,
		Description:   Description(job.Title, result.Overview.MainThemes),
		Structure:     datatypes.NewJSONType(structure),
		QualityMode:   string(result.Quality.Mode),
		QualityScores: result.Quality.ToJSON(),
		Chapters:      make([]models.Chapter, 0, len(structure.Chapters)),
	}

	for chapterOrder, plan := range structure.Chapters {
		chapter := models.Chapter{
			Title:          plan.Title,
			Description:    plan.Description,
			Order:          chapterOrder,
			SourceSections: datatypes.NewJSONSlice(sourceSections(plan)),
			Lessons:        make([]models.Lesson, 0, len(plan.Lessons)),
		}
		for lessonOrder, lesson := range plan.Lessons {
			content := models.LessonContent{}
			if lesson.Content != nil {
				content = *lesson.Content
			}
			quiz := lesson.Quiz
			if quiz == nil {
				quiz = models.Assessment{}
			}
			chapter.Lessons = append(chapter.Lessons, models.Lesson{
				Title:   lesson.Title,
				Order:   lessonOrder,
				Content: datatypes.NewJSONType(content),
				Quiz:    datatypes.NewJSONType(quiz),
			})
		}
		course.Chapters = append(course.Chapters, chapter)
	}
	return course
}

// Description résume le cours à partir du titre du document et de ses premiers thèmes
func Description(title string, themes []string) string {
	if len(themes) > descriptionThemes {
		themes = themes[:descriptionThemes]
	}
	return fmt.Sprintf("A course generated from %s. Main themes: %s", title, strings.Join(themes, ", "))
}

// sourceSections retourne les indices de sections utilisés par les leçons d'un chapitre
func sourceSections(plan models.ChapterPlan) []int {
	seen := make(map[int]bool)
	out := []int{}
	for _, lesson := range plan.Lessons {
		for _, idx := range lesson.SourceChunkIndices {
			if !seen[idx] {
				seen[idx] = true
				out = append(out, idx)
			}
		}
	}
	sort.Ints(out)
	return out
}

func (s *courseService) GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	ctx, span := s.tracer.Start(ctx, "CourseService.GetCourse")
	defer span.End()

	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrCourseNotFound) {
			span.RecordError(err)
		}
		return nil, fmt.Errorf("failed to get course %s: %w", id, err)
	}
	return course, nil
}

func (s *courseService) GetCourseByJob(ctx context.Context, jobID uuid.UUID) (*models.Course, error) {
	ctx, span := s.tracer.Start(ctx, "CourseService.GetCourseByJob")
	defer span.End()

	course, err := s.repo.GetByJobID(ctx, jobID)
	if err != nil {
		if !errors.Is(err, ErrCourseNotFound) {
			span.RecordError(err)
		}
		return nil, fmt.Errorf("failed to get course for job %s: %w", jobID, err)
	}
	return course, nil
}

func (s *courseService) GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	ctx, span := s.tracer.Start(ctx, "CourseService.GetLesson")
	defer span.End()

	lesson, err := s.repo.GetLesson(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrLessonNotFound) {
			span.RecordError(err)
		}
		return nil, fmt.Errorf("failed to get lesson %s: %w", id, err)
	}
	return lesson, nil
}
