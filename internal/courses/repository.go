package courses

import (
	"context"
	"errors"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/jobs"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Course, error)
	GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
}

type courseRepository struct {
	db   *gorm.DB
	caps jobs.Capabilities
}

func NewCourseRepository(db *gorm.DB, caps jobs.Capabilities) CourseRepository {
	return &courseRepository{db: db, caps: caps}
}

// Create insère le cours, ses chapitres et ses leçons dans une seule transaction.
// Le job est verrouillé le temps de l'insertion; s'il a disparu, jobs.ErrJobNotFound est renvoyé.
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.Job
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").
			Where("id = ?", course.JobID).
			Take(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jobs.ErrJobNotFound
		}
		if err != nil {
			return err
		}

		query := tx
		if !r.caps.QualityFields {
			query = query.Omit("quality_mode", "quality_scores")
		}
		return query.Create(course).Error
	})
}

func (r *courseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByJobID retourne le cours le plus récent produit par un job
func (r *courseRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Course, error) {
	return r.first(ctx, "job_id = ?", jobID)
}

func (r *courseRepository) first(ctx context.Context, query string, arg interface{}) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Chapters.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where(query, arg).
		Order("created_at DESC").
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}
