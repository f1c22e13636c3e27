package courses

import (
	"context"
	"testing"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/config"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/database"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/jobs"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/pipeline"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, caps jobs.Capabilities) (CourseService, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", URL: "file::memory:"}, "error")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewCourseService(NewCourseRepository(db.DB, caps), nil), db.DB
}

// storedJob enregistre un job auquel rattacher les cours
func storedJob(t *testing.T, db *gorm.DB) *models.Job {
	t.Helper()
	job := sampleJob()
	require.NoError(t, db.Create(job).Error)
	return job
}

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Overview: models.Overview{
			Title:      "Practical Go",
			MainThemes: []string{"Concurrency", "Testing", "Tooling", "Profiling"},
		},
		Quality: pipeline.NewVerdict(8, 8, 7, "Concrete examples"),
		Structure: &models.CourseStructure{Chapters: []models.ChapterPlan{
			{
				Title:       "Goroutines",
				Description: "Running things concurrently",
				Lessons: []models.LessonPlan{
					{
						Title:              "Starting goroutines",
						SourceChunkIndices: []int{1, 0},
						Content:            &models.LessonContent{Introduction: "Intro", Explanation: "Body", Summary: "Sum"},
						Quiz: models.Assessment{{
							Type:          models.ItemMCQ,
							ID:            "q1",
							Question:      "What starts a goroutine?",
							Options:       models.OptionList{"go", "run", "spawn", "start"},
							CorrectAnswer: 0,
						}},
					},
					{Title: "Channels", SourceChunkIndices: []int{1}},
				},
			},
			{Title: "Testing", Lessons: []models.LessonPlan{{Title: "Table tests", SourceChunkIndices: []int{2}}}},
		}},
		Sections: 3,
	}
}

func sampleJob() *models.Job {
	return &models.Job{ID: uuid.New(), OwnerID: "owner-1", Title: "The Go Book"}
}

func TestDescription(t *testing.T) {
	assert.Equal(t,
		"A course generated from The Go Book. Main themes: Concurrency, Testing, Tooling",
		Description("The Go Book", []string{"Concurrency", "Testing", "Tooling", "Profiling"}))
	assert.Equal(t, "A course generated from Notes. Main themes: ", Description("Notes", nil))
}

func TestSaveAndGetCourse(t *testing.T) {
	service, db := newTestService(t, jobs.DefaultCapabilities())
	ctx := context.Background()
	job := storedJob(t, db)

	saved, err := service.SaveCourse(ctx, job, sampleResult())
	require.NoError(t, err)

	course, err := service.GetCourse(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Practical Go", course.Title)
	assert.Equal(t, job.ID, course.JobID)
	assert.Equal(t, "A course generated from The Go Book. Main themes: Concurrency, Testing, Tooling", course.Description)
	assert.Equal(t, "PRESERVE", course.QualityMode)
	assert.NotEmpty(t, course.QualityScores)

	require.Len(t, course.Chapters, 2)
	assert.Equal(t, "Goroutines", course.Chapters[0].Title)
	assert.Equal(t, 0, course.Chapters[0].Order)
	assert.Equal(t, []int{0, 1}, []int(course.Chapters[0].SourceSections))
	require.Len(t, course.Chapters[0].Lessons, 2)
	assert.Equal(t, "Starting goroutines", course.Chapters[0].Lessons[0].Title)
	assert.Equal(t, 1, course.Chapters[0].Lessons[1].Order)
	assert.Len(t, course.Structure.Data().Chapters, 2)

	lessonID := course.Chapters[0].Lessons[0].ID
	lesson, err := service.GetLesson(ctx, lessonID)
	require.NoError(t, err)
	assert.Equal(t, "Body", lesson.Content.Data().Explanation)
	require.Len(t, lesson.Quiz.Data(), 1)
	assert.Equal(t, "q1", lesson.Quiz.Data()[0].ID)

	// Une leçon sans contenu est enregistrée avec un quiz vide
	empty, err := service.GetLesson(ctx, course.Chapters[0].Lessons[1].ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Quiz.Data())

	byJob, err := service.GetCourseByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byJob.ID)

	resp := course.ToResponse()
	assert.Equal(t, 2, resp.ChaptersCount)
	assert.Equal(t, 3, resp.LessonsCount)
}

func TestSaveCourseWithoutQualityFields(t *testing.T) {
	service, db := newTestService(t, jobs.Capabilities{})
	ctx := context.Background()

	saved, err := service.SaveCourse(ctx, storedJob(t, db), sampleResult())
	require.NoError(t, err)

	course, err := service.GetCourse(ctx, saved.ID)
	require.NoError(t, err)
	assert.Empty(t, course.QualityMode)
	assert.Len(t, course.Chapters, 2)
}

func TestSaveCourseFallsBackToJobTitle(t *testing.T) {
	result := sampleResult()
	result.Overview.Title = "  "
	result.Structure = nil

	course := BuildCourse(sampleJob(), result)
	assert.Equal(t, "The Go Book", course.Title)
	assert.Empty(t, course.Chapters)
}

func TestSaveCourseForDeletedJob(t *testing.T) {
	service, db := newTestService(t, jobs.DefaultCapabilities())
	ctx := context.Background()

	_, err := service.SaveCourse(ctx, sampleJob(), sampleResult())
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Course{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeletingJobRemovesCourse(t *testing.T) {
	service, db := newTestService(t, jobs.DefaultCapabilities())
	ctx := context.Background()
	job := storedJob(t, db)

	saved, err := service.SaveCourse(ctx, job, sampleResult())
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.Job{}, "id = ?", job.ID).Error)

	_, err = service.GetCourse(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = service.GetLesson(ctx, saved.Chapters[0].Lessons[0].ID)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestGetMissing(t *testing.T) {
	service, _ := newTestService(t, jobs.DefaultCapabilities())
	ctx := context.Background()

	_, err := service.GetCourse(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = service.GetLesson(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrLessonNotFound)
}
