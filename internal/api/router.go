package api

import (
	"context"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/courses"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/jobs"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/progress"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/storage"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/structure"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/validation"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// uploadRequestsPerMinute borne les téléversements par client
const uploadRequestsPerMinute = 30

// OutlineExtractor retrouve le plan d'un document stocké
type OutlineExtractor interface {
	Extract(ctx context.Context, data []byte) (structure.Result, error)
}

// SchedulerControl est la partie du scheduler exposée à l'API
type SchedulerControl interface {
	Wake()
	GetStats(ctx context.Context) models.SchedulerStats
}

// Services regroupe les dépendances des handlers
type Services struct {
	Jobs      jobs.JobService
	Courses   courses.CourseService
	Storage   *storage.StorageService
	Extractor OutlineExtractor
	Scheduler SchedulerControl
	Hub       *progress.Hub
}

// RouterConfig contient les réglages HTTP
type RouterConfig struct {
	Environment   string
	Version       string
	MaxUploadSize int64
}

func SetupRouter(services Services, cfg RouterConfig, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.Nop()
	}

	r := gin.Default()
	r.Use(otelgin.Middleware("ocf-coursegen"))
	r.Use(SecurityHeadersMiddleware(cfg.Environment))
	r.Use(ValidationErrorLogger())

	validationConfig := validation.DefaultValidationConfig()
	if cfg.MaxUploadSize > 0 {
		validationConfig.MaxFileSize = cfg.MaxUploadSize
	}
	r.Use(ValidationMiddleware(validation.NewAPIValidator(validationConfig)))
	r.MaxMultipartMemory = validationConfig.MaxFileSize

	handlers := NewHandlers(services, cfg, log)

	r.GET("/health", handlers.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/upload", RateLimitMiddleware(uploadRequestsPerMinute), handlers.Upload)

		jobsGroup := api.Group("/jobs")
		{
			jobsGroup.GET("",
				validation.ValidateRequest(validation.ValidateListJobsParams),
				handlers.ListJobs)
			jobsGroup.GET("/:id",
				validation.ValidateRequest(validation.ValidateJobIDParam("id")),
				handlers.GetJob)
			jobsGroup.GET("/:id/outline",
				validation.ValidateRequest(validation.ValidateJobIDParam("id")),
				handlers.GetOutline)
			jobsGroup.POST("/:id/process",
				validation.ValidateRequest(validation.ValidateJobIDParam("id")),
				validation.ParseProcessRequest(),
				validation.ValidateRequest(validation.ValidateProcessRequest),
				handlers.ProcessJob)
			jobsGroup.DELETE("/:id",
				validation.ValidateRequest(validation.ValidateJobIDParam("id")),
				handlers.DeleteJob)
			jobsGroup.GET("/:id/progress",
				validation.ValidateRequest(validation.ValidateJobIDParam("id")),
				handlers.StreamProgress)
			jobsGroup.GET("/:id/course",
				validation.ValidateRequest(validation.ValidateJobIDParam("id")),
				handlers.GetJobCourse)
		}

		api.GET("/courses/:id",
			validation.ValidateRequest(validation.ValidateCourseIDParam("id")),
			handlers.GetCourse)
		api.GET("/courses/:id/archive",
			validation.ValidateRequest(validation.ValidateCourseIDParam("id"), ValidateArchiveParams),
			handlers.DownloadCourseArchive)
		api.GET("/lessons/:id",
			validation.ValidateRequest(validation.ValidateLessonIDParam("id")),
			handlers.GetLesson)

		api.GET("/worker/stats", handlers.GetWorkerStats)
	}

	SetupSwagger(r, cfg.Environment)

	return r
}
