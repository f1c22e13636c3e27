package api

import (
	"errors"
	"net/http"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/courses"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handlers) respondCourseError(c *gin.Context, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, courses.ErrCourseNotFound):
		respondError(c, http.StatusNotFound, "Course not found", nil)
	case errors.Is(err, courses.ErrLessonNotFound):
		respondError(c, http.StatusNotFound, "Lesson not found", nil)
	default:
		h.log.Errorf("Handlers: Course request for %s failed: %v", id, err)
		respondError(c, http.StatusInternalServerError, "Internal error", err)
	}
}

// GetCourse godoc
// @Summary Get a course
// @Description Returns a generated course with its chapters and lesson titles
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.CourseResponse
// @Failure 400 {object} models.ErrorResponse "Invalid course ID"
// @Failure 404 {object} models.ErrorResponse "Course not found"
// @Router /api/v1/courses/{id} [get]
func (h *Handlers) GetCourse(c *gin.Context) {
	courseID := c.MustGet(validation.ValidatedCourseIDKey).(uuid.UUID)

	course, err := h.services.Courses.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		h.respondCourseError(c, courseID, err)
		return
	}
	c.JSON(http.StatusOK, course.ToResponse())
}

// GetJobCourse godoc
// @Summary Get the course generated by a job
// @Tags Courses
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.CourseResponse
// @Failure 404 {object} models.ErrorResponse "Course not found"
// @Router /api/v1/jobs/{id}/course [get]
func (h *Handlers) GetJobCourse(c *gin.Context) {
	jobID := c.MustGet(validation.ValidatedJobIDKey).(uuid.UUID)

	course, err := h.services.Courses.GetCourseByJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondCourseError(c, jobID, err)
		return
	}
	c.JSON(http.StatusOK, course.ToResponse())
}

// GetLesson godoc
// @Summary Get a lesson
// @Description Returns the lesson content and its quiz
// @Tags Courses
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} models.LessonResponse
// @Failure 400 {object} models.ErrorResponse "Invalid lesson ID"
// @Failure 404 {object} models.ErrorResponse "Lesson not found"
// @Router /api/v1/lessons/{id} [get]
func (h *Handlers) GetLesson(c *gin.Context) {
	lessonID := c.MustGet(validation.ValidatedLessonIDKey).(uuid.UUID)

	lesson, err := h.services.Courses.GetLesson(c.Request.Context(), lessonID)
	if err != nil {
		h.respondCourseError(c, lessonID, err)
		return
	}
	c.JSON(http.StatusOK, lesson.ToResponse())
}
