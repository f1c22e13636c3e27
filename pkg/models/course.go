package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course est le cours généré à partir d'un job
type Course struct {
	ID            uuid.UUID                           `json:"id" gorm:"type:uuid;primary_key"`
	JobID         uuid.UUID                           `json:"book_id" gorm:"type:uuid;not null;index"`
	OwnerID       string                              `json:"owner_id" gorm:"type:varchar(64);not null;index"`
	Title         string                              `json:"title" gorm:"type:text;not null"`
	Description   string                              `json:"description" gorm:"type:text"`
	Structure     datatypes.JSONType[CourseStructure] `json:"structure_json"`
	QualityMode   string                              `json:"quality_mode,omitempty" gorm:"type:varchar(10)"`
	QualityScores JSON                                `json:"quality_scores,omitempty" gorm:"type:jsonb"`
	Chapters      []Chapter                           `json:"chapters,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Job           *Job                                `json:"-" gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time                           `json:"created_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Chapter regroupe des leçons dans un cours
type Chapter struct {
	ID             uuid.UUID                `json:"id" gorm:"type:uuid;primary_key"`
	CourseID       uuid.UUID                `json:"course_id" gorm:"type:uuid;not null;index"`
	Title          string                   `json:"title" gorm:"type:text;not null"`
	Description    string                   `json:"description" gorm:"type:text"`
	Order          int                      `json:"order" gorm:"column:order_index;not null"`
	SourceSections datatypes.JSONSlice[int] `json:"source_sections"`
	Lessons        []Lesson                 `json:"lessons,omitempty" gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE"`
}

func (Chapter) TableName() string {
	return "chapters"
}

func (c *Chapter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Lesson contient le contenu et le quiz d'une leçon
type Lesson struct {
	ID        uuid.UUID                         `json:"id" gorm:"type:uuid;primary_key"`
	ChapterID uuid.UUID                         `json:"chapter_id" gorm:"type:uuid;not null;index"`
	Title     string                            `json:"title" gorm:"type:text;not null"`
	Order     int                               `json:"order" gorm:"column:order_index;not null"`
	Content   datatypes.JSONType[LessonContent] `json:"content_json"`
	Quiz      datatypes.JSONType[Assessment]    `json:"quiz_json"`
}

func (Lesson) TableName() string {
	return "lessons"
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// LessonBrief est le résumé d'une leçon dans la vue d'un cours
type LessonBrief struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Order int       `json:"order"`
} // @name LessonBrief

// ChapterResponse est la vue d'un chapitre
type ChapterResponse struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Order       int           `json:"order"`
	Lessons     []LessonBrief `json:"lessons"`
} // @name ChapterResponse

// CourseResponse est la vue d'un cours
// @Description Cours généré avec ses chapitres
type CourseResponse struct {
	ID            uuid.UUID         `json:"id"`
	JobID         uuid.UUID         `json:"book_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	ChaptersCount int               `json:"chapters_count"`
	LessonsCount  int               `json:"lessons_count"`
	QualityMode   string            `json:"quality_mode,omitempty"`
	QualityScores JSON              `json:"quality_scores,omitempty"`
	Chapters      []ChapterResponse `json:"chapters"`
	CreatedAt     time.Time         `json:"created_at"`
} // @name CourseResponse

// ToResponse convertit un Course (chapitres et leçons préchargés) en CourseResponse
func (c *Course) ToResponse() *CourseResponse {
	resp := &CourseResponse{
		ID:            c.ID,
		JobID:         c.JobID,
		Title:         c.Title,
		Description:   c.Description,
		QualityMode:   c.QualityMode,
		QualityScores: c.QualityScores,
		Chapters:      make([]ChapterResponse, 0, len(c.Chapters)),
		CreatedAt:     c.CreatedAt,
	}
	for _, ch := range c.Chapters {
		chapter := ChapterResponse{
			ID:          ch.ID,
			Title:       ch.Title,
			Description: ch.Description,
			Order:       ch.Order,
			Lessons:     make([]LessonBrief, 0, len(ch.Lessons)),
		}
		for _, l := range ch.Lessons {
			chapter.Lessons = append(chapter.Lessons, LessonBrief{ID: l.ID, Title: l.Title, Order: l.Order})
		}
		resp.LessonsCount += len(ch.Lessons)
		resp.Chapters = append(resp.Chapters, chapter)
	}
	resp.ChaptersCount = len(resp.Chapters)
	return resp
}

// LessonResponse est la vue détaillée d'une leçon
// @Description Leçon avec contenu et quiz
type LessonResponse struct {
	ID      uuid.UUID     `json:"id"`
	Title   string        `json:"title"`
	Order   int           `json:"order"`
	Content LessonContent `json:"content"`
	Quiz    Assessment    `json:"quiz"`
} // @name LessonResponse

func (l *Lesson) ToResponse() *LessonResponse {
	return &LessonResponse{
		ID:      l.ID,
		Title:   l.Title,
		Order:   l.Order,
		Content: l.Content.Data(),
		Quiz:    l.Quiz.Data(),
	}
}
