package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base replaces gorm.Model with a string key so IDs can be uuids or any
// caller-chosen stable identifier.
type Base struct {
	ID        string         `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

type CourseStatus string

const (
	CourseDraft     CourseStatus = "DRAFT"
	CoursePublished CourseStatus = "PUBLISHED"
	CourseArchived  CourseStatus = "ARCHIVED"
)

// Course represents a learning course
type Course struct {
	Base
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      CourseStatus `json:"status" gorm:"size:16;default:'DRAFT'"`
	Modules     []Module     `json:"modules,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (c *Course) FindModule(id string) *Module {
	for i := range c.Modules {
		if c.Modules[i].ID == id {
			return &c.Modules[i]
		}
	}
	return nil
}

func (c *Course) FindTopic(id string) *Topic {
	for i := range c.Modules {
		for j := range c.Modules[i].Topics {
			if c.Modules[i].Topics[j].ID == id {
				return &c.Modules[i].Topics[j]
			}
		}
	}
	return nil
}

// All lists every entity for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Course{},
		&Module{},
		&Topic{},
		&Quiz{},
		&Question{},
		&Option{},
		&QuizAttempt{},
		&Answer{},
		&Enrollment{},
		&TopicProgress{},
		&ModuleProgress{},
		&Certificate{},
	}
}
