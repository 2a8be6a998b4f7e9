package course

type TopicType string

const (
	TopicLesson     TopicType = "LESSON"
	TopicPractice   TopicType = "PRACTICE"
	TopicAssessment TopicType = "ASSESSMENT"
	TopicResource   TopicType = "RESOURCE"
)

// Topic is the atomic unit of content within a module
type Topic struct {
	Base
	ModuleID            string    `json:"module_id" gorm:"size:64;index;not null"`
	CourseID            string    `json:"course_id" gorm:"size:64;index;not null"`
	Title               string    `json:"title"`
	OrderIndex          int       `json:"order_index" gorm:"default:0"`
	Content             string    `json:"content" gorm:"type:text"`
	Duration            int       `json:"duration" gorm:"default:0"` // minutes
	TopicType           TopicType `json:"topic_type" gorm:"size:16;default:'LESSON'"`
	PrerequisiteTopicID *string   `json:"prerequisite_topic_id" gorm:"size:64"`
	IsRequired          bool      `json:"is_required" gorm:"not null"`
	AllowSkip           bool      `json:"allow_skip" gorm:"default:false"`
	Quiz                *Quiz     `json:"quiz,omitempty" gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE"`
}

func (t *Topic) HasQuiz() bool { return t.Quiz != nil }
