package course

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	MultipleSelect QuestionType = "MULTIPLE_SELECT"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
	LongAnswer     QuestionType = "LONG_ANSWER"
	Matching       QuestionType = "MATCHING"
	Ordering       QuestionType = "ORDERING"
)

// UsesOptions reports whether the question type needs authored options.
// LONG_ANSWER is the only type graded without them.
func (t QuestionType) UsesOptions() bool {
	return t != LongAnswer
}

// Quiz is attached to exactly one topic
type Quiz struct {
	Base
	TopicID          string     `json:"topic_id" gorm:"size:64;uniqueIndex;not null"`
	Title            string     `json:"title"`
	PassingScore     int        `json:"passing_score" gorm:"default:0"`
	MaxAttempts      *int       `json:"max_attempts"` // nil = unlimited
	ShuffleQuestions bool       `json:"shuffle_questions"`
	ShuffleOptions   bool       `json:"shuffle_options"`
	ShowFeedback     bool       `json:"show_feedback"`
	TimeLimit        *int       `json:"time_limit"` // minutes
	Questions        []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

type Question struct {
	Base
	QuizID             string       `json:"quiz_id" gorm:"size:64;index;not null"`
	Prompt             string       `json:"prompt" gorm:"type:text"`
	Explanation        string       `json:"explanation,omitempty" gorm:"type:text"`
	QuestionType       QuestionType `json:"question_type" gorm:"size:24;not null"`
	Points             int          `json:"points" gorm:"default:1"`
	OrderIndex         int          `json:"order_index" gorm:"default:0"`
	AllowPartialCredit bool         `json:"allow_partial_credit"`
	CaseSensitive      bool         `json:"case_sensitive"`
	Options            []Option     `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// Option represents an answer option of a question
type Option struct {
	Base
	QuestionID string `json:"question_id" gorm:"size:64;index;not null"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
}

type AnswerStatus string

const (
	AnswerGraded                AnswerStatus = "GRADED"
	AnswerUnanswered            AnswerStatus = "UNANSWERED"
	AnswerMalformed             AnswerStatus = "MALFORMED"
	AnswerRequiresManualGrading AnswerStatus = "REQUIRES_MANUAL_GRADING"
)

// QuizAttempt is one graded submission. It is written once and never
// updated after CompletedAt is set.
type QuizAttempt struct {
	Base
	UserID           string     `json:"user_id" gorm:"size:64;index:idx_attempt_user_quiz;not null"`
	QuizID           string     `json:"quiz_id" gorm:"size:64;index:idx_attempt_user_quiz;not null"`
	TopicID          string     `json:"topic_id" gorm:"size:64;index"`
	CourseID         string     `json:"course_id" gorm:"size:64;index"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	Score            int        `json:"score"`
	Passed           bool       `json:"passed"`
	QuestionsCorrect int        `json:"questions_correct"`
	QuestionsTotal   int        `json:"questions_total"`
	TimeSpent        int        `json:"time_spent"` // seconds
	IsPractice       bool       `json:"is_practice"`
	NeedsReview      bool       `json:"needs_review"`
	Answers          []Answer   `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

type Answer struct {
	Base
	AttemptID     string                      `json:"attempt_id" gorm:"size:64;index;not null"`
	QuestionID    string                      `json:"question_id" gorm:"size:64;not null"`
	Values        datatypes.JSONSlice[string] `json:"values"`
	IsCorrect     bool                        `json:"is_correct"`
	PointsAwarded float64                     `json:"points_awarded"`
	Status        AnswerStatus                `json:"status" gorm:"size:32"`
}
