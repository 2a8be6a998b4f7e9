package course

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
	EnrollmentSuspended EnrollmentStatus = "SUSPENDED"
	EnrollmentOnHold    EnrollmentStatus = "ON_HOLD"
)

// Enrollment tracks a user's enrollment in a course with progress.
// OverallProgress is only ever written by the progress aggregator.
type Enrollment struct {
	Base
	UserID          string           `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID        string           `json:"course_id" gorm:"size:64;not null;uniqueIndex:idx_enrollment_user_course"`
	Status          EnrollmentStatus `json:"status" gorm:"size:16;default:'ACTIVE'"`
	OverallProgress int              `json:"overall_progress" gorm:"default:0"` // 0-100
	EnrolledAt      time.Time        `json:"enrolled_at"`
	CompletedAt     *time.Time       `json:"completed_at"`
	LastAccessAt    *time.Time       `json:"last_access_at"`
}

// GrantsAccess is true for enrollments whose student may open content.
func (e *Enrollment) GrantsAccess() bool {
	return e != nil && (e.Status == EnrollmentActive || e.Status == EnrollmentCompleted)
}

type ProgressStatus string

const (
	NotStarted  ProgressStatus = "NOT_STARTED"
	InProgress  ProgressStatus = "IN_PROGRESS"
	Completed   ProgressStatus = "COMPLETED"
	NeedsReview ProgressStatus = "NEEDS_REVIEW"
	Failed      ProgressStatus = "FAILED"
)

// TopicProgress is created lazily on first access
type TopicProgress struct {
	Base
	UserID      string         `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_topic_progress_user_topic"`
	TopicID     string         `json:"topic_id" gorm:"size:64;not null;uniqueIndex:idx_topic_progress_user_topic"`
	ModuleID    string         `json:"module_id" gorm:"size:64;index"`
	CourseID    string         `json:"course_id" gorm:"size:64;index"`
	Status      ProgressStatus `json:"status" gorm:"size:16;default:'NOT_STARTED'"`
	Skipped     bool           `json:"skipped"`
	StartedAt   *time.Time     `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
}

type ModuleProgress struct {
	Base
	UserID      string         `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_module_progress_user_module"`
	ModuleID    string         `json:"module_id" gorm:"size:64;not null;uniqueIndex:idx_module_progress_user_module"`
	CourseID    string         `json:"course_id" gorm:"size:64;index"`
	Status      ProgressStatus `json:"status" gorm:"size:16;default:'NOT_STARTED'"`
	Percent     int            `json:"percent"`
	CompletedAt *time.Time     `json:"completed_at"`
}
