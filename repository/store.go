// Package repository is the persistence port of the learning core and its
// gorm implementation. Every method takes an optional tx; nil means the
// store's own connection.
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	courseModels "coursehub/models/course"
)

type Store interface {
	// Transaction runs fn inside one database transaction.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	LoadCourseOutline(ctx context.Context, tx *gorm.DB, courseID string) (*courseModels.Course, error)
	LoadModule(ctx context.Context, tx *gorm.DB, moduleID string) (*courseModels.Module, error)
	LoadTopic(ctx context.Context, tx *gorm.DB, topicID string) (*courseModels.Topic, error)
	LoadQuizWithQuestions(ctx context.Context, tx *gorm.DB, quizID string) (*courseModels.Quiz, []courseModels.Question, error)

	LoadPriorAttempts(ctx context.Context, tx *gorm.DB, userID, quizID string) ([]courseModels.QuizAttempt, error)
	SaveAttempt(ctx context.Context, tx *gorm.DB, attempt *courseModels.QuizAttempt) error
	BestScores(ctx context.Context, tx *gorm.DB, userID, courseID string) (map[string]int, error)

	LoadEnrollment(ctx context.Context, tx *gorm.DB, userID, courseID string) (*courseModels.Enrollment, error)
	SaveEnrollment(ctx context.Context, tx *gorm.DB, enrollment *courseModels.Enrollment) error
	// MarkEnrollmentCompleted flips the enrollment to COMPLETED only if it is
	// not already; the bool reports whether this call made the transition.
	MarkEnrollmentCompleted(ctx context.Context, tx *gorm.DB, enrollmentID string, at time.Time) (bool, error)
	ListEnrollmentsAccessedSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]courseModels.Enrollment, error)

	LoadTopicProgress(ctx context.Context, tx *gorm.DB, userID, courseID string) ([]courseModels.TopicProgress, error)
	LoadModuleProgress(ctx context.Context, tx *gorm.DB, userID, courseID string) ([]courseModels.ModuleProgress, error)
	SaveTopicProgress(ctx context.Context, tx *gorm.DB, row *courseModels.TopicProgress) error
	// MarkTopicCompleted is the conditional COMPLETED transition for a topic.
	MarkTopicCompleted(ctx context.Context, tx *gorm.DB, row *courseModels.TopicProgress, at time.Time) (bool, error)
	SaveModuleProgress(ctx context.Context, tx *gorm.DB, row *courseModels.ModuleProgress) error

	CreateCertificate(ctx context.Context, tx *gorm.DB, cert *courseModels.Certificate) error
	LoadCertificate(ctx context.Context, tx *gorm.DB, userID, courseID string) (*courseModels.Certificate, error)

	SetCourseStatus(ctx context.Context, tx *gorm.DB, courseID string, status courseModels.CourseStatus) error
	SetModulePrerequisite(ctx context.Context, tx *gorm.DB, moduleID string, prereqID *string) error
	SetTopicPrerequisite(ctx context.Context, tx *gorm.DB, topicID string, prereqID *string) error
}
