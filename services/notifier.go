package services

import (
	"context"
	"time"

	courseModels "coursehub/models/course"
)

type CompletionEvent struct {
	UserID            string    `json:"user_id"`
	CourseID          string    `json:"course_id"`
	CourseTitle       string    `json:"course_title"`
	EnrollmentID      string    `json:"enrollment_id"`
	CertificateNumber string    `json:"certificate_number"`
	CompletedAt       time.Time `json:"completed_at"`
}

// Notifier is told about course completions after the transaction commits.
type Notifier interface {
	CourseCompleted(ctx context.Context, event CompletionEvent) error
}

func completionEvent(course *courseModels.Course, agg *Aggregate) *CompletionEvent {
	if agg == nil || !agg.CourseCompleted || agg.Certificate == nil {
		return nil
	}
	return &CompletionEvent{
		UserID:            agg.Enrollment.UserID,
		CourseID:          course.ID,
		CourseTitle:       course.Title,
		EnrollmentID:      agg.Enrollment.ID,
		CertificateNumber: agg.Certificate.CertificateNumber,
		CompletedAt:       agg.Certificate.IssuedAt,
	}
}

// notify never fails the request; a lost notification is only logged.
func (s *LearningService) notify(ctx context.Context, event *CompletionEvent) {
	if event == nil {
		return
	}
	for _, n := range s.notifiers {
		if err := n.CourseCompleted(ctx, *event); err != nil {
			s.log.Error("completion notification failed", "userID", event.UserID, "courseID", event.CourseID, "error", err)
		}
	}
}
