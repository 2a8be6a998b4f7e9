package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coursehub/apperr"
	"coursehub/authz"
	"coursehub/grading"
	courseModels "coursehub/models/course"
	"coursehub/prerequisite"
	"coursehub/progress"
)

// PublishCourse opens a course for enrollment once its outline, prerequisite
// graphs and every quiz validate.
func (s *LearningService) PublishCourse(ctx context.Context, actor authz.Actor, courseID string) (*courseModels.Course, error) {
	if err := requireAuthor(actor); err != nil {
		return nil, err
	}
	var course *courseModels.Course
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if course, err = s.store.LoadCourseOutline(ctx, tx, courseID); err != nil {
			return err
		}
		if err := prerequisite.ValidatePublishable(course); err != nil {
			return err
		}
		var problems []error
		for i := range course.Modules {
			for j := range course.Modules[i].Topics {
				t := &course.Modules[i].Topics[j]
				if t.Quiz == nil {
					continue
				}
				quiz, questions, err := s.store.LoadQuizWithQuestions(ctx, tx, t.Quiz.ID)
				if err != nil {
					return err
				}
				if len(questions) == 0 {
					problems = append(problems, apperr.Invalid("quiz %s has no questions", quiz.ID))
				}
				if err := grading.ValidateQuiz(quiz, questions); err != nil {
					problems = append(problems, err)
				}
				for _, w := range grading.QuizWarnings(quiz, questions) {
					s.log.Warn("quiz authoring warning", "courseID", courseID, "quizID", quiz.ID, "warning", w)
				}
			}
		}
		if err := errors.Join(problems...); err != nil {
			return err
		}
		course.Status = courseModels.CoursePublished
		return s.store.SetCourseStatus(ctx, tx, courseID, courseModels.CoursePublished)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateQuizzes(ctx, course)
	s.log.Info("course published", "courseID", courseID, "by", actor.ID)
	return course, nil
}

func (s *LearningService) invalidateQuizzes(ctx context.Context, course *courseModels.Course) {
	for i := range course.Modules {
		for j := range course.Modules[i].Topics {
			if q := course.Modules[i].Topics[j].Quiz; q != nil {
				if err := s.quizzes.Invalidate(ctx, q.ID); err != nil {
					s.log.Warn("quiz cache invalidation failed", "quizID", q.ID, "error", err)
				}
			}
		}
	}
}

// ArchiveCourse closes a course. Existing progress is kept but nothing in the
// course is accessible to students any more.
func (s *LearningService) ArchiveCourse(ctx context.Context, actor authz.Actor, courseID string) error {
	if err := requireAuthor(actor); err != nil {
		return err
	}
	course, err := s.store.LoadCourseOutline(ctx, nil, courseID)
	if err != nil {
		return err
	}
	if err := s.store.SetCourseStatus(ctx, nil, courseID, courseModels.CourseArchived); err != nil {
		return err
	}
	s.invalidateQuizzes(ctx, course)
	s.log.Info("course archived", "courseID", courseID, "by", actor.ID)
	return nil
}

// SetModulePrerequisite rejects cycles and cross-course references before
// anything is written.
func (s *LearningService) SetModulePrerequisite(ctx context.Context, actor authz.Actor, moduleID string, prereqID *string) error {
	if err := requireAuthor(actor); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		module, err := s.store.LoadModule(ctx, tx, moduleID)
		if err != nil {
			return err
		}
		course, err := s.store.LoadCourseOutline(ctx, tx, module.CourseID)
		if err != nil {
			return err
		}
		if err := prerequisite.CheckModulePrerequisite(course, moduleID, prereqID); err != nil {
			return err
		}
		return s.store.SetModulePrerequisite(ctx, tx, moduleID, prereqID)
	})
}

func (s *LearningService) SetTopicPrerequisite(ctx context.Context, actor authz.Actor, topicID string, prereqID *string) error {
	if err := requireAuthor(actor); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		topic, err := s.store.LoadTopic(ctx, tx, topicID)
		if err != nil {
			return err
		}
		course, err := s.store.LoadCourseOutline(ctx, tx, topic.CourseID)
		if err != nil {
			return err
		}
		if err := prerequisite.CheckTopicPrerequisite(course, topicID, prereqID); err != nil {
			return err
		}
		return s.store.SetTopicPrerequisite(ctx, tx, topicID, prereqID)
	})
}

// ValidateQuiz reads the stored definition, bypassing any cache. Warnings are
// returned even when the quiz is valid.
func (s *LearningService) ValidateQuiz(ctx context.Context, actor authz.Actor, quizID string) ([]string, error) {
	if err := requireAuthor(actor); err != nil {
		return nil, err
	}
	quiz, questions, err := s.store.LoadQuizWithQuestions(ctx, nil, quizID)
	if err != nil {
		return nil, err
	}
	return grading.QuizWarnings(quiz, questions), grading.ValidateQuiz(quiz, questions)
}

type ProgressView struct {
	Enrollment  *courseModels.Enrollment      `json:"enrollment"`
	Modules     []courseModels.ModuleProgress `json:"modules"`
	Topics      []courseModels.TopicProgress  `json:"topics"`
	Certificate *courseModels.Certificate     `json:"certificate,omitempty"`
}

// GetProgress returns stored progress exactly as last written; nothing is
// recomputed on read.
func (s *LearningService) GetProgress(ctx context.Context, actor authz.Actor, courseID string) (*ProgressView, error) {
	enrollment, err := s.store.LoadEnrollment(ctx, nil, actor.ID, courseID)
	if err != nil {
		return nil, err
	}
	view := &ProgressView{Enrollment: enrollment}
	if view.Modules, err = s.store.LoadModuleProgress(ctx, nil, actor.ID, courseID); err != nil {
		return nil, err
	}
	if view.Topics, err = s.store.LoadTopicProgress(ctx, nil, actor.ID, courseID); err != nil {
		return nil, err
	}
	if enrollment.Status == courseModels.EnrollmentCompleted {
		cert, err := s.store.LoadCertificate(ctx, nil, actor.ID, courseID)
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
		view.Certificate = cert
	}
	return view, nil
}

type AuditReport struct {
	Checked   int `json:"checked"`
	Corrected int `json:"corrected"`
	Failed    int `json:"failed"`
}

// AuditProgress recomputes every enrollment touched since the given time and
// stores the result when it drifted from what was persisted.
func (s *LearningService) AuditProgress(ctx context.Context, since time.Time) (AuditReport, error) {
	var report AuditReport
	enrollments, err := s.store.ListEnrollmentsAccessedSince(ctx, nil, since)
	if err != nil {
		return report, err
	}
	for i := range enrollments {
		e := enrollments[i]
		report.Checked++
		drifted, err := s.auditOne(ctx, e.UserID, e.CourseID)
		if err != nil {
			report.Failed++
			s.log.Error("progress audit failed", "userID", e.UserID, "courseID", e.CourseID, "error", err)
			continue
		}
		if drifted {
			report.Corrected++
		}
	}
	return report, nil
}

func (s *LearningService) auditOne(ctx context.Context, userID, courseID string) (bool, error) {
	defer s.lock(userID, courseID)()

	var drifted bool
	var event *CompletionEvent
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		enrollment, err := s.store.LoadEnrollment(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		course, err := s.store.LoadCourseOutline(ctx, tx, courseID)
		if err != nil {
			return err
		}
		before := enrollment.OverallProgress
		beforeStatus := enrollment.Status
		lastAccess := enrollment.LastAccessAt

		st, err := s.progress.state(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		sum := progress.Rollup(course, st)
		if sum.OverallProgress == before && !(sum.CourseCompleted && beforeStatus == courseModels.EnrollmentActive) {
			return nil
		}

		drifted = true
		s.log.Warn("progress drift", "userID", userID, "courseID", courseID,
			"stored", before, "computed", sum.OverallProgress)
		agg, err := s.progress.Recompute(ctx, tx, course, enrollment)
		if err != nil {
			return err
		}
		// The audit is not a student action.
		enrollment.LastAccessAt = lastAccess
		if err := s.store.SaveEnrollment(ctx, tx, enrollment); err != nil {
			return fmt.Errorf("restore last access: %w", err)
		}
		event = completionEvent(course, agg)
		return nil
	})
	if err != nil {
		return false, err
	}
	s.notify(ctx, event)
	return drifted, nil
}
