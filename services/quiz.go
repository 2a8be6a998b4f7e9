package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"coursehub/attempts"
	"coursehub/authz"
	"coursehub/grading"
	courseModels "coursehub/models/course"
	"coursehub/prerequisite"
)

// RedirectResults tells the caller to show the results view instead of a new
// attempt.
const RedirectResults = "results"

type QuizView struct {
	Access   prerequisite.Decision   `json:"access"`
	Attempt  attempts.Decision       `json:"attempt"`
	Quiz     *attempts.PresentedQuiz `json:"quiz,omitempty"`
	Redirect string                  `json:"redirect,omitempty"`
}

// GetQuiz returns the student view of a quiz when both the topic and a new
// attempt are allowed.
func (s *LearningService) GetQuiz(ctx context.Context, actor authz.Actor, quizID string, practice bool) (*QuizView, error) {
	quiz, questions, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	topic, err := s.store.LoadTopic(ctx, nil, quiz.TopicID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, nil, actor.ID, topic.CourseID)
	if err != nil {
		return nil, err
	}

	view := &QuizView{Access: s.resolver.IsAccessible(actor, prerequisite.Topic(topic.ID), snap)}
	if view.Access.Err != nil {
		return nil, view.Access.Err
	}
	if !view.Access.Accessible {
		return view, nil
	}
	prior, err := s.store.LoadPriorAttempts(ctx, nil, actor.ID, quizID)
	if err != nil {
		return nil, err
	}
	view.Attempt = attempts.CanAttempt(actor, quiz, prior, practice)
	if !view.Attempt.Allowed {
		view.Redirect = RedirectResults
		return view, nil
	}
	presented := attempts.Present(quiz, questions, s.shuffler)
	presented.Practice = view.Attempt.Practice
	view.Quiz = &presented
	return view, nil
}

type Submission struct {
	Answers   grading.Submission
	StartedAt *time.Time
	Practice  bool
}

type SubmitResult struct {
	Access   prerequisite.Decision     `json:"access"`
	Attempt  attempts.Decision         `json:"attempt_policy"`
	Redirect string                    `json:"redirect,omitempty"`
	Stored   *courseModels.QuizAttempt `json:"stored_attempt,omitempty"`
	Result   *grading.AttemptResult    `json:"result,omitempty"`
	Progress *Aggregate                `json:"progress,omitempty"`
}

// SubmitQuiz grades a submission and, for counted attempts, rolls the outcome
// into progress. Access and attempt refusals are returned as data.
func (s *LearningService) SubmitQuiz(ctx context.Context, actor authz.Actor, quizID string, sub Submission) (*SubmitResult, error) {
	quiz, questions, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	topic, err := s.store.LoadTopic(ctx, nil, quiz.TopicID)
	if err != nil {
		return nil, err
	}
	defer s.lock(actor.ID, topic.CourseID)()

	out := &SubmitResult{}
	var event *CompletionEvent
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		snap, err := s.snapshot(ctx, tx, actor.ID, topic.CourseID)
		if err != nil {
			return err
		}
		out.Access = s.resolver.IsAccessible(actor, prerequisite.Topic(topic.ID), snap)
		if !out.Access.Accessible {
			return out.Access.Err
		}

		prior, err := s.store.LoadPriorAttempts(ctx, tx, actor.ID, quizID)
		if err != nil {
			return err
		}
		out.Attempt = attempts.CanAttempt(actor, quiz, prior, sub.Practice)
		if !out.Attempt.Allowed {
			out.Redirect = RedirectResults
			return nil
		}

		result := grading.Grade(quiz, questions, sub.Answers)
		attempt := s.newAttempt(actor, quiz, topic, sub, out.Attempt.Practice, result)
		if err := s.store.SaveAttempt(ctx, tx, attempt); err != nil {
			return err
		}
		out.Stored = attempt
		out.Result = &result

		if attempt.IsPractice || !tracked(snap) {
			return nil
		}
		agg, err := s.progress.OnQuizGraded(ctx, tx, snap.Course, snap.Enrollment, topic, quiz, attempt, append(prior, *attempt))
		if err != nil {
			return err
		}
		out.Progress = agg
		event = completionEvent(snap.Course, agg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Stored != nil {
		s.log.Info("quiz graded",
			"userID", actor.ID, "quizID", quizID, "score", out.Result.Score,
			"passed", out.Result.Passed, "practice", out.Stored.IsPractice)
	}
	s.notify(ctx, event)
	return out, nil
}

func (s *LearningService) newAttempt(actor authz.Actor, quiz *courseModels.Quiz, topic *courseModels.Topic, sub Submission, practice bool, result grading.AttemptResult) *courseModels.QuizAttempt {
	now := s.now()
	started := now
	if sub.StartedAt != nil && !sub.StartedAt.After(now) {
		started = *sub.StartedAt
	}
	attempt := &courseModels.QuizAttempt{
		UserID:           actor.ID,
		QuizID:           quiz.ID,
		TopicID:          topic.ID,
		CourseID:         topic.CourseID,
		StartedAt:        started,
		CompletedAt:      &now,
		Score:            result.Score,
		Passed:           result.Passed,
		QuestionsCorrect: result.QuestionsCorrect,
		QuestionsTotal:   result.QuestionsTotal,
		TimeSpent:        int(now.Sub(started).Seconds()),
		IsPractice:       practice,
		NeedsReview:      result.NeedsManualReview,
	}
	for _, qr := range result.PerQuestion {
		attempt.Answers = append(attempt.Answers, courseModels.Answer{
			QuestionID:    qr.QuestionID,
			Values:        qr.Submitted,
			IsCorrect:     qr.IsCorrect,
			PointsAwarded: qr.PointsAwarded,
			Status:        qr.Status,
		})
	}
	return attempt
}

// ListAttempts returns the caller's own completed attempts, oldest first.
func (s *LearningService) ListAttempts(ctx context.Context, actor authz.Actor, quizID string) ([]courseModels.QuizAttempt, error) {
	return s.store.LoadPriorAttempts(ctx, nil, actor.ID, quizID)
}
