package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"coursehub/attempts"
	"coursehub/logger"
	courseModels "coursehub/models/course"
	"coursehub/progress"
	"coursehub/repository"
)

// Aggregate is the progress state returned by every mutation entry point.
type Aggregate struct {
	Enrollment      *courseModels.Enrollment    `json:"enrollment"`
	Topic           *courseModels.TopicProgress `json:"topic,omitempty"`
	Summary         progress.Summary            `json:"summary"`
	Certificate     *courseModels.Certificate   `json:"certificate,omitempty"`
	CourseCompleted bool                        `json:"course_completed_now"`
}

// ProgressService persists the rollup. Callers hold the (student, course)
// lock and pass the open transaction.
type ProgressService struct {
	store repository.Store
	now   func() time.Time
	log   *logger.Logger
}

func NewProgressService(store repository.Store, now func() time.Time, baseLog *logger.Logger) *ProgressService {
	if now == nil {
		now = time.Now
	}
	return &ProgressService{store: store, now: now, log: baseLog.With("service", "ProgressService")}
}

// OnTopicCompleted records an explicit completion of a quiz-less topic and
// rolls it up.
func (p *ProgressService) OnTopicCompleted(ctx context.Context, tx *gorm.DB, course *courseModels.Course, enrollment *courseModels.Enrollment, topic *courseModels.Topic) (*Aggregate, error) {
	now := p.now()
	row := &courseModels.TopicProgress{
		UserID:   enrollment.UserID,
		TopicID:  topic.ID,
		ModuleID: topic.ModuleID,
		CourseID: course.ID,
	}
	changed, err := p.store.MarkTopicCompleted(ctx, tx, row, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		p.log.Debug("topic already completed", "userID", enrollment.UserID, "topicID", topic.ID)
	}

	agg, err := p.rollup(ctx, tx, course, enrollment, now)
	if err != nil {
		return nil, err
	}
	agg.Topic = row
	return agg, nil
}

// OnQuizGraded applies a stored non-practice attempt. prior must include the
// attempt itself.
func (p *ProgressService) OnQuizGraded(ctx context.Context, tx *gorm.DB, course *courseModels.Course, enrollment *courseModels.Enrollment, topic *courseModels.Topic, quiz *courseModels.Quiz, attempt *courseModels.QuizAttempt, prior []courseModels.QuizAttempt) (*Aggregate, error) {
	now := p.now()
	if attempt.IsPractice {
		return p.summarize(ctx, tx, course, enrollment)
	}

	rows, err := p.store.LoadTopicProgress(ctx, tx, enrollment.UserID, course.ID)
	if err != nil {
		return nil, err
	}
	row := &courseModels.TopicProgress{
		UserID:    enrollment.UserID,
		TopicID:   topic.ID,
		ModuleID:  topic.ModuleID,
		CourseID:  course.ID,
		Status:    courseModels.NotStarted,
		StartedAt: &attempt.StartedAt,
	}
	for i := range rows {
		if rows[i].TopicID == topic.ID {
			row = &rows[i]
			break
		}
	}

	next := progress.TopicStatusAfterAttempt(row.Status, progress.AttemptOutcome{
		Passed:      attempt.Passed,
		NeedsReview: attempt.NeedsReview,
		Exhausted:   attempts.Exhausted(quiz, prior),
	})
	switch {
	case next == courseModels.Completed && row.Status != courseModels.Completed:
		if _, err := p.store.MarkTopicCompleted(ctx, tx, row, now); err != nil {
			return nil, err
		}
	case next != row.Status || row.ID == "":
		row.Status = next
		if err := p.store.SaveTopicProgress(ctx, tx, row); err != nil {
			return nil, err
		}
	}

	agg, err := p.rollup(ctx, tx, course, enrollment, now)
	if err != nil {
		return nil, err
	}
	agg.Topic = row
	return agg, nil
}

// Recompute re-derives and stores the aggregate without any new event.
func (p *ProgressService) Recompute(ctx context.Context, tx *gorm.DB, course *courseModels.Course, enrollment *courseModels.Enrollment) (*Aggregate, error) {
	return p.rollup(ctx, tx, course, enrollment, p.now())
}

// Touch stamps lastAccessAt for progress-affecting actions that do not change
// completion, such as starting or skipping into a topic.
func (p *ProgressService) Touch(ctx context.Context, tx *gorm.DB, enrollment *courseModels.Enrollment) error {
	now := p.now()
	enrollment.LastAccessAt = &now
	return p.store.SaveEnrollment(ctx, tx, enrollment)
}

func (p *ProgressService) state(ctx context.Context, tx *gorm.DB, userID, courseID string) (progress.State, error) {
	rows, err := p.store.LoadTopicProgress(ctx, tx, userID, courseID)
	if err != nil {
		return progress.State{}, err
	}
	best, err := p.store.BestScores(ctx, tx, userID, courseID)
	if err != nil {
		return progress.State{}, err
	}
	st := progress.State{TopicStatus: make(map[string]courseModels.ProgressStatus, len(rows)), BestScores: best}
	for _, r := range rows {
		st.TopicStatus[r.TopicID] = r.Status
	}
	return st, nil
}

func (p *ProgressService) summarize(ctx context.Context, tx *gorm.DB, course *courseModels.Course, enrollment *courseModels.Enrollment) (*Aggregate, error) {
	st, err := p.state(ctx, tx, enrollment.UserID, course.ID)
	if err != nil {
		return nil, err
	}
	return &Aggregate{Enrollment: enrollment, Summary: progress.Rollup(course, st)}, nil
}

func (p *ProgressService) rollup(ctx context.Context, tx *gorm.DB, course *courseModels.Course, enrollment *courseModels.Enrollment, now time.Time) (*Aggregate, error) {
	st, err := p.state(ctx, tx, enrollment.UserID, course.ID)
	if err != nil {
		return nil, err
	}
	sum := progress.Rollup(course, st)

	stored, err := p.store.LoadModuleProgress(ctx, tx, enrollment.UserID, course.ID)
	if err != nil {
		return nil, err
	}
	byModule := make(map[string]*courseModels.ModuleProgress, len(stored))
	for i := range stored {
		byModule[stored[i].ModuleID] = &stored[i]
	}
	for _, ms := range sum.Modules {
		mp, ok := byModule[ms.ModuleID]
		if !ok {
			mp = &courseModels.ModuleProgress{UserID: enrollment.UserID, ModuleID: ms.ModuleID, CourseID: course.ID, Status: courseModels.NotStarted}
		}
		status := ms.Status()
		completedAt := mp.CompletedAt
		if status == courseModels.Completed && completedAt == nil {
			completedAt = &now
		} else if status != courseModels.Completed {
			completedAt = nil
		}
		if ok && mp.Status == status && mp.Percent == ms.Percent && sameTime(mp.CompletedAt, completedAt) {
			continue
		}
		mp.Status, mp.Percent, mp.CompletedAt = status, ms.Percent, completedAt
		if err := p.store.SaveModuleProgress(ctx, tx, mp); err != nil {
			return nil, err
		}
	}

	agg := &Aggregate{Enrollment: enrollment, Summary: sum}
	enrollment.OverallProgress = sum.OverallProgress
	enrollment.LastAccessAt = &now

	if sum.CourseCompleted && enrollment.Status == courseModels.EnrollmentActive {
		changed, err := p.store.MarkEnrollmentCompleted(ctx, tx, enrollment.ID, now)
		if err != nil {
			return nil, err
		}
		if changed {
			enrollment.Status = courseModels.EnrollmentCompleted
			enrollment.CompletedAt = &now
			cert := &courseModels.Certificate{
				UserID:            enrollment.UserID,
				CourseID:          course.ID,
				EnrollmentID:      enrollment.ID,
				CertificateNumber: courseModels.NewCertificateNumber(),
				IssuedAt:          now,
			}
			if err := p.store.CreateCertificate(ctx, tx, cert); err != nil {
				return nil, err
			}
			agg.Certificate = cert
			agg.CourseCompleted = true
			p.log.Info("course completed", "userID", enrollment.UserID, "courseID", course.ID, "certificate", cert.CertificateNumber)
		}
	}

	if err := p.store.SaveEnrollment(ctx, tx, enrollment); err != nil {
		return nil, err
	}
	return agg, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
