package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"coursehub/apperr"
	"coursehub/attempts"
	"coursehub/authz"
	"coursehub/logger"
	courseModels "coursehub/models/course"
	"coursehub/prerequisite"
	"coursehub/progress"
	"coursehub/repository"
)

// QuizSource returns authored quiz definitions; cache.QuizCache implements it.
type QuizSource interface {
	Get(ctx context.Context, quizID string) (*courseModels.Quiz, []courseModels.Question, error)
	Invalidate(ctx context.Context, quizID string) error
}

type LearningService struct {
	store     repository.Store
	quizzes   QuizSource
	progress  *ProgressService
	resolver  *prerequisite.Resolver
	shuffler  *attempts.Shuffler
	notifiers []Notifier
	locks     *keyedMutex
	now       func() time.Time
	log       *logger.Logger
}

type Option func(*LearningService)

func WithClock(now func() time.Time) Option {
	return func(s *LearningService) { s.now = now }
}

func WithShuffler(sh *attempts.Shuffler) Option {
	return func(s *LearningService) { s.shuffler = sh }
}

func WithNotifiers(n ...Notifier) Option {
	return func(s *LearningService) { s.notifiers = append(s.notifiers, n...) }
}

func NewLearningService(store repository.Store, quizzes QuizSource, baseLog *logger.Logger, opts ...Option) *LearningService {
	s := &LearningService{
		store:    store,
		quizzes:  quizzes,
		resolver: prerequisite.NewResolver(),
		locks:    newKeyedMutex(),
		now:      time.Now,
		log:      baseLog.With("service", "LearningService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shuffler == nil {
		s.shuffler = attempts.NewShuffler(nil)
	}
	s.progress = NewProgressService(store, s.now, baseLog)
	return s
}

// lock serializes every read-then-write on one student's progress in one
// course.
func (s *LearningService) lock(userID, courseID string) func() {
	return s.locks.Lock(progressKey(userID, courseID))
}

// loadEnrollment treats a missing row as "not enrolled" rather than an error.
func (s *LearningService) loadEnrollment(ctx context.Context, tx *gorm.DB, userID, courseID string) (*courseModels.Enrollment, error) {
	e, err := s.store.LoadEnrollment(ctx, tx, userID, courseID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, nil
	}
	return e, err
}

func (s *LearningService) snapshot(ctx context.Context, tx *gorm.DB, userID, courseID string) (*prerequisite.Snapshot, error) {
	course, err := s.store.LoadCourseOutline(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.loadEnrollment(ctx, tx, userID, courseID)
	if err != nil {
		return nil, err
	}
	snap := &prerequisite.Snapshot{
		Course:         course,
		Enrollment:     enrollment,
		TopicProgress:  map[string]*courseModels.TopicProgress{},
		ModuleProgress: map[string]*courseModels.ModuleProgress{},
		Now:            s.now(),
	}

	topics, err := s.store.LoadTopicProgress(ctx, tx, userID, courseID)
	if err != nil {
		return nil, err
	}
	for i := range topics {
		snap.TopicProgress[topics[i].TopicID] = &topics[i]
	}
	modules, err := s.store.LoadModuleProgress(ctx, tx, userID, courseID)
	if err != nil {
		return nil, err
	}
	for i := range modules {
		snap.ModuleProgress[modules[i].ModuleID] = &modules[i]
	}
	if snap.BestScores, err = s.store.BestScores(ctx, tx, userID, courseID); err != nil {
		return nil, err
	}
	return snap, nil
}

// tracked is true when progress should be written for this actor: staff
// previews and unenrolled callers leave no trace.
func tracked(snap *prerequisite.Snapshot) bool {
	return snap.Enrollment != nil && snap.Enrollment.GrantsAccess()
}

func requireAuthor(actor authz.Actor) error {
	if !authz.Can(actor, authz.ActionAuthorCourse) {
		return apperr.New(apperr.KindForbidden, "role %s may not author courses", actor.Role)
	}
	return nil
}

// Enroll creates an ACTIVE enrollment or reactivates a DROPPED one, keeping
// earlier progress.
func (s *LearningService) Enroll(ctx context.Context, actor authz.Actor, courseID string) (*courseModels.Enrollment, error) {
	defer s.lock(actor.ID, courseID)()

	var out *courseModels.Enrollment
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		course, err := s.store.LoadCourseOutline(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if course.Status != courseModels.CoursePublished {
			return apperr.New(apperr.KindForbidden, "course %s is not open for enrollment", courseID)
		}
		existing, err := s.loadEnrollment(ctx, tx, actor.ID, courseID)
		if err != nil {
			return err
		}
		now := s.now()
		switch {
		case existing == nil:
			out = &courseModels.Enrollment{
				UserID:       actor.ID,
				CourseID:     courseID,
				Status:       courseModels.EnrollmentActive,
				EnrolledAt:   now,
				LastAccessAt: &now,
			}
		case existing.Status == courseModels.EnrollmentDropped:
			out = existing
			out.Status = courseModels.EnrollmentActive
			out.EnrolledAt = now
			out.LastAccessAt = &now
		default:
			return apperr.New(apperr.KindConflict, "already enrolled in course %s (%s)", courseID, existing.Status)
		}
		return s.store.SaveEnrollment(ctx, tx, out)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("enrolled", "userID", actor.ID, "courseID", courseID)
	return out, nil
}

func (s *LearningService) Unenroll(ctx context.Context, actor authz.Actor, courseID string) (*courseModels.Enrollment, error) {
	defer s.lock(actor.ID, courseID)()

	var out *courseModels.Enrollment
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		e, err := s.store.LoadEnrollment(ctx, tx, actor.ID, courseID)
		if err != nil {
			return err
		}
		if e.Status == courseModels.EnrollmentDropped {
			out = e
			return nil
		}
		e.Status = courseModels.EnrollmentDropped
		out = e
		return s.store.SaveEnrollment(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TopicAccess answers "may this student open the topic now" without writing.
func (s *LearningService) TopicAccess(ctx context.Context, actor authz.Actor, topicID string) (prerequisite.Decision, error) {
	topic, err := s.store.LoadTopic(ctx, nil, topicID)
	if err != nil {
		return prerequisite.Decision{}, err
	}
	snap, err := s.snapshot(ctx, nil, actor.ID, topic.CourseID)
	if err != nil {
		return prerequisite.Decision{}, err
	}
	d := s.resolver.IsAccessible(actor, prerequisite.Topic(topicID), snap)
	return d, d.Err
}

// TopicResult pairs an access decision with the state written, if any.
type TopicResult struct {
	Access   prerequisite.Decision       `json:"access"`
	Progress *courseModels.TopicProgress `json:"progress,omitempty"`
	Summary  *Aggregate                  `json:"aggregate,omitempty"`
}

// StartTopic lazily creates the topic's progress row on first access.
func (s *LearningService) StartTopic(ctx context.Context, actor authz.Actor, topicID string) (*TopicResult, error) {
	return s.withTopic(ctx, actor, topicID, func(tx *gorm.DB, snap *prerequisite.Snapshot, topic *courseModels.Topic, res *TopicResult) error {
		res.Access = s.resolver.IsAccessible(actor, prerequisite.Topic(topicID), snap)
		if !res.Access.Accessible || !tracked(snap) {
			return res.Access.Err
		}
		row := s.topicRow(snap, topic)
		if row.StartedAt == nil {
			now := s.now()
			row.StartedAt = &now
		}
		row.Status = progress.TopicStatusAfterStart(row.Status)
		if err := s.store.SaveTopicProgress(ctx, tx, row); err != nil {
			return err
		}
		res.Progress = row
		return s.progress.Touch(ctx, tx, snap.Enrollment)
	})
}

// CompleteTopic is the explicit "mark complete" action for topics without a
// quiz. Quiz topics complete only through a passing attempt.
func (s *LearningService) CompleteTopic(ctx context.Context, actor authz.Actor, topicID string) (*TopicResult, error) {
	var event *CompletionEvent
	res, err := s.withTopic(ctx, actor, topicID, func(tx *gorm.DB, snap *prerequisite.Snapshot, topic *courseModels.Topic, res *TopicResult) error {
		if topic.HasQuiz() {
			return apperr.New(apperr.KindInvalidArgument, "topic %s is completed by passing its quiz", topicID)
		}
		res.Access = s.resolver.IsAccessible(actor, prerequisite.Topic(topicID), snap)
		if !res.Access.Accessible || !tracked(snap) {
			return res.Access.Err
		}
		agg, err := s.progress.OnTopicCompleted(ctx, tx, snap.Course, snap.Enrollment, topic)
		if err != nil {
			return err
		}
		res.Progress = agg.Topic
		res.Summary = agg
		event = completionEvent(snap.Course, agg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, event)
	return res, nil
}

// SkipTopic records an explicit skip past the topic's prerequisite. The
// prerequisite itself is left untouched.
func (s *LearningService) SkipTopic(ctx context.Context, actor authz.Actor, topicID string) (*TopicResult, error) {
	return s.withTopic(ctx, actor, topicID, func(tx *gorm.DB, snap *prerequisite.Snapshot, topic *courseModels.Topic, res *TopicResult) error {
		res.Access = s.resolver.CanSkip(actor, topicID, snap)
		if !res.Access.Accessible || !tracked(snap) {
			return res.Access.Err
		}
		row := s.topicRow(snap, topic)
		row.Skipped = true
		if row.StartedAt == nil {
			now := s.now()
			row.StartedAt = &now
		}
		row.Status = progress.TopicStatusAfterStart(row.Status)
		if err := s.store.SaveTopicProgress(ctx, tx, row); err != nil {
			return err
		}
		res.Progress = row
		s.log.Info("topic prerequisite skipped", "userID", actor.ID, "topicID", topicID)
		return s.progress.Touch(ctx, tx, snap.Enrollment)
	})
}

func (s *LearningService) withTopic(ctx context.Context, actor authz.Actor, topicID string, fn func(tx *gorm.DB, snap *prerequisite.Snapshot, topic *courseModels.Topic, res *TopicResult) error) (*TopicResult, error) {
	topic, err := s.store.LoadTopic(ctx, nil, topicID)
	if err != nil {
		return nil, err
	}
	defer s.lock(actor.ID, topic.CourseID)()

	res := &TopicResult{}
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		snap, err := s.snapshot(ctx, tx, actor.ID, topic.CourseID)
		if err != nil {
			return err
		}
		return fn(tx, snap, topic, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *LearningService) topicRow(snap *prerequisite.Snapshot, topic *courseModels.Topic) *courseModels.TopicProgress {
	if row, ok := snap.TopicProgress[topic.ID]; ok && row != nil {
		return row
	}
	return &courseModels.TopicProgress{
		UserID:   snap.Enrollment.UserID,
		TopicID:  topic.ID,
		ModuleID: topic.ModuleID,
		CourseID: topic.CourseID,
		Status:   courseModels.NotStarted,
	}
}
