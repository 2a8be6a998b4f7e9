// Package prerequisite decides whether a student may open a topic or module.
// The resolver only reads the Snapshot it is given; loading it is the
// caller's job.
package prerequisite

import (
	"time"

	"coursehub/apperr"
	"coursehub/authz"
	courseModels "coursehub/models/course"
)

type Reason string

const (
	ReasonUnenrolled             Reason = "UNENROLLED"
	ReasonEnrollmentInactive     Reason = "ENROLLMENT_INACTIVE"
	ReasonCourseUnavailable      Reason = "COURSE_UNAVAILABLE"
	ReasonModuleLocked           Reason = "MODULE_LOCKED"
	ReasonPrerequisiteIncomplete Reason = "PREREQUISITE_INCOMPLETE"
	ReasonUnlockPending          Reason = "UNLOCK_PENDING"
	ReasonNotInCourse            Reason = "NOT_IN_COURSE"
	ReasonSkipNotAllowed         Reason = "SKIP_NOT_ALLOWED"
	ReasonConfigCycle            Reason = "CONFIG_CYCLE"
	ReasonConfigInvalid          Reason = "CONFIG_INVALID"
)

type ItemKind string

const (
	KindTopic  ItemKind = "topic"
	KindModule ItemKind = "module"
)

type Item struct {
	Kind ItemKind
	ID   string
}

func Topic(id string) Item  { return Item{Kind: KindTopic, ID: id} }
func Module(id string) Item { return Item{Kind: KindModule, ID: id} }

// Decision always carries a reason when Accessible is false. Err is set only
// for configuration problems found while resolving.
type Decision struct {
	Accessible bool       `json:"accessible"`
	Reason     Reason     `json:"reason,omitempty"`
	UnlocksAt  *time.Time `json:"unlocks_at,omitempty"`
	Err        error      `json:"-"`
}

func allow() Decision { return Decision{Accessible: true} }

func deny(r Reason) Decision { return Decision{Reason: r} }

func configError(err error) Decision {
	if apperr.KindOf(err) == apperr.KindConfigCycle {
		return Decision{Reason: ReasonConfigCycle, Err: err}
	}
	return Decision{Reason: ReasonConfigInvalid, Err: err}
}

// Snapshot is everything the resolver needs about one student in one course.
// BestScores is keyed by topic ID and holds the best non-practice score of the
// quiz on that topic.
type Snapshot struct {
	Course         *courseModels.Course
	Enrollment     *courseModels.Enrollment
	TopicProgress  map[string]*courseModels.TopicProgress
	ModuleProgress map[string]*courseModels.ModuleProgress
	BestScores     map[string]int
	Now            time.Time
}

func (s *Snapshot) topicStatus(id string) courseModels.ProgressStatus {
	if tp, ok := s.TopicProgress[id]; ok && tp != nil {
		return tp.Status
	}
	return courseModels.NotStarted
}

func (s *Snapshot) bestScore(topicID string) (int, bool) {
	v, ok := s.BestScores[topicID]
	return v, ok
}

type Resolver struct{}

func NewResolver() *Resolver { return &Resolver{} }

// IsAccessible is side-effect free. Plain navigation never bypasses a
// prerequisite; only a recorded skip does.
func (r *Resolver) IsAccessible(actor authz.Actor, item Item, snap *Snapshot) Decision {
	if authz.IsStaff(actor) {
		return allow()
	}
	if d, ok := r.checkEnrollment(snap); !ok {
		return d
	}
	switch item.Kind {
	case KindModule:
		return r.moduleAccess(snap, item.ID)
	case KindTopic:
		return r.topicAccess(snap, item.ID)
	}
	return deny(ReasonNotInCourse)
}

// CanSkip reports whether the student may explicitly skip past the topic's
// prerequisite. Only a NOT_STARTED or FAILED prerequisite can be skipped.
func (r *Resolver) CanSkip(actor authz.Actor, topicID string, snap *Snapshot) Decision {
	if authz.IsStaff(actor) {
		return allow()
	}
	if d, ok := r.checkEnrollment(snap); !ok {
		return d
	}
	topic := snap.Course.FindTopic(topicID)
	if topic == nil {
		return deny(ReasonNotInCourse)
	}
	if d := r.moduleAccess(snap, topic.ModuleID); !d.Accessible {
		return lockedByModule(d)
	}
	if !topic.AllowSkip {
		return deny(ReasonSkipNotAllowed)
	}
	if topic.PrerequisiteTopicID == nil {
		return allow()
	}
	switch snap.topicStatus(*topic.PrerequisiteTopicID) {
	case courseModels.NotStarted, courseModels.Failed, courseModels.Completed:
		return allow()
	}
	return deny(ReasonSkipNotAllowed)
}

func (r *Resolver) checkEnrollment(snap *Snapshot) (Decision, bool) {
	if snap == nil || snap.Course == nil || snap.Course.Status != courseModels.CoursePublished {
		return deny(ReasonCourseUnavailable), false
	}
	e := snap.Enrollment
	if e == nil || e.Status == courseModels.EnrollmentDropped || e.CourseID != snap.Course.ID {
		return deny(ReasonUnenrolled), false
	}
	if !e.GrantsAccess() {
		return deny(ReasonEnrollmentInactive), false
	}
	return Decision{}, true
}

func lockedByModule(d Decision) Decision {
	if d.Err != nil {
		return d
	}
	return Decision{Reason: ReasonModuleLocked, UnlocksAt: d.UnlocksAt}
}

func (r *Resolver) topicAccess(snap *Snapshot, topicID string) Decision {
	topic := snap.Course.FindTopic(topicID)
	if topic == nil {
		return deny(ReasonNotInCourse)
	}
	if d := r.moduleAccess(snap, topic.ModuleID); !d.Accessible {
		return lockedByModule(d)
	}
	if err := walkTopicChain(snap.Course, topic.ID); err != nil {
		return configError(err)
	}
	if topic.PrerequisiteTopicID == nil {
		return allow()
	}
	if tp := snap.TopicProgress[topic.ID]; tp != nil && tp.Skipped {
		return allow()
	}

	prereq := snap.Course.FindTopic(*topic.PrerequisiteTopicID)
	if prereq == nil {
		return configError(apperr.Invalid("topic %s: prerequisite %s not in course", topic.ID, *topic.PrerequisiteTopicID))
	}
	if topicSatisfied(snap, prereq) {
		return allow()
	}
	return deny(ReasonPrerequisiteIncomplete)
}

// topicSatisfied is true when the topic is COMPLETED or its quiz has been
// passed by a non-practice attempt.
func topicSatisfied(snap *Snapshot, t *courseModels.Topic) bool {
	if snap.topicStatus(t.ID) == courseModels.Completed {
		return true
	}
	if t.Quiz == nil {
		return false
	}
	best, ok := snap.bestScore(t.ID)
	return ok && best >= t.Quiz.PassingScore
}

func (r *Resolver) moduleAccess(snap *Snapshot, moduleID string) Decision {
	mod := snap.Course.FindModule(moduleID)
	if mod == nil {
		return deny(ReasonNotInCourse)
	}
	if err := walkModuleChain(snap.Course, mod.ID); err != nil {
		return configError(err)
	}
	if mod.PrerequisiteModuleID == nil {
		return allow()
	}
	prereq := snap.Course.FindModule(*mod.PrerequisiteModuleID)
	if prereq == nil {
		return configError(apperr.Invalid("module %s: prerequisite %s not in course", mod.ID, *mod.PrerequisiteModuleID))
	}

	completedAt, ok := moduleSatisfied(snap, prereq)
	if !ok {
		return deny(ReasonPrerequisiteIncomplete)
	}
	if mod.UnlockDelay > 0 {
		if completedAt == nil {
			return deny(ReasonUnlockPending)
		}
		unlocks := completedAt.Add(time.Duration(mod.UnlockDelay) * time.Hour)
		if snap.Now.Before(unlocks) {
			return Decision{Reason: ReasonUnlockPending, UnlocksAt: &unlocks}
		}
	}
	return allow()
}

// moduleSatisfied returns the completion time used for unlock delays along
// with whether the module counts as done.
func moduleSatisfied(snap *Snapshot, m *courseModels.Module) (*time.Time, bool) {
	if mp := snap.ModuleProgress[m.ID]; mp != nil && mp.Status == courseModels.Completed {
		return mp.CompletedAt, true
	}
	if m.PassingScore <= 0 {
		return nil, false
	}
	assessment := m.Assessment()
	if assessment == nil {
		return nil, false
	}
	best, ok := snap.bestScore(assessment.ID)
	if !ok || best < m.PassingScore {
		return nil, false
	}
	if tp := snap.TopicProgress[assessment.ID]; tp != nil {
		return tp.CompletedAt, true
	}
	return nil, true
}
