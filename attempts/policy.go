// Package attempts decides whether a quiz may be (re)taken and prepares the
// student-facing view of a quiz.
package attempts

import (
	"coursehub/authz"
	courseModels "coursehub/models/course"
)

type Reason string

const (
	ReasonAlreadyPassed     Reason = "ALREADY_PASSED"
	ReasonAttemptsExhausted Reason = "ATTEMPTS_EXHAUSTED"
	ReasonNotAllowed        Reason = "NOT_ALLOWED"
)

// Decision is returned instead of an error when an attempt is refused; the
// caller is expected to send the student to the results view.
type Decision struct {
	Allowed           bool   `json:"allowed"`
	Practice          bool   `json:"practice"`
	Reason            Reason `json:"reason,omitempty"`
	AttemptsUsed      int    `json:"attempts_used"`
	AttemptsRemaining *int   `json:"attempts_remaining"` // nil when unlimited
}

// CanAttempt applies the retake rules. Practice mode is only granted once a
// counted attempt has passed; before that a practice request is treated as a
// counted attempt and the limit applies.
func CanAttempt(actor authz.Actor, quiz *courseModels.Quiz, prior []courseModels.QuizAttempt, practice bool) Decision {
	if !authz.Can(actor, authz.ActionLearn) {
		return Decision{Reason: ReasonNotAllowed}
	}

	used := CountedAttempts(prior)
	d := Decision{AttemptsUsed: used, AttemptsRemaining: remaining(quiz, used)}

	if authz.IsStaff(actor) {
		d.Allowed = true
		d.Practice = true
		return d
	}
	if HasPassed(prior) {
		if practice {
			d.Allowed = true
			d.Practice = true
			return d
		}
		d.Reason = ReasonAlreadyPassed
		return d
	}
	if d.AttemptsRemaining != nil && *d.AttemptsRemaining == 0 {
		d.Reason = ReasonAttemptsExhausted
		return d
	}
	d.Allowed = true
	return d
}

// CountedAttempts is the number of non-practice attempts.
func CountedAttempts(prior []courseModels.QuizAttempt) int {
	n := 0
	for i := range prior {
		if !prior[i].IsPractice {
			n++
		}
	}
	return n
}

func HasPassed(prior []courseModels.QuizAttempt) bool {
	for i := range prior {
		if prior[i].Passed && !prior[i].IsPractice {
			return true
		}
	}
	return false
}

// BestScore returns the highest non-practice score, or -1 without one.
func BestScore(prior []courseModels.QuizAttempt) int {
	best := -1
	for i := range prior {
		if !prior[i].IsPractice && prior[i].Score > best {
			best = prior[i].Score
		}
	}
	return best
}

// Exhausted reports whether no non-practice attempts remain.
func Exhausted(quiz *courseModels.Quiz, prior []courseModels.QuizAttempt) bool {
	r := remaining(quiz, CountedAttempts(prior))
	return r != nil && *r == 0
}

func remaining(quiz *courseModels.Quiz, used int) *int {
	if quiz == nil || quiz.MaxAttempts == nil {
		return nil
	}
	left := *quiz.MaxAttempts - used
	if left < 0 {
		left = 0
	}
	return &left
}
