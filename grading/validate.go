package grading

import (
	"errors"
	"fmt"

	"coursehub/apperr"
	courseModels "coursehub/models/course"
)

// ValidateQuiz checks that a quiz can be graded as authored. Every problem is
// reported as a CONFIG_INVALID error; the returned error joins all of them.
func ValidateQuiz(quiz *courseModels.Quiz, questions []courseModels.Question) error {
	if quiz == nil {
		return apperr.Invalid("quiz is missing")
	}

	var errs []error
	if quiz.PassingScore < 0 || quiz.PassingScore > 100 {
		errs = append(errs, apperr.Invalid("quiz %s: passing score %d outside 0-100", quiz.ID, quiz.PassingScore))
	}
	if quiz.MaxAttempts != nil && *quiz.MaxAttempts < 1 {
		errs = append(errs, apperr.Invalid("quiz %s: max attempts must be at least 1", quiz.ID))
	}
	if quiz.TimeLimit != nil && *quiz.TimeLimit < 1 {
		errs = append(errs, apperr.Invalid("quiz %s: time limit must be at least 1 minute", quiz.ID))
	}

	for i := range questions {
		if err := validateQuestion(&questions[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateQuestion(q *courseModels.Question) error {
	if q.Points < 1 {
		return apperr.Invalid("question %s: points must be at least 1", q.ID)
	}

	switch q.QuestionType {
	case courseModels.MultipleChoice, courseModels.MultipleSelect, courseModels.TrueFalse,
		courseModels.ShortAnswer, courseModels.Matching, courseModels.Ordering:
	case courseModels.LongAnswer:
		return nil
	default:
		return apperr.Invalid("question %s: unknown question type %q", q.ID, q.QuestionType)
	}

	if len(q.Options) == 0 {
		return apperr.Invalid("question %s: %s requires options", q.ID, q.QuestionType)
	}
	correct := len(correctOptionIDs(q))
	switch q.QuestionType {
	case courseModels.MultipleChoice, courseModels.TrueFalse:
		if correct != 1 {
			return apperr.Invalid("question %s: %s needs exactly one correct option, has %d", q.ID, q.QuestionType, correct)
		}
		if q.QuestionType == courseModels.TrueFalse && len(q.Options) != 2 {
			return apperr.Invalid("question %s: TRUE_FALSE needs exactly two options", q.ID)
		}
	default:
		if correct == 0 {
			return apperr.Invalid("question %s: %s has no correct option", q.ID, q.QuestionType)
		}
	}
	return nil
}

// QuizWarnings lists authoring choices that grade correctly but weaken the
// quiz. A sequence question shown unshuffled displays its options in answer
// order.
func QuizWarnings(quiz *courseModels.Quiz, questions []courseModels.Question) []string {
	if quiz == nil || quiz.ShuffleOptions {
		return nil
	}
	var out []string
	for i := range questions {
		switch questions[i].QuestionType {
		case courseModels.Matching, courseModels.Ordering:
			out = append(out, fmt.Sprintf("question %s: %s options are presented in answer order unless shuffleOptions is set",
				questions[i].ID, questions[i].QuestionType))
		}
	}
	return out
}
