// Package grading scores quiz submissions. Grade is a pure function: it does
// no I/O and returns the same result for the same inputs.
package grading

import (
	"math"
	"sort"
	"strings"

	courseModels "coursehub/models/course"
)

// Submission maps a question ID to the submitted value(s). Choice-like
// questions submit option IDs; SHORT_ANSWER and LONG_ANSWER submit text.
type Submission map[string][]string

type QuestionResult struct {
	QuestionID     string                    `json:"question_id"`
	QuestionType   courseModels.QuestionType `json:"question_type"`
	PointsPossible int                       `json:"points_possible"`
	PointsAwarded  float64                   `json:"points_awarded"`
	IsCorrect      bool                      `json:"is_correct"`
	Status         courseModels.AnswerStatus `json:"status"`
	Submitted      []string                  `json:"submitted"`
	CorrectValues  []string                  `json:"correct_values,omitempty"`
	Explanation    string                    `json:"explanation,omitempty"`
}

type AttemptResult struct {
	Score             int              `json:"score"`
	Passed            bool             `json:"passed"`
	QuestionsCorrect  int              `json:"questions_correct"`
	QuestionsTotal    int              `json:"questions_total"`
	PointsAwarded     float64          `json:"points_awarded"`
	PointsPossible    int              `json:"points_possible"`
	NeedsManualReview bool             `json:"needs_manual_review"`
	PerQuestion       []QuestionResult `json:"per_question"`
}

// Grade scores every question of the quiz against the submission. Missing or
// malformed answers score zero; grading never fails.
func Grade(quiz *courseModels.Quiz, questions []courseModels.Question, answers Submission) AttemptResult {
	ordered := canonicalOrder(questions)
	result := AttemptResult{
		QuestionsTotal: len(ordered),
		PerQuestion:    make([]QuestionResult, 0, len(ordered)),
	}

	for i := range ordered {
		q := &ordered[i]
		qr := gradeQuestion(q, answers[q.ID])
		if quiz != nil && quiz.ShowFeedback {
			qr.CorrectValues = correctValues(q)
			qr.Explanation = q.Explanation
		}
		result.PerQuestion = append(result.PerQuestion, qr)
		result.PointsPossible += qr.PointsPossible
		result.PointsAwarded += qr.PointsAwarded
		if qr.IsCorrect {
			result.QuestionsCorrect++
		}
		if qr.Status == courseModels.AnswerRequiresManualGrading {
			result.NeedsManualReview = true
		}
	}

	result.Score = score(result.PointsAwarded, result.PointsPossible)
	passing := 0
	if quiz != nil {
		passing = quiz.PassingScore
	}
	result.Passed = result.Score >= passing
	return result
}

func score(awarded float64, possible int) int {
	if possible <= 0 {
		return 0
	}
	s := int(math.Round(100 * awarded / float64(possible)))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// points never drops below one so a misconfigured question cannot zero the
// denominator.
func points(q *courseModels.Question) int {
	if q.Points < 1 {
		return 1
	}
	return q.Points
}

func gradeQuestion(q *courseModels.Question, raw []string) QuestionResult {
	qr := QuestionResult{
		QuestionID:     q.ID,
		QuestionType:   q.QuestionType,
		PointsPossible: points(q),
	}
	var answered bool
	switch q.QuestionType {
	case courseModels.Matching, courseModels.Ordering:
		qr.Submitted, answered = slotValues(raw)
	default:
		qr.Submitted = cleanValues(raw)
		answered = len(qr.Submitted) > 0
	}

	if q.QuestionType == courseModels.LongAnswer {
		qr.Status = courseModels.AnswerRequiresManualGrading
		return qr
	}
	if !answered {
		qr.Status = courseModels.AnswerUnanswered
		return qr
	}

	var fraction float64
	var ok bool
	switch q.QuestionType {
	case courseModels.MultipleChoice, courseModels.TrueFalse:
		fraction, ok = gradeSingleChoice(q, qr.Submitted)
	case courseModels.MultipleSelect:
		fraction, ok = gradeMultipleSelect(q, qr.Submitted)
	case courseModels.ShortAnswer:
		fraction, ok = gradeShortAnswer(q, qr.Submitted)
	case courseModels.Matching, courseModels.Ordering:
		fraction, ok = gradeSequence(q, qr.Submitted)
	default:
		ok = false
	}

	if !ok {
		qr.Status = courseModels.AnswerMalformed
		return qr
	}
	qr.Status = courseModels.AnswerGraded
	qr.IsCorrect = fraction >= 1
	qr.PointsAwarded = float64(qr.PointsPossible) * fraction
	return qr
}

// gradeSingleChoice expects exactly one option ID. Partial credit does not
// apply.
func gradeSingleChoice(q *courseModels.Question, submitted []string) (float64, bool) {
	if len(submitted) != 1 {
		return 0, false
	}
	correct := correctOptionIDs(q)
	if len(correct) != 1 {
		return 0, true
	}
	if submitted[0] == correct[0] {
		return 1, true
	}
	return 0, true
}

func gradeMultipleSelect(q *courseModels.Question, submitted []string) (float64, bool) {
	correct := toSet(correctOptionIDs(q))
	if len(correct) == 0 {
		return 0, true
	}
	selected := toSet(submitted)

	correctlySelected, incorrectlySelected := 0, 0
	for id := range selected {
		if correct[id] {
			correctlySelected++
		} else {
			incorrectlySelected++
		}
	}

	exact := incorrectlySelected == 0 && correctlySelected == len(correct)
	if exact {
		return 1, true
	}
	if !q.AllowPartialCredit {
		return 0, true
	}
	f := float64(correctlySelected-incorrectlySelected) / float64(len(correct))
	if f < 0 {
		f = 0
	}
	return f, true
}

func gradeShortAnswer(q *courseModels.Question, submitted []string) (float64, bool) {
	if len(submitted) != 1 {
		return 0, false
	}
	answer := submitted[0]
	for _, opt := range q.Options {
		if !opt.IsCorrect {
			continue
		}
		expected := strings.TrimSpace(opt.Text)
		if q.CaseSensitive {
			if answer == expected {
				return 1, true
			}
		} else if strings.EqualFold(answer, expected) {
			return 1, true
		}
	}
	return 0, true
}

// gradeSequence compares the submitted option order to the canonical order of
// correct options.
func gradeSequence(q *courseModels.Question, submitted []string) (float64, bool) {
	canonical := canonicalSequence(q)
	if len(canonical) == 0 {
		return 0, true
	}
	if len(submitted) == len(canonical) {
		exact := true
		for i := range canonical {
			if submitted[i] != canonical[i] {
				exact = false
				break
			}
		}
		if exact {
			return 1, true
		}
	}
	if !q.AllowPartialCredit {
		return 0, true
	}
	matches := 0
	for i := range canonical {
		if i < len(submitted) && submitted[i] == canonical[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(canonical)), true
}

func canonicalSequence(q *courseModels.Question) []string {
	var opts []courseModels.Option
	for _, o := range q.Options {
		if o.IsCorrect {
			opts = append(opts, o)
		}
	}
	sort.SliceStable(opts, func(i, j int) bool {
		if opts[i].OrderIndex != opts[j].OrderIndex {
			return opts[i].OrderIndex < opts[j].OrderIndex
		}
		return opts[i].ID < opts[j].ID
	})
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.ID
	}
	return out
}

func correctOptionIDs(q *courseModels.Question) []string {
	var out []string
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o.ID)
		}
	}
	return out
}

func correctValues(q *courseModels.Question) []string {
	switch q.QuestionType {
	case courseModels.LongAnswer:
		return nil
	case courseModels.ShortAnswer:
		var out []string
		for _, o := range q.Options {
			if o.IsCorrect {
				out = append(out, strings.TrimSpace(o.Text))
			}
		}
		return out
	case courseModels.Matching, courseModels.Ordering:
		return canonicalSequence(q)
	}
	return correctOptionIDs(q)
}

// slotValues trims every value of a sequence answer but keeps blank slots in
// place, so a gap never shifts later positions. The answer counts as given
// when at least one slot is filled.
func slotValues(raw []string) ([]string, bool) {
	out := make([]string, len(raw))
	filled := false
	for i, v := range raw {
		out[i] = strings.TrimSpace(v)
		if out[i] != "" {
			filled = true
		}
	}
	return out, filled
}

// cleanValues trims every value and drops empty ones.
func cleanValues(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func canonicalOrder(questions []courseModels.Question) []courseModels.Question {
	ordered := make([]courseModels.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].OrderIndex != ordered[j].OrderIndex {
			return ordered[i].OrderIndex < ordered[j].OrderIndex
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}
