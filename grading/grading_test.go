package grading

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/apperr"
	courseModels "coursehub/models/course"
)

func opt(id string, correct bool, order int) courseModels.Option {
	return courseModels.Option{Base: courseModels.Base{ID: id}, Text: id, IsCorrect: correct, OrderIndex: order}
}

func question(id string, qt courseModels.QuestionType, order int, opts ...courseModels.Option) courseModels.Question {
	return courseModels.Question{
		Base:         courseModels.Base{ID: id},
		QuestionType: qt,
		Points:       1,
		OrderIndex:   order,
		Options:      opts,
	}
}

func trueFalse(id string, order int) courseModels.Question {
	return question(id, courseModels.TrueFalse, order,
		opt(id+"-true", true, 0), opt(id+"-false", false, 1))
}

func TestGradeTrueFalseCorrect(t *testing.T) {
	quiz := &courseModels.Quiz{PassingScore: 100}
	q := question("q1", courseModels.TrueFalse, 0, opt("opt-true", true, 0), opt("opt-false", false, 1))

	res := Grade(quiz, []courseModels.Question{q}, Submission{"q1": {"opt-true"}})

	require.Len(t, res.PerQuestion, 1)
	assert.Equal(t, 1.0, res.PerQuestion[0].PointsAwarded)
	assert.True(t, res.PerQuestion[0].IsCorrect)
	assert.Equal(t, courseModels.AnswerGraded, res.PerQuestion[0].Status)
	assert.Equal(t, 100, res.Score)
	assert.True(t, res.Passed)
}

func TestGradeThreeOfFourBelowPassingScore(t *testing.T) {
	quiz := &courseModels.Quiz{PassingScore: 80}
	qs := []courseModels.Question{trueFalse("a", 0), trueFalse("b", 1), trueFalse("c", 2), trueFalse("d", 3)}

	res := Grade(quiz, qs, Submission{
		"a": {"a-true"},
		"b": {"b-true"},
		"c": {"c-true"},
		"d": {"d-false"},
	})

	assert.Equal(t, 75, res.Score)
	assert.False(t, res.Passed)
	assert.Equal(t, 3, res.QuestionsCorrect)
	assert.Equal(t, 4, res.QuestionsTotal)
}

func TestGradeMultipleChoiceOnlyCorrectOptionScores(t *testing.T) {
	q := question("mc", courseModels.MultipleChoice, 0,
		opt("a", false, 0), opt("b", true, 1), opt("c", false, 2), opt("d", false, 3))
	quiz := &courseModels.Quiz{}

	for _, o := range q.Options {
		res := Grade(quiz, []courseModels.Question{q}, Submission{"mc": {o.ID}})
		if o.IsCorrect {
			assert.Equal(t, 1.0, res.PerQuestion[0].PointsAwarded, o.ID)
		} else {
			assert.Equal(t, 0.0, res.PerQuestion[0].PointsAwarded, o.ID)
		}
	}
}

func TestGradeSingleChoiceMalformed(t *testing.T) {
	q := question("mc", courseModels.MultipleChoice, 0, opt("a", true, 0), opt("b", false, 1))

	res := Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"mc": {"a", "b"}})

	assert.Equal(t, courseModels.AnswerMalformed, res.PerQuestion[0].Status)
	assert.Zero(t, res.PerQuestion[0].PointsAwarded)
	assert.False(t, res.PerQuestion[0].IsCorrect)
}

func TestGradeUnansweredCountsInDenominator(t *testing.T) {
	qs := []courseModels.Question{trueFalse("a", 0), trueFalse("b", 1)}

	res := Grade(&courseModels.Quiz{PassingScore: 50}, qs, Submission{"a": {"a-true"}, "b": {"   "}})

	assert.Equal(t, 50, res.Score)
	assert.True(t, res.Passed)
	assert.Equal(t, courseModels.AnswerUnanswered, res.PerQuestion[1].Status)
}

func TestGradeMultipleSelect(t *testing.T) {
	build := func(partial bool) courseModels.Question {
		q := question("ms", courseModels.MultipleSelect, 0,
			opt("a", true, 0), opt("b", true, 1), opt("c", false, 2), opt("d", false, 3))
		q.Points = 4
		q.AllowPartialCredit = partial
		return q
	}

	tests := []struct {
		name    string
		partial bool
		values  []string
		want    float64
		correct bool
	}{
		{"exact set any order", false, []string{"b", "a"}, 4, true},
		{"duplicates collapse", false, []string{"a", "b", "a"}, 4, true},
		{"subset without partial credit", false, []string{"a"}, 0, false},
		{"superset without partial credit", false, []string{"a", "b", "c"}, 0, false},
		{"subset with partial credit", true, []string{"a"}, 2, false},
		{"one right one wrong nets zero", true, []string{"a", "c"}, 0, false},
		{"more wrong than right floors at zero", true, []string{"a", "c", "d"}, 0, false},
		{"unknown id counts as wrong", true, []string{"a", "b", "zzz"}, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := build(tt.partial)
			res := Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"ms": tt.values})
			assert.InDelta(t, tt.want, res.PerQuestion[0].PointsAwarded, 1e-9)
			assert.Equal(t, tt.correct, res.PerQuestion[0].IsCorrect)
		})
	}
}

func TestGradeMultipleSelectWithoutPartialCreditIsAllOrNothing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d", "e"}
	q := question("ms", courseModels.MultipleSelect, 0,
		opt("a", true, 0), opt("b", false, 1), opt("c", true, 2), opt("d", false, 3), opt("e", true, 4))

	for i := 0; i < 500; i++ {
		var picked []string
		for _, id := range ids {
			if rng.Intn(2) == 0 {
				picked = append(picked, id)
			}
		}
		res := Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"ms": picked})
		exact := len(picked) == 3 && contains(picked, "a") && contains(picked, "c") && contains(picked, "e")
		if exact {
			assert.Equal(t, 1.0, res.PerQuestion[0].PointsAwarded, "%v", picked)
		} else {
			assert.Equal(t, 0.0, res.PerQuestion[0].PointsAwarded, "%v", picked)
		}
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func TestGradeShortAnswer(t *testing.T) {
	q := question("sa", courseModels.ShortAnswer, 0,
		courseModels.Option{Base: courseModels.Base{ID: "o1"}, Text: " Paris ", IsCorrect: true},
		courseModels.Option{Base: courseModels.Base{ID: "o2"}, Text: "Lyon", IsCorrect: false})

	res := Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"sa": {"  paris\n"}})
	assert.True(t, res.PerQuestion[0].IsCorrect)

	res = Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"sa": {"Lyon"}})
	assert.False(t, res.PerQuestion[0].IsCorrect)

	q.CaseSensitive = true
	res = Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"sa": {"paris"}})
	assert.False(t, res.PerQuestion[0].IsCorrect)
	res = Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"sa": {"Paris"}})
	assert.True(t, res.PerQuestion[0].IsCorrect)
}

func TestGradeLongAnswerNeedsManualReview(t *testing.T) {
	long := question("la", courseModels.LongAnswer, 1)
	long.Points = 3
	qs := []courseModels.Question{trueFalse("tf", 0), long}

	res := Grade(&courseModels.Quiz{PassingScore: 25}, qs, Submission{"tf": {"tf-true"}, "la": {"an essay"}})

	assert.True(t, res.NeedsManualReview)
	assert.Equal(t, courseModels.AnswerRequiresManualGrading, res.PerQuestion[1].Status)
	assert.Zero(t, res.PerQuestion[1].PointsAwarded)
	assert.Equal(t, 4, res.PointsPossible)
	assert.Equal(t, 25, res.Score)
}

func TestGradeOrdering(t *testing.T) {
	q := question("ord", courseModels.Ordering, 0,
		opt("third", true, 3), opt("first", true, 1), opt("second", true, 2))
	q.Points = 3

	res := Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"ord": {"first", "second", "third"}})
	assert.True(t, res.PerQuestion[0].IsCorrect)
	assert.Equal(t, 3.0, res.PerQuestion[0].PointsAwarded)

	res = Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"ord": {"first", "third", "second"}})
	assert.False(t, res.PerQuestion[0].IsCorrect)
	assert.Zero(t, res.PerQuestion[0].PointsAwarded)

	q.AllowPartialCredit = true
	res = Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"ord": {"first", "third", "second"}})
	assert.InDelta(t, 1.0, res.PerQuestion[0].PointsAwarded, 1e-9)
}

func TestGradeSequenceKeepsBlankSlotsInPlace(t *testing.T) {
	q := question("ord", courseModels.Ordering, 0, opt("a", true, 0), opt("b", true, 1), opt("c", true, 2))
	q.Points = 3
	q.AllowPartialCredit = true

	res := Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"ord": {"", "a", "b"}})
	qr := res.PerQuestion[0]
	assert.Equal(t, courseModels.AnswerGraded, qr.Status)
	assert.Equal(t, []string{"", "a", "b"}, qr.Submitted)
	assert.Zero(t, qr.PointsAwarded)
	assert.False(t, qr.IsCorrect)

	res = Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"ord": {" a ", "  ", "c"}})
	assert.InDelta(t, 2.0, res.PerQuestion[0].PointsAwarded, 1e-9)

	res = Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{"ord": {" ", "", " "}})
	assert.Equal(t, courseModels.AnswerUnanswered, res.PerQuestion[0].Status)
	assert.Zero(t, res.PerQuestion[0].PointsAwarded)

	m := question("match", courseModels.Matching, 0, opt("x", true, 0), opt("y", true, 1))
	m.AllowPartialCredit = true
	m.Points = 2
	res = Grade(&courseModels.Quiz{}, []courseModels.Question{m}, Submission{"match": {"", "y"}})
	assert.InDelta(t, 1.0, res.PerQuestion[0].PointsAwarded, 1e-9)
}

func TestGradeResultsFollowQuestionOrder(t *testing.T) {
	qs := []courseModels.Question{trueFalse("z", 2), trueFalse("y", 0), trueFalse("x", 0)}

	res := Grade(&courseModels.Quiz{}, qs, Submission{})

	ids := []string{res.PerQuestion[0].QuestionID, res.PerQuestion[1].QuestionID, res.PerQuestion[2].QuestionID}
	assert.Equal(t, []string{"x", "y", "z"}, ids)
}

func TestGradeFeedback(t *testing.T) {
	q := trueFalse("tf", 0)
	q.Explanation = "because"

	res := Grade(&courseModels.Quiz{}, []courseModels.Question{q}, Submission{})
	assert.Empty(t, res.PerQuestion[0].CorrectValues)
	assert.Empty(t, res.PerQuestion[0].Explanation)

	res = Grade(&courseModels.Quiz{ShowFeedback: true}, []courseModels.Question{q}, Submission{})
	assert.Equal(t, []string{"tf-true"}, res.PerQuestion[0].CorrectValues)
	assert.Equal(t, "because", res.PerQuestion[0].Explanation)
}

func TestGradeEmptyQuiz(t *testing.T) {
	res := Grade(&courseModels.Quiz{PassingScore: 0}, nil, nil)
	assert.Zero(t, res.Score)
	assert.True(t, res.Passed)
}

func TestGradeScoreBoundsAndDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	types := []courseModels.QuestionType{
		courseModels.MultipleChoice, courseModels.MultipleSelect, courseModels.TrueFalse,
		courseModels.ShortAnswer, courseModels.LongAnswer, courseModels.Matching, courseModels.Ordering,
	}

	for i := 0; i < 200; i++ {
		var qs []courseModels.Question
		sub := Submission{}
		n := 1 + rng.Intn(6)
		for j := 0; j < n; j++ {
			id := string(rune('a' + j))
			q := question(id, types[rng.Intn(len(types))], rng.Intn(3),
				opt(id+"1", true, 0), opt(id+"2", rng.Intn(2) == 0, 1), opt(id+"3", false, 2))
			q.Points = rng.Intn(4) - 1
			q.AllowPartialCredit = rng.Intn(2) == 0
			qs = append(qs, q)

			var values []string
			picks := rng.Intn(4)
			for k := 0; k < picks; k++ {
				values = append(values, id+string(rune('0'+rng.Intn(5))))
			}
			sub[id] = values
		}
		quiz := &courseModels.Quiz{PassingScore: rng.Intn(101)}

		first := Grade(quiz, qs, sub)
		second := Grade(quiz, qs, sub)

		assert.Equal(t, first, second)
		assert.GreaterOrEqual(t, first.Score, 0)
		assert.LessOrEqual(t, first.Score, 100)
		assert.Equal(t, first.Score >= quiz.PassingScore, first.Passed)
		assert.LessOrEqual(t, first.QuestionsCorrect, first.QuestionsTotal)
	}
}

func TestValidateQuiz(t *testing.T) {
	good := []courseModels.Question{trueFalse("tf", 0), question("la", courseModels.LongAnswer, 1)}
	assert.NoError(t, ValidateQuiz(&courseModels.Quiz{PassingScore: 70}, good))

	err := ValidateQuiz(&courseModels.Quiz{PassingScore: 70}, []courseModels.Question{
		question("mc", courseModels.MultipleChoice, 0),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
	assert.Equal(t, apperr.KindConfigInvalid, apperr.KindOf(err))

	twoCorrect := question("mc", courseModels.MultipleChoice, 0, opt("a", true, 0), opt("b", true, 1))
	assert.Error(t, ValidateQuiz(&courseModels.Quiz{}, []courseModels.Question{twoCorrect}))

	noCorrect := question("ms", courseModels.MultipleSelect, 0, opt("a", false, 0))
	assert.Error(t, ValidateQuiz(&courseModels.Quiz{}, []courseModels.Question{noCorrect}))

	assert.Error(t, ValidateQuiz(&courseModels.Quiz{PassingScore: 120}, good))
}

func TestQuizWarningsFlagUnshuffledSequences(t *testing.T) {
	qs := []courseModels.Question{
		trueFalse("tf", 0),
		question("ord", courseModels.Ordering, 1, opt("a", true, 0), opt("b", true, 1)),
		question("match", courseModels.Matching, 2, opt("x", true, 0)),
	}

	warnings := QuizWarnings(&courseModels.Quiz{}, qs)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "ord")
	assert.Contains(t, warnings[1], "match")

	assert.Empty(t, QuizWarnings(&courseModels.Quiz{ShuffleOptions: true}, qs))
	assert.Empty(t, QuizWarnings(&courseModels.Quiz{}, []courseModels.Question{trueFalse("tf", 0)}))
	assert.NoError(t, ValidateQuiz(&courseModels.Quiz{}, qs))
}
