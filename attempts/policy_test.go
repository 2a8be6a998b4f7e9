package attempts

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/authz"
	"coursehub/grading"
	courseModels "coursehub/models/course"
)

var student = authz.Actor{ID: "u1", Role: authz.RoleStudent}

func intPtr(v int) *int { return &v }

func attempt(score int, passed, practice bool) courseModels.QuizAttempt {
	return courseModels.QuizAttempt{Score: score, Passed: passed, IsPractice: practice}
}

func TestCanAttemptExhausted(t *testing.T) {
	quiz := &courseModels.Quiz{MaxAttempts: intPtr(2)}
	prior := []courseModels.QuizAttempt{attempt(10, false, false), attempt(40, false, false)}

	d := CanAttempt(student, quiz, prior, false)

	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAttemptsExhausted, d.Reason)
	assert.Equal(t, 2, d.AttemptsUsed)
	require.NotNil(t, d.AttemptsRemaining)
	assert.Equal(t, 0, *d.AttemptsRemaining)
}

func TestCanAttemptPracticeDoesNotCount(t *testing.T) {
	quiz := &courseModels.Quiz{MaxAttempts: intPtr(2)}
	prior := []courseModels.QuizAttempt{attempt(10, false, false), attempt(100, true, true), attempt(0, false, true)}

	d := CanAttempt(student, quiz, prior, false)

	assert.True(t, d.Allowed)
	assert.False(t, d.Practice)
	assert.Equal(t, 1, d.AttemptsUsed)
	assert.Equal(t, 1, *d.AttemptsRemaining)
}

func TestCanAttemptAlreadyPassed(t *testing.T) {
	quiz := &courseModels.Quiz{}
	prior := []courseModels.QuizAttempt{attempt(90, true, false)}

	d := CanAttempt(student, quiz, prior, false)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAlreadyPassed, d.Reason)
	assert.Nil(t, d.AttemptsRemaining)

	d = CanAttempt(student, quiz, prior, true)
	assert.True(t, d.Allowed)
	assert.True(t, d.Practice)
}

func TestCanAttemptPracticeRefusedAfterExhaustion(t *testing.T) {
	quiz := &courseModels.Quiz{MaxAttempts: intPtr(2), ShowFeedback: true}
	prior := []courseModels.QuizAttempt{attempt(0, false, false), attempt(20, false, false)}

	d := CanAttempt(student, quiz, prior, true)
	assert.False(t, d.Allowed)
	assert.False(t, d.Practice)
	assert.Equal(t, ReasonAttemptsExhausted, d.Reason)
}

func TestCanAttemptPracticeBeforePassIsCounted(t *testing.T) {
	quiz := &courseModels.Quiz{MaxAttempts: intPtr(2), ShowFeedback: true}

	d := CanAttempt(student, quiz, nil, true)
	assert.True(t, d.Allowed)
	assert.False(t, d.Practice)
	assert.Equal(t, 2, *d.AttemptsRemaining)

	// An earlier practice pass does not open practice mode either.
	d = CanAttempt(student, quiz, []courseModels.QuizAttempt{attempt(100, true, true)}, true)
	assert.True(t, d.Allowed)
	assert.False(t, d.Practice)
}

func TestCanAttemptStaffAlwaysPractice(t *testing.T) {
	quiz := &courseModels.Quiz{MaxAttempts: intPtr(1)}
	prior := []courseModels.QuizAttempt{attempt(0, false, false)}

	d := CanAttempt(authz.Actor{ID: "m1", Role: authz.RoleManager}, quiz, prior, false)
	assert.True(t, d.Allowed)
	assert.True(t, d.Practice)
}

func TestCanAttemptAnonymous(t *testing.T) {
	d := CanAttempt(authz.Actor{}, &courseModels.Quiz{}, nil, false)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNotAllowed, d.Reason)
}

func TestBestScoreIgnoresPractice(t *testing.T) {
	assert.Equal(t, -1, BestScore(nil))
	assert.Equal(t, 60, BestScore([]courseModels.QuizAttempt{attempt(60, false, false), attempt(100, true, true)}))
}

func TestShufflerPermIsPermutation(t *testing.T) {
	s := NewShuffler(rand.NewSource(1))
	for n := 0; n < 20; n++ {
		p := s.Perm(n)
		sorted := append([]int(nil), p...)
		sort.Ints(sorted)
		for i := range sorted {
			assert.Equal(t, i, sorted[i])
		}
	}
}

func TestShufflerIsRoughlyUniform(t *testing.T) {
	s := NewShuffler(rand.NewSource(3))
	counts := map[int]int{}
	const runs = 6000
	for i := 0; i < runs; i++ {
		counts[s.Perm(3)[0]]++
	}
	for v := 0; v < 3; v++ {
		assert.InDelta(t, runs/3, counts[v], runs/10, "first position %d", v)
	}
}

func sampleQuiz() (*courseModels.Quiz, []courseModels.Question) {
	quiz := &courseModels.Quiz{Base: courseModels.Base{ID: "quiz"}, ShuffleQuestions: true, ShuffleOptions: true, PassingScore: 50}
	var qs []courseModels.Question
	for i := 0; i < 6; i++ {
		id := string(rune('a' + i))
		qs = append(qs, courseModels.Question{
			Base:         courseModels.Base{ID: id},
			QuestionType: courseModels.MultipleChoice,
			Points:       1,
			OrderIndex:   i,
			Options: []courseModels.Option{
				{Base: courseModels.Base{ID: id + "-1"}, Text: "one", IsCorrect: true, OrderIndex: 0},
				{Base: courseModels.Base{ID: id + "-2"}, Text: "two", OrderIndex: 1},
				{Base: courseModels.Base{ID: id + "-3"}, Text: "three", OrderIndex: 2},
			},
		})
	}
	return quiz, qs
}

func TestPresentShufflingKeepsAnswerKey(t *testing.T) {
	quiz, qs := sampleQuiz()
	answers := grading.Submission{}
	for _, q := range qs {
		answers[q.ID] = []string{q.ID + "-1"}
	}
	before := grading.Grade(quiz, qs, answers)

	s := NewShuffler(rand.NewSource(99))
	for i := 0; i < 10; i++ {
		view := Present(quiz, qs, s)
		require.Len(t, view.Questions, len(qs))
		assert.Equal(t, before, grading.Grade(quiz, qs, answers))
	}
	assert.Equal(t, "a", qs[0].ID)
	assert.Equal(t, "a-1", qs[0].Options[0].ID)
}

func TestPresentWithoutShuffleKeepsAuthoredOrder(t *testing.T) {
	quiz, qs := sampleQuiz()
	quiz.ShuffleQuestions = false
	quiz.ShuffleOptions = false

	view := Present(quiz, qs, NewShuffler(rand.NewSource(5)))

	for i, q := range view.Questions {
		assert.Equal(t, qs[i].ID, q.ID)
		assert.Equal(t, []PresentedOption{{ID: q.ID + "-1", Text: "one"}, {ID: q.ID + "-2", Text: "two"}, {ID: q.ID + "-3", Text: "three"}}, q.Options)
	}
}

func TestPresentHidesShortAnswerKey(t *testing.T) {
	quiz := &courseModels.Quiz{}
	qs := []courseModels.Question{{
		Base:         courseModels.Base{ID: "sa"},
		QuestionType: courseModels.ShortAnswer,
		Options:      []courseModels.Option{{Base: courseModels.Base{ID: "o"}, Text: "Paris", IsCorrect: true}},
	}}

	view := Present(quiz, qs, nil)

	assert.Empty(t, view.Questions[0].Options)
}
