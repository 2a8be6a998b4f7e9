package progress

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	courseModels "coursehub/models/course"
)

func mkTopic(id string, required bool) courseModels.Topic {
	return courseModels.Topic{Base: courseModels.Base{ID: id}, IsRequired: required, TopicType: courseModels.TopicLesson}
}

func mkModule(id string, required bool, topics ...courseModels.Topic) courseModels.Module {
	for i := range topics {
		topics[i].ModuleID = id
	}
	return courseModels.Module{Base: courseModels.Base{ID: id}, IsRequired: required, Topics: topics}
}

func statuses(kv ...string) map[string]courseModels.ProgressStatus {
	out := map[string]courseModels.ProgressStatus{}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = courseModels.ProgressStatus(kv[i+1])
	}
	return out
}

func TestRollupPartialModule(t *testing.T) {
	c := &courseModels.Course{Modules: []courseModels.Module{
		mkModule("m1", true, mkTopic("a", true), mkTopic("b", true), mkTopic("c", true)),
		mkModule("m2", true, mkTopic("d", true), mkTopic("e", true), mkTopic("f", true)),
	}}
	st := State{TopicStatus: statuses("a", "COMPLETED", "b", "COMPLETED", "c", "IN_PROGRESS")}

	sum := Rollup(c, st)

	m1, ok := sum.Module("m1")
	require.True(t, ok)
	assert.False(t, m1.Completed)
	assert.Equal(t, 67, m1.Percent)
	assert.Equal(t, courseModels.InProgress, m1.Status())
	// 2 of the course's 6 required topics.
	assert.Equal(t, 33, sum.OverallProgress)
	assert.False(t, sum.CourseCompleted)
}

func TestRollupOptionalTopicsDoNotBlock(t *testing.T) {
	c := &courseModels.Course{Modules: []courseModels.Module{
		mkModule("m1", true, mkTopic("a", true), mkTopic("opt", false)),
	}}
	st := State{TopicStatus: statuses("a", "COMPLETED")}

	sum := Rollup(c, st)

	assert.True(t, sum.Modules[0].Completed)
	assert.Equal(t, 50, sum.Modules[0].Percent)
	assert.Equal(t, 100, sum.OverallProgress)
	assert.True(t, sum.CourseCompleted)
}

func TestRollupCountsRequiredTopicsInOptionalModules(t *testing.T) {
	c := &courseModels.Course{Modules: []courseModels.Module{
		mkModule("m1", true, mkTopic("a", true)),
		mkModule("m2", false, mkTopic("b", true)),
	}}
	st := State{TopicStatus: statuses("a", "COMPLETED")}

	sum := Rollup(c, st)

	assert.Equal(t, 2, sum.RequiredTotal)
	assert.Equal(t, 50, sum.OverallProgress)
	assert.False(t, sum.CourseCompleted)

	st.TopicStatus["b"] = courseModels.Completed
	sum = Rollup(c, st)
	assert.Equal(t, 100, sum.OverallProgress)
	assert.True(t, sum.CourseCompleted)
}

func TestRollupModuleWithOnlyOptionalTopicsNeverBlocks(t *testing.T) {
	c := &courseModels.Course{Modules: []courseModels.Module{
		mkModule("m1", true, mkTopic("a", true)),
		mkModule("extra", false, mkTopic("x", false)),
	}}

	sum := Rollup(c, State{TopicStatus: statuses("a", "COMPLETED")})

	assert.Equal(t, 1, sum.RequiredTotal)
	assert.Equal(t, 100, sum.OverallProgress)
	assert.True(t, sum.CourseCompleted)
}

func TestRollupFallsBackToAllTopics(t *testing.T) {
	c := &courseModels.Course{Modules: []courseModels.Module{
		mkModule("m1", true, mkTopic("a", false), mkTopic("b", false), mkTopic("c", false), mkTopic("d", false)),
	}}
	st := State{TopicStatus: statuses("a", "COMPLETED")}

	assert.Equal(t, 25, Rollup(c, st).OverallProgress)
	assert.Equal(t, 0, Rollup(&courseModels.Course{}, State{}).OverallProgress)
	assert.False(t, Rollup(&courseModels.Course{}, State{}).CourseCompleted)
}

func TestModuleAssessmentGate(t *testing.T) {
	exam := mkTopic("exam", false)
	exam.TopicType = courseModels.TopicAssessment
	exam.Quiz = &courseModels.Quiz{PassingScore: 50}
	m := mkModule("m1", true, mkTopic("a", true), exam)
	m.PassingScore = 80

	st := State{TopicStatus: statuses("a", "COMPLETED"), BestScores: map[string]int{"exam": 70}}
	assert.False(t, ModuleCompleted(&m, st))

	st.BestScores["exam"] = 85
	assert.True(t, ModuleCompleted(&m, st))

	// Without an assessment the passing score does not gate anything.
	plain := mkModule("m2", true, mkTopic("b", true))
	plain.PassingScore = 80
	assert.True(t, ModuleCompleted(&plain, State{TopicStatus: statuses("b", "COMPLETED")}))
}

func TestModuleCompletedIffRequiredTopicsCompleted(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	all := []courseModels.ProgressStatus{
		courseModels.NotStarted, courseModels.InProgress, courseModels.Completed,
		courseModels.NeedsReview, courseModels.Failed,
	}

	for i := 0; i < 1000; i++ {
		var topics []courseModels.Topic
		st := State{TopicStatus: map[string]courseModels.ProgressStatus{}}
		want := true
		n := rng.Intn(8)
		for j := 0; j < n; j++ {
			id := fmt.Sprintf("t%d", j)
			required := rng.Intn(2) == 0
			topics = append(topics, mkTopic(id, required))
			status := all[rng.Intn(len(all))]
			st.TopicStatus[id] = status
			if required && status != courseModels.Completed {
				want = false
			}
		}
		m := mkModule("m", true, topics...)
		assert.Equal(t, want, ModuleCompleted(&m, st))

		sum := Rollup(&courseModels.Course{Modules: []courseModels.Module{m}}, st)
		assert.GreaterOrEqual(t, sum.OverallProgress, 0)
		assert.LessOrEqual(t, sum.OverallProgress, 100)
	}
}

func TestTopicStatusAfterAttempt(t *testing.T) {
	tests := []struct {
		name    string
		current courseModels.ProgressStatus
		outcome AttemptOutcome
		want    courseModels.ProgressStatus
	}{
		{"pass completes", courseModels.InProgress, AttemptOutcome{Passed: true}, courseModels.Completed},
		{"practice pass changes nothing", courseModels.InProgress, AttemptOutcome{Passed: true, Practice: true}, courseModels.InProgress},
		{"fail with attempts left", courseModels.NotStarted, AttemptOutcome{}, courseModels.InProgress},
		{"fail exhausted", courseModels.InProgress, AttemptOutcome{Exhausted: true}, courseModels.Failed},
		{"manual review", courseModels.InProgress, AttemptOutcome{NeedsReview: true}, courseModels.NeedsReview},
		{"completed is sticky", courseModels.Completed, AttemptOutcome{Exhausted: true}, courseModels.Completed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopicStatusAfterAttempt(tt.current, tt.outcome))
		})
	}
}

func TestTopicStatusAfterStart(t *testing.T) {
	assert.Equal(t, courseModels.InProgress, TopicStatusAfterStart(""))
	assert.Equal(t, courseModels.InProgress, TopicStatusAfterStart(courseModels.NotStarted))
	assert.Equal(t, courseModels.Failed, TopicStatusAfterStart(courseModels.Failed))
}
