// Package progress holds the completion rules that roll topic state up into
// module, course and enrollment progress. Everything here is pure; the
// services package persists the results.
package progress

import (
	"math"

	courseModels "coursehub/models/course"
)

// State is one student's topic statuses and best non-practice quiz scores,
// both keyed by topic ID.
type State struct {
	TopicStatus map[string]courseModels.ProgressStatus
	BestScores  map[string]int
}

func (s State) status(topicID string) courseModels.ProgressStatus {
	if st, ok := s.TopicStatus[topicID]; ok {
		return st
	}
	return courseModels.NotStarted
}

type ModuleSummary struct {
	ModuleID          string `json:"module_id"`
	Required          bool   `json:"required"`
	Completed         bool   `json:"completed"`
	Percent           int    `json:"percent"`
	TopicsTotal       int    `json:"topics_total"`
	TopicsCompleted   int    `json:"topics_completed"`
	RequiredTotal     int    `json:"required_total"`
	RequiredCompleted int    `json:"required_completed"`
	AssessmentMet     bool   `json:"assessment_met"`
}

func (m ModuleSummary) Status() courseModels.ProgressStatus {
	switch {
	case m.Completed:
		return courseModels.Completed
	case m.TopicsCompleted > 0:
		return courseModels.InProgress
	}
	return courseModels.NotStarted
}

type Summary struct {
	Modules           []ModuleSummary `json:"modules"`
	OverallProgress   int             `json:"overall_progress"`
	RequiredTotal     int             `json:"required_total"`
	RequiredCompleted int             `json:"required_completed"`
	CourseCompleted   bool            `json:"course_completed"`
}

func (s Summary) Module(id string) (ModuleSummary, bool) {
	for _, m := range s.Modules {
		if m.ModuleID == id {
			return m, true
		}
	}
	return ModuleSummary{}, false
}

// Rollup recomputes every derived value for the course from topic state.
// Required topics count toward the percentage wherever they live, and the
// course completes only when every module is COMPLETED.
func Rollup(c *courseModels.Course, st State) Summary {
	var sum Summary
	allTotal, allDone := 0, 0
	modulesDone := 0

	for i := range c.Modules {
		ms := summarizeModule(&c.Modules[i], st)
		sum.Modules = append(sum.Modules, ms)

		allTotal += ms.TopicsTotal
		allDone += ms.TopicsCompleted
		sum.RequiredTotal += ms.RequiredTotal
		sum.RequiredCompleted += ms.RequiredCompleted
		if ms.Completed {
			modulesDone++
		}
	}

	if sum.RequiredTotal > 0 {
		sum.OverallProgress = percent(sum.RequiredCompleted, sum.RequiredTotal)
	} else {
		sum.OverallProgress = percent(allDone, allTotal)
	}
	sum.CourseCompleted = len(c.Modules) > 0 && modulesDone == len(c.Modules)
	return sum
}

// ModuleCompleted is true iff every required topic is COMPLETED and, when the
// module gates on an assessment, its best score meets the module's passing
// score.
func ModuleCompleted(m *courseModels.Module, st State) bool {
	return summarizeModule(m, st).Completed
}

func summarizeModule(m *courseModels.Module, st State) ModuleSummary {
	ms := ModuleSummary{ModuleID: m.ID, Required: m.IsRequired, TopicsTotal: len(m.Topics)}
	for i := range m.Topics {
		t := &m.Topics[i]
		done := st.status(t.ID) == courseModels.Completed
		if done {
			ms.TopicsCompleted++
		}
		if t.IsRequired {
			ms.RequiredTotal++
			if done {
				ms.RequiredCompleted++
			}
		}
	}
	ms.Percent = percent(ms.TopicsCompleted, ms.TopicsTotal)
	ms.AssessmentMet = assessmentMet(m, st)
	ms.Completed = ms.RequiredCompleted == ms.RequiredTotal && ms.AssessmentMet
	return ms
}

func assessmentMet(m *courseModels.Module, st State) bool {
	if m.PassingScore <= 0 {
		return true
	}
	a := m.Assessment()
	if a == nil {
		return true
	}
	best, ok := st.BestScores[a.ID]
	return ok && best >= m.PassingScore
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
