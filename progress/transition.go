package progress

import courseModels "coursehub/models/course"

// AttemptOutcome is what the topic transition needs to know about a graded
// attempt.
type AttemptOutcome struct {
	Passed      bool
	Practice    bool
	NeedsReview bool
	Exhausted   bool
}

// TopicStatusAfterAttempt returns the topic status after a graded attempt.
// Practice attempts never move progress and COMPLETED is never reverted.
func TopicStatusAfterAttempt(current courseModels.ProgressStatus, o AttemptOutcome) courseModels.ProgressStatus {
	if o.Practice || current == courseModels.Completed {
		return current
	}
	switch {
	case o.Passed:
		return courseModels.Completed
	case o.NeedsReview:
		return courseModels.NeedsReview
	case o.Exhausted:
		return courseModels.Failed
	}
	return courseModels.InProgress
}

// TopicStatusAfterStart moves an untouched topic to IN_PROGRESS.
func TopicStatusAfterStart(current courseModels.ProgressStatus) courseModels.ProgressStatus {
	if current == "" || current == courseModels.NotStarted {
		return courseModels.InProgress
	}
	return current
}
