package submission

import (
	"time"

	"github.com/labportal/server/internal/model"
)

// StatusFor derives the displayed status of task from the user's latest
// submission. Without a submission the task is not started. Past the due date
// every status but reviewed shows as late.
func StatusFor(task *model.Task, sub *model.Submission, now time.Time) model.SubmissionStatus {
	if sub == nil {
		return model.SubmissionStatusNotStarted
	}
	if sub.Status == model.SubmissionStatusReviewed {
		return model.SubmissionStatusReviewed
	}
	if task != nil && task.IsOverdueAt(now) {
		return model.SubmissionStatusLate
	}
	return sub.Status
}
