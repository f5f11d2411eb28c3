package submission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/labportal/server/internal/model"
)

func TestStatusFor(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	onTime := &model.Task{DueAt: &future}
	overdue := &model.Task{DueAt: &past}
	undated := &model.Task{}

	sub := func(s model.SubmissionStatus) *model.Submission {
		return &model.Submission{Status: s}
	}

	tests := []struct {
		name string
		task *model.Task
		sub  *model.Submission
		want model.SubmissionStatus
	}{
		{"no submission", onTime, nil, model.SubmissionStatusNotStarted},
		{"no submission past due", overdue, nil, model.SubmissionStatusNotStarted},
		{"in progress", onTime, sub(model.SubmissionStatusInProgress), model.SubmissionStatusInProgress},
		{"in progress past due", overdue, sub(model.SubmissionStatusInProgress), model.SubmissionStatusLate},
		{"submitted", onTime, sub(model.SubmissionStatusSubmitted), model.SubmissionStatusSubmitted},
		{"submitted past due", overdue, sub(model.SubmissionStatusSubmitted), model.SubmissionStatusLate},
		{"reviewed", onTime, sub(model.SubmissionStatusReviewed), model.SubmissionStatusReviewed},
		{"reviewed past due", overdue, sub(model.SubmissionStatusReviewed), model.SubmissionStatusReviewed},
		{"no due date", undated, sub(model.SubmissionStatusSubmitted), model.SubmissionStatusSubmitted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.task, tt.sub, now))
		})
	}
}
