package model

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Milestone is a weighted, time-boxed grouping of tasks.
type Milestone struct {
	ID            uuid.UUID  `json:"id"`
	ProjectID     uuid.UUID  `json:"project_id"`
	Title         string     `json:"title"`
	Weight        float64    `json:"weight"`
	StartAt       *time.Time `json:"start_at,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	OriginalDueAt *time.Time `json:"original_due_at,omitempty"`
	Delayed       bool       `json:"delayed"`
	Progress      float64    `json:"progress"`
}

// TaskStatus is the workflow status a mentor assigns to a task.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Task is a unit of work inside a milestone.
type Task struct {
	ID             uuid.UUID  `json:"id"`
	MilestoneID    uuid.UUID  `json:"milestone_id"`
	Label          string     `json:"label"`
	Priority       string     `json:"priority,omitempty"`
	Complexity     int        `json:"complexity"`
	EstimatedHours float64    `json:"estimated_hours"`
	Weight         float64    `json:"weight"`
	AssigneeID     uuid.UUID  `json:"assignee_id"`
	StartAt        *time.Time `json:"start_at,omitempty"`
	DueAt          *time.Time `json:"due_at,omitempty"`
	Status         TaskStatus `json:"status"`
}

// IsOverdueAt reports whether the task's due date passed before now.
func (t *Task) IsOverdueAt(now time.Time) bool {
	return t.DueAt != nil && now.After(*t.DueAt)
}

// SubmissionStatus is the state of a deliverable and the derived display status of a task.
type SubmissionStatus string

const (
	SubmissionStatusNotStarted SubmissionStatus = "not_started"
	SubmissionStatusInProgress SubmissionStatus = "in_progress"
	SubmissionStatusSubmitted  SubmissionStatus = "submitted"
	SubmissionStatusReviewed   SubmissionStatus = "reviewed"
	SubmissionStatusLate       SubmissionStatus = "late"
)

// Submission is a user's deliverable for a task.
type Submission struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TaskID    uuid.UUID        `json:"task_id" gorm:"type:uuid;not null;index:idx_submissions_task_user"`
	UserID    uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index:idx_submissions_task_user"`
	FileRef   string           `json:"file_ref" gorm:"not null"`
	FileName  string           `json:"file_name,omitempty"`
	Status    SubmissionStatus `json:"status" gorm:"not null;default:submitted"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName returns the database table name.
func (Submission) TableName() string {
	return "task_submissions"
}

// SubmissionFilter narrows a submission listing. Zero values are ignored.
type SubmissionFilter struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

// LatestSubmission returns the most recent submission, or nil. On equal
// timestamps the later element wins.
func LatestSubmission(subs []*Submission) *Submission {
	var latest *Submission
	for _, s := range subs {
		if s == nil {
			continue
		}
		if latest == nil || !s.CreatedAt.Before(latest.CreatedAt) {
			latest = s
		}
	}
	return latest
}

// FileUpload is a deliverable file on its way to the file store.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
