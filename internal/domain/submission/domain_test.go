package submission

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labportal/server/internal/adapter/outbound/memory"
	"github.com/labportal/server/internal/domain/membership"
	"github.com/labportal/server/internal/model"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/pagination"
)

type fixture struct {
	projects    *memory.ProjectDirectory
	memberships *memory.MembershipStore
	tasks       *memory.TaskStore
	submissions *memory.SubmissionStore
	files       *memory.FileStore
	domain      *Domain
	clock       time.Time

	project   *model.Project
	milestone *model.Milestone
	task      *model.Task
	student   model.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		projects:    memory.NewProjectDirectory(),
		memberships: memory.NewMembershipStore(),
		tasks:       memory.NewTaskStore(),
		submissions: memory.NewSubmissionStore(),
		files:       memory.NewFileStore(),
		clock:       time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
	members := membership.NewDomain(f.projects, f.memberships, nil, nil, nil, nil)
	f.domain = NewDomain(f.tasks, f.submissions, f.files, members, nil, nil, nil, nil)
	f.domain.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}

	f.project = &model.Project{ID: uuid.New(), Title: "P", Status: model.ProjectStatusOpen, SemesterID: "2026-fall"}
	f.projects.Put(f.project)

	due := f.clock.Add(7 * 24 * time.Hour)
	f.milestone = &model.Milestone{ID: uuid.New(), ProjectID: f.project.ID, Title: "M1", DueAt: &due}
	f.tasks.PutMilestone(f.milestone)

	f.student = model.Caller{UserID: uuid.New(), Role: model.SystemRoleStudent}
	require.NoError(t, f.memberships.CreateMembership(context.Background(), &model.Membership{
		UserID: f.student.UserID, ProjectID: f.project.ID, Role: model.ProjectRoleMember, SemesterID: "2026-fall",
	}))

	f.task = f.addTask(f.milestone, f.student.UserID, &due)
	return f
}

func (f *fixture) addTask(ms *model.Milestone, assignee uuid.UUID, due *time.Time) *model.Task {
	task := &model.Task{ID: uuid.New(), MilestoneID: ms.ID, Label: "Task", AssigneeID: assignee, DueAt: due}
	f.tasks.PutTask(task)
	return task
}

func upload(name, body string) model.FileUpload {
	return model.FileUpload{
		Name:        name,
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores file and submission", func(t *testing.T) {
		f := newFixture(t)

		sub, err := f.domain.Submit(ctx, f.student, f.task.ID, upload("../report.pdf", "draft"))
		require.NoError(t, err)
		assert.Equal(t, model.SubmissionStatusSubmitted, sub.Status)
		assert.Equal(t, "report.pdf", sub.FileName)
		assert.True(t, strings.HasPrefix(sub.FileRef, "submissions/"+f.task.ID.String()+"/"))

		body, ok := f.files.Object(sub.FileRef)
		require.True(t, ok)
		assert.Equal(t, "draft", string(body))
	})

	t.Run("resubmission supersedes", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.domain.Submit(ctx, f.student, f.task.ID, upload("v1.pdf", "one"))
		require.NoError(t, err)
		second, err := f.domain.Submit(ctx, f.student, f.task.ID, upload("v2.pdf", "two"))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		view, err := f.domain.TaskStatus(ctx, f.student, f.task.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, view.Submission.ID)
		assert.Equal(t, "memory://"+second.FileRef, view.FileURL)
	})

	t.Run("resubmission after review is allowed", func(t *testing.T) {
		f := newFixture(t)
		reviewed := &model.Submission{
			TaskID: f.task.ID, UserID: f.student.UserID, FileRef: "old", Status: model.SubmissionStatusReviewed,
			CreatedAt: f.clock.Add(-time.Hour),
		}
		require.NoError(t, f.submissions.CreateSubmission(ctx, reviewed))

		sub, err := f.domain.Submit(ctx, f.student, f.task.ID, upload("v2.pdf", "two"))
		require.NoError(t, err)

		view, err := f.domain.TaskStatus(ctx, f.student, f.task.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, view.Submission.ID)
		assert.Equal(t, model.SubmissionStatusSubmitted, view.Status)
	})

	t.Run("non member", func(t *testing.T) {
		f := newFixture(t)
		outsider := model.Caller{UserID: uuid.New(), Role: model.SystemRoleStudent}

		_, err := f.domain.Submit(ctx, outsider, f.task.ID, upload("a.pdf", "x"))
		assert.ErrorIs(t, err, membership.ErrNotAMember)
	})

	t.Run("member of an archived project", func(t *testing.T) {
		f := newFixture(t)
		f.project.Status = model.ProjectStatusArchived
		f.projects.Put(f.project)

		_, err := f.domain.Submit(ctx, f.student, f.task.ID, upload("a.pdf", "x"))
		assert.ErrorIs(t, err, membership.ErrNotAMember)
	})

	t.Run("unknown task", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.domain.Submit(ctx, f.student, uuid.New(), upload("a.pdf", "x"))
		assert.True(t, apperrors.IsNotFound(err))
	})

	tests := []struct {
		name    string
		file    model.FileUpload
		wantErr error
	}{
		{"missing name", upload("  ", "x"), ErrMissingFileName},
		{"empty body", upload("a.pdf", ""), ErrEmptyFile},
		{"nil body", model.FileUpload{Name: "a.pdf", Size: 3}, ErrEmptyFile},
		{"too large", model.FileUpload{Name: "a.pdf", Size: DefaultConfig().MaxFileSize + 1, Body: strings.NewReader("x")}, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.domain.Submit(ctx, f.student, f.task.ID, tt.file)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestTaskStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	view, err := f.domain.TaskStatus(ctx, f.student, f.task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusNotStarted, view.Status)
	assert.Nil(t, view.Submission)

	_, err = f.domain.Submit(ctx, f.student, f.task.ID, upload("a.pdf", "x"))
	require.NoError(t, err)

	mentor := model.Caller{UserID: uuid.New(), Role: model.SystemRoleMentor}
	view, err = f.domain.TaskStatus(ctx, mentor, f.task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusSubmitted, view.Status)

	f.clock = f.clock.Add(30 * 24 * time.Hour)
	view, err = f.domain.TaskStatus(ctx, f.student, f.task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusLate, view.Status)
}

type flakyTaskStore struct {
	*memory.TaskStore
	failMilestone uuid.UUID
}

func (s *flakyTaskStore) ListTasks(ctx context.Context, milestoneID uuid.UUID, page *pagination.Pagination) ([]*model.Task, error) {
	if milestoneID == s.failMilestone {
		return nil, apperrors.Transient("", errors.New("upstream timeout"))
	}
	return s.TaskStore.ListTasks(ctx, milestoneID, page)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	later := f.clock.Add(14 * 24 * time.Hour)
	empty := &model.Milestone{ID: uuid.New(), ProjectID: f.project.ID, Title: "M2", DueAt: &later}
	f.tasks.PutMilestone(empty)
	f.addTask(f.milestone, uuid.New(), nil)

	_, err := f.domain.Submit(ctx, f.student, f.task.ID, upload("a.pdf", "x"))
	require.NoError(t, err)

	dash, err := f.domain.Dashboard(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, dash.Groups, 2)

	first := dash.Groups[0]
	assert.Equal(t, f.milestone.ID, first.Milestone.ID)
	require.Len(t, first.Tasks, 1)
	assert.Equal(t, f.task.ID, first.Tasks[0].Task.ID)
	assert.Equal(t, model.SubmissionStatusSubmitted, first.Tasks[0].Status)

	second := dash.Groups[1]
	assert.Equal(t, empty.ID, second.Milestone.ID)
	assert.Empty(t, second.Tasks)
	assert.NotNil(t, second.Tasks)
	assert.False(t, second.Degraded)

	assert.Equal(t, 1, dash.Counts[model.SubmissionStatusSubmitted])
}

func TestDashboard_DegradesFailedMilestone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	later := f.clock.Add(14 * 24 * time.Hour)
	broken := &model.Milestone{ID: uuid.New(), ProjectID: f.project.ID, Title: "M2", DueAt: &later}
	f.tasks.PutMilestone(broken)
	f.domain.tasks = &flakyTaskStore{TaskStore: f.tasks, failMilestone: broken.ID}

	dash, err := f.domain.Dashboard(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, dash.Groups, 2)
	assert.False(t, dash.Groups[0].Degraded)
	assert.Len(t, dash.Groups[0].Tasks, 1)
	assert.True(t, dash.Groups[1].Degraded)
	assert.Empty(t, dash.Groups[1].Tasks)
}

func TestDashboard_WalksEveryTaskPage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.domain.cfg.TaskPageSize = 2
	for i := 0; i < 4; i++ {
		f.addTask(f.milestone, f.student.UserID, nil)
	}

	dash, err := f.domain.Dashboard(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, dash.Groups, 1)
	assert.Len(t, dash.Groups[0].Tasks, 5)
	assert.Equal(t, 5, dash.Counts[model.SubmissionStatusNotStarted])
}

func TestDashboard_NoMemberships(t *testing.T) {
	f := newFixture(t)
	nobody := model.Caller{UserID: uuid.New(), Role: model.SystemRoleStudent}

	dash, err := f.domain.Dashboard(context.Background(), nobody)
	require.NoError(t, err)
	assert.NotNil(t, dash.Groups)
	assert.Empty(t, dash.Groups)
}
