package submission

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/labportal/server/internal/domain/membership"
	"github.com/labportal/server/internal/infra/events"
	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	"github.com/labportal/server/internal/utils/metrics"
	"github.com/labportal/server/internal/utils/pagination"
)

// MembershipChecker is the part of the membership domain submissions rely on.
type MembershipChecker interface {
	RequireActiveMember(ctx context.Context, userID, projectID uuid.UUID) (*membership.ActiveMembership, error)
	ActiveMemberships(ctx context.Context, userID uuid.UUID) ([]membership.ActiveMembership, error)
}

// EventPublisher receives domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// TaskView is a task with its derived status.
type TaskView struct {
	Task       *model.Task            `json:"task"`
	Submission *model.Submission      `json:"submission,omitempty"`
	Status     model.SubmissionStatus `json:"status"`
	FileURL    string                 `json:"file_url,omitempty"`
}

// MilestoneGroup holds the caller's tasks in one milestone. Degraded groups
// could not be loaded and are shown empty.
type MilestoneGroup struct {
	ProjectID uuid.UUID        `json:"project_id"`
	Milestone *model.Milestone `json:"milestone,omitempty"`
	Tasks     []TaskView       `json:"tasks"`
	Degraded  bool             `json:"degraded,omitempty"`
}

// Dashboard is a user's task overview across their active projects.
type Dashboard struct {
	Groups []MilestoneGroup               `json:"groups"`
	Counts map[model.SubmissionStatus]int `json:"counts"`
}

// Domain tracks deliverables and derives task status from them.
type Domain struct {
	tasks       outbound.TaskStorePort
	submissions outbound.SubmissionStorePort
	files       outbound.FileStorePort
	members     MembershipChecker
	publisher   EventPublisher
	cfg         *Config
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewDomain creates a new submission domain.
func NewDomain(
	tasks outbound.TaskStorePort,
	submissions outbound.SubmissionStorePort,
	files outbound.FileStorePort,
	members MembershipChecker,
	publisher EventPublisher,
	cfg *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Domain {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	_ = cfg.Validate()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Domain{
		tasks:       tasks,
		submissions: submissions,
		files:       files,
		members:     members,
		publisher:   publisher,
		cfg:         cfg,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// ========== Submit ==========

// Submit stores a deliverable for taskID on behalf of the caller, who must be
// an active member of the task's project. Earlier submissions are kept and the
// new one becomes the latest.
func (d *Domain) Submit(ctx context.Context, caller model.Caller, taskID uuid.UUID, file model.FileUpload) (*model.Submission, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(file.Name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, ErrMissingFileName
	}
	if file.Body == nil || file.Size <= 0 {
		return nil, ErrEmptyFile
	}
	if file.Size > d.cfg.MaxFileSize {
		return nil, ErrFileTooLarge.WithDetails(map[string]any{"max_bytes": d.cfg.MaxFileSize})
	}

	task, project, err := d.resolveTask(ctx, caller.UserID, taskID)
	if err != nil {
		return nil, err
	}

	prior, err := d.submissions.ListSubmissions(ctx, model.SubmissionFilter{TaskID: taskID, UserID: caller.UserID})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	previous := model.LatestSubmission(prior)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%s/%s/%s/%s-%s", d.cfg.KeyPrefix, taskID, caller.UserID, uuid.NewString(), name)
	ref, err := d.files.Put(ctx, key, file.Body, file.Size, contentType)
	if err != nil {
		d.metrics.RecordSubmission("upload_failed")
		return nil, fmt.Errorf("upload deliverable: %w", err)
	}

	now := d.now().UTC()
	sub := &model.Submission{
		TaskID:    task.ID,
		UserID:    caller.UserID,
		FileRef:   ref,
		FileName:  name,
		Status:    model.SubmissionStatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.submissions.CreateSubmission(ctx, sub); err != nil {
		d.metrics.RecordSubmission("store_failed")
		d.logger.Warn("deliverable uploaded but submission not recorded",
			zap.String("file_ref", ref),
			zap.String("task_id", taskID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create submission: %w", err)
	}

	resubmission := previous != nil
	outcome := "submitted"
	if resubmission {
		outcome = "resubmitted"
	}
	d.metrics.RecordSubmission(outcome)
	if d.publisher != nil {
		d.publisher.Publish(ctx, events.NewSubmissionCreated(project.ID, sub, resubmission))
	}

	fields := []zap.Field{
		zap.String("submission_id", sub.ID.String()),
		zap.String("task_id", taskID.String()),
		zap.String("project_id", project.ID.String()),
		zap.String("user_id", caller.UserID.String()),
		zap.Bool("resubmission", resubmission),
	}
	if previous != nil && previous.Status == model.SubmissionStatusReviewed {
		fields = append(fields, zap.Bool("supersedes_reviewed", true))
	}
	d.logger.Info("submission created", fields...)
	return sub, nil
}

// resolveTask loads task and its project, requiring userID to be an active
// member of that project.
func (d *Domain) resolveTask(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, *model.Project, error) {
	task, err := d.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	milestone, err := d.tasks.GetMilestone(ctx, task.MilestoneID)
	if err != nil {
		return nil, nil, fmt.Errorf("get milestone: %w", err)
	}
	am, err := d.members.RequireActiveMember(ctx, userID, milestone.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return task, am.Project, nil
}

// ========== Queries ==========

// TaskStatus returns one task with its derived status. Members see their own
// submission; staff see the assignee's.
func (d *Domain) TaskStatus(ctx context.Context, caller model.Caller, taskID uuid.UUID) (*TaskView, error) {
	var (
		task *model.Task
		err  error
	)
	subject := caller.UserID
	if caller.IsStaff() {
		task, err = d.tasks.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if task.AssigneeID != uuid.Nil {
			subject = task.AssigneeID
		}
	} else {
		task, _, err = d.resolveTask(ctx, caller.UserID, taskID)
		if err != nil {
			return nil, err
		}
	}

	subs, err := d.submissions.ListSubmissions(ctx, model.SubmissionFilter{TaskID: taskID, UserID: subject})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	latest := model.LatestSubmission(subs)

	view := &TaskView{
		Task:       task,
		Submission: latest,
		Status:     StatusFor(task, latest, d.now()),
	}
	if latest != nil {
		url, err := d.files.GetPresignedURL(ctx, latest.FileRef, d.cfg.FileURLTTL)
		if err != nil {
			d.logger.Warn("presign deliverable failed", zap.String("file_ref", latest.FileRef), zap.Error(err))
		} else {
			view.FileURL = url
		}
	}
	return view, nil
}

// Dashboard groups the caller's assigned tasks by milestone across their
// active projects. A milestone that cannot be loaded shows as an empty,
// degraded group instead of failing the whole dashboard.
func (d *Domain) Dashboard(ctx context.Context, caller model.Caller) (*Dashboard, error) {
	active, err := d.members.ActiveMemberships(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	subs, err := d.submissions.ListSubmissions(ctx, model.SubmissionFilter{UserID: caller.UserID})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	byTask := make(map[uuid.UUID][]*model.Submission)
	for _, s := range subs {
		byTask[s.TaskID] = append(byTask[s.TaskID], s)
	}

	var groups []MilestoneGroup
	for _, am := range active {
		milestones, err := d.tasks.ListMilestones(ctx, am.Project.ID)
		if err != nil {
			d.logger.Warn("dashboard milestones unavailable",
				zap.String("project_id", am.Project.ID.String()),
				zap.Error(err),
			)
			groups = append(groups, MilestoneGroup{ProjectID: am.Project.ID, Tasks: []TaskView{}, Degraded: true})
			continue
		}
		groups = append(groups, d.milestoneGroups(ctx, caller.UserID, am.Project.ID, milestones, byTask)...)
	}

	dash := &Dashboard{
		Groups: groups,
		Counts: make(map[model.SubmissionStatus]int),
	}
	if dash.Groups == nil {
		dash.Groups = []MilestoneGroup{}
	}
	for _, g := range dash.Groups {
		for _, tv := range g.Tasks {
			dash.Counts[tv.Status]++
		}
	}
	return dash, nil
}

func (d *Domain) milestoneGroups(
	ctx context.Context,
	userID, projectID uuid.UUID,
	milestones []*model.Milestone,
	byTask map[uuid.UUID][]*model.Submission,
) []MilestoneGroup {
	groups := make([]MilestoneGroup, len(milestones))
	now := d.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MilestoneConcurrency)
	for i, ms := range milestones {
		g.Go(func() error {
			group := MilestoneGroup{ProjectID: projectID, Milestone: ms, Tasks: []TaskView{}}
			tasks, err := d.allTasks(gctx, ms.ID)
			if err != nil {
				d.logger.Warn("dashboard tasks unavailable",
					zap.String("milestone_id", ms.ID.String()),
					zap.Error(err),
				)
				group.Degraded = true
				groups[i] = group
				return nil
			}
			for _, t := range tasks {
				if t.AssigneeID != userID {
					continue
				}
				latest := model.LatestSubmission(byTask[t.ID])
				group.Tasks = append(group.Tasks, TaskView{
					Task:       t,
					Submission: latest,
					Status:     StatusFor(t, latest, now),
				})
			}
			groups[i] = group
			return nil
		})
	}
	_ = g.Wait()
	return groups
}

func (d *Domain) allTasks(ctx context.Context, milestoneID uuid.UUID) ([]*model.Task, error) {
	var out []*model.Task
	for page := 1; ; page++ {
		batch, err := d.tasks.ListTasks(ctx, milestoneID, &pagination.Pagination{Page: page, PageSize: d.cfg.TaskPageSize})
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < d.cfg.TaskPageSize {
			return out, nil
		}
	}
}
