package remote

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
)

// Upstream records use camelCase keys and free-form status casing.

type projectDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	MaxMembers  int       `json:"maxMembers"`
	Points      int       `json:"points"`
	SemesterID  string    `json:"semesterId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (d projectDTO) toModel() *model.Project {
	return &model.Project{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      model.ProjectStatus(normalizeStatus(d.Status)),
		Capacity:    d.MaxMembers,
		Points:      d.Points,
		SemesterID:  d.SemesterID,
		CreatedAt:   d.CreatedAt,
	}
}

type userDTO struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatarUrl"`
	Role        string    `json:"role"`
	Active      *bool     `json:"active"`
}

func (d userDTO) toModel() *model.User {
	name := d.DisplayName
	if name == "" {
		name = d.Name
	}
	active := true
	if d.Active != nil {
		active = *d.Active
	}
	return &model.User{
		ID:          d.ID,
		DisplayName: name,
		Email:       d.Email,
		AvatarURL:   d.AvatarURL,
		Role:        model.SystemRole(normalizeStatus(d.Role)),
		Active:      active,
	}
}

type membershipDTO struct {
	UserID     uuid.UUID `json:"userId"`
	ProjectID  uuid.UUID `json:"projectId"`
	Role       string    `json:"role"`
	SemesterID string    `json:"semesterId,omitempty"`
	JoinedAt   time.Time `json:"joinedAt"`
}

func membershipFromModel(m *model.Membership) membershipDTO {
	return membershipDTO{
		UserID:     m.UserID,
		ProjectID:  m.ProjectID,
		Role:       string(m.Role),
		SemesterID: m.SemesterID,
		JoinedAt:   m.JoinedAt,
	}
}

func (d membershipDTO) toModel() *model.Membership {
	role := model.ProjectRole(normalizeStatus(d.Role))
	if role == "" {
		role = model.ProjectRoleMember
	}
	return &model.Membership{
		UserID:     d.UserID,
		ProjectID:  d.ProjectID,
		Role:       role,
		SemesterID: d.SemesterID,
		JoinedAt:   d.JoinedAt,
	}
}

type invitationDTO struct {
	ID            uuid.UUID  `json:"id"`
	ProjectID     uuid.UUID  `json:"projectId"`
	InvitedUserID uuid.UUID  `json:"invitedUserId"`
	InviterID     uuid.UUID  `json:"inviterId"`
	Message       string     `json:"message,omitempty"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
}

func invitationFromModel(inv *model.Invitation) invitationDTO {
	return invitationDTO{
		ID:            inv.ID,
		ProjectID:     inv.ProjectID,
		InvitedUserID: inv.InvitedUserID,
		InviterID:     inv.InviterID,
		Message:       inv.Message,
		Status:        string(inv.Status),
		ExpiresAt:     inv.ExpiresAt,
		CreatedAt:     inv.CreatedAt,
		ResolvedAt:    inv.ResolvedAt,
	}
}

func (d invitationDTO) toModel() *model.Invitation {
	return &model.Invitation{
		ID:            d.ID,
		ProjectID:     d.ProjectID,
		InvitedUserID: d.InvitedUserID,
		InviterID:     d.InviterID,
		Message:       d.Message,
		Status:        model.InvitationStatus(normalizeStatus(d.Status)),
		ExpiresAt:     d.ExpiresAt,
		CreatedAt:     d.CreatedAt,
		ResolvedAt:    d.ResolvedAt,
	}
}

type milestoneDTO struct {
	ID            uuid.UUID  `json:"id"`
	ProjectID     uuid.UUID  `json:"projectId"`
	Title         string     `json:"title"`
	Weight        float64    `json:"weight"`
	StartAt       *time.Time `json:"startDate"`
	DueAt         *time.Time `json:"dueDate"`
	OriginalDueAt *time.Time `json:"originalDueDate"`
	Delayed       bool       `json:"isDelayed"`
	Progress      float64    `json:"progress"`
}

func (d milestoneDTO) toModel() *model.Milestone {
	return &model.Milestone{
		ID:            d.ID,
		ProjectID:     d.ProjectID,
		Title:         d.Title,
		Weight:        d.Weight,
		StartAt:       d.StartAt,
		DueAt:         d.DueAt,
		OriginalDueAt: d.OriginalDueAt,
		Delayed:       d.Delayed,
		Progress:      d.Progress,
	}
}

type taskDTO struct {
	ID             uuid.UUID  `json:"id"`
	MilestoneID    uuid.UUID  `json:"milestoneId"`
	Label          string     `json:"label"`
	Priority       string     `json:"priority"`
	Complexity     int        `json:"complexity"`
	EstimatedHours float64    `json:"estimatedHours"`
	Weight         float64    `json:"weight"`
	AssigneeID     uuid.UUID  `json:"assigneeId"`
	StartAt        *time.Time `json:"startDate"`
	DueAt          *time.Time `json:"dueDate"`
	Status         string     `json:"status"`
}

func (d taskDTO) toModel() *model.Task {
	return &model.Task{
		ID:             d.ID,
		MilestoneID:    d.MilestoneID,
		Label:          d.Label,
		Priority:       d.Priority,
		Complexity:     d.Complexity,
		EstimatedHours: d.EstimatedHours,
		Weight:         d.Weight,
		AssigneeID:     d.AssigneeID,
		StartAt:        d.StartAt,
		DueAt:          d.DueAt,
		Status:         model.TaskStatus(normalizeStatus(d.Status)),
	}
}

type submissionDTO struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"taskId"`
	UserID    uuid.UUID `json:"userId"`
	FileRef   string    `json:"fileUrl"`
	FileName  string    `json:"fileName,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func submissionFromModel(s *model.Submission) submissionDTO {
	return submissionDTO{
		ID:        s.ID,
		TaskID:    s.TaskID,
		UserID:    s.UserID,
		FileRef:   s.FileRef,
		FileName:  s.FileName,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (d submissionDTO) toModel() *model.Submission {
	return &model.Submission{
		ID:        d.ID,
		TaskID:    d.TaskID,
		UserID:    d.UserID,
		FileRef:   d.FileRef,
		FileName:  d.FileName,
		Status:    model.SubmissionStatus(normalizeStatus(d.Status)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// normalizeStatus turns "InProgress", "IN_PROGRESS" or "in progress" into
// "in_progress".
func normalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	var prev rune
	for i, r := range s {
		switch {
		case r == ' ' || r == '-':
			r = '_'
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(prev):
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return b.String()
}
