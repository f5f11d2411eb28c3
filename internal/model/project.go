package model

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus represents the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectStatusOpen      ProjectStatus = "open"
	ProjectStatusClosed    ProjectStatus = "closed"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Project is owned by the Project Directory.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	Capacity    int           `json:"max_members"`
	Points      int           `json:"points"`
	SemesterID  string        `json:"semester_id"`
	CreatedAt   time.Time     `json:"created_at"`
}

// IsActive reports whether memberships on this project count toward the
// one-project-per-semester rule. Closed projects stop accepting members but keep running.
func (p *Project) IsActive() bool {
	return p.Status == ProjectStatusOpen || p.Status == ProjectStatusClosed
}

// AcceptsMembers reports whether new members may join.
func (p *Project) AcceptsMembers() bool {
	return p.Status == ProjectStatusOpen
}

// IsFull reports whether memberCount reached the capacity. Zero capacity is unlimited.
func (p *Project) IsFull(memberCount int) bool {
	return p.Capacity > 0 && memberCount >= p.Capacity
}
