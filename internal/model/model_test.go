package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProject_IsFull(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		count    int
		want     bool
	}{
		{"unlimited", 0, 100, false},
		{"below capacity", 3, 2, false},
		{"at capacity", 3, 3, true},
		{"over capacity", 3, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Project{Capacity: tt.capacity}
			assert.Equal(t, tt.want, p.IsFull(tt.count))
		})
	}
}

func TestProject_IsActive(t *testing.T) {
	assert.True(t, (&Project{Status: ProjectStatusOpen}).IsActive())
	assert.True(t, (&Project{Status: ProjectStatusClosed}).IsActive())
	assert.False(t, (&Project{Status: ProjectStatusCompleted}).IsActive())
	assert.False(t, (&Project{Status: ProjectStatusArchived}).IsActive())
	assert.False(t, (&Project{Status: ProjectStatusClosed}).AcceptsMembers())
}

func TestLatestSubmission(t *testing.T) {
	now := time.Now()
	assert.Nil(t, LatestSubmission(nil))

	subs := []*Submission{
		{ID: uuid.New(), CreatedAt: now.Add(-2 * time.Hour)},
		{ID: uuid.New(), CreatedAt: now},
		nil,
		{ID: uuid.New(), CreatedAt: now.Add(-time.Hour)},
	}
	latest := LatestSubmission(subs)
	assert.Equal(t, subs[1].ID, latest.ID)

	tie := &Submission{ID: uuid.New(), CreatedAt: now}
	assert.Equal(t, tie.ID, LatestSubmission(append(subs, tie)).ID)
}

func TestCaller_ActsFor(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	student := Caller{UserID: self, Role: SystemRoleStudent}
	assert.True(t, student.ActsFor(self))
	assert.False(t, student.ActsFor(other))

	mentor := Caller{UserID: self, Role: SystemRoleMentor}
	assert.True(t, mentor.ActsFor(other))
	assert.True(t, Caller{}.IsZero())
}

func TestInvitation_IsExpiredAt(t *testing.T) {
	now := time.Now()
	inv := &Invitation{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, inv.IsExpiredAt(now))

	inv.ExpiresAt = time.Time{}
	assert.False(t, inv.IsExpiredAt(now))
}

func TestUser_IsInvitable(t *testing.T) {
	assert.True(t, (&User{Role: SystemRoleStudent, Active: true}).IsInvitable())
	assert.False(t, (&User{Role: SystemRoleMentor, Active: true}).IsInvitable())
	assert.False(t, (&User{Role: SystemRoleStudent}).IsInvitable())
	var nilUser *User
	assert.False(t, nilUser.IsInvitable())
}
