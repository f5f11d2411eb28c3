package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlaceholderUnknown is the display name used when even the user ID is missing.
const PlaceholderUnknown = "Unknown"

// TeamMember is one denormalized roster row: a membership joined with its user profile.
type TeamMember struct {
	UserID      uuid.UUID   `json:"user_id"`
	ProjectID   uuid.UUID   `json:"project_id"`
	DisplayName string      `json:"display_name"`
	Email       string      `json:"email,omitempty"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
	Role        ProjectRole `json:"role"`
	JoinedAt    time.Time   `json:"joined_at"`
	Placeholder bool        `json:"placeholder"`
}

// PlaceholderName returns the display name for a membership whose user could not be resolved.
func PlaceholderName(userID uuid.UUID) string {
	if userID == uuid.Nil {
		return PlaceholderUnknown
	}
	return fmt.Sprintf("User %s", userID)
}
