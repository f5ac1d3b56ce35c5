package models

import "time"

// Family is a household sharing one timezone for every routine window.
type Family struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Timezone    string    `json:"timezone"`
	NotifyEmail string    `json:"notify_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChildProfile represents a child who works through routines
type ChildProfile struct {
	ID          string    `json:"id"`
	FamilyID    string    `json:"family_id"`
	Name        string    `json:"name"`
	AvatarColor string    `json:"avatar_color"`
	PINHash     string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChildWithFamily combines a child with the family settings needed to render its board
type ChildWithFamily struct {
	Child  ChildProfile
	Family Family
}
