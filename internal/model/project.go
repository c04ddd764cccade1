package model

import "time"

// Project mirrors the `projects` table owned by the project service.
// OwnerID is the identity id of the caller that created it.
type Project struct {
	ID          uint64    `json:"id"`
	OwnerID     uint64    `json:"userId"`      // identity id of the owner
	Title       string    `json:"title"`       // required, at most 255 characters
	Description string    `json:"description"` // free text, may be empty
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectView is a project enriched with task statistics fetched from the
// task service at read time.
type ProjectView struct {
	Project
	Stats
}
