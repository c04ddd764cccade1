package model

import "time"

// Task mirrors the `tasks` table owned by the task service. A task belongs
// to a project; OwnerID records the caller that created it and is what the
// task service checks on every later access.
type Task struct {
	ID          uint64     `json:"id"`
	ProjectID   uint64     `json:"projectId"`         // project in the project service
	OwnerID     uint64     `json:"-"`                 // identity that created the task
	Title       string     `json:"title"`             // required, at most 255 characters
	Description string     `json:"description"`       // free text, may be empty
	DueDate     *time.Time `json:"dueDate,omitempty"` // calendar day, nil when unset
	Completed   bool       `json:"completed"`         // flipped by toggle
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
