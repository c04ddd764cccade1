// Package queue defines the domain events exchanged between services over
// RabbitMQ, and the publisher and consumer that carry them.
package queue

import "time"

// Routing keys double as queue names on the default exchange.
const (
	IdentityDeleted = "identity.deleted"
	ProjectDeleted  = "project.deleted"
)

// IdentityDeletedEvent is published by the identity service after an account
// is removed. The project service drops that owner's projects.
type IdentityDeletedEvent struct {
	IdentityID uint64    `json:"identity_id"`
	Email      string    `json:"email"`
	DeletedAt  time.Time `json:"deleted_at"`
}

// ProjectDeletedEvent is published by the project service for every deleted
// project. The task service drops the project's tasks.
type ProjectDeletedEvent struct {
	ProjectID uint64    `json:"project_id"`
	OwnerID   uint64    `json:"owner_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
