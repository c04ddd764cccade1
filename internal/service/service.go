// Package service holds the business logic of the identity, project and task
// services. HTTP handlers call into it with a verified model.Caller; every
// resource operation checks ownership here, not in the middleware.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/project-tracker/internal/apperr"
	"github.com/iliyamo/project-tracker/internal/repository"
)

// EventPublisher publishes a domain event under a routing key.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// NopPublisher drops every event. Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// checkOwner yields Forbidden when a resource belongs to someone else.
func checkOwner(ownerID, callerID uint64) error {
	if ownerID != callerID {
		return apperr.Forbidden
	}
	return nil
}

// storeErr translates a repository error. Missing rows become NotFound with
// the given noun; anything else is internal.
func storeErr(err error, noun, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.CodeNotFound, noun+" not found")
	}
	return apperr.Wrap(err, apperr.CodeInternal, op+" failed")
}
