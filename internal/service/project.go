package service

import (
	"context"
	"strings"
	"sync"

	"github.com/iliyamo/project-tracker/internal/apperr"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/model"
	"github.com/iliyamo/project-tracker/internal/queue"
)

// ProjectStore is the project service's record store.
type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id uint64) (*model.Project, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Project, error)
	SearchByOwner(ctx context.Context, ownerID uint64, query string) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id uint64) error
	DeleteByOwner(ctx context.Context, ownerID uint64) ([]uint64, error)
}

// StatsFetcher returns task statistics for a project. Implementations must
// not fail: an unavailable task service yields zero stats.
type StatsFetcher interface {
	FetchStats(ctx context.Context, projectID uint64, credential string) model.Stats
}

// ProjectInput is the create/update request body.
type ProjectInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

const maxTitleLen = 255

func (in ProjectInput) normalize() (ProjectInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, apperr.Validation("title is required")
	}
	if len(in.Title) > maxTitleLen {
		return in, apperr.Validation("title is too long")
	}
	return in, nil
}

// ProjectService manages projects owned directly by identities.
type ProjectService struct {
	store  ProjectStore
	stats  StatsFetcher
	events EventPublisher
	log    logger.Logger
	now    Clock
}

func NewProjectService(store ProjectStore, stats StatsFetcher, events EventPublisher, log logger.Logger) *ProjectService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ProjectService{store: store, stats: stats, events: events, log: log, now: systemClock}
}

// Create stores a project owned by the caller.
func (s *ProjectService) Create(ctx context.Context, caller model.Caller, in ProjectInput) (model.ProjectView, error) {
	in, err := in.normalize()
	if err != nil {
		return model.ProjectView{}, err
	}
	p := &model.Project{OwnerID: caller.ID, Title: in.Title, Description: in.Description}
	if err := s.store.Create(ctx, p); err != nil {
		return model.ProjectView{}, apperr.Wrap(err, apperr.CodeInternal, "create project failed")
	}
	return s.view(ctx, caller, *p), nil
}

// List returns the caller's projects, each enriched with stats.
func (s *ProjectService) List(ctx context.Context, caller model.Caller) ([]model.ProjectView, error) {
	items, err := s.store.ListByOwner(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "list projects failed")
	}
	return s.views(ctx, caller, items), nil
}

// Search matches the caller's project titles.
func (s *ProjectService) Search(ctx context.Context, caller model.Caller, query string) ([]model.ProjectView, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("query is required")
	}
	items, err := s.store.SearchByOwner(ctx, caller.ID, query)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "search projects failed")
	}
	return s.views(ctx, caller, items), nil
}

// Get returns one project. A missing project is NotFound for everyone; an
// existing project owned by someone else is Forbidden.
func (s *ProjectService) Get(ctx context.Context, caller model.Caller, id uint64) (model.ProjectView, error) {
	p, err := s.owned(ctx, caller, id)
	if err != nil {
		return model.ProjectView{}, err
	}
	return s.view(ctx, caller, *p), nil
}

// CheckOwner runs only the ownership check. The task service uses it before
// accepting a task for the project.
func (s *ProjectService) CheckOwner(ctx context.Context, caller model.Caller, id uint64) error {
	_, err := s.owned(ctx, caller, id)
	return err
}

// Update rewrites title and description.
func (s *ProjectService) Update(ctx context.Context, caller model.Caller, id uint64, in ProjectInput) (model.ProjectView, error) {
	in, err := in.normalize()
	if err != nil {
		return model.ProjectView{}, err
	}
	p, err := s.owned(ctx, caller, id)
	if err != nil {
		return model.ProjectView{}, err
	}
	p.Title, p.Description = in.Title, in.Description
	if err := s.store.Update(ctx, p); err != nil {
		return model.ProjectView{}, storeErr(err, "project", "update project")
	}
	return s.view(ctx, caller, *p), nil
}

// Delete removes the project and announces it so the task service can drop
// the project's tasks.
func (s *ProjectService) Delete(ctx context.Context, caller model.Caller, id uint64) error {
	p, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, p.ID); err != nil {
		return storeErr(err, "project", "delete project")
	}
	s.announceDeleted(ctx, p.ID, p.OwnerID)
	return nil
}

// PurgeOwner removes every project of a deleted identity.
func (s *ProjectService) PurgeOwner(ctx context.Context, ownerID uint64) (int, error) {
	ids, err := s.store.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeInternal, "purge projects failed")
	}
	for _, id := range ids {
		s.announceDeleted(ctx, id, ownerID)
	}
	if len(ids) > 0 {
		s.log.Info("purged projects of deleted identity", logger.Uint64("owner_id", ownerID), logger.Int("count", len(ids)))
	}
	return len(ids), nil
}

func (s *ProjectService) announceDeleted(ctx context.Context, projectID, ownerID uint64) {
	ev := queue.ProjectDeletedEvent{ProjectID: projectID, OwnerID: ownerID, DeletedAt: s.now()}
	if err := s.events.Publish(ctx, queue.ProjectDeleted, ev); err != nil {
		s.log.Warn("publish project.deleted failed", logger.Uint64("project_id", projectID), logger.Err(err))
	}
}

func (s *ProjectService) owned(ctx context.Context, caller model.Caller, id uint64) (*model.Project, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "project", "load project")
	}
	if err := checkOwner(p.OwnerID, caller.ID); err != nil {
		s.log.Debug("project access denied", logger.Uint64("project_id", id), logger.Uint64("caller_id", caller.ID))
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) view(ctx context.Context, caller model.Caller, p model.Project) model.ProjectView {
	return model.ProjectView{Project: p, Stats: s.stats.FetchStats(ctx, p.ID, caller.Token)}
}

// maxStatsFetches caps concurrent stats calls made for one list response.
const maxStatsFetches = 8

// views enriches projects concurrently, at most maxStatsFetches at a time.
// Every fetch is bounded by the fetcher's own timeout.
func (s *ProjectService) views(ctx context.Context, caller model.Caller, items []model.Project) []model.ProjectView {
	out := make([]model.ProjectView, len(items))
	sem := make(chan struct{}, maxStatsFetches)
	var wg sync.WaitGroup
	for i := range items {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = s.view(ctx, caller, items[i])
		}(i)
	}
	wg.Wait()
	return out
}
