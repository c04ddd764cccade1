package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/project-tracker/internal/apperr"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/model"
)

// DueDateLayout is the accepted format of a task due date.
const DueDateLayout = "2006-01-02"

// TaskStore is the task service's record store. List queries are scoped to
// the owning caller.
type TaskStore interface {
	Create(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id uint64) (*model.Task, error)
	ListByProject(ctx context.Context, projectID, ownerID uint64) ([]model.Task, error)
	SearchByProject(ctx context.Context, projectID, ownerID uint64, query string) ([]model.Task, error)
	ListByStatus(ctx context.Context, projectID, ownerID uint64, completed bool) ([]model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id uint64) error
	DeleteByProject(ctx context.Context, projectID uint64) (int64, error)
	CountByProject(ctx context.Context, projectID, ownerID uint64) (total, completed int, err error)
}

// ProjectVerifier confirms that the caller owns a project held by another
// service.
type ProjectVerifier interface {
	VerifyOwner(ctx context.Context, caller model.Caller, projectID uint64) error
}

// TaskInput is the create/update request body. ProjectID is ignored on
// update; a task never moves between projects.
type TaskInput struct {
	ProjectID   uint64 `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Completed   *bool  `json:"completed"`
}

type taskFields struct {
	title       string
	description string
	due         *time.Time
}

func (in TaskInput) parse() (taskFields, error) {
	f := taskFields{
		title:       strings.TrimSpace(in.Title),
		description: strings.TrimSpace(in.Description),
	}
	if f.title == "" {
		return f, apperr.Validation("title is required")
	}
	if len(f.title) > maxTitleLen {
		return f, apperr.Validation("title is too long")
	}
	if d := strings.TrimSpace(in.DueDate); d != "" {
		t, err := time.Parse(DueDateLayout, d)
		if err != nil {
			return f, apperr.Validation("dueDate must be YYYY-MM-DD")
		}
		f.due = &t
	}
	return f, nil
}

// TaskService manages tasks. Every task records the identity that created it
// and only that identity may read or change it.
type TaskService struct {
	store    TaskStore
	verifier ProjectVerifier
	log      logger.Logger
}

// NewTaskService wires the store. A nil verifier accepts any project id on
// create.
func NewTaskService(store TaskStore, verifier ProjectVerifier, log logger.Logger) *TaskService {
	return &TaskService{store: store, verifier: verifier, log: log}
}

func (s *TaskService) Create(ctx context.Context, caller model.Caller, in TaskInput) (*model.Task, error) {
	if in.ProjectID == 0 {
		return nil, apperr.Validation("projectId is required")
	}
	f, err := in.parse()
	if err != nil {
		return nil, err
	}
	if s.verifier != nil {
		if err := s.verifier.VerifyOwner(ctx, caller, in.ProjectID); err != nil {
			s.log.Debug("project ownership not confirmed",
				logger.Uint64("project_id", in.ProjectID), logger.Uint64("caller_id", caller.ID), logger.Err(err))
			return nil, err
		}
	}
	t := &model.Task{
		ProjectID:   in.ProjectID,
		OwnerID:     caller.ID,
		Title:       f.title,
		Description: f.description,
		DueDate:     f.due,
		Completed:   in.Completed != nil && *in.Completed,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "create task failed")
	}
	return t, nil
}

func (s *TaskService) ListByProject(ctx context.Context, caller model.Caller, projectID uint64) ([]model.Task, error) {
	items, err := s.store.ListByProject(ctx, projectID, caller.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "list tasks failed")
	}
	return items, nil
}

func (s *TaskService) Search(ctx context.Context, caller model.Caller, projectID uint64, query string) ([]model.Task, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("query is required")
	}
	items, err := s.store.SearchByProject(ctx, projectID, caller.ID, query)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "search tasks failed")
	}
	return items, nil
}

func (s *TaskService) FilterByStatus(ctx context.Context, caller model.Caller, projectID uint64, completed bool) ([]model.Task, error) {
	items, err := s.store.ListByStatus(ctx, projectID, caller.ID, completed)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "filter tasks failed")
	}
	return items, nil
}

func (s *TaskService) Get(ctx context.Context, caller model.Caller, id uint64) (*model.Task, error) {
	return s.owned(ctx, caller, id)
}

func (s *TaskService) Update(ctx context.Context, caller model.Caller, id uint64, in TaskInput) (*model.Task, error) {
	f, err := in.parse()
	if err != nil {
		return nil, err
	}
	t, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	t.Title, t.Description, t.DueDate = f.title, f.description, f.due
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	if err := s.store.Update(ctx, t); err != nil {
		return nil, storeErr(err, "task", "update task")
	}
	return t, nil
}

// Toggle flips the completion flag.
func (s *TaskService) Toggle(ctx context.Context, caller model.Caller, id uint64) (*model.Task, error) {
	t, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	t.Completed = !t.Completed
	if err := s.store.Update(ctx, t); err != nil {
		return nil, storeErr(err, "task", "toggle task")
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, caller model.Caller, id uint64) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeErr(err, "task", "delete task")
	}
	return nil
}

// Stats summarizes the caller's tasks in a project. A project without tasks
// reports zeros.
func (s *TaskService) Stats(ctx context.Context, caller model.Caller, projectID uint64) (model.Stats, error) {
	total, completed, err := s.store.CountByProject(ctx, projectID, caller.ID)
	if err != nil {
		return model.Stats{}, apperr.Wrap(err, apperr.CodeInternal, "count tasks failed")
	}
	return model.ComputeStats(total, completed), nil
}

// PurgeProject drops every task of a deleted project.
func (s *TaskService) PurgeProject(ctx context.Context, projectID uint64) (int64, error) {
	n, err := s.store.DeleteByProject(ctx, projectID)
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeInternal, "purge tasks failed")
	}
	if n > 0 {
		s.log.Info("purged tasks of deleted project", logger.Uint64("project_id", projectID), logger.Int64("count", n))
	}
	return n, nil
}

func (s *TaskService) owned(ctx context.Context, caller model.Caller, id uint64) (*model.Task, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "task", "load task")
	}
	if err := checkOwner(t.OwnerID, caller.ID); err != nil {
		return nil, err
	}
	return t, nil
}
