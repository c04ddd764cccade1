package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/project-tracker/internal/model"
)

// TaskRepo stores tasks in the task service's `tasks` table. Project ids are
// plain numbers here; the projects table lives in another service.
type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{db: db} }

const taskColumns = "id, project_id, owner_id, title, description, due_date, completed, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (model.Task, error) {
	var (
		t   model.Task
		due sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.ProjectID, &t.OwnerID, &t.Title, &t.Description, &due, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return model.Task{}, err
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

func nullTime(t *model.Task) sql.NullTime {
	if t.DueDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t.DueDate, Valid: true}
}

// Create inserts t and fills in its id and timestamps.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks (project_id, owner_id, title, description, due_date, completed) VALUES (?, ?, ?, ?, ?, ?)",
		t.ProjectID, t.OwnerID, t.Title, t.Description, nullTime(t), t.Completed)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM tasks WHERE id = ?", t.ID).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID fetches a task regardless of owner.
func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByProject returns the owner's tasks in a project, oldest first.
func (r *TaskRepo) ListByProject(ctx context.Context, projectID, ownerID uint64) ([]model.Task, error) {
	return r.list(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? AND owner_id = ? ORDER BY id",
		projectID, ownerID)
}

// SearchByProject matches titles case-insensitively.
func (r *TaskRepo) SearchByProject(ctx context.Context, projectID, ownerID uint64, query string) ([]model.Task, error) {
	return r.list(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? AND owner_id = ? AND title LIKE ? ORDER BY id",
		projectID, ownerID, likePattern(query))
}

// ListByStatus filters a project's tasks on completion.
func (r *TaskRepo) ListByStatus(ctx context.Context, projectID, ownerID uint64, completed bool) ([]model.Task, error) {
	return r.list(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? AND owner_id = ? AND completed = ? ORDER BY id",
		projectID, ownerID, completed)
}

// Update writes the mutable fields and refreshes UpdatedAt.
func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET title = ?, description = ?, due_date = ?, completed = ? WHERE id = ?",
		t.Title, t.Description, nullTime(t), t.Completed, t.ID); err != nil {
		return err
	}
	err := r.db.QueryRowContext(ctx, "SELECT updated_at FROM tasks WHERE id = ?", t.ID).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a task by id.
func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteByProject removes every task of a project and returns how many.
func (r *TaskRepo) DeleteByProject(ctx context.Context, projectID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE project_id = ?", projectID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByProject returns total and completed counts for the owner's tasks
// in a project. A project with no tasks yields zeros.
func (r *TaskRepo) CountByProject(ctx context.Context, projectID, ownerID uint64) (total, completed int, err error) {
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM tasks WHERE project_id = ? AND owner_id = ?",
		projectID, ownerID).Scan(&total, &completed)
	return total, completed, err
}

func (r *TaskRepo) list(ctx context.Context, q string, args ...any) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// likePattern escapes LIKE wildcards and wraps the query for a contains match.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(query)) + "%"
}
