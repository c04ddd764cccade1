package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/project-tracker/internal/model"
)

// ProjectRepo stores projects in the project service's `projects` table.
type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

const projectColumns = "id, owner_id, title, description, created_at, updated_at"

// Create inserts p and fills in its id and timestamps.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (owner_id, title, description) VALUES (?, ?, ?)",
		p.OwnerID, p.Title, p.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM projects WHERE id = ?", p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a project regardless of owner. Ownership is checked by
// the caller so that a missing project and a foreign project stay distinct.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
	var p model.Project
	err := r.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id).
		Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns the owner's projects, oldest first.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Project, error) {
	return r.list(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE owner_id = ? ORDER BY id", ownerID)
}

// SearchByOwner matches titles case-insensitively (utf8mb4 collation).
func (r *ProjectRepo) SearchByOwner(ctx context.Context, ownerID uint64, query string) ([]model.Project, error) {
	return r.list(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE owner_id = ? AND title LIKE ? ORDER BY id",
		ownerID, likePattern(query))
}

// Update writes title and description and refreshes UpdatedAt.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE projects SET title = ?, description = ? WHERE id = ?", p.Title, p.Description, p.ID)
	if err != nil {
		return err
	}
	if _, err := res.RowsAffected(); err != nil {
		return err
	}
	// MySQL reports zero affected rows for a no-op update, so existence is
	// confirmed by the follow-up read instead.
	err = r.db.QueryRowContext(ctx,
		"SELECT updated_at FROM projects WHERE id = ?", p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a project by id.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteByOwner removes all of an owner's projects and returns their ids.
func (r *ProjectRepo) DeleteByOwner(ctx context.Context, ownerID uint64) ([]uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM projects WHERE owner_id = ? FOR UPDATE", ownerID)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE owner_id = ?", ownerID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ProjectRepo) list(ctx context.Context, q string, args ...any) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
