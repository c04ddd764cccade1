package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/project-tracker/internal/model"
)

// The memory stores satisfy the same contracts as the MySQL repositories.
// They back STORE_DRIVER=memory for local runs and the service tests.

// MemoryUserStore is an in-memory credential store.
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]model.Identity
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byID: map[uint64]model.Identity{}}
}

func (s *MemoryUserStore) Create(_ context.Context, u *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = normalizeEmail(u.Email)
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return ErrEmailExists
		}
	}
	s.nextID++
	now := time.Now().UTC()
	u.ID, u.CreatedAt, u.UpdatedAt = s.nextID, now, now
	s.byID[u.ID] = *u
	return nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = normalizeEmail(email)
	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) GetByID(_ context.Context, id uint64) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *MemoryUserStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// MemoryProjectStore is an in-memory project store.
type MemoryProjectStore struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]model.Project
}

func NewMemoryProjectStore() *MemoryProjectStore {
	return &MemoryProjectStore{byID: map[uint64]model.Project{}}
}

func (s *MemoryProjectStore) Create(_ context.Context, p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC()
	p.ID, p.CreatedAt, p.UpdatedAt = s.nextID, now, now
	s.byID[p.ID] = *p
	return nil
}

func (s *MemoryProjectStore) GetByID(_ context.Context, id uint64) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryProjectStore) ListByOwner(_ context.Context, ownerID uint64) ([]model.Project, error) {
	return s.filter(func(p model.Project) bool { return p.OwnerID == ownerID }), nil
}

func (s *MemoryProjectStore) SearchByOwner(_ context.Context, ownerID uint64, query string) ([]model.Project, error) {
	return s.filter(func(p model.Project) bool {
		return p.OwnerID == ownerID && containsFold(p.Title, query)
	}), nil
}

func (s *MemoryProjectStore) Update(_ context.Context, p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[p.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title, cur.Description, cur.UpdatedAt = p.Title, p.Description, time.Now().UTC()
	s.byID[p.ID] = cur
	p.UpdatedAt = cur.UpdatedAt
	return nil
}

func (s *MemoryProjectStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryProjectStore) DeleteByOwner(_ context.Context, ownerID uint64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for id, p := range s.byID {
		if p.OwnerID == ownerID {
			ids = append(ids, id)
			delete(s.byID, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryProjectStore) filter(keep func(model.Project) bool) []model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := []model.Project{}
	for _, p := range s.byID {
		if keep(p) {
			items = append(items, p)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// MemoryTaskStore is an in-memory task store.
type MemoryTaskStore struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]model.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{byID: map[uint64]model.Task{}}
}

func (s *MemoryTaskStore) Create(_ context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC()
	t.ID, t.CreatedAt, t.UpdatedAt = s.nextID, now, now
	s.byID[t.ID] = *t
	return nil
}

func (s *MemoryTaskStore) GetByID(_ context.Context, id uint64) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryTaskStore) ListByProject(_ context.Context, projectID, ownerID uint64) ([]model.Task, error) {
	return s.filter(func(t model.Task) bool { return t.ProjectID == projectID && t.OwnerID == ownerID }), nil
}

func (s *MemoryTaskStore) SearchByProject(_ context.Context, projectID, ownerID uint64, query string) ([]model.Task, error) {
	return s.filter(func(t model.Task) bool {
		return t.ProjectID == projectID && t.OwnerID == ownerID && containsFold(t.Title, query)
	}), nil
}

func (s *MemoryTaskStore) ListByStatus(_ context.Context, projectID, ownerID uint64, completed bool) ([]model.Task, error) {
	return s.filter(func(t model.Task) bool {
		return t.ProjectID == projectID && t.OwnerID == ownerID && t.Completed == completed
	}), nil
}

func (s *MemoryTaskStore) Update(_ context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[t.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title, cur.Description, cur.DueDate, cur.Completed = t.Title, t.Description, t.DueDate, t.Completed
	cur.UpdatedAt = time.Now().UTC()
	s.byID[t.ID] = cur
	t.UpdatedAt = cur.UpdatedAt
	return nil
}

func (s *MemoryTaskStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryTaskStore) DeleteByProject(_ context.Context, projectID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.byID {
		if t.ProjectID == projectID {
			delete(s.byID, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryTaskStore) CountByProject(_ context.Context, projectID, ownerID uint64) (total, completed int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.byID {
		if t.ProjectID != projectID || t.OwnerID != ownerID {
			continue
		}
		total++
		if t.Completed {
			completed++
		}
	}
	return total, completed, nil
}

func (s *MemoryTaskStore) filter(keep func(model.Task) bool) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := []model.Task{}
	for _, t := range s.byID {
		if keep(t) {
			items = append(items, t)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
