package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/model"
	"github.com/iliyamo/project-tracker/internal/password"
	"github.com/iliyamo/project-tracker/internal/repository"
	"github.com/iliyamo/project-tracker/internal/token"
)

const testSecret = "test-signing-secret-0123456789abcdef"

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type published struct {
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: key, event: event})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.key)
	}
	return out
}

type stubStats struct {
	mu    sync.Mutex
	stats map[uint64]model.Stats
	creds []string
}

func (s *stubStats) FetchStats(_ context.Context, projectID uint64, credential string) model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = append(s.creds, credential)
	return s.stats[projectID]
}

type fixture struct {
	codec    *token.Codec
	identity *IdentityService
	projects *ProjectService
	tasks    *TaskService
	users    *repository.MemoryUserStore
	events   *recordingPublisher
	stats    *stubStats
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	codec, err := token.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)

	f := &fixture{
		codec:  codec,
		users:  repository.NewMemoryUserStore(),
		events: &recordingPublisher{},
		stats:  &stubStats{stats: map[uint64]model.Stats{}},
	}
	log := logger.Nop()
	f.identity = NewIdentityService(f.users, codec, password.NewHasher(bcrypt.MinCost), f.events, log).WithClock(fixedClock)
	f.projects = NewProjectService(repository.NewMemoryProjectStore(), f.stats, f.events, log)
	f.projects.now = fixedClock
	f.tasks = NewTaskService(repository.NewMemoryTaskStore(), nil, log)
	return f
}

// register signs up and returns the caller the guard would bind.
func (f *fixture) register(t *testing.T, email string) model.Caller {
	t.Helper()
	res, err := f.identity.Register(context.Background(), RegisterInput{Email: email, Name: "Test User", Password: "secret-pass"})
	require.NoError(t, err)
	return model.Caller{ID: res.ID, Email: res.Email, Token: res.Token}
}
