package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dom/bloghub/internal/repository"
	"github.com/dom/bloghub/internal/repository/gormrepo"
	"github.com/dom/bloghub/internal/service"
	"github.com/dom/bloghub/internal/testutil"
	"github.com/stretchr/testify/require"
)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []service.Event
}

func (r *recorder) Publish(event service.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) types() []service.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db       *testutil.TestDB
	repos    *repository.Repositories
	services *service.Services
	events   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	testDB := testutil.NewTestDB(t)
	repos := gormrepo.NewRepositories(testDB.DB)
	events := &recorder{}
	return &fixture{
		db:       testDB,
		repos:    repos,
		services: service.NewServices(repos, testutil.TestConfig(), events),
		events:   events,
	}
}

// signIn registers a fresh account and returns its bearer session.
func (f *fixture) signIn(t *testing.T, name string) *service.Session {
	t.Helper()
	ctx := context.Background()
	b := testutil.NewUserBuilder().WithFullName(name)
	user, password := b.Build(t, f.db.DB)

	result, err := f.services.Auth.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
	require.NoError(t, err)
	sess, err := f.services.Auth.ValidateToken(ctx, result.Token)
	require.NoError(t, err)
	return sess
}
