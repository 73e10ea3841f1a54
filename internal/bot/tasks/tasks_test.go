package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/edgard/botrelay/internal/config"
	"github.com/edgard/botrelay/internal/database"
)

type stubStore struct {
	database.Store
	cutoff         time.Time
	pruneErr       error
	maintenanceErr error
	maintenance    int
}

func (s *stubStore) PruneRegistrations(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 3, s.pruneErr
}

func (s *stubStore) RunSQLMaintenance(context.Context) error {
	s.maintenance++
	return s.maintenanceErr
}

func newDeps(store database.Store, now time.Time) TaskDeps {
	return TaskDeps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:     store,
		Retention: 24 * time.Hour,
		Now:       func() time.Time { return now },
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(newDeps(&stubStore{}, time.Now()))
	for _, name := range []string{config.TaskRegistrationLogPrune, config.TaskSQLMaintenance} {
		if tasks[name] == nil {
			t.Errorf("task %q not registered", name)
		}
	}
}

func TestRegistrationLogPruneTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	store := &stubStore{}
	task := RegisterAllTasks(newDeps(store, now))[config.TaskRegistrationLogPrune]

	if err := task(context.Background()); err != nil {
		t.Fatalf("task error: %v", err)
	}
	if want := now.Add(-24 * time.Hour); !store.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", store.cutoff, want)
	}

	store.pruneErr = errors.New("locked")
	if err := task(context.Background()); !errors.Is(err, store.pruneErr) {
		t.Errorf("task error = %v, want %v", err, store.pruneErr)
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	task := RegisterAllTasks(newDeps(store, time.Now()))[config.TaskSQLMaintenance]

	if err := task(context.Background()); err != nil {
		t.Fatalf("task error: %v", err)
	}
	if store.maintenance != 1 {
		t.Errorf("maintenance ran %d times, want 1", store.maintenance)
	}

	store.maintenanceErr = errors.New("busy")
	if err := task(context.Background()); !errors.Is(err, store.maintenanceErr) {
		t.Errorf("task error = %v, want %v", err, store.maintenanceErr)
	}
}
