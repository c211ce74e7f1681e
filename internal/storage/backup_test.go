package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBackups(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStorage(dir, 10)
	require.NoError(t, s.Init())
	require.NoError(t, s.CreateSession(newSession("a", time.Now())))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunBackups(ctx, s, 10*time.Millisecond)
	}()

	assert.Eventually(t, func() bool {
		matches, _ := filepath.Glob(filepath.Join(dir, "backup", "backup_*", "sessions", "a.json"))
		return len(matches) > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunBackups did not stop after cancel")
	}
}

func TestRunBackups_DisabledReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunBackups(context.Background(), NewMemoryStorage(), 0)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunBackups with zero interval should return")
	}
}
