package queue_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"markerq/internal/config"
	"markerq/internal/queue"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.FavoritesPath = filepath.Join(base, "favorites.toml")
	return &cfg
}

func openStore(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func enqueuePDF(t *testing.T, store *queue.Store, name string) *queue.Request {
	t.Helper()
	req, err := store.Enqueue(context.Background(), &queue.Request{
		Source:     "/docs/" + name + ".pdf",
		SourceKind: queue.SourceFile,
		LocalPath:  "/docs/" + name + ".pdf",
		OutputName: name,
		OutputDir:  "/out",
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return req
}

func TestEnqueueAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	req := enqueuePDF(t, store, "report")
	if req.Status != queue.StatusPending {
		t.Fatalf("new request status = %s, want pending", req.Status)
	}
	if !req.Pages.All() {
		t.Fatalf("expected all-pages default, got %s", req.Pages)
	}

	fetched, err := store.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.OutputName != "report" {
		t.Fatalf("unexpected fetch result: %+v", fetched)
	}
}

func TestEnqueueRejectsInvalidPageRange(t *testing.T) {
	store := openStore(t)
	_, err := store.Enqueue(context.Background(), &queue.Request{
		Source:     "/docs/a.pdf",
		SourceKind: queue.SourceFile,
		OutputName: "a",
		OutputDir:  "/out",
		Pages:      queue.PageRange{Start: 5, End: 2},
	})
	if err == nil {
		t.Fatal("expected page range validation error")
	}
}

func TestNextPendingFollowsInsertionOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := enqueuePDF(t, store, "first")
	enqueuePDF(t, store, "second")

	next, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected first request, got %+v", next)
	}

	next.Status = queue.StatusSucceeded
	if err := store.Update(ctx, next); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	next, err = store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.OutputName != "second" {
		t.Fatalf("expected second request, got %+v", next)
	}
}

func TestUpdateRoundTripsFields(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	req := enqueuePDF(t, store, "thesis")
	req.Status = queue.StatusRunning
	req.Pages = queue.PageRange{Start: 2, End: 10}
	req.ProgressMessage = "Converting"
	req.LogPath = "/logs/request-1.log"
	if err := store.Update(ctx, req); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusRunning {
		t.Fatalf("status = %s", fetched.Status)
	}
	if fetched.Pages.Start != 2 || fetched.Pages.End != 10 {
		t.Fatalf("page range lost: %s", fetched.Pages)
	}
	if fetched.LogPath != "/logs/request-1.log" {
		t.Fatalf("log path lost: %q", fetched.LogPath)
	}
}

func TestCancelPendingLeavesNoneRunning(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		enqueuePDF(t, store, fmt.Sprintf("doc-%d", i))
	}

	count, err := store.CancelPending(ctx)
	if err != nil {
		t.Fatalf("CancelPending failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("cancelled %d requests, want 3", count)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusCancelled] != 3 || stats[queue.StatusPending] != 0 || stats[queue.StatusRunning] != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestOpenFailsInterruptedRunning(t *testing.T) {
	cfg := testConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()

	req, err := store.Enqueue(ctx, &queue.Request{
		Source:     "/docs/a.pdf",
		SourceKind: queue.SourceFile,
		OutputName: "a",
		OutputDir:  "/out",
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	req.Status = queue.StatusRunning
	if err := store.Update(ctx, req); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })

	fetched, err := reopened.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusFailed {
		t.Fatalf("interrupted request status = %s, want failed", fetched.Status)
	}
	if fetched.ErrorMessage != queue.InterruptedReason {
		t.Fatalf("unexpected reason: %q", fetched.ErrorMessage)
	}
}

func TestClearFinishedKeepsPending(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	done := enqueuePDF(t, store, "done")
	done.Status = queue.StatusSucceeded
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	enqueuePDF(t, store, "waiting")

	removed, err := store.ClearFinished(ctx)
	if err != nil {
		t.Fatalf("ClearFinished failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed %d, want 1", removed)
	}

	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].OutputName != "waiting" {
		t.Fatalf("unexpected remaining requests: %+v", remaining)
	}
}
