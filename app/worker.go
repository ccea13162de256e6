// Launches the external Python worker per trade date and records the
// resulting run transition.

package app

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"

	"github.com/dexten32/accuscanner/app/models"
)

// runStore is the slice of persistence the worker needs to record terminal
// run states. Kept narrow so tests can substitute a fake.
type runStore interface {
	MarkRunCompleted(ctx context.Context, date string) error
	MarkRunFailed(ctx context.Context, date, message string) error
}

// dbRunStore backs the run-record stores with the shared Postgres
// connection. With no DB attached it behaves as an empty store so handler
// tests can run without Postgres.
type dbRunStore struct{}

func (dbRunStore) GetRun(ctx context.Context, date string) (models.ScanRun, error) {
	if db == nil {
		return models.ScanRun{}, sql.ErrNoRows
	}
	return getScanRun(ctx, date)
}

func (dbRunStore) MarkRunRunning(ctx context.Context, date string) error {
	if db == nil {
		return nil
	}
	return markRunRunning(ctx, date)
}

func (dbRunStore) MarkRunCompleted(ctx context.Context, date string) error {
	if db == nil {
		return nil
	}
	return markRunCompleted(ctx, date)
}

func (dbRunStore) MarkRunFailed(ctx context.Context, date, message string) error {
	if db == nil {
		return nil
	}
	return markRunFailed(ctx, date, message)
}

type workerHandle struct {
	generation uint64
	cancel     context.CancelFunc
}

// WorkerRunner spawns the scan worker process for a date and observes its
// exit code. Each date has at most one current handle: relaunching a date
// cancels the in-flight process first, so two workers never write the same
// date's results concurrently. A superseded process's exit never touches the
// run record.
type WorkerRunner struct {
	python    string
	script    string
	store     runStore
	onSuccess func(date string)

	mu         sync.Mutex
	generation uint64
	inflight   map[string]*workerHandle
}

// NewWorkerRunner wires a runner to its persistence handle and a success
// hook (the date cache invalidation).
func NewWorkerRunner(python, script string, store runStore, onSuccess func(date string)) *WorkerRunner {
	return &WorkerRunner{
		python:    python,
		script:    script,
		store:     store,
		onSuccess: onSuccess,
		inflight:  make(map[string]*workerHandle),
	}
}

// Launch starts the worker for a date and returns without waiting for it.
// The caller observes the outcome by polling the run record.
func (w *WorkerRunner) Launch(date string) {
	ctx, cancel := context.WithCancel(context.Background())

	w.mu.Lock()
	if prev, ok := w.inflight[date]; ok {
		log.Printf("superseding in-flight worker for date %s", date)
		prev.cancel()
	}
	w.generation++
	handle := &workerHandle{generation: w.generation, cancel: cancel}
	w.inflight[date] = handle
	w.mu.Unlock()

	go w.run(ctx, date, handle)
}

func (w *WorkerRunner) run(ctx context.Context, date string, handle *workerHandle) {
	cmd := exec.CommandContext(ctx, w.python, w.script, "--date", date)

	stdout, err := cmd.StdoutPipe()
	if err == nil {
		go logLines(stdout, "[Python]")
	}
	stderr, err2 := cmd.StderrPipe()
	if err2 == nil {
		go logLines(stderr, "[Python Error]")
	}

	log.Printf("Spawning worker %s %s --date %s", w.python, w.script, date)
	runErr := cmd.Run()

	w.mu.Lock()
	current := w.inflight[date]
	superseded := current == nil || current.generation != handle.generation
	if !superseded {
		delete(w.inflight, date)
	}
	w.mu.Unlock()

	if superseded || ctx.Err() != nil {
		log.Printf("worker for date %s superseded, discarding exit", date)
		return
	}

	storeCtx, cancelStore := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStore()

	if runErr == nil {
		log.Printf("Worker for date %s exited with code 0", date)
		if err := w.store.MarkRunCompleted(storeCtx, date); err != nil {
			log.Printf("failed to mark run completed date=%s: %v", date, err)
			return
		}
		if w.onSuccess != nil {
			w.onSuccess(date)
		}
		return
	}

	message := runErr.Error()
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		message = fmt.Sprintf("Exited with code %d", exitErr.ExitCode())
	}
	log.Printf("Worker for date %s failed: %s", date, message)
	if err := w.store.MarkRunFailed(storeCtx, date, message); err != nil {
		log.Printf("failed to mark run failed date=%s: %v", date, err)
	}
}

func logLines(r io.Reader, prefix string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Printf("%s: %s", prefix, scanner.Text())
	}
}
