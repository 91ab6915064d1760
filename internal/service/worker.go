package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rachitv/framl/backend/internal/domain"
)

// TaskError accumulates multiple errors produced during streaming ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// StreamIngestor feeds records through the incremental ingestion path using a
// worker pool. Unlike BulkLoad it never resets the attribute index, so it is
// safe to run against a store that already holds data. Records that fail keep
// their errors without stopping the rest of the batch.
type StreamIngestor struct {
	service *RelationshipService
	workers int
}

// NewStreamIngestor creates a StreamIngestor with the provided concurrency.
func NewStreamIngestor(service *RelationshipService, workers int) *StreamIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &StreamIngestor{
		service: service,
		workers: workers,
	}
}

// IngestUsers processes the provided users concurrently.
func (si *StreamIngestor) IngestUsers(ctx context.Context, users []domain.User) error {
	return si.run(ctx, len(users), func(idx int) error {
		return si.service.IngestUser(ctx, users[idx])
	})
}

// IngestTransactions processes the provided transactions concurrently.
func (si *StreamIngestor) IngestTransactions(ctx context.Context, txs []domain.Transaction) error {
	return si.run(ctx, len(txs), func(idx int) error {
		return si.service.IngestTransaction(ctx, txs[idx])
	})
}

func (si *StreamIngestor) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < si.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
