package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/maheshrc27/omni-publisher/internal/service"
)

var ErrWorkerStopped = errors.New("worker stopped")

// Worker runs posts submitted by the sweep and the notification listener on a
// fixed number of goroutines.
type Worker struct {
	ps          service.PublishService
	concurrency int
	jobs        chan int64
	stop        chan struct{}
	once        sync.Once
	wg          sync.WaitGroup
}

func NewWorker(ps service.PublishService, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		ps:          ps,
		concurrency: concurrency,
		jobs:        make(chan int64, concurrency*16),
		stop:        make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
	slog.Info("worker started", "concurrency", w.concurrency)
}

func (w *Worker) run(ctx context.Context, n int) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case id := <-w.jobs:
			slog.Debug("worker picked post", "worker", n, "post_id", id)
			w.ps.Process(ctx, id)
		}
	}
}

// Submit queues a post id, blocking while the buffer is full.
func (w *Worker) Submit(ctx context.Context, postID int64) error {
	select {
	case <-w.stop:
		return ErrWorkerStopped
	default:
	}

	select {
	case w.jobs <- postID:
		return nil
	case <-w.stop:
		return ErrWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop lets in-flight posts finish and drops anything still buffered.
func (w *Worker) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}
