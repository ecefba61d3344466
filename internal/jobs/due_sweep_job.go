package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/omni-publisher/internal/repository"
)

// Submitter hands a post id to the worker pool.
type Submitter interface {
	Submit(ctx context.Context, postID int64) error
}

// DueSweepJob picks up pending posts whose time has come. It covers posts
// whose queued task or notification was lost.
type DueSweepJob struct {
	pr     repository.PostRepository
	worker Submitter
	now    func() time.Time
}

func NewDueSweepJob(pr repository.PostRepository, worker Submitter) *DueSweepJob {
	return &DueSweepJob{
		pr:     pr,
		worker: worker,
		now:    time.Now,
	}
}

func (j *DueSweepJob) SweepDuePosts() {
	j.Run(context.Background())
}

// Run submits every due post and returns how many were handed off.
func (j *DueSweepJob) Run(ctx context.Context) int {
	ids, err := j.pr.ListDue(ctx, j.now())
	if err != nil {
		slog.Info(err.Error())
		return 0
	}

	submitted := 0
	for _, id := range ids {
		if err := j.worker.Submit(ctx, id); err != nil {
			slog.Info("Unable to submit due post", "post_id", id, "error", err)
			return submitted
		}
		submitted++
	}

	if submitted > 0 {
		slog.Info("Due posts submitted", "count", submitted)
	}
	return submitted
}
