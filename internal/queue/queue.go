package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client used to schedule posts.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func taskID(postID int64) string {
	return fmt.Sprintf("post-%d", postID)
}

// EnqueuePost schedules a publish task for the post after delay. Each post has
// at most one task in the queue; a duplicate enqueue is not an error.
func EnqueuePost(client Enqueuer, payload PublishPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	// Retries are left to the sweep; a claimed post is never retried here.
	_, err = client.Enqueue(task,
		asynq.ProcessIn(delay),
		asynq.TaskID(taskID(payload.PostID)),
		asynq.MaxRetry(0),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		log.Printf("Task already scheduled: %+v", payload)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("Task scheduled: %+v in %s", payload, delay)
	return nil
}
