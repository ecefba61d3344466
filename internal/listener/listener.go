package listener

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/tidwall/gjson"

	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/repository"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// Submitter hands a post id to the worker pool.
type Submitter interface {
	Submit(ctx context.Context, postID int64) error
}

// Listener reacts to post changes announced on the post_updates channel.
// Notifications for posts that are not yet due are left to the sweep.
type Listener struct {
	uri    string
	worker Submitter
	// onReconnect runs after the connection was re-established, since
	// notifications sent while disconnected are lost.
	onReconnect func()
	now         func() time.Time
}

func NewListener(uri string, worker Submitter, onReconnect func()) *Listener {
	return &Listener{
		uri:         uri,
		worker:      worker,
		onReconnect: onReconnect,
		now:         time.Now,
	}
}

// Run listens until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	pl := pq.NewListener(l.uri, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Info("post listener event", "event", ev, "error", err)
		}
	})
	defer pl.Close()

	if err := pl.Listen(repository.NotifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", repository.NotifyChannel, err)
	}
	slog.Info("Listening for post updates", "channel", repository.NotifyChannel)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-pl.Notify:
			l.handle(ctx, n)
		case <-ticker.C:
			if err := pl.Ping(); err != nil {
				slog.Info("post listener ping failed", "error", err)
			}
		}
	}
}

func (l *Listener) handle(ctx context.Context, n *pq.Notification) {
	// A nil notification means the connection was lost and re-established.
	if n == nil {
		if l.onReconnect != nil {
			l.onReconnect()
		}
		return
	}

	postID, ok := l.duePostID(n.Extra)
	if !ok {
		return
	}
	if err := l.worker.Submit(ctx, postID); err != nil {
		slog.Info("Unable to submit notified post", "post_id", postID, "error", err)
	}
}

// duePostID extracts the post id from a payload of the form
// {"post_id": 1, "status": "pending", "scheduled_time": "..."}
// when the post is pending and due.
func (l *Listener) duePostID(payload string) (int64, bool) {
	if !gjson.Valid(payload) {
		slog.Info("malformed post notification", "payload", payload)
		return 0, false
	}

	res := gjson.GetMany(payload, "post_id", "status", "scheduled_time")
	if !res[0].Exists() || res[1].String() != string(models.PostStatusPending) {
		return 0, false
	}

	if res[2].Exists() {
		due, err := time.Parse(time.RFC3339Nano, res[2].String())
		if err != nil || due.After(l.now()) {
			return 0, false
		}
	}

	return res[0].Int(), true
}
