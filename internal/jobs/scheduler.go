package job

import (
	"github.com/robfig/cron"
)

// NewScheduler registers the sweep and the token refresh on their cron specs.
// The returned scheduler is not started.
func NewScheduler(sweepSpec, refreshSpec string, sweep *DueSweepJob, refresh *TokenRefreshJob) (*cron.Cron, error) {
	c := cron.New()

	if err := c.AddFunc(sweepSpec, sweep.SweepDuePosts); err != nil {
		return nil, err
	}
	if err := c.AddFunc(refreshSpec, refresh.RefreshTokens); err != nil {
		return nil, err
	}

	return c, nil
}
