package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/repository"
	"github.com/maheshrc27/omni-publisher/internal/service"
)

const (
	refreshWindow           = 30 * time.Minute
	refreshConcurrencyLimit = 10
)

// TokenRefreshJob renews YouTube and TikTok credentials that expire soon, so a
// publish run rarely has to refresh inline.
type TokenRefreshJob struct {
	cr       repository.CredentialRepository
	registry *service.Registry
	now      func() time.Time
}

func NewTokenRefreshJob(cr repository.CredentialRepository, registry *service.Registry) *TokenRefreshJob {
	return &TokenRefreshJob{
		cr:       cr,
		registry: registry,
		now:      time.Now,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	c.Run(context.Background())
}

// Run refreshes every credential expiring within the window and reports how
// many were renewed.
func (c *TokenRefreshJob) Run(ctx context.Context) int {
	creds, err := c.cr.ListExpiring(ctx, c.now().Add(refreshWindow))
	if err != nil {
		slog.Info(err.Error())
		return 0
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		refreshed int
	)
	semaphore := make(chan struct{}, refreshConcurrencyLimit)

	for _, cred := range creds {
		platform, err := models.ParsePlatform(cred.Platform)
		if err != nil {
			continue
		}
		refresher, ok := c.registry.Refresher(platform)
		if !ok || cred.TokenData == nil || cred.TokenData.RefreshToken == "" {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(cred *models.SocialCredential, refresher service.Refresher) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := refresher.RefreshCredentials(ctx, cred.ClientID, cred.TokenData, c.cr); err != nil {
				slog.Info("Unable to refresh tokens", "platform", cred.Platform, "client_id", cred.ClientID, "error", err)
				return
			}
			mu.Lock()
			refreshed++
			mu.Unlock()
		}(cred, refresher)
	}

	wg.Wait()
	return refreshed
}
