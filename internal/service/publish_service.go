package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/repository"
	"github.com/maheshrc27/omni-publisher/internal/storage"
	"github.com/samber/lo"
)

// PublishService runs one scheduled post through every platform it targets.
type PublishService interface {
	// Process publishes a pending post. Posts that are missing or no longer
	// pending are left untouched. The outcome is visible only through the
	// persisted post status and platform results.
	Process(ctx context.Context, postID int64)
}

type publishService struct {
	posts    repository.PostRepository
	creds    repository.CredentialRepository
	results  repository.PlatformResultRepository
	blobs    storage.BlobStore
	staging  *storage.Staging
	registry *Registry
}

func NewPublishService(
	posts repository.PostRepository,
	creds repository.CredentialRepository,
	results repository.PlatformResultRepository,
	blobs storage.BlobStore,
	staging *storage.Staging,
	registry *Registry) PublishService {
	return &publishService{
		posts:    posts,
		creds:    creds,
		results:  results,
		blobs:    blobs,
		staging:  staging,
		registry: registry,
	}
}

func (s *publishService) Process(ctx context.Context, postID int64) {
	logger := slog.With("post_id", postID, "run_id", uuid.NewString())

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		logger.Info("loading post failed", "error", err)
		return
	}
	if post == nil || post.Status != models.PostStatusPending {
		return
	}

	claimed, err := s.posts.Claim(ctx, postID)
	if err != nil {
		logger.Info("claiming post failed", "error", err)
		return
	}
	if !claimed {
		logger.Info("post already claimed")
		return
	}

	status := models.PostStatusFailed
	mediaPath := s.staging.Path(postID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("publishing panicked", "panic", r)
			status = models.PostStatusFailed
		}

		if err := s.posts.UpdatePostStatus(context.WithoutCancel(ctx), status, postID); err != nil {
			logger.Error("persisting post status failed", "status", status, "error", err)
		}
		s.staging.Remove(mediaPath)
		logger.Info("post processed", "status", status)
	}()

	if err := s.staging.Ensure(); err != nil {
		logger.Info("creating staging dir failed", "error", err)
		return
	}

	if err := s.blobs.Fetch(ctx, post.VideoFileID, mediaPath); err != nil {
		logger.Info("fetching media failed", "key", post.VideoFileID, "error", err)
		return
	}

	mediaURL := s.mediaURL(ctx, logger, post)

	succeeded := 0
	for _, name := range post.Platforms {
		remoteID, err := s.publishTo(ctx, post, name, mediaPath, mediaURL)
		if err != nil {
			logger.Info("platform publish failed", "platform", name, "error", err)
		} else {
			logger.Info("platform publish succeeded", "platform", name, "remote_id", remoteID)
			succeeded++
		}
		s.record(ctx, logger, postID, name, remoteID, err)
	}

	if len(post.Platforms) > 0 && succeeded == len(post.Platforms) {
		status = models.PostStatusCompleted
	}
}

// mediaURL resolves a pullable address only when a Meta platform is targeted.
func (s *publishService) mediaURL(ctx context.Context, logger *slog.Logger, post *models.Post) string {
	needsURL := lo.SomeBy(post.Platforms, func(name string) bool {
		p, err := models.ParsePlatform(name)
		return err == nil && p.CredentialKey() == models.CredentialKeyMeta
	})
	if !needsURL {
		return ""
	}

	u, err := s.blobs.URL(ctx, post.VideoFileID)
	if err != nil {
		logger.Info("resolving media url failed", "key", post.VideoFileID, "error", err)
		return ""
	}
	return u
}

func (s *publishService) publishTo(ctx context.Context, post *models.Post, name, mediaPath, mediaURL string) (remoteID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("driver panic: %v", r)
		}
	}()

	platform, err := models.ParsePlatform(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}

	driver, ok := s.registry.Driver(platform)
	if !ok {
		return "", fmt.Errorf("%w: no driver for %s", ErrUnknownPlatform, platform)
	}

	bundle, err := s.creds.Get(ctx, post.ClientID, platform.CredentialKey())
	if err != nil {
		return "", err
	}
	if bundle == nil {
		return "", fmt.Errorf("%w: %s for client %d", ErrMissingCredentials, platform.CredentialKey(), post.ClientID)
	}

	req := &PublishRequest{
		TenantID:    post.ClientID,
		MediaPath:   mediaPath,
		MediaURL:    mediaURL,
		Title:       post.Title,
		Description: post.Description,
		Credentials: bundle,
	}
	if platform.Refreshable() {
		req.Saver = s.creds
	}

	return driver.Publish(ctx, req)
}

func (s *publishService) record(ctx context.Context, logger *slog.Logger, postID int64, platform, remoteID string, err error) {
	result := &models.PlatformResult{
		PostID:   postID,
		Platform: platform,
		Success:  err == nil,
		RemoteID: remoteID,
	}
	if err != nil {
		result.ErrorMessage = err.Error()
	}

	if _, err := s.results.Create(context.WithoutCancel(ctx), result); err != nil {
		logger.Info("recording platform result failed", "platform", platform, "error", err)
	}
}
