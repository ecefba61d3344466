package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/omni-publisher/internal/mock"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/storage"
)

// stubDriver returns a fixed outcome and records its requests.
type stubDriver struct {
	mu       sync.Mutex
	err      error
	panicMsg string
	requests []*PublishRequest
}

func (d *stubDriver) Publish(ctx context.Context, req *PublishRequest) (string, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()

	if d.panicMsg != "" {
		panic(d.panicMsg)
	}
	if _, err := os.Stat(req.MediaPath); err != nil {
		return "", err
	}
	if d.err != nil {
		return "", d.err
	}
	return "remote-" + req.Title, nil
}

func (d *stubDriver) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

type harness struct {
	posts    *mock.PostRepository
	creds    *mock.CredentialRepository
	results  *mock.PlatformResultRepository
	blobs    *mock.BlobStore
	staging  *storage.Staging
	drivers  map[models.Platform]*stubDriver
	registry *Registry
	svc      PublishService
}

func newHarness(t *testing.T, post *models.Post) *harness {
	h := &harness{
		posts:    mock.NewPostRepository(post),
		creds:    mock.NewCredentialRepository(),
		results:  &mock.PlatformResultRepository{},
		blobs:    mock.NewBlobStore(),
		staging:  storage.NewStaging(filepath.Join(t.TempDir(), "staging")),
		drivers:  make(map[models.Platform]*stubDriver),
		registry: NewRegistry(),
	}
	h.blobs.Objects[post.VideoFileID] = []byte("video-bytes")

	for _, p := range models.Platforms {
		d := &stubDriver{}
		h.drivers[p] = d
		h.registry.Register(p, d)
		h.creds.Set(post.ClientID, p.CredentialKey(), &models.TokenBundle{AccessToken: "tok-" + p.CredentialKey()})
	}

	h.svc = NewPublishService(h.posts, h.creds, h.results, h.blobs, h.staging, h.registry)
	return h
}

func pendingPost(platforms ...string) *models.Post {
	return &models.Post{
		ID:          1,
		ClientID:    10,
		VideoFileID: "10/video.mp4",
		Title:       "title",
		Description: "desc",
		Platforms:   platforms,
		Status:      models.PostStatusPending,
	}
}

func (h *harness) assertCleanedUp(t *testing.T) {
	t.Helper()
	_, err := os.Stat(h.staging.Path(1))
	assert.True(t, os.IsNotExist(err), "staged media should be removed")
}

func TestProcess_AllSucceed(t *testing.T) {
	h := newHarness(t, pendingPost("youtube", "tiktok"))

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusCompleted, h.posts.Status(1))
	assert.Equal(t, []models.PostStatus{models.PostStatusCompleted}, h.posts.StatusUpdates)
	assert.Equal(t, 1, h.drivers[models.PlatformYoutube].calls())
	assert.Equal(t, 1, h.drivers[models.PlatformTiktok].calls())
	assert.Equal(t, 1, h.blobs.FetchCalls)
	assert.Zero(t, h.blobs.URLCalls)

	require.Len(t, h.results.Results, 2)
	assert.True(t, h.results.Results[0].Success)
	assert.Equal(t, "remote-title", h.results.Results[0].RemoteID)
	h.assertCleanedUp(t)
}

func TestProcess_OneFailureFailsPost(t *testing.T) {
	h := newHarness(t, pendingPost("youtube", "tiktok"))
	h.drivers[models.PlatformTiktok].err = ErrRemoteRejected

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusFailed, h.posts.Status(1))
	assert.Equal(t, 1, h.drivers[models.PlatformYoutube].calls())
	assert.Equal(t, 1, h.drivers[models.PlatformTiktok].calls())
	require.Len(t, h.results.Results, 2)
	assert.True(t, h.results.Results[0].Success)
	assert.False(t, h.results.Results[1].Success)
	assert.Contains(t, h.results.Results[1].ErrorMessage, "rejected")
	h.assertCleanedUp(t)
}

func TestProcess_FailureOrderDoesNotMatter(t *testing.T) {
	h := newHarness(t, pendingPost("tiktok", "youtube"))
	h.drivers[models.PlatformTiktok].err = ErrRemoteRejected

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusFailed, h.posts.Status(1))
	assert.Equal(t, 1, h.drivers[models.PlatformYoutube].calls())
}

func TestProcess_NotPendingIsNoop(t *testing.T) {
	for _, status := range []models.PostStatus{models.PostStatusProcessing, models.PostStatusCompleted, models.PostStatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			post := pendingPost("youtube")
			post.Status = status
			h := newHarness(t, post)

			h.svc.Process(context.Background(), 1)

			assert.Equal(t, status, h.posts.Status(1))
			assert.Empty(t, h.posts.StatusUpdates)
			assert.Zero(t, h.posts.ClaimCalls)
			assert.Zero(t, h.blobs.FetchCalls)
			assert.Zero(t, h.creds.GetCalls)
		})
	}
}

func TestProcess_MissingPostIsNoop(t *testing.T) {
	h := newHarness(t, pendingPost("youtube"))

	h.svc.Process(context.Background(), 99)

	assert.Empty(t, h.posts.StatusUpdates)
	assert.Zero(t, h.blobs.FetchCalls)
}

func TestProcess_AlreadyClaimed(t *testing.T) {
	h := newHarness(t, pendingPost("youtube"))
	racing := &racingPosts{PostRepository: h.posts}
	svc := NewPublishService(racing, h.creds, h.results, h.blobs, h.staging, h.registry)

	svc.Process(context.Background(), 1)

	assert.Zero(t, h.blobs.FetchCalls)
	assert.Zero(t, h.creds.GetCalls)
	assert.Empty(t, h.posts.StatusUpdates)
}

// racingPosts loses every claim to another worker.
type racingPosts struct {
	*mock.PostRepository
}

func (r *racingPosts) Claim(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

// panickingBlobs blows up while fetching.
type panickingBlobs struct {
	*mock.BlobStore
}

func (b *panickingBlobs) Fetch(ctx context.Context, key, dst string) error {
	_ = os.WriteFile(dst, []byte("partial"), 0o644)
	panic("disk gone")
}

func TestProcess_PanicMarksFailedAndCleansUp(t *testing.T) {
	h := newHarness(t, pendingPost("youtube"))
	svc := NewPublishService(h.posts, h.creds, h.results, &panickingBlobs{BlobStore: h.blobs}, h.staging, h.registry)

	require.NotPanics(t, func() { svc.Process(context.Background(), 1) })

	assert.Equal(t, models.PostStatusFailed, h.posts.Status(1))
	assert.Equal(t, []models.PostStatus{models.PostStatusFailed}, h.posts.StatusUpdates)
	assert.Zero(t, h.drivers[models.PlatformYoutube].calls())
	h.assertCleanedUp(t)
}

func TestProcess_EmptyPlatformsFails(t *testing.T) {
	h := newHarness(t, pendingPost())

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusFailed, h.posts.Status(1))
	assert.Equal(t, 1, h.blobs.FetchCalls)
	h.assertCleanedUp(t)
}

func TestProcess_UnknownPlatformsFail(t *testing.T) {
	h := newHarness(t, pendingPost("myspace", "youtube"))

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusFailed, h.posts.Status(1))
	assert.Equal(t, 1, h.drivers[models.PlatformYoutube].calls())
	require.Len(t, h.results.Results, 2)
	assert.False(t, h.results.Results[0].Success)
	assert.Contains(t, h.results.Results[0].ErrorMessage, ErrUnknownPlatform.Error())
	h.assertCleanedUp(t)
}

func TestProcess_PlatformNamesAreCaseInsensitive(t *testing.T) {
	h := newHarness(t, pendingPost(" YouTube", "TIKTOK"))

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusCompleted, h.posts.Status(1))
}

func TestProcess_FetchFailureSkipsDrivers(t *testing.T) {
	h := newHarness(t, pendingPost("youtube", "instagram"))
	h.blobs.FetchErr = storage.ErrObjectNotFound

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusFailed, h.posts.Status(1))
	for _, d := range h.drivers {
		assert.Zero(t, d.calls())
	}
	assert.Zero(t, h.creds.GetCalls)
	assert.Empty(t, h.results.Results)
	h.assertCleanedUp(t)
}

func TestProcess_MissingMetaCredentials(t *testing.T) {
	h := newHarness(t, pendingPost("instagram"))
	delete(h.creds.Bundles, "10/meta")

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusFailed, h.posts.Status(1))
	assert.Zero(t, h.drivers[models.PlatformInstagram].calls())
	require.Len(t, h.results.Results, 1)
	assert.Contains(t, h.results.Results[0].ErrorMessage, ErrMissingCredentials.Error())
}

func TestProcess_MetaSharesCredentialAndGetsURL(t *testing.T) {
	h := newHarness(t, pendingPost("instagram", "facebook"))

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusCompleted, h.posts.Status(1))
	assert.Equal(t, 1, h.blobs.URLCalls)

	ig := h.drivers[models.PlatformInstagram].requests[0]
	fb := h.drivers[models.PlatformFacebook].requests[0]
	assert.Equal(t, "tok-meta", ig.Credentials.AccessToken)
	assert.Equal(t, "tok-meta", fb.Credentials.AccessToken)
	assert.Equal(t, "https://cdn.test/10/video.mp4", ig.MediaURL)
	assert.Nil(t, ig.Saver)
	assert.Nil(t, fb.Saver)
}

func TestProcess_RefreshableDriversGetSaver(t *testing.T) {
	h := newHarness(t, pendingPost("youtube", "tiktok"))

	h.svc.Process(context.Background(), 1)

	assert.NotNil(t, h.drivers[models.PlatformYoutube].requests[0].Saver)
	assert.NotNil(t, h.drivers[models.PlatformTiktok].requests[0].Saver)
	assert.Equal(t, int64(10), h.drivers[models.PlatformTiktok].requests[0].TenantID)
}

func TestProcess_DriverPanicIsIsolated(t *testing.T) {
	h := newHarness(t, pendingPost("tiktok", "youtube"))
	h.drivers[models.PlatformTiktok].panicMsg = "nil map"

	h.svc.Process(context.Background(), 1)

	assert.Equal(t, models.PostStatusFailed, h.posts.Status(1))
	assert.Equal(t, 1, h.drivers[models.PlatformYoutube].calls())
	assert.Contains(t, h.results.Results[0].ErrorMessage, "panic")
	h.assertCleanedUp(t)
}

func TestProcess_StatusWriteFailureStillCleansUp(t *testing.T) {
	h := newHarness(t, pendingPost("youtube"))
	h.posts.UpdateErr = errors.New("db down")

	h.svc.Process(context.Background(), 1)

	assert.Len(t, h.posts.StatusUpdates, 1)
	h.assertCleanedUp(t)
}
