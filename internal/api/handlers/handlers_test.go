package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/omni-publisher/internal/mock"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/service"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{}, nil
}

type testApp struct {
	app      *fiber.App
	posts    *mock.PostRepository
	results  *mock.PlatformResultRepository
	creds    *mock.CredentialRepository
	blobs    *mock.BlobStore
	enqueuer *fakeEnqueuer
}

func newTestApp() *testApp {
	ta := &testApp{
		app:      fiber.New(),
		posts:    mock.NewPostRepository(),
		results:  &mock.PlatformResultRepository{},
		creds:    mock.NewCredentialRepository(),
		blobs:    mock.NewBlobStore(),
		enqueuer: &fakeEnqueuer{},
	}

	post := NewPostHandler(service.NewPostService(ta.posts, ta.results, ta.blobs), ta.enqueuer)
	cred := NewCredentialHandler(service.NewCredentialService(ta.creds, nil))

	ta.app.Get("/health", Health)
	api := ta.app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("client_id", "10")
		return c.Next()
	})
	api.Post("/publish", post.CreatePost)
	api.Get("/publish/pending", post.ListPending)
	api.Get("/publish/:id", post.PostInfo)
	api.Post("/media", post.UploadMedia)
	api.Put("/credentials/:platform", cred.SaveCredentials)
	api.Get("/credentials/meta/pages", cred.ListPages)
	api.Put("/credentials/meta/pages", cred.SelectPage)
	return ta
}

func (ta *testApp) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestHealth(t *testing.T) {
	resp, body := newTestApp().do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "online", body["status"])
}

func TestCreatePost(t *testing.T) {
	ta := newTestApp()

	resp, body := ta.do(t, http.MethodPost, "/api/v1/publish", map[string]any{
		"video_file_id":  "10/a.mp4",
		"description":    "Launch day. More soon",
		"platforms":      []string{"YouTube", "tiktok", "youtube"},
		"scheduled_time": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])
	require.Len(t, ta.enqueuer.tasks, 1)

	stored := ta.posts.Posts[int64(body["id"].(float64))]
	require.NotNil(t, stored)
	assert.Equal(t, int64(10), stored.ClientID)
	assert.Equal(t, "Launch day", stored.Title)
	assert.Equal(t, []string{"youtube", "tiktok"}, stored.Platforms)
}

func TestCreatePost_EnqueueFailureStillCreates(t *testing.T) {
	ta := newTestApp()
	ta.enqueuer.err = errors.New("redis down")

	resp, _ := ta.do(t, http.MethodPost, "/api/v1/publish", map[string]any{
		"video_file_id":  "10/a.mp4",
		"platforms":      []string{"youtube"},
		"scheduled_time": time.Now().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, ta.posts.Posts, 1)
}

func TestCreatePost_Validation(t *testing.T) {
	ta := newTestApp()

	resp, body := ta.do(t, http.MethodPost, "/api/v1/publish", map[string]any{
		"platforms": []string{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "video_file_id")
	assert.Contains(t, fields, "scheduled_time")
	assert.Contains(t, fields, "platforms")

	resp, _ = ta.do(t, http.MethodPost, "/api/v1/publish", map[string]any{
		"video_file_id":  "10/a.mp4",
		"platforms":      []string{"myspace"},
		"scheduled_time": time.Now().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, ta.enqueuer.tasks)
}

func TestCreatePost_ForeignMediaForbidden(t *testing.T) {
	ta := newTestApp()

	resp, _ := ta.do(t, http.MethodPost, "/api/v1/publish", map[string]any{
		"video_file_id":  "20/theirs.mp4",
		"platforms":      []string{"youtube"},
		"scheduled_time": time.Now().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, ta.posts.Posts)
	assert.Empty(t, ta.enqueuer.tasks)
}

func TestListPending_OnlyCallersPosts(t *testing.T) {
	ta := newTestApp()
	ta.posts.Posts[1] = &models.Post{ID: 1, ClientID: 10, Title: "mine", Status: models.PostStatusPending}
	ta.posts.Posts[2] = &models.Post{ID: 2, ClientID: 20, Title: "theirs", Status: models.PostStatusPending}

	resp, err := ta.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/publish/pending", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var posts []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].ID)
	assert.Equal(t, "mine", posts[0].Title)
}

func TestPostInfo(t *testing.T) {
	ta := newTestApp()
	ta.posts.Posts[1] = &models.Post{ID: 1, ClientID: 10, Status: models.PostStatusFailed}
	ta.posts.Posts[2] = &models.Post{ID: 2, ClientID: 99}
	_, _ = ta.results.Create(context.Background(), &models.PlatformResult{PostID: 1, Platform: "tiktok", ErrorMessage: "rejected"})

	resp, body := ta.do(t, http.MethodGet, "/api/v1/publish/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", body["status"])
	assert.Len(t, body["results"], 1)

	resp, _ = ta.do(t, http.MethodGet, "/api/v1/publish/2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodGet, "/api/v1/publish/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListPending(t *testing.T) {
	ta := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/publish/pending", nil)
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `[]`, string(raw))

	ta.posts.Posts[1] = &models.Post{ID: 1, ClientID: 10, Status: models.PostStatusPending}
	ta.posts.Posts[2] = &models.Post{ID: 2, ClientID: 10, Status: models.PostStatusCompleted}
	resp, err = ta.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/publish/pending", nil), -1)
	require.NoError(t, err)
	var posts []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].ID)
}

func TestUploadMedia(t *testing.T) {
	ta := newTestApp()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "clip.mp4")
	require.NoError(t, err)
	_, _ = part.Write([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0, 0, 0, 0})
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, ta.blobs.Objects, 1)

	resp, _ = ta.do(t, http.MethodPost, "/api/v1/media", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCredentials(t *testing.T) {
	ta := newTestApp()

	resp, _ := ta.do(t, http.MethodGet, "/api/v1/credentials/meta/pages", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodPut, "/api/v1/credentials/facebook", map[string]any{
		"access_token": "user-token",
		"pages": []map[string]string{
			{"page_id": "p1", "instagram_account_id": "ig1"},
			{"page_id": "p2", "instagram_account_id": "ig2"},
		},
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := ta.do(t, http.MethodGet, "/api/v1/credentials/meta/pages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "p1", body["active_page_id"])

	resp, _ = ta.do(t, http.MethodPut, "/api/v1/credentials/meta/pages", map[string]string{"page_id": "p2"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body = ta.do(t, http.MethodGet, "/api/v1/credentials/meta/pages", nil)
	assert.Equal(t, "p2", body["active_page_id"])

	resp, _ = ta.do(t, http.MethodPut, "/api/v1/credentials/meta/pages", map[string]string{"page_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodPut, "/api/v1/credentials/vine", map[string]any{"access_token": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodPut, "/api/v1/credentials/youtube", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
