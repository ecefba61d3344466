package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/maheshrc27/omni-publisher/configs"
	"github.com/maheshrc27/omni-publisher/internal/mock"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/transfer"
)

// fakeTiktok records every call made to a fake TikTok API.
type fakeTiktok struct {
	mu           sync.Mutex
	srv          *httptest.Server
	initTokens   []string
	initPayloads []transfer.VideoUploadRequest
	photoPayload *transfer.PhotoUploadRequest
	ranges       []string
	chunks       [][]byte
	refreshes    int

	// validToken is the only token init accepts.
	validToken    string
	refreshStatus int
}

func newFakeTiktok(t *testing.T) *fakeTiktok {
	f := &fakeTiktok{validToken: "good", refreshStatus: http.StatusOK}
	mux := http.NewServeMux()

	mux.HandleFunc("/v2/post/publish/video/init/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.initTokens = append(f.initTokens, token)

		var payload transfer.VideoUploadRequest
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.initPayloads = append(f.initPayloads, payload)

		if token != f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"code":"access_token_invalid","message":"expired"}}`)
			return
		}
		fmt.Fprintf(w, `{"data":{"publish_id":"pub-1","upload_url":"%s/upload"},"error":{"code":"ok"}}`, f.srv.URL)
	})

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		f.ranges = append(f.ranges, r.Header.Get("Content-Range"))
		f.chunks = append(f.chunks, body)
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("/v2/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.refreshes++
		_ = r.ParseForm()
		if f.refreshStatus != http.StatusOK || r.PostForm.Get("grant_type") != "refresh_token" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"good","refresh_token":"r2","open_id":"o1","expires_in":86400}`)
	})

	mux.HandleFunc("/v2/post/publish/content/init/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var payload transfer.PhotoUploadRequest
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.photoPayload = &payload
		fmt.Fprint(w, `{"data":{"publish_id":"photo-1"},"error":{"code":"ok","message":""}}`)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestTiktok(f *fakeTiktok, chunkSize int64) *tiktokService {
	svc := NewTiktokService(config.Config{TiktokAPIURL: f.srv.URL}, f.srv.Client()).(*tiktokService)
	svc.chunkSize = chunkSize
	return svc
}

func writeMedia(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestChunkPlan(t *testing.T) {
	const c = int64(20 * 1024 * 1024)
	tests := []struct {
		size      int64
		wantSize  int64
		wantCount int64
	}{
		{size: 1, wantSize: 1, wantCount: 1},
		{size: c, wantSize: c, wantCount: 1},
		{size: c + 1, wantSize: c, wantCount: 2},
		{size: 3 * c, wantSize: c, wantCount: 3},
		{size: 3*c + 5, wantSize: c, wantCount: 4},
	}
	for _, tt := range tests {
		gotSize, gotCount := chunkPlan(tt.size, c)
		assert.Equal(t, tt.wantSize, gotSize, "size %d", tt.size)
		assert.Equal(t, tt.wantCount, gotCount, "size %d", tt.size)
	}
}

func TestTiktokUploadVideo_Chunks(t *testing.T) {
	f := newFakeTiktok(t)
	svc := newTestTiktok(f, 4)
	path := writeMedia(t, 10)

	id, err := svc.UploadVideo(context.Background(), path, "hello", &models.TokenBundle{AccessToken: "good"}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "pub-1", id)

	require.Len(t, f.initPayloads, 1)
	src := f.initPayloads[0].SourceInfo
	assert.Equal(t, "FILE_UPLOAD", src.Source)
	assert.Equal(t, int64(10), src.VideoSize)
	assert.Equal(t, int64(4), src.ChunkSize)
	assert.Equal(t, int64(3), src.TotalChunkCount)
	assert.Equal(t, "SELF_ONLY", f.initPayloads[0].PostInfo.PrivacyLevel)

	assert.Equal(t, []string{"bytes 0-3/10", "bytes 4-7/10", "bytes 8-9/10"}, f.ranges)

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	var joined []byte
	for _, c := range f.chunks {
		joined = append(joined, c...)
	}
	assert.Equal(t, original, joined)
}

func TestTiktokUploadVideo_SingleChunk(t *testing.T) {
	f := newFakeTiktok(t)
	svc := newTestTiktok(f, 64)
	svc.audited = true
	path := writeMedia(t, 10)

	_, err := svc.UploadVideo(context.Background(), path, "hello", &models.TokenBundle{AccessToken: "good"}, 1, nil)
	require.NoError(t, err)

	src := f.initPayloads[0].SourceInfo
	assert.Equal(t, int64(10), src.ChunkSize)
	assert.Equal(t, int64(1), src.TotalChunkCount)
	assert.Equal(t, "PUBLIC_TO_EVERYONE", f.initPayloads[0].PostInfo.PrivacyLevel)
	assert.Equal(t, []string{"bytes 0-9/10"}, f.ranges)
}

func TestTiktokUploadVideo_RefreshRetriesOnce(t *testing.T) {
	f := newFakeTiktok(t)
	svc := newTestTiktok(f, 64)
	path := writeMedia(t, 10)
	creds := mock.NewCredentialRepository()

	bundle := &models.TokenBundle{AccessToken: "stale", RefreshToken: "r1"}
	_, err := svc.UploadVideo(context.Background(), path, "hello", bundle, 9, creds)
	require.NoError(t, err)

	assert.Equal(t, []string{"stale", "good"}, f.initTokens)
	assert.Equal(t, 1, f.refreshes)
	require.Len(t, creds.Puts, 1)
	assert.Equal(t, "good", creds.Puts[0].AccessToken)
	assert.Equal(t, "r2", creds.Puts[0].RefreshToken)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), creds.Puts[0].Expiry, time.Minute)

	stored, err := creds.Get(context.Background(), 9, "tiktok")
	require.NoError(t, err)
	assert.Equal(t, "good", stored.AccessToken)
}

func TestTiktokUploadVideo_RefreshFails(t *testing.T) {
	f := newFakeTiktok(t)
	f.refreshStatus = http.StatusBadRequest
	svc := newTestTiktok(f, 64)
	path := writeMedia(t, 10)
	creds := mock.NewCredentialRepository()

	_, err := svc.UploadVideo(context.Background(), path, "hello", &models.TokenBundle{AccessToken: "stale", RefreshToken: "r1"}, 9, creds)
	assert.ErrorIs(t, err, ErrTokenRefresh)
	assert.Len(t, f.initTokens, 1)
	assert.Empty(t, f.ranges)
	assert.Empty(t, creds.Puts)
}

func TestTiktokUploadVideo_NoStore(t *testing.T) {
	f := newFakeTiktok(t)
	svc := newTestTiktok(f, 64)
	path := writeMedia(t, 10)

	_, err := svc.UploadVideo(context.Background(), path, "hello", &models.TokenBundle{AccessToken: "stale", RefreshToken: "r1"}, 9, nil)
	assert.ErrorIs(t, err, ErrNoCredentialStore)
	assert.Zero(t, f.refreshes)
	assert.Len(t, f.initTokens, 1)
}

func TestTiktokUploadPhotos(t *testing.T) {
	f := newFakeTiktok(t)
	svc := newTestTiktok(f, 64)

	urls := make([]string, 40)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://cdn.test/%d.jpg", i)
	}

	id, err := svc.UploadPhotos(context.Background(), urls, "carousel", &models.TokenBundle{AccessToken: "good"}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "photo-1", id)

	require.NotNil(t, f.photoPayload)
	assert.Len(t, f.photoPayload.SourceInfo.PhotoImages, 35)
	assert.Equal(t, 0, f.photoPayload.SourceInfo.PhotoCoverIndex)
	assert.Equal(t, "PULL_FROM_URL", f.photoPayload.SourceInfo.Source)
	assert.Equal(t, "PHOTO", f.photoPayload.MediaType)
}
