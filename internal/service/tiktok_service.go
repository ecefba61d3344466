package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	config "github.com/maheshrc27/omni-publisher/configs"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/transfer"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const (
	tiktokChunkSize       int64 = 20 * 1024 * 1024
	tiktokMaxPhotos             = 35
	tiktokPrivacyPublic         = "PUBLIC_TO_EVERYONE"
	tiktokPrivacySelfOnly       = "SELF_ONLY"
	tiktokCodeOK                = "ok"
	tiktokCodeInvalidToken      = "access_token_invalid"
)

var errTiktokTokenInvalid = errors.New("tiktok access token invalid")

type TiktokService interface {
	Driver
	Refresher
	UploadVideo(ctx context.Context, mediaPath, title string, bundle *models.TokenBundle, tenantID int64, saver CredentialSaver) (string, error)
	UploadPhotos(ctx context.Context, urls []string, title string, bundle *models.TokenBundle, tenantID int64, saver CredentialSaver) (string, error)
}

type tiktokService struct {
	apiURL       string
	clientKey    string
	clientSecret string
	audited      bool
	chunkSize    int64
	httpClient   *http.Client
}

func NewTiktokService(cfg config.Config, httpClient *http.Client) TiktokService {
	return &tiktokService{
		apiURL:       strings.TrimRight(cfg.TiktokAPIURL, "/"),
		clientKey:    cfg.TiktokClientKey,
		clientSecret: cfg.TiktokClientSecret,
		audited:      cfg.TiktokAppAudited,
		chunkSize:    tiktokChunkSize,
		httpClient:   httpClient,
	}
}

// chunkPlan splits size bytes into ceil(size/chunkSize) chunks. Files that fit in
// one chunk are sent whole.
func chunkPlan(size, chunkSize int64) (int64, int64) {
	if size <= chunkSize {
		return size, 1
	}
	return chunkSize, (size + chunkSize - 1) / chunkSize
}

func (s *tiktokService) privacyLevel() string {
	// Unaudited apps may only post privately.
	if s.audited {
		return tiktokPrivacyPublic
	}
	return tiktokPrivacySelfOnly
}

func (s *tiktokService) Publish(ctx context.Context, req *PublishRequest) (string, error) {
	return s.UploadVideo(ctx, req.MediaPath, req.Title, req.Credentials, req.TenantID, req.Saver)
}

func (s *tiktokService) UploadVideo(ctx context.Context, mediaPath, title string, bundle *models.TokenBundle, tenantID int64, saver CredentialSaver) (string, error) {
	if bundle == nil || bundle.AccessToken == "" {
		return "", ErrMissingCredentials
	}

	file, err := os.Open(mediaPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	size := info.Size()
	if size == 0 {
		return "", fmt.Errorf("%w: empty media file", ErrRemoteRejected)
	}

	chunkSize, chunkCount := chunkPlan(size, s.chunkSize)

	payload := transfer.VideoUploadRequest{
		PostInfo: transfer.VideoPostInfo{
			Title:        title,
			PrivacyLevel: s.privacyLevel(),
		},
		SourceInfo: transfer.VideoSourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       chunkSize,
			TotalChunkCount: chunkCount,
		},
	}

	data, err := callWithRefresh(
		func() (*transfer.TiktokPublishData, error) {
			return s.initVideo(ctx, bundle.AccessToken, payload)
		},
		isTiktokTokenInvalid,
		func() error { return s.refresh(ctx, tenantID, bundle, saver) },
	)
	if err != nil {
		return "", err
	}

	for i := int64(0); i < chunkCount; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, size) - 1
		if err := s.putChunk(ctx, data.UploadURL, io.NewSectionReader(file, start, end-start+1), start, end, size); err != nil {
			return "", err
		}
	}

	log.Printf("Tiktok upload accepted, publish id %s", data.PublishID)
	return data.PublishID, nil
}

func isTiktokTokenInvalid(err error) bool {
	return errors.Is(err, errTiktokTokenInvalid)
}

func (s *tiktokService) postJSON(ctx context.Context, path, token string, payload any) (*http.Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		log.Println("Error marshalling data:", err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		log.Println("Error creating request:", err)
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	return s.httpClient.Do(req)
}

func (s *tiktokService) initVideo(ctx context.Context, token string, payload transfer.VideoUploadRequest) (*transfer.TiktokPublishData, error) {
	resp, err := s.postJSON(ctx, "/v2/post/publish/video/init/", token, payload)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result transfer.TikTokUploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Println(err.Error())
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteRejected, resp.StatusCode, body)
	}

	if result.Error.Code == tiktokCodeInvalidToken {
		return nil, errTiktokTokenInvalid
	}

	if resp.StatusCode != http.StatusOK || (result.Error.Code != "" && result.Error.Code != tiktokCodeOK) || result.Data.UploadURL == "" {
		log.Printf("Error initialising tiktok upload: %s", body)
		return nil, fmt.Errorf("%w: %s: %s", ErrRemoteRejected, result.Error.Code, result.Error.Message)
	}

	return &result.Data, nil
}

func (s *tiktokService) putChunk(ctx context.Context, uploadURL string, chunk io.Reader, start, end, total int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, chunk)
	if err != nil {
		return err
	}
	req.ContentLength = end - start + 1
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if _, err := readBody(resp); err != nil {
		log.Printf("Error uploading tiktok chunk %d-%d: %v", start, end, err)
		return err
	}
	return nil
}

// UploadPhotos posts a carousel TikTok pulls from urls. The first image is the cover.
func (s *tiktokService) UploadPhotos(ctx context.Context, urls []string, title string, bundle *models.TokenBundle, tenantID int64, saver CredentialSaver) (string, error) {
	if bundle == nil || bundle.AccessToken == "" {
		return "", ErrMissingCredentials
	}

	photos := lo.Compact(urls)
	if len(photos) == 0 {
		return "", fmt.Errorf("%w: no photos", ErrRemoteRejected)
	}
	if len(photos) > tiktokMaxPhotos {
		log.Printf("Tiktok carousel limited to %d photos, dropping %d", tiktokMaxPhotos, len(photos)-tiktokMaxPhotos)
		photos = photos[:tiktokMaxPhotos]
	}

	payload := transfer.PhotoUploadRequest{
		PostInfo: transfer.PhotoPostInfo{
			Title:        title,
			PrivacyLevel: s.privacyLevel(),
			AutoAddMusic: true,
		},
		SourceInfo: transfer.PhotoSourceInfo{
			Source:          "PULL_FROM_URL",
			PhotoCoverIndex: 0,
			PhotoImages:     photos,
		},
		PostMode:  "DIRECT_POST",
		MediaType: "PHOTO",
	}

	return callWithRefresh(
		func() (string, error) { return s.initPhotos(ctx, bundle.AccessToken, payload) },
		isTiktokTokenInvalid,
		func() error { return s.refresh(ctx, tenantID, bundle, saver) },
	)
}

func (s *tiktokService) initPhotos(ctx context.Context, token string, payload transfer.PhotoUploadRequest) (string, error) {
	resp, err := s.postJSON(ctx, "/v2/post/publish/content/init/", token, payload)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// This endpoint reports success as error.code "ok".
	code := gjson.GetBytes(body, "error.code").String()
	switch {
	case code == tiktokCodeInvalidToken:
		return "", errTiktokTokenInvalid
	case resp.StatusCode == http.StatusOK && code == tiktokCodeOK:
		return gjson.GetBytes(body, "data.publish_id").String(), nil
	}

	log.Printf("Error posting photos on tiktok: %s", body)
	return "", fmt.Errorf("%w: %s: %s", ErrRemoteRejected, code, gjson.GetBytes(body, "error.message").String())
}

func (s *tiktokService) refresh(ctx context.Context, tenantID int64, bundle *models.TokenBundle, saver CredentialSaver) error {
	if saver == nil {
		return ErrNoCredentialStore
	}
	if bundle.RefreshToken == "" {
		return errors.New("tiktok credentials have no refresh token")
	}

	clientKey, clientSecret := s.clientKey, s.clientSecret
	if bundle.ClientID != "" {
		clientKey, clientSecret = bundle.ClientID, bundle.ClientSecret
	}

	form := url.Values{}
	form.Set("client_key", clientKey)
	form.Set("client_secret", clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", bundle.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/v2/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	body, err := readBody(resp)
	if err != nil {
		return err
	}

	var token transfer.TiktokTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return err
	}
	if token.AccessToken == "" {
		return fmt.Errorf("tiktok refresh returned no access token: %s %s", token.Error, token.ErrorDescription)
	}

	bundle.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		bundle.RefreshToken = token.RefreshToken
	}
	if token.OpenID != "" {
		bundle.OpenID = token.OpenID
	}
	bundle.Expiry = GetExpiresAt(token.ExpiresIn)

	return saver.Put(ctx, tenantID, string(models.PlatformTiktok), bundle)
}

func (s *tiktokService) RefreshCredentials(ctx context.Context, tenantID int64, bundle *models.TokenBundle, saver CredentialSaver) error {
	return s.refresh(ctx, tenantID, bundle, saver)
}
