package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	config "github.com/maheshrc27/omni-publisher/configs"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeCategoryPeopleBlogs = "22"

var youtubeDefaultTags = []string{"shorts", "video"}

type YoutubeService interface {
	Driver
	Refresher
	PostYoutubeVideo(ctx context.Context, mediaPath, title, description string, bundle *models.TokenBundle) (string, error)
}

type youtubeService struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	// endpoint overrides the API base path.
	endpoint string
}

func NewYoutubeService(cfg config.Config, httpClient *http.Client) YoutubeService {
	return &youtubeService{
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		httpClient:   httpClient,
	}
}

func (s *youtubeService) oauthConfig(bundle *models.TokenBundle) *oauth2.Config {
	conf := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Scopes:       bundle.Scopes,
		Endpoint:     google.Endpoint,
	}
	if bundle.ClientID != "" {
		conf.ClientID = bundle.ClientID
		conf.ClientSecret = bundle.ClientSecret
	}
	if bundle.TokenURI != "" {
		conf.Endpoint.TokenURL = bundle.TokenURI
	}
	if len(conf.Scopes) == 0 {
		conf.Scopes = []string{youtube.YoutubeUploadScope}
	}
	return conf
}

func (s *youtubeService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// token returns a valid token, refreshing it against the token endpoint when expired.
func (s *youtubeService) token(ctx context.Context, bundle *models.TokenBundle) (*oauth2.Token, error) {
	current := &oauth2.Token{
		AccessToken:  bundle.AccessToken,
		RefreshToken: bundle.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       bundle.Expiry,
	}

	tok, err := s.oauthConfig(bundle).TokenSource(s.oauthContext(ctx), current).Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}
	return tok, nil
}

func applyToken(bundle *models.TokenBundle, tok *oauth2.Token) {
	bundle.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		bundle.RefreshToken = tok.RefreshToken
	}
	bundle.Expiry = tok.Expiry
}

func (s *youtubeService) Publish(ctx context.Context, req *PublishRequest) (string, error) {
	if req.Credentials == nil {
		return "", ErrMissingCredentials
	}
	original := req.Credentials.AccessToken

	id, err := s.PostYoutubeVideo(ctx, req.MediaPath, req.Title, req.Description, req.Credentials)

	// The refreshed token is written back when possible; a failed write only costs another refresh.
	if req.Credentials.AccessToken != original && req.Saver != nil {
		if perr := req.Saver.Put(ctx, req.TenantID, string(models.PlatformYoutube), req.Credentials); perr != nil {
			slog.Info("persisting refreshed youtube token failed", "tenant_id", req.TenantID, "error", perr)
		}
	}

	return id, err
}

// PostYoutubeVideo uploads mediaPath and returns the new video id. bundle is
// updated in place when the access token had to be refreshed.
func (s *youtubeService) PostYoutubeVideo(ctx context.Context, mediaPath, title, description string, bundle *models.TokenBundle) (string, error) {
	if bundle == nil || (bundle.AccessToken == "" && bundle.RefreshToken == "") {
		return "", ErrMissingCredentials
	}

	tok, err := s.token(ctx, bundle)
	if err != nil {
		return "", err
	}
	applyToken(bundle, tok)

	opts := []option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(s.oauthContext(ctx), oauth2.StaticTokenSource(tok))),
	}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		log.Printf("Error creating YouTube service: %v", err)
		return "", err
	}

	file, err := os.Open(mediaPath)
	if err != nil {
		log.Printf("Error opening video file: %v", err)
		return "", err
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: description,
			CategoryId:  youtubeCategoryPeopleBlogs,
			Tags:        youtubeDefaultTags,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	response, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(file).Context(ctx).Do()
	if err != nil {
		log.Printf("Error uploading video: %v", err)
		return "", fmt.Errorf("%w: %w", ErrRemoteRejected, err)
	}

	if response.Id == "" {
		return "", fmt.Errorf("%w: youtube returned no video id", ErrRemoteRejected)
	}

	log.Printf("Video uploaded successfully: https://youtu.be/%s", response.Id)
	return response.Id, nil
}

// RefreshCredentials forces a refresh-token exchange and stores the result.
func (s *youtubeService) RefreshCredentials(ctx context.Context, tenantID int64, bundle *models.TokenBundle, saver CredentialSaver) error {
	if bundle.RefreshToken == "" {
		return errors.New("youtube credentials have no refresh token")
	}
	if saver == nil {
		return ErrNoCredentialStore
	}

	expired := *bundle
	expired.Expiry = time.Now().Add(-time.Minute)

	tok, err := s.token(ctx, &expired)
	if err != nil {
		return err
	}
	applyToken(bundle, tok)

	return saver.Put(ctx, tenantID, string(models.PlatformYoutube), bundle)
}
