package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/omni-publisher/configs"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/transfer"
)

// MetaOptions holds the endpoints and polling budget shared by the Instagram
// and Facebook clients.
type MetaOptions struct {
	GraphURL     string
	UploadURL    string
	PollInterval time.Duration
	PollAttempts int
	HTTPClient   *http.Client
}

// NewMetaOptions builds the options from config. Processing is always checked
// at least once.
func NewMetaOptions(cfg config.Meta, httpClient *http.Client) MetaOptions {
	return MetaOptions{
		GraphURL:     strings.TrimRight(cfg.GraphURL, "/"),
		UploadURL:    strings.TrimRight(cfg.UploadURL, "/"),
		PollInterval: max(cfg.PollInterval, 0),
		PollAttempts: max(cfg.PollAttempts, 1),
		HTTPClient:   httpClient,
	}
}

func (o MetaOptions) graphGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.GraphURL+"/"+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return o.do(req)
}

func (o MetaOptions) graphPost(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.GraphURL+"/"+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return o.do(req)
}

func (o MetaOptions) do(req *http.Request) ([]byte, error) {
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	body, err := readBody(resp)
	if err != nil {
		var metaErr transfer.MetaErrorResponse
		if json.Unmarshal(body, &metaErr) == nil && metaErr.Error.Message != "" {
			slog.Info("meta graph error", "path", req.URL.Path, "code", metaErr.Error.Code, "message", metaErr.Error.Message)
		}
		return nil, err
	}
	return body, nil
}

func decodeID(body []byte, what string) (string, error) {
	var res transfer.MetaIDResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", fmt.Errorf("%w: no %s id in response: %s", ErrRemoteRejected, what, body)
	}
	return res.ID, nil
}

// metaTarget resolves the active Page/Instagram pairing of a Meta bundle.
func metaTarget(req *PublishRequest) (models.MetaPage, error) {
	if req.Credentials == nil || req.Credentials.AccessToken == "" {
		return models.MetaPage{}, ErrMissingCredentials
	}
	if req.MediaURL == "" {
		return models.MetaPage{}, ErrNoMediaURL
	}
	page, ok := req.Credentials.ActivePage()
	if !ok {
		return models.MetaPage{}, fmt.Errorf("%w: no page selected", ErrMissingCredentials)
	}
	return page, nil
}

func postCaption(req *PublishRequest) string {
	if req.Description == "" {
		return req.Title
	}
	return req.Description
}

// NewInstagramDriver adapts InstagramClient to the registry.
func NewInstagramDriver(opts MetaOptions) Driver {
	return DriverFunc(func(ctx context.Context, req *PublishRequest) (string, error) {
		page, err := metaTarget(req)
		if err != nil {
			return "", err
		}
		if page.InstagramAccountID == "" {
			return "", fmt.Errorf("%w: page %s has no instagram account", ErrMissingCredentials, page.PageID)
		}
		return NewInstagramClient(req.Credentials.AccessToken, page.InstagramAccountID, opts).PublishReel(ctx, req.MediaURL, postCaption(req))
	})
}

// NewFacebookDriver adapts FacebookClient to the registry.
func NewFacebookDriver(opts MetaOptions) Driver {
	return DriverFunc(func(ctx context.Context, req *PublishRequest) (string, error) {
		page, err := metaTarget(req)
		if err != nil {
			return "", err
		}
		return NewFacebookClient(req.Credentials.AccessToken, opts).PublishReel(ctx, req.MediaURL, postCaption(req), page.PageID)
	})
}
