package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/maheshrc27/omni-publisher/internal/transfer"
	"github.com/tidwall/gjson"
)

// FacebookClient publishes Reels to Pages the user token manages.
type FacebookClient struct {
	userToken string
	opts      MetaOptions
}

func NewFacebookClient(userToken string, opts MetaOptions) *FacebookClient {
	return &FacebookClient{userToken: userToken, opts: opts}
}

func (c *FacebookClient) PublishReel(ctx context.Context, videoURL, description, pageID string) (string, error) {
	pageToken, err := c.pageToken(ctx, pageID)
	if err != nil {
		return "", err
	}

	body, err := c.opts.graphPost(ctx, pageID+"/video_reels", url.Values{
		"upload_phase": {"start"},
		"access_token": {pageToken},
	})
	if err != nil {
		return "", err
	}

	var start transfer.FacebookReelStart
	if err := json.Unmarshal(body, &start); err != nil {
		return "", err
	}
	if start.VideoID == "" {
		return "", fmt.Errorf("%w: no video id in reel session: %s", ErrRemoteRejected, body)
	}

	if err := c.requestPull(ctx, start.VideoID, pageToken, videoURL); err != nil {
		return "", err
	}

	if err := pollUntil(ctx, c.opts.PollInterval, c.opts.PollAttempts, func(ctx context.Context) (bool, error) {
		return c.videoReady(ctx, start.VideoID, pageToken)
	}); err != nil {
		log.Printf("Facebook reel %s not publishable: %v", start.VideoID, err)
		return "", err
	}

	body, err = c.opts.graphPost(ctx, pageID+"/video_reels", url.Values{
		"upload_phase": {"finish"},
		"video_id":     {start.VideoID},
		"video_state":  {"PUBLISHED"},
		"description":  {description},
		"access_token": {pageToken},
	})
	if err != nil {
		return "", err
	}

	var finish transfer.FacebookSuccess
	if err := json.Unmarshal(body, &finish); err != nil {
		return "", err
	}
	if !finish.Success {
		return "", fmt.Errorf("%w: reel finish: %s", ErrRemoteRejected, body)
	}

	log.Printf("Facebook reel published: %s", start.VideoID)
	return start.VideoID, nil
}

// pageToken exchanges the user token for one scoped to pageID.
func (c *FacebookClient) pageToken(ctx context.Context, pageID string) (string, error) {
	body, err := c.opts.graphGet(ctx, pageID, url.Values{
		"fields":       {"access_token"},
		"access_token": {c.userToken},
	})
	if err != nil {
		return "", err
	}

	var page transfer.FacebookPageToken
	if err := json.Unmarshal(body, &page); err != nil {
		return "", err
	}
	if page.AccessToken == "" {
		return "", fmt.Errorf("%w: no page token for %s", ErrRemoteRejected, pageID)
	}
	return page.AccessToken, nil
}

// requestPull asks the upload host to fetch videoURL into the reel session.
func (c *FacebookClient) requestPull(ctx context.Context, videoID, pageToken, videoURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.UploadURL+"/"+videoID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "OAuth "+pageToken)
	req.Header.Set("file_url", videoURL)

	body, err := c.opts.do(req)
	if err != nil {
		return err
	}
	if !gjson.GetBytes(body, "success").Bool() {
		return fmt.Errorf("%w: hosted file upload: %s", ErrRemoteRejected, body)
	}
	return nil
}

func (c *FacebookClient) videoReady(ctx context.Context, videoID, pageToken string) (bool, error) {
	body, err := c.opts.graphGet(ctx, videoID, url.Values{
		"fields":       {"status"},
		"access_token": {pageToken},
	})
	if err != nil {
		return false, err
	}

	switch status := gjson.GetBytes(body, "status.video_status").String(); status {
	case "ready", "upload_complete":
		return true, nil
	case "error":
		return false, fmt.Errorf("%w: facebook video %s", ErrProcessingFailed, videoID)
	default:
		return false, nil
	}
}
