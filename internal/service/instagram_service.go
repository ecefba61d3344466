package service

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/tidwall/gjson"
)

// InstagramClient publishes Reels for one Instagram business account.
type InstagramClient struct {
	accessToken string
	accountID   string
	opts        MetaOptions
}

func NewInstagramClient(accessToken, accountID string, opts MetaOptions) *InstagramClient {
	return &InstagramClient{accessToken: accessToken, accountID: accountID, opts: opts}
}

// PublishReel creates a container Instagram pulls videoURL into, waits for it to
// finish processing, then publishes it.
func (c *InstagramClient) PublishReel(ctx context.Context, videoURL, caption string) (string, error) {
	containerID, err := c.createContainer(ctx, videoURL, caption)
	if err != nil {
		return "", err
	}

	if err := pollUntil(ctx, c.opts.PollInterval, c.opts.PollAttempts, func(ctx context.Context) (bool, error) {
		return c.containerReady(ctx, containerID)
	}); err != nil {
		log.Printf("Instagram container %s not publishable: %v", containerID, err)
		return "", err
	}

	body, err := c.opts.graphPost(ctx, c.accountID+"/media_publish", url.Values{
		"creation_id":  {containerID},
		"access_token": {c.accessToken},
	})
	if err != nil {
		return "", err
	}

	mediaID, err := decodeID(body, "media")
	if err != nil {
		return "", err
	}

	log.Printf("Instagram reel published: %s", mediaID)
	return mediaID, nil
}

func (c *InstagramClient) createContainer(ctx context.Context, videoURL, caption string) (string, error) {
	body, err := c.opts.graphPost(ctx, c.accountID+"/media", url.Values{
		"media_type":   {"REELS"},
		"video_url":    {videoURL},
		"caption":      {caption},
		"access_token": {c.accessToken},
	})
	if err != nil {
		return "", err
	}
	return decodeID(body, "container")
}

func (c *InstagramClient) containerReady(ctx context.Context, containerID string) (bool, error) {
	body, err := c.opts.graphGet(ctx, containerID, url.Values{
		"fields":       {"status_code"},
		"access_token": {c.accessToken},
	})
	if err != nil {
		return false, err
	}

	switch status := gjson.GetBytes(body, "status_code").String(); status {
	case "FINISHED":
		return true, nil
	case "ERROR", "EXPIRED":
		return false, fmt.Errorf("%w: instagram container %s is %s", ErrProcessingFailed, containerID, status)
	default:
		return false, nil
	}
}
