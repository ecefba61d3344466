package transfer

import (
	"time"

	"github.com/maheshrc27/omni-publisher/internal/models"
)

type PostCreation struct {
	VideoFileID   string    `json:"video_file_id" validate:"required"`
	Title         string    `json:"title" validate:"max=150"`
	Description   string    `json:"description"`
	Platforms     []string  `json:"platforms" validate:"required,min=1,dive,required"`
	ScheduledTime time.Time `json:"scheduled_time" validate:"required"`
}

type PostCreated struct {
	ID            int64     `json:"id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Status        string    `json:"status"`
}

type PostDetail struct {
	*models.Post
	Results []*models.PlatformResult `json:"results"`
}

type CredentialInput struct {
	AccessToken  string            `json:"access_token" validate:"required"`
	RefreshToken string            `json:"refresh_token"`
	TokenURI     string            `json:"token_uri"`
	ClientID     string            `json:"client_id"`
	ClientSecret string            `json:"client_secret"`
	Scopes       []string          `json:"scopes"`
	ExpiresAt    time.Time         `json:"expires_at"`
	OpenID       string            `json:"open_id"`
	Pages        []models.MetaPage `json:"pages" validate:"dive"`
	ActivePageID string            `json:"active_page_id"`
}

type PhotoPost struct {
	Title     string   `json:"title" validate:"required"`
	PhotoURLs []string `json:"photo_urls" validate:"required,min=1,dive,url"`
}

type MediaUploaded struct {
	Key  string `json:"key"`
	Type string `json:"type"`
}
