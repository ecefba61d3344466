package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/maheshrc27/omni-publisher/configs"
	"github.com/maheshrc27/omni-publisher/internal/mock"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/transfer"
)

func TestCredentialService_SaveMapsMetaPlatforms(t *testing.T) {
	creds := mock.NewCredentialRepository()
	svc := NewCredentialService(creds, nil)

	err := svc.Save(context.Background(), 1, "Instagram", &transfer.CredentialInput{
		AccessToken: "meta-token",
		Pages:       []models.MetaPage{{PageID: "p1", InstagramAccountID: "ig1"}},
	})
	require.NoError(t, err)

	b, err := creds.Get(context.Background(), 1, models.CredentialKeyMeta)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "meta-token", b.AccessToken)

	err = svc.Save(context.Background(), 1, "meta", &transfer.CredentialInput{
		AccessToken:  "meta-token",
		ActivePageID: "missing",
	})
	assert.Error(t, err)

	err = svc.Save(context.Background(), 1, "vine", &transfer.CredentialInput{AccessToken: "x"})
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestCredentialService_SelectPage(t *testing.T) {
	creds := mock.NewCredentialRepository()
	creds.Set(1, models.CredentialKeyMeta, &models.TokenBundle{
		AccessToken: "t",
		Pages:       []models.MetaPage{{PageID: "p1"}, {PageID: "p2"}},
	})
	svc := NewCredentialService(creds, nil)

	pages, active, err := svc.ListPages(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, "p1", active)

	require.NoError(t, svc.SelectPage(context.Background(), 1, "p2"))
	_, active, err = svc.ListPages(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "p2", active)

	assert.Error(t, svc.SelectPage(context.Background(), 1, "p9"))

	_, _, err = svc.ListPages(context.Background(), 2)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestCredentialService_PublishPhotos(t *testing.T) {
	f := newFakeTiktok(t)
	creds := mock.NewCredentialRepository()
	svc := NewCredentialService(creds, NewTiktokService(config.Config{TiktokAPIURL: f.srv.URL}, f.srv.Client()))

	_, err := svc.PublishPhotos(context.Background(), 1, &transfer.PhotoPost{Title: "t", PhotoURLs: []string{"https://cdn.test/a.jpg"}})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	creds.Set(1, "tiktok", &models.TokenBundle{AccessToken: "good"})
	id, err := svc.PublishPhotos(context.Background(), 1, &transfer.PhotoPost{Title: "t", PhotoURLs: []string{"https://cdn.test/a.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, "photo-1", id)
}
