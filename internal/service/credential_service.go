package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/repository"
	"github.com/maheshrc27/omni-publisher/internal/transfer"
	"github.com/samber/lo"
)

// CredentialService manages the token bundles tenants hand over after their
// own consent flow, and the actions that act on them outside a scheduled post.
type CredentialService interface {
	Save(ctx context.Context, clientID int64, platform string, in *transfer.CredentialInput) error
	ListPages(ctx context.Context, clientID int64) ([]models.MetaPage, string, error)
	SelectPage(ctx context.Context, clientID int64, pageID string) error
	PublishPhotos(ctx context.Context, clientID int64, in *transfer.PhotoPost) (string, error)
}

type credentialService struct {
	cr     repository.CredentialRepository
	tiktok TiktokService
}

func NewCredentialService(cr repository.CredentialRepository, tiktok TiktokService) CredentialService {
	return &credentialService{cr: cr, tiktok: tiktok}
}

func (s *credentialService) Save(ctx context.Context, clientID int64, platform string, in *transfer.CredentialInput) error {
	key := platform
	if key != models.CredentialKeyMeta {
		p, err := models.ParsePlatform(platform)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
		}
		key = p.CredentialKey()
	}

	bundle := &models.TokenBundle{
		AccessToken:  in.AccessToken,
		RefreshToken: in.RefreshToken,
		TokenURI:     in.TokenURI,
		ClientID:     in.ClientID,
		ClientSecret: in.ClientSecret,
		Scopes:       in.Scopes,
		Expiry:       in.ExpiresAt,
		OpenID:       in.OpenID,
		Pages:        in.Pages,
		ActivePageID: in.ActivePageID,
	}

	if bundle.ActivePageID != "" {
		if _, ok := bundle.ActivePage(); !ok {
			return fmt.Errorf("active page %s is not among the provided pages", bundle.ActivePageID)
		}
	}

	return s.cr.Put(ctx, clientID, key, bundle)
}

func (s *credentialService) metaBundle(ctx context.Context, clientID int64) (*models.TokenBundle, error) {
	bundle, err := s.cr.Get(ctx, clientID, models.CredentialKeyMeta)
	if err != nil {
		return nil, err
	}
	if bundle == nil {
		return nil, ErrMissingCredentials
	}
	return bundle, nil
}

func (s *credentialService) ListPages(ctx context.Context, clientID int64) ([]models.MetaPage, string, error) {
	bundle, err := s.metaBundle(ctx, clientID)
	if err != nil {
		return nil, "", err
	}
	active, _ := bundle.ActivePage()
	return bundle.Pages, active.PageID, nil
}

func (s *credentialService) SelectPage(ctx context.Context, clientID int64, pageID string) error {
	bundle, err := s.metaBundle(ctx, clientID)
	if err != nil {
		return err
	}

	if !lo.ContainsBy(bundle.Pages, func(p models.MetaPage) bool { return p.PageID == pageID }) {
		err := errors.New("page not found")
		slog.Info(err.Error(), "client_id", clientID, "page_id", pageID)
		return err
	}

	bundle.ActivePageID = pageID
	return s.cr.Put(ctx, clientID, models.CredentialKeyMeta, bundle)
}

func (s *credentialService) PublishPhotos(ctx context.Context, clientID int64, in *transfer.PhotoPost) (string, error) {
	bundle, err := s.cr.Get(ctx, clientID, string(models.PlatformTiktok))
	if err != nil {
		return "", err
	}
	if bundle == nil {
		return "", ErrMissingCredentials
	}
	return s.tiktok.UploadPhotos(ctx, in.PhotoURLs, in.Title, bundle, clientID, s.cr)
}
