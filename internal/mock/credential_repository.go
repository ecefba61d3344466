package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maheshrc27/omni-publisher/internal/models"
)

// CredentialRepository is an in-memory repository.CredentialRepository.
type CredentialRepository struct {
	mu      sync.Mutex
	Bundles map[string]*models.TokenBundle

	GetErr error
	PutErr error

	GetCalls int
	Puts     []*models.TokenBundle
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{Bundles: make(map[string]*models.TokenBundle)}
}

func credKey(clientID int64, platform string) string {
	return fmt.Sprintf("%d/%s", clientID, platform)
}

// Set stores a bundle without recording a Put.
func (r *CredentialRepository) Set(clientID int64, platform string, b *models.TokenBundle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Bundles[credKey(clientID, platform)] = b
}

func (r *CredentialRepository) Get(ctx context.Context, clientID int64, platform string) (*models.TokenBundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GetCalls++
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	b, ok := r.Bundles[credKey(clientID, platform)]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *CredentialRepository) Put(ctx context.Context, clientID int64, platform string, bundle *models.TokenBundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.PutErr != nil {
		return r.PutErr
	}
	cp := *bundle
	r.Bundles[credKey(clientID, platform)] = &cp
	r.Puts = append(r.Puts, &cp)
	return nil
}

func (r *CredentialRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var creds []*models.SocialCredential
	for k, b := range r.Bundles {
		if b.Expiry.IsZero() || !b.Expiry.Before(before) {
			continue
		}
		var clientID int64
		var platform string
		fmt.Sscanf(k, "%d/%s", &clientID, &platform)
		cp := *b
		creds = append(creds, &models.SocialCredential{ClientID: clientID, Platform: platform, TokenData: &cp})
	}
	return creds, nil
}
