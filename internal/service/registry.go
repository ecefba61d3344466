package service

import (
	"context"

	"github.com/maheshrc27/omni-publisher/internal/models"
)

// CredentialSaver persists a refreshed token bundle.
type CredentialSaver interface {
	Put(ctx context.Context, clientID int64, platform string, bundle *models.TokenBundle) error
}

// PublishRequest carries everything a driver needs for one platform attempt.
type PublishRequest struct {
	TenantID    int64
	MediaPath   string
	MediaURL    string
	Title       string
	Description string
	Credentials *models.TokenBundle
	// Saver is nil for platforms whose tokens are never refreshed here.
	Saver CredentialSaver
}

// Driver publishes a video to one platform and returns the remote id.
type Driver interface {
	Publish(ctx context.Context, req *PublishRequest) (string, error)
}

// Refresher renews a token bundle ahead of its expiry.
type Refresher interface {
	RefreshCredentials(ctx context.Context, tenantID int64, bundle *models.TokenBundle, saver CredentialSaver) error
}

type DriverFunc func(ctx context.Context, req *PublishRequest) (string, error)

func (f DriverFunc) Publish(ctx context.Context, req *PublishRequest) (string, error) {
	return f(ctx, req)
}

type Registry struct {
	drivers map[models.Platform]Driver
}

func NewRegistry() *Registry {
	return &Registry{drivers: make(map[models.Platform]Driver)}
}

func (r *Registry) Register(p models.Platform, d Driver) *Registry {
	r.drivers[p] = d
	return r
}

func (r *Registry) Driver(p models.Platform) (Driver, bool) {
	d, ok := r.drivers[p]
	return d, ok
}

// Refresher returns the registered driver for p when it can refresh tokens.
func (r *Registry) Refresher(p models.Platform) (Refresher, bool) {
	d, ok := r.drivers[p]
	if !ok || !p.Refreshable() {
		return nil, false
	}
	ref, ok := d.(Refresher)
	return ref, ok
}
