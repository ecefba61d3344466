package mock

import (
	"context"
	"sync"

	"github.com/maheshrc27/omni-publisher/internal/models"
)

type PlatformResultRepository struct {
	mu      sync.Mutex
	Results []*models.PlatformResult
}

func (r *PlatformResultRepository) Create(ctx context.Context, pr *models.PlatformResult) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *pr
	cp.ID = int64(len(r.Results) + 1)
	r.Results = append(r.Results, &cp)
	return cp.ID, nil
}

func (r *PlatformResultRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PlatformResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PlatformResult
	for _, res := range r.Results {
		if res.PostID == postID {
			out = append(out, res)
		}
	}
	return out, nil
}
