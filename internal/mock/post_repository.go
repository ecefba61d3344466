package mock

import (
	"context"
	"sync"
	"time"

	"github.com/maheshrc27/omni-publisher/internal/models"
)

// PostRepository is an in-memory repository.PostRepository.
type PostRepository struct {
	mu    sync.Mutex
	Posts map[int64]*models.Post

	// errors
	GetErr    error
	ClaimErr  error
	UpdateErr error
	ListErr   error

	// call records
	GetCalls      int
	ClaimCalls    int
	StatusUpdates []models.PostStatus
}

func NewPostRepository(posts ...*models.Post) *PostRepository {
	r := &PostRepository{Posts: make(map[int64]*models.Post)}
	for _, p := range posts {
		r.Posts[p.ID] = p
	}
	return r
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GetCalls++
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	p, ok := r.Posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := int64(len(r.Posts) + 1)
	cp := *post
	cp.ID = id
	r.Posts[id] = &cp
	return id, nil
}

func (r *PostRepository) Claim(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ClaimCalls++
	if r.ClaimErr != nil {
		return false, r.ClaimErr
	}
	p, ok := r.Posts[id]
	if !ok || p.Status != models.PostStatusPending {
		return false, nil
	}
	p.Status = models.PostStatusProcessing
	return true, nil
}

func (r *PostRepository) UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StatusUpdates = append(r.StatusUpdates, status)
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	if p, ok := r.Posts[postID]; ok {
		p.Status = status
	}
	return nil
}

func (r *PostRepository) ListDue(ctx context.Context, now time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var ids []int64
	for id, p := range r.Posts {
		if p.Status == models.PostStatusPending && !p.ScheduledTime.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *PostRepository) ListPending(ctx context.Context, clientID int64) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var posts []*models.Post
	for _, p := range r.Posts {
		if p.ClientID == clientID && p.Status == models.PostStatusPending {
			cp := *p
			posts = append(posts, &cp)
		}
	}
	return posts, nil
}

// Status returns the stored status of a post.
func (r *PostRepository) Status(id int64) models.PostStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.Posts[id]; ok {
		return p.Status
	}
	return ""
}
