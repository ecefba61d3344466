package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/maheshrc27/omni-publisher/internal/models"
)

type ClientRepository struct {
	mu        sync.Mutex
	Clients   map[int64]*models.Client
	CreateErr error
}

func NewClientRepository() *ClientRepository {
	return &ClientRepository{Clients: make(map[int64]*models.Client)}
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *ClientRepository) Create(ctx context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return 0, r.CreateErr
	}
	id := int64(len(r.Clients) + 1)
	r.Clients[id] = &models.Client{ID: id, Name: name}
	return id, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clients := make([]*models.Client, 0, len(r.Clients))
	for _, c := range r.Clients {
		cp := *c
		clients = append(clients, &cp)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}
