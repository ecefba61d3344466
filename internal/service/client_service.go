package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/repository"
	"github.com/maheshrc27/omni-publisher/pkg/utils"
)

var ErrUnknownClient = errors.New("unknown client")

// ClientService registers tenants and issues the tokens they call the API with.
type ClientService interface {
	Register(ctx context.Context, name string, ttl time.Duration) (*models.Client, string, error)
	IssueToken(ctx context.Context, clientID int64, ttl time.Duration) (string, error)
	List(ctx context.Context) ([]*models.Client, error)
}

type clientService struct {
	cr        repository.ClientRepository
	secretKey string
}

func NewClientService(cr repository.ClientRepository, secretKey string) ClientService {
	return &clientService{cr: cr, secretKey: secretKey}
}

func (s *clientService) Register(ctx context.Context, name string, ttl time.Duration) (*models.Client, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		err := errors.New("client name is empty")
		slog.Info(err.Error())
		return nil, "", err
	}

	id, err := s.cr.Create(ctx, name)
	if err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(s.secretKey, id, ttl)
	if err != nil {
		return nil, "", err
	}

	return &models.Client{ID: id, Name: name}, token, nil
}

func (s *clientService) IssueToken(ctx context.Context, clientID int64, ttl time.Duration) (string, error) {
	client, err := s.cr.GetByID(ctx, clientID)
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", ErrUnknownClient
	}
	return utils.GenerateToken(s.secretKey, clientID, ttl)
}

func (s *clientService) List(ctx context.Context) ([]*models.Client, error) {
	return s.cr.List(ctx)
}
