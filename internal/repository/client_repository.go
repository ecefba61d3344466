package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/omni-publisher/internal/models"
)

type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	Create(ctx context.Context, name string) (int64, error)
	List(ctx context.Context) ([]*models.Client, error)
}

type clientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	var client models.Client
	query := "SELECT id, name, created_at FROM clients WHERE id = $1"
	err := r.db.QueryRowContext(ctx, query, id).Scan(&client.ID, &client.Name, &client.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) Create(ctx context.Context, name string) (int64, error) {
	var id int64
	query := "INSERT INTO clients (name) VALUES ($1) RETURNING id"
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *clientRepository) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, created_at FROM clients ORDER BY id")
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}
