package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/omni-publisher/internal/models"
)

type PlatformResultRepository interface {
	Create(ctx context.Context, pr *models.PlatformResult) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PlatformResult, error)
}

type platformResultRepository struct {
	db *sql.DB
}

func NewPlatformResultRepository(db *sql.DB) PlatformResultRepository {
	return &platformResultRepository{db: db}
}

func (r *platformResultRepository) Create(ctx context.Context, pr *models.PlatformResult) (int64, error) {
	query := `
		INSERT INTO platform_results (post_id, platform, success, remote_id, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, pr.PostID, pr.Platform, pr.Success, pr.RemoteID, pr.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *platformResultRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PlatformResult, error) {
	query := `SELECT id, post_id, platform, success, remote_id, error_message, created_at FROM platform_results WHERE post_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var results []*models.PlatformResult
	for rows.Next() {
		var pr models.PlatformResult
		err := rows.Scan(&pr.ID, &pr.PostID, &pr.Platform, &pr.Success, &pr.RemoteID, &pr.ErrorMessage, &pr.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		results = append(results, &pr)
	}
	return results, rows.Err()
}
