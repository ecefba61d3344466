package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/maheshrc27/omni-publisher/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) (int64, error)
	Claim(ctx context.Context, id int64) (bool, error)
	UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error
	ListDue(ctx context.Context, now time.Time) ([]int64, error)
	ListPending(ctx context.Context, clientID int64) ([]*models.Post, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, client_id, video_file_id, title, description, platforms, scheduled_time, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var description sql.NullString
	var platforms []byte
	var status string

	err := row.Scan(&post.ID, &post.ClientID, &post.VideoFileID, &post.Title, &description,
		&platforms, &post.ScheduledTime, &status, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.Description = description.String
	post.Status = models.PostStatus(status)
	if len(platforms) > 0 {
		if err := json.Unmarshal(platforms, &post.Platforms); err != nil {
			return nil, err
		}
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (client_id, video_file_id, title, description, platforms, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	platforms, err := json.Marshal(post.Platforms)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, post.ClientID, post.VideoFileID, post.Title, post.Description,
		platforms, post.ScheduledTime, models.PostStatusPending).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

// Claim moves a post from pending to processing. It reports false when another
// worker already claimed it.
func (r *postRepository) Claim(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusProcessing, time.Now(), id, models.PostStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

func (r *postRepository) UpdatePostStatus(ctx context.Context, status models.PostStatus, postID int64) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]int64, error) {
	query := `SELECT id FROM scheduled_posts WHERE status = $1 AND scheduled_time <= $2 ORDER BY scheduled_time`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPending, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return ids, nil
}

func (r *postRepository) ListPending(ctx context.Context, clientID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE client_id = $1 AND status = $2 ORDER BY scheduled_time`

	rows, err := r.db.QueryContext(ctx, query, clientID, models.PostStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
