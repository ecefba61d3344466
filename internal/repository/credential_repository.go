package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/pkg/utils"
)

// CredentialRepository stores one encrypted token bundle per (client, platform family).
// Put overwrites the previous bundle.
type CredentialRepository interface {
	Get(ctx context.Context, clientID int64, platform string) (*models.TokenBundle, error)
	Put(ctx context.Context, clientID int64, platform string, bundle *models.TokenBundle) error
	ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialCredential, error)
}

type credentialRepository struct {
	db  *sql.DB
	key []byte
}

func NewCredentialRepository(db *sql.DB, secretKey string) CredentialRepository {
	return &credentialRepository{db: db, key: []byte(secretKey)}
}

func (r *credentialRepository) Get(ctx context.Context, clientID int64, platform string) (*models.TokenBundle, error) {
	query := `SELECT token_data FROM social_credentials WHERE client_id = $1 AND platform = $2`

	var encrypted string
	err := r.db.QueryRowContext(ctx, query, clientID, platform).Scan(&encrypted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	var bundle models.TokenBundle
	if err := utils.DecryptJSON(encrypted, r.key, &bundle); err != nil {
		return nil, err
	}

	return &bundle, nil
}

func (r *credentialRepository) Put(ctx context.Context, clientID int64, platform string, bundle *models.TokenBundle) error {
	encrypted, err := utils.EncryptJSON(bundle, r.key)
	if err != nil {
		return err
	}

	var expiresAt sql.NullTime
	if !bundle.Expiry.IsZero() {
		expiresAt = sql.NullTime{Time: bundle.Expiry, Valid: true}
	}

	query := `
		INSERT INTO social_credentials (client_id, platform, token_data, token_expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client_id, platform) DO UPDATE
		SET token_data = EXCLUDED.token_data,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query, clientID, platform, encrypted, expiresAt, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *credentialRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialCredential, error) {
	query := `
		SELECT id, client_id, platform, token_data, updated_at
		FROM social_credentials
		WHERE token_expires_at IS NOT NULL AND token_expires_at < $1
	`
	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var creds []*models.SocialCredential
	for rows.Next() {
		var sc models.SocialCredential
		var encrypted string
		if err := rows.Scan(&sc.ID, &sc.ClientID, &sc.Platform, &encrypted, &sc.UpdatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		var bundle models.TokenBundle
		if err := utils.DecryptJSON(encrypted, r.key, &bundle); err != nil {
			slog.Info("skipping undecryptable credential", "id", sc.ID, "error", err)
			continue
		}
		sc.TokenData = &bundle
		creds = append(creds, &sc)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return creds, nil
}
