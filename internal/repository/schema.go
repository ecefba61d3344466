package repository

import (
	"database/sql"
	"fmt"
)

// NotifyChannel is the Postgres channel that receives post status changes.
const NotifyChannel = "post_updates"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(150) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS social_credentials (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		platform VARCHAR(50) NOT NULL,
		token_data TEXT NOT NULL,
		token_expires_at TIMESTAMPTZ NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (client_id, platform)
	)`,
	`CREATE TABLE IF NOT EXISTS scheduled_posts (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		video_file_id VARCHAR(255) NOT NULL,
		title VARCHAR(150) NOT NULL,
		description TEXT NULL,
		platforms JSONB NOT NULL,
		scheduled_time TIMESTAMPTZ NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_posts_status ON scheduled_posts (status, scheduled_time)`,
	`CREATE TABLE IF NOT EXISTS platform_results (
		id BIGSERIAL PRIMARY KEY,
		post_id BIGINT NOT NULL REFERENCES scheduled_posts(id) ON DELETE CASCADE,
		platform VARCHAR(50) NOT NULL,
		success BOOLEAN NOT NULL,
		remote_id VARCHAR(255) NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE OR REPLACE FUNCTION notify_post_update() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('` + NotifyChannel + `', json_build_object('post_id', NEW.id, 'status', NEW.status, 'scheduled_time', NEW.scheduled_time)::text);
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS scheduled_posts_notify ON scheduled_posts`,
	`CREATE TRIGGER scheduled_posts_notify
		AFTER INSERT OR UPDATE OF status, scheduled_time ON scheduled_posts
		FOR EACH ROW EXECUTE FUNCTION notify_post_update()`,
}

// EnsureSchema creates the tables and the notify trigger if they do not exist.
func EnsureSchema(db *sql.DB) error {
	for _, ddl := range schema {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
