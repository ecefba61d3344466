package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type S3 struct {
	Endpoint   string
	Region     string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Minio struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

type Meta struct {
	GraphURL     string
	UploadURL    string
	PollInterval time.Duration
	PollAttempts int
}

type Config struct {
	GoogleClientID       string
	GoogleClientSecret   string
	TiktokClientKey      string
	TiktokClientSecret   string
	TiktokAPIURL         string
	TiktokAppAudited     bool
	Meta                 Meta
	PostgresURI          string
	RedisURI             string
	BlobBackend          string
	S3                   S3
	Minio                Minio
	MediaPublicBaseURL   string
	StagingDir           string
	SecretKey            string
	HTTPTimeout          time.Duration
	SweepSchedule        string
	TokenRefreshSchedule string
	WorkerConcurrency    int
	Port                 string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TIKTOK_API_URL", "https://open.tiktokapis.com")
	v.SetDefault("TIKTOK_APP_AUDITED", false)
	v.SetDefault("META_GRAPH_URL", "https://graph.facebook.com/v19.0")
	v.SetDefault("META_UPLOAD_URL", "https://rupload.facebook.com/video-upload/v19.0")
	v.SetDefault("META_POLL_INTERVAL", "15s")
	v.SetDefault("META_POLL_ATTEMPTS", 20)
	v.SetDefault("BLOB_BACKEND", "s3")
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("MINIO_USE_SSL", true)
	v.SetDefault("STAGING_DIR", "/tmp/omni_videos")
	v.SetDefault("HTTP_TIMEOUT", "2m")
	v.SetDefault("SWEEP_SCHEDULE", "@every 00h01m00s")
	v.SetDefault("TOKEN_REFRESH_SCHEDULE", "@every 00h10m00s")
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("PORT", "8000")
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		TiktokClientKey:    v.GetString("TIKTOK_CLIENT_KEY"),
		TiktokClientSecret: v.GetString("TIKTOK_CLIENT_SECRET"),
		TiktokAPIURL:       v.GetString("TIKTOK_API_URL"),
		TiktokAppAudited:   v.GetBool("TIKTOK_APP_AUDITED"),
		Meta: Meta{
			GraphURL:     v.GetString("META_GRAPH_URL"),
			UploadURL:    v.GetString("META_UPLOAD_URL"),
			PollInterval: v.GetDuration("META_POLL_INTERVAL"),
			PollAttempts: v.GetInt("META_POLL_ATTEMPTS"),
		},
		PostgresURI: v.GetString("POSTGRES_URI"),
		RedisURI:    v.GetString("REDIS_URI"),
		BlobBackend: v.GetString("BLOB_BACKEND"),
		S3: S3{
			Endpoint:   v.GetString("S3_ENDPOINT"),
			Region:     v.GetString("S3_REGION"),
			AccessKey:  v.GetString("S3_ACCESS_KEY"),
			SecretKey:  v.GetString("S3_SECRET_KEY"),
			BucketName: v.GetString("S3_BUCKET_NAME"),
		},
		Minio: Minio{
			Endpoint:   v.GetString("MINIO_ENDPOINT"),
			AccessKey:  v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:  v.GetString("MINIO_SECRET_KEY"),
			BucketName: v.GetString("MINIO_BUCKET_NAME"),
			UseSSL:     v.GetBool("MINIO_USE_SSL"),
		},
		MediaPublicBaseURL:   v.GetString("MEDIA_PUBLIC_BASE_URL"),
		StagingDir:           v.GetString("STAGING_DIR"),
		SecretKey:            v.GetString("SECRET_KEY"),
		HTTPTimeout:          v.GetDuration("HTTP_TIMEOUT"),
		SweepSchedule:        v.GetString("SWEEP_SCHEDULE"),
		TokenRefreshSchedule: v.GetString("TOKEN_REFRESH_SCHEDULE"),
		WorkerConcurrency:    v.GetInt("WORKER_CONCURRENCY"),
		Port:                 v.GetString("PORT"),
	}
}
