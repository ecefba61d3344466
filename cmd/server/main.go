package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/omni-publisher/configs"
	"github.com/maheshrc27/omni-publisher/internal/api/handlers"
	"github.com/maheshrc27/omni-publisher/internal/api/middleware"
	job "github.com/maheshrc27/omni-publisher/internal/jobs"
	"github.com/maheshrc27/omni-publisher/internal/listener"
	"github.com/maheshrc27/omni-publisher/internal/logger"
	"github.com/maheshrc27/omni-publisher/internal/models"
	"github.com/maheshrc27/omni-publisher/internal/queue"
	"github.com/maheshrc27/omni-publisher/internal/repository"
	"github.com/maheshrc27/omni-publisher/internal/service"
	"github.com/maheshrc27/omni-publisher/internal/storage"
	"github.com/robfig/cron"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init("omni-publisher")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := repository.EnsureSchema(db); err != nil {
		log.Fatalf("Failed to prepare database schema: %v", err)
	}

	blobs, err := storage.NewBlobStore(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to initialise blob storage: %v", err)
	}
	staging := storage.NewStaging(cfg.StagingDir)

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	postRepo := repository.NewPostRepository(db)
	credentialRepo := repository.NewCredentialRepository(db, cfg.SecretKey)
	resultRepo := repository.NewPlatformResultRepository(db)

	httpClient := service.NewHTTPClient(cfg.HTTPTimeout)
	youtubeService := service.NewYoutubeService(*cfg, httpClient)
	tiktokService := service.NewTiktokService(*cfg, httpClient)
	metaOptions := service.NewMetaOptions(cfg.Meta, httpClient)

	registry := service.NewRegistry().
		Register(models.PlatformYoutube, youtubeService).
		Register(models.PlatformTiktok, tiktokService).
		Register(models.PlatformInstagram, service.NewInstagramDriver(metaOptions)).
		Register(models.PlatformFacebook, service.NewFacebookDriver(metaOptions))

	publishService := service.NewPublishService(postRepo, credentialRepo, resultRepo, blobs, staging, registry)
	postService := service.NewPostService(postRepo, resultRepo, blobs)
	credentialService := service.NewCredentialService(credentialRepo, tiktokService)

	// worker pool fed by the sweep and the listener
	worker := queue.NewWorker(publishService, cfg.WorkerConcurrency)
	worker.Start(ctx)

	// cron jobs
	sweepJob := job.NewDueSweepJob(postRepo, worker)
	refreshTokenJob := job.NewTokenRefreshJob(credentialRepo, registry)

	c, err := job.NewScheduler(cfg.SweepSchedule, cfg.TokenRefreshSchedule, sweepJob, refreshTokenJob)
	if err != nil {
		log.Fatalf("Invalid job schedule: %v", err)
	}
	c.Start()

	postListener := listener.NewListener(cfg.PostgresURI, worker, sweepJob.SweepDuePosts)
	go func() {
		if err := postListener.Run(ctx); err != nil {
			log.Printf("Post listener stopped: %v", err)
		}
	}()

	// queue
	queueW := queue.NewQueue(publishService)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})
	go func() {
		mux := asynq.NewServeMux()
		queueW.Register(mux)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    500 * 1024 * 1024, // 500 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	app.Get("/health", handlers.Health)

	authMiddleware := middleware.NewAuthMiddleware(cfg.SecretKey)
	api := app.Group("/api/v1")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, client)
	api.Post("/publish", post.CreatePost)
	api.Get("/publish/pending", post.ListPending)
	api.Get("/publish/:id", post.PostInfo)
	api.Post("/media", post.UploadMedia)

	credentials := handlers.NewCredentialHandler(credentialService)
	api.Put("/credentials/:platform", credentials.SaveCredentials)
	api.Get("/credentials/meta/pages", credentials.ListPages)
	api.Put("/credentials/meta/pages", credentials.SelectPage)
	api.Post("/tiktok/photos", credentials.PublishPhotos)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, server, c, worker, cancel, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server, c *cron.Cron, worker *queue.Worker, cancel context.CancelFunc, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}

	c.Stop()
	server.Shutdown()

	// In-flight posts finish before the listener and pending requests are cancelled.
	worker.Stop()
	cancel()

	closeDB(db)
	log.Println("Server shutdown complete.")
}
