package main

import (
	"archifigureapi/controllers"
	"archifigureapi/dbhelper"
	"archifigureapi/services"
	"archifigureapi/tasks"
	"archifigureapi/telegram"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4/middleware"
)

func setupImageHost(cfg services.Config) services.ImageHostProvider {
	if cfg.ImageHost != services.ImageHostR2 {
		return services.NewImgbbService(cfg.ImgbbKey, cfg.ImgbbURL)
	}
	awsService := &services.AWSService{}
	if err := awsService.InitPresignClient(context.Background()); err != nil {
		log.Fatalf("Failed to initialize AWS provider: R2: %v", err)
	}
	urlCache, err := services.NewURLCacheService(awsService, cfg.R2Bucket)
	if err != nil {
		log.Fatalf("Failed to initialize URL cache service: %v", err)
	}
	return &services.R2ImageHost{
		AWSService: awsService,
		URLCache:   urlCache,
		BucketName: cfg.R2Bucket,
		Dir:        cfg.UploadsDir,
	}
}

func setupNotifier(cfg services.Config) services.Notifier {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		return nil
	}
	notifier, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Printf("Telegram notifications disabled: %v", err)
		return nil
	}
	return notifier
}

func main() {
	_ = godotenv.Load()
	cfg := services.LoadConfig()

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Env,
		Release:          "archifigureapi@1.0.0",
		Debug:            false,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	if cfg.ReplicateToken == "" {
		log.Println("REPLICATE_API_TOKEN is not set, provider calls will fail")
	}

	db := dbhelper.SetupDB()
	replicate := services.NewReplicateService(cfg.ReplicateToken, cfg.ReplicateBaseURL)

	var dispatcher interface {
		services.AutoSaveDispatcher
		Wait()
	}
	if cfg.AutoSaveMode == services.AutoSaveModeQueue {
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.BrokerAddress})
		defer asynqClient.Close()
		dispatcher = tasks.NewQueueDispatcher(asynqClient)
	} else {
		goroutineDispatcher := &services.GoroutineDispatcher{
			Storer: &services.AutoSaveService{
				Store:       services.NewProjectStore(db),
				ProjectName: cfg.AutoSaveProject,
				Notifier:    setupNotifier(cfg),
			},
			Timeout: time.Minute,
		}
		dispatcher = goroutineDispatcher
	}

	e := controllers.SetupServer(db, replicate, setupImageHost(cfg), dispatcher, cfg)
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(10)))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()
	<-ctx.Done()

	log.Println("Shutting down, waiting for background saves")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	dispatcher.Wait()
}
