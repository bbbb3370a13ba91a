package main

import (
	"archifigureapi/dbhelper"
	"archifigureapi/services"
	"archifigureapi/tasks"
	"archifigureapi/telegram"
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
)

func runScheduler(cfg services.Config) {

	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: cfg.BrokerAddress}, &asynq.SchedulerOpts{
		LogLevel: asynq.InfoLevel,
	})

	entryID, err := scheduler.Register(cfg.AutoSaveCron, tasks.NewSweepTask(),
		asynq.Queue(tasks.QueueAutoSave),
		asynq.MaxRetry(0),
		asynq.Unique(time.Minute),
	)
	if err != nil {
		log.Fatalf("Failed to register auto-save sweep: %v", err)
	}
	log.Printf("Registered auto-save sweep with ID: %s, cron: %s", entryID, cfg.AutoSaveCron)

	log.Println("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := services.LoadConfig()

	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env, Release: "archifigureapi@1.0.0"}); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.BrokerAddress},
		asynq.Config{Concurrency: 2, Queues: map[string]int{
			tasks.QueueAutoSave: 1,
		}},
	)

	db := dbhelper.SetupDB()
	replicate := services.NewReplicateService(cfg.ReplicateToken, cfg.ReplicateBaseURL)
	autoSave := &services.AutoSaveService{
		Store:       services.NewProjectStore(db),
		ProjectName: cfg.AutoSaveProject,
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		notifier, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("[Queue] Telegram notifications disabled: %v", err)
		} else {
			autoSave.Notifier = notifier
		}
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAutoSave, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleAutoSaveTask(ctx, t, replicate, cfg.ModelDeployment, autoSave)
	})

	go runScheduler(cfg)
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
