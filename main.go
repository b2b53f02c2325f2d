package main

import (
	"context"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/festgnim-crypto/glimpse-snap-grid/auth"
	"github.com/festgnim-crypto/glimpse-snap-grid/config"
	"github.com/festgnim-crypto/glimpse-snap-grid/imagestore"
	"github.com/festgnim-crypto/glimpse-snap-grid/monitoring"
	"github.com/festgnim-crypto/glimpse-snap-grid/realtime"
	"github.com/festgnim-crypto/glimpse-snap-grid/server"
	"github.com/festgnim-crypto/glimpse-snap-grid/storage"
	"github.com/festgnim-crypto/glimpse-snap-grid/tasks"
	"github.com/festgnim-crypto/glimpse-snap-grid/utils"
)

func runBackgroundTasks(storageManager *storage.Manager) {
	// Session cleanup
	go utils.Recoverer(math.MaxInt, 1, func() {
		tasks.CleanExpiredSessions(storageManager)
	})
}

func main() {
	properties := config.ReadProperties()

	logLevel, err := log.ParseLevel(properties.LogLevel)
	if err != nil {
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)

	ctx := context.Background()
	connectionPool, err := pgxpool.New(ctx, properties.DB.ConnString())
	if err != nil {
		panic(err)
	}
	if err := storage.Bootstrap(ctx, connectionPool); err != nil {
		panic(err)
	}

	var notifier realtime.Notifier
	if properties.Redis.Host != "" {
		notifier = realtime.NewRedisNotifier(&redis.Options{
			Addr:     properties.Redis.Addr(),
			Password: properties.Redis.Password,
			DB:       properties.Redis.DB,
		})
	} else {
		log.Info("No Redis configured, using in-process change notifications")
		notifier = realtime.NewHub()
	}

	storageManager := storage.NewManager(connectionPool, notifier)
	authService := auth.NewService(storageManager, notifier, properties.Sessions.TTL)

	var images server.ImageStore
	if properties.S3.Host != "" {
		minioStore, err := imagestore.NewMinioStore(
			properties.S3.Host,
			properties.S3.AccessKey,
			properties.S3.SecretKey,
			properties.S3.Bucket,
			properties.S3.UseSSL,
		)
		if err != nil {
			log.Errorf("Could not connect to object store, uploads disabled: %v", err)
		} else {
			images = minioStore
		}
	}

	monitoring.Register()

	s := server.NewServer(properties, storageManager, authService, notifier, images)

	runBackgroundTasks(storageManager)

	s.Run()
}
