package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirdesai22/sportsfest-sync/internal/api"
	"github.com/sirdesai22/sportsfest-sync/internal/auth"
	"github.com/sirdesai22/sportsfest-sync/internal/collections"
	"github.com/sirdesai22/sportsfest-sync/internal/config"
	"github.com/sirdesai22/sportsfest-sync/internal/db"
	"github.com/sirdesai22/sportsfest-sync/internal/elastic"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
	"github.com/sirdesai22/sportsfest-sync/internal/metrics"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/newsfeed"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
	"github.com/sirdesai22/sportsfest-sync/internal/storage"
	"github.com/sirdesai22/sportsfest-sync/internal/workers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		client    remote.Client
		publisher workers.Publisher
		dlq       workers.DeadLetters
		outbox    api.OutboxLister
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := remote.NewMemory()
		client, publisher, dlq = mem, mem, &workers.MemoryDLQ{}
		log.Println("✅ Using in-memory store")
	case config.DriverPostgres:
		pg := db.Connect(cfg.PostgresDSN)
		db.Migrate(pg)
		broker := feed.NewBroker()
		client, publisher = remote.NewPostgres(pg, broker), broker
		gdlq := &workers.GormDLQ{DB: pg}
		dlq = gdlq
		outbox = func(ctx context.Context, limit int) ([]models.Outbox, error) {
			return workers.RecentOutbox(ctx, pg, limit)
		}
		pump := &workers.FeedPump{DB: pg, DSN: cfg.PostgresDSN, Broker: broker, DLQ: gdlq, Interval: cfg.FeedPollInterval}
		go pump.Run(ctx)
	default:
		log.Fatalf("❌ unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.Seed {
		if err := db.Seed(ctx, client); err != nil {
			log.Printf("❌ seed failed: %v", err)
		}
	}

	assets, err := storage.NewDisk(cfg.StorageDir, cfg.StoragePublicURL)
	if err != nil {
		log.Fatalf("❌ storage: %v", err)
	}

	if cfg.ElasticURL != "" {
		if es, err := elastic.Connect(cfg.ElasticURL); err != nil {
			log.Printf("❌ search sync disabled: %v", err)
		} else {
			search := &workers.SearchSync{ES: es, Feed: client, DLQ: dlq}
			go search.Run(ctx)
		}
	}
	replayer := &workers.Replayer{Client: client, Feed: publisher, DLQ: dlq}
	go replayer.RetryDLQ(ctx)

	reg := collections.NewRegistry(ctx, collections.Deps{Client: client, Storage: assets, Timeout: cfg.FetchTimeout})
	// Warm references keep every store subscribed between requests.
	_, releaseClubs := reg.Clubs(ctx)
	defer releaseClubs()
	_, releaseFixtures := reg.Fixtures(ctx)
	defer releaseFixtures()
	_, releaseResults := reg.Results(ctx)
	defer releaseResults()
	_, releaseMedia := reg.Media(ctx)
	defer releaseMedia()
	_, releaseMessages := reg.Messages(ctx)
	defer releaseMessages()
	press, releasePress := reg.Press(ctx)
	defer releasePress()

	if cfg.NewsFeedURL != "" {
		go func() {
			if _, err := newsfeed.NewImporter(press).Import(ctx, cfg.NewsFeedURL); err != nil {
				log.Printf("❌ news import: %v", err)
			}
		}()
	}

	if cfg.JWTSecret == "" {
		log.Println("❌ JWT_SECRET is empty, admin routes will reject every request")
	}
	srv := api.New(api.Options{
		Registry:       reg,
		Auth:           auth.NewJWT(cfg.JWTSecret),
		DLQ:            dlq,
		Replayer:       replayer,
		Outbox:         outbox,
		NewsFeedURL:    cfg.NewsFeedURL,
		AssetsDir:      cfg.StorageDir,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err := srv.Start(ctx, cfg.HTTPAddr); err != nil {
		log.Fatalf("API listener failed: %v", err)
	}
	log.Println("👋 shutting down")
}
