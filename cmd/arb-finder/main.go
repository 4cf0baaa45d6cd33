package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/internal/alert"
	"github.com/msfttoler/sports/internal/cache"
	"github.com/msfttoler/sports/internal/config"
	"github.com/msfttoler/sports/internal/handlers"
	"github.com/msfttoler/sports/internal/hub"
	"github.com/msfttoler/sports/internal/logging"
	"github.com/msfttoler/sports/internal/metrics"
	"github.com/msfttoler/sports/internal/providers/espn"
	"github.com/msfttoler/sports/internal/providers/oddsapi"
	"github.com/msfttoler/sports/internal/publisher"
	"github.com/msfttoler/sports/internal/scheduler"
	"github.com/msfttoler/sports/internal/settle"
	"github.com/msfttoler/sports/internal/store"
	"github.com/msfttoler/sports/pkg/contracts"
)

const memoryDSN = "memory://"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		Compress:   true,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logging")
	}

	log.Info("=== Arb Finder ===")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	st, closeStore, err := openStore(ctx, cfg.Database.DSN, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer closeStore()

	m := metrics.New()

	// Redis streams and alerts are optional
	var publishers publisher.Fanout
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = publisher.Connect(ctx, cfg.Redis.URL, cfg.Redis.Password)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to Redis")
		}
		defer redisClient.Close()
		publishers = append(publishers, publisher.NewStreamPublisher(redisClient))
		log.Info("✓ Connected to Redis")
	}
	if cfg.AlertsActive() {
		var sender alert.Sender
		if cfg.Alert.SlackWebhookURL != "" {
			sender = alert.NewSlackNotifier(cfg.Alert.SlackWebhookURL)
		} else {
			log.Warn("SLACK_WEBHOOK_URL not set, alerts will be logged but not sent")
		}
		publishers = append(publishers, alert.NewAlerter(sender, alert.Config{
			MinProfitPct:  cfg.Alert.MinProfitPct,
			MinEdge:       cfg.Alert.MinEdge,
			DedupTTL:      cfg.Alert.DedupTTL,
			RatePerMinute: cfg.Alert.RatePerMinute,
		}, m, log))
	}

	var pub contracts.OpportunityPublisher
	if len(publishers) > 0 {
		pub = publishers
	}

	h := hub.NewHub(log, m.WSClients)
	go h.Run(ctx)

	odds := oddsapi.NewClient(cfg.OddsAPI.APIKey,
		oddsapi.WithBaseURL(cfg.OddsAPI.BaseURL),
		oddsapi.WithRateLimit(cfg.OddsAPI.RateLimit, 1),
		oddsapi.WithMarkets(cfg.OddsAPI.Regions, cfg.OddsAPI.Markets, cfg.OddsAPI.OddsFormat),
		oddsapi.WithRetries(2),
	)
	var stats contracts.StatsProvider = espn.New(cfg.ESPN.BaseURL, cfg.ESPN.StatsBase)
	if redisClient != nil {
		stats = cache.NewStatsCache(redisClient, stats, log)
	}

	if cfg.HasAPIKey() {
		checkSports(ctx, odds, cfg.SportKeys(), log)
	}

	refresher := scheduler.NewRefresher(odds, stats, st, pub, h, m, scheduler.Config{
		Sports:        cfg.SportKeys(),
		APIKeySet:     cfg.HasAPIKey(),
		MinProfitPct:  cfg.Detection.MinProfitPct,
		MinEdge:       cfg.Detection.MinEdge,
		MinConfidence: cfg.Detection.MinConfidence,
	}, log)

	sched := scheduler.New(refresher, cfg.Scheduler.RefreshInterval, log)
	go sched.Start(ctx)

	settler := settle.NewSettler(st, stats, cfg.SportKeyFor, m, log)
	if cfg.Scheduler.SettleInterval > 0 {
		go settler.Start(ctx, cfg.Scheduler.SettleInterval)
	}

	injuries, _ := stats.(contracts.InjuryProvider)
	handler := handlers.NewHandler(st, sched, settler, h, injuries, cfg, log)
	router := handlers.NewRouter(handler, handlers.RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     m.Handler(),
		WS:          handlers.NewWSHandler(ctx, h, log),
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // manual refreshes can take a while
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":      cfg.Server.Addr,
			"sports":    len(cfg.Sports),
			"scheduler": sched.Enabled(),
		}).Info("✓ Arb Finder listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server error")
		}

	case sig := <-shutdown:
		log.WithField("signal", sig.String()).Info("shutting down")

		// stop background loops and websocket pumps first
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
			if err := srv.Close(); err != nil {
				log.WithError(err).Error("could not stop server")
			}
		}
	}

	log.Info("✓ Shutdown complete")
}

// checkSports warns about configured sports the provider is not
// currently offering. The sports listing does not count against quota.
func checkSports(ctx context.Context, odds *oddsapi.Client, keys []string, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	offered, err := odds.GetSports(ctx)
	if err != nil {
		log.WithError(err).Warn("could not list provider sports")
		return
	}

	active := make(map[string]bool, len(offered))
	for _, s := range offered {
		active[s.Key] = s.Active
	}
	for _, key := range keys {
		if !active[key] {
			log.WithField("sport", key).Warn("sport is not currently in season at the odds provider")
		}
	}
}

// openStore connects to PostgreSQL and applies the schema, or returns an
// in-memory store for memory://
func openStore(ctx context.Context, dsn string, log logrus.FieldLogger) (store.Store, func(), error) {
	if strings.HasPrefix(dsn, memoryDSN) {
		log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}

	log.Info("✓ Connected to PostgreSQL")
	return pg, func() { pg.Close() }, nil
}
