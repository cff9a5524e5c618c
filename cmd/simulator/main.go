package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"crossing-simulator/internal/analysis"
	"crossing-simulator/internal/api"
	"crossing-simulator/internal/config"
	"crossing-simulator/internal/db"
	"crossing-simulator/internal/metrics"
	"crossing-simulator/internal/publisher"
)

// store is what both the manager and the API need from the recording backend.
type store interface {
	analysis.Store
	api.Recorder
}

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var st store
	switch cfg.Store {
	case config.StoreMemory:
		log.Printf("using in-memory store with demo junction")
		st = db.NewMemoryStore(db.DemoSnapshot())
	default:
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db open error: %v", err)
		}
		defer sqlDB.Close()
		if err := db.Ping(ctx, sqlDB); err != nil {
			log.Fatalf("db ping error: %v", err)
		}
		if cfg.Migrate {
			if err := db.MigrateUp(sqlDB); err != nil {
				log.Fatalf("migrate error: %v", err)
			}
		}
		if cfg.Junction != "" {
			id, err := db.ResolveJunction(ctx, sqlDB, cfg.Junction)
			if err != nil {
				log.Fatalf("resolve junction %q: %v", cfg.Junction, err)
			}
			log.Printf("Using junction %q for %q", id, cfg.Junction)
			cfg.Junction = id
		}
		st = db.NewRepository(sqlDB)
	}

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.RecomputeInterval, cfg.JunctionsRefreshInterval)
		srv := mcol.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// NATS publisher is optional
	var pub analysis.Publisher
	if cfg.NATSURL != "" {
		np, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer np.Close()
		pub = np
	}

	mgr := analysis.NewManager(st, pub, analysis.Options{
		RecomputeInterval: cfg.RecomputeInterval,
		RefreshInterval:   cfg.JunctionsRefreshInterval,
		Junction:          cfg.Junction,
		CacheSize:         cfg.ReportCacheSize,
		Metrics:           mcol,
	})
	junctions, err := st.ListJunctions(ctx)
	if err != nil {
		log.Fatalf("list junctions error: %v", err)
	}
	if len(junctions) == 0 {
		log.Printf("no junctions recorded yet")
	}
	mgr.Start(ctx, junctions)
	mgr.StartRefresher(ctx)

	app := api.NewApp(mgr, st)
	go func() {
		log.Printf("api listening on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Printf("api server error: %v", err)
			cancel()
		}
	}()

	// Block until context cancelled
	<-ctx.Done()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("api shutdown: %v", err)
	}
	mgr.Stop()
	log.Println("shutdown complete")
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
