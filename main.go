package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pubharvest/config"
	"pubharvest/providers/openalex"
	"pubharvest/services"
	"pubharvest/storage"
)

var (
	authorsHarvested prometheus.Counter
	worksHarvested   prometheus.Counter
	harvestFailures  prometheus.Counter
)

func init() {
	authorsHarvested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harvested_authors_total",
		Help: "Total number of author records upserted across harvest runs.",
	})
	worksHarvested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harvested_unique_works_total",
		Help: "Total number of unique works stored across harvest runs.",
	})
	harvestFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harvest_run_failures_total",
		Help: "Total number of harvest runs that aborted with a fatal error.",
	})
	prometheus.MustRegister(authorsHarvested, worksHarvested, harvestFailures)
}

// harvestMu stellt sicher, dass immer nur ein Erntelauf aktiv ist — der
// Store wird exklusiv vom orchestrierenden Thread benutzt.
var harvestMu sync.Mutex

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	store, err := storage.Open(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to open harvest store", zap.Error(err))
	}
	logging.Info("Successfully connected to harvest database.")

	client := openalex.NewClient(cfg, logging)
	resolver := openalex.NewTopicResolver(client, logging)
	harvester := services.NewHarvester(cfg, store, client, resolver, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupAuthorRoutes(router, store, logging)
	setupOutputRoutes(router, store, cfg, logging)
	setupHarvestRoutes(router, harvester, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled harvest...")
		runHarvest(harvester, logging)
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// runHarvest führt einen Lauf aus und aktualisiert die Zähler. Fatale Fehler
// werden mit Request-Details und Checkliste geloggt, beenden den Dienst aber
// nicht — der nächste geplante Lauf versucht es erneut.
func runHarvest(harvester *services.Harvester, logging *zap.Logger) {
	if !harvestMu.TryLock() {
		logging.Warn("Harvest already running, skipping trigger")
		return
	}
	defer harvestMu.Unlock()

	summary, err := harvester.Run(context.Background())
	if err != nil {
		harvestFailures.Inc()
		logging.Error("Harvest run failed", zap.Error(err))
		logRemediation(err, logging)
		return
	}
	authorsHarvested.Add(float64(summary.Authors))
	worksHarvested.Add(float64(summary.UniqueWorks))
	logging.Info("Harvest run completed",
		zap.Int("authors", summary.Authors),
		zap.Int("unique_works", summary.UniqueWorks),
		zap.Int("skipped_author_years", summary.SkippedAuthorYears))
}

// logRemediation gibt für API-Ablehnungen die üblichen Ursachen aus.
func logRemediation(err error, logging *zap.Logger) {
	var rejected *openalex.RequestRejectedError
	var exhausted *openalex.RetriesExhaustedError
	if !errors.As(err, &rejected) && !errors.As(err, &exhausted) {
		return
	}
	logging.Info("Checkliste bei API-Ablehnung",
		zap.Strings("hints", []string{
			"OPENALEX_MAILTO muss eine erreichbare Kontaktadresse enthalten (Pflicht).",
			"Bei 'Invalid query parameters' testweise 'select' oder 'sort' entfernen.",
			"Manche Proxies injizieren 403 — anderes Netz versuchen.",
		}))
}

func setupAuthorRoutes(router *gin.Engine, store *storage.Store, log *zap.Logger) {
	rg := router.Group("/authors")

	rg.GET("/", func(c *gin.Context) {
		authors, err := store.Authors()
		if err != nil {
			log.Error("Database query for authors failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, authors)
	})
}

func setupOutputRoutes(router *gin.Engine, store *storage.Store, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/outputs")

	// Aggregatsicht: Publikationszahlen pro Autor und Jahr.
	rg.GET("/", func(c *gin.Context) {
		rows, err := store.AuthorYearOutputs()
		if err != nil {
			log.Error("Database query for outputs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	// CSV-Export der Aggregatsicht in den konfigurierten Pfad.
	rg.POST("/export", func(c *gin.Context) {
		rows, err := store.AuthorYearOutputs()
		if err != nil {
			log.Error("Database query for outputs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if err := services.ExportAuthorYearCSV(rows, cfg.ExportCSVPath); err != nil {
			log.Error("CSV export failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		log.Info("CSV exported", zap.String("path", cfg.ExportCSVPath), zap.Int("rows", len(rows)))
		c.JSON(http.StatusOK, gin.H{"path": cfg.ExportCSVPath, "rows": len(rows)})
	})
}

func setupHarvestRoutes(router *gin.Engine, harvester *services.Harvester, log *zap.Logger) {
	rg := router.Group("/harvest")

	rg.POST("/run", func(c *gin.Context) {
		go runHarvest(harvester, log)
		c.JSON(http.StatusAccepted, gin.H{"message": "Harvest run triggered."})
	})
}
