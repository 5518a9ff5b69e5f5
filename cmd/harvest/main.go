package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"pubharvest/config"
	"pubharvest/providers/openalex"
	"pubharvest/services"
	"pubharvest/storage"
)

// Einmaliger Erntelauf: Autoren, Werke, Topics einsammeln und anschließend
// die Aggregatsicht als CSV exportieren. Für wiederkehrende Läufe gibt es
// den Dienst-Modus mit Cron (siehe Wurzel-main).
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

	logging.Info("Harvest-Konfiguration",
		zap.String("institution", cfg.InstitutionID),
		zap.Int("year_start", cfg.YearStart),
		zap.Int("year_end", cfg.YearEnd),
		zap.String("user_agent", cfg.UserAgent()),
		zap.String("csv_path", cfg.ExportCSVPath))

	store, err := storage.Open(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to open harvest store", zap.Error(err))
	}

	client := openalex.NewClient(cfg, logging)
	resolver := openalex.NewTopicResolver(client, logging)
	harvester := services.NewHarvester(cfg, store, client, resolver, logging)

	summary, err := harvester.Run(context.Background())
	if err != nil {
		logging.Error("Harvest run failed", zap.Error(err))
		printChecklist(err)
		os.Exit(1)
	}

	rows, err := store.AuthorYearOutputs()
	if err != nil {
		logging.Fatal("Failed to read outputs view", zap.Error(err))
	}
	if err := services.ExportAuthorYearCSV(rows, cfg.ExportCSVPath); err != nil {
		logging.Fatal("CSV export failed", zap.Error(err))
	}

	if err := store.Close(); err != nil {
		logging.Fatal("Failed to close store", zap.Error(err))
	}

	logging.Info("Fertig.",
		zap.Int("authors", summary.Authors),
		zap.Int("unique_works", summary.UniqueWorks),
		zap.Int64("authorships", summary.Authorships),
		zap.Int64("work_topics", summary.WorkTopics),
		zap.Int("skipped_author_years", summary.SkippedAuthorYears),
		zap.Int("csv_rows", len(rows)),
		zap.String("csv_path", cfg.ExportCSVPath))
}

// printChecklist gibt bei API-Ablehnungen die Request-Details samt den
// üblichen Ursachen auf stderr aus.
func printChecklist(err error) {
	var rejected *openalex.RequestRejectedError
	var exhausted *openalex.RetriesExhaustedError

	switch {
	case errors.As(err, &rejected):
		fmt.Fprintf(os.Stderr, "\nAPI-Ablehnung [%d] %s\nParams: %s\nBody: %s\n",
			rejected.StatusCode, rejected.URL, rejected.Params, rejected.Body)
	case errors.As(err, &exhausted):
		fmt.Fprintf(os.Stderr, "\nRetries erschöpft nach %d Versuchen [%d] %s\nParams: %s\nBody: %s\n",
			exhausted.Attempts, exhausted.StatusCode, exhausted.URL, exhausted.Params, exhausted.Body)
	default:
		return
	}

	fmt.Fprintln(os.Stderr, "\nCheckliste:")
	fmt.Fprintln(os.Stderr, "- OPENALEX_MAILTO muss eine erreichbare Kontaktadresse enthalten (Pflicht).")
	fmt.Fprintln(os.Stderr, "- Bei 'Invalid query parameters' testweise 'select' oder 'sort' entfernen.")
	fmt.Fprintln(os.Stderr, "- Manche Proxies injizieren 403 — anderes Netz versuchen.")
}
