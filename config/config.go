package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`

	// OpenAlex verlangt einen identifizierenden User-Agent mit Kontaktadresse.
	// Fehlt das Mailto, lehnt die API Anfragen häufig mit 403 ab.
	OpenAlexBaseURL string `envconfig:"OPENALEX_BASE_URL" default:"https://api.openalex.org"`
	OpenAlexMailto  string `envconfig:"OPENALEX_MAILTO" required:"true"`
	ClientAgent     string `envconfig:"CLIENT_AGENT" default:"pubharvest/1.0"`

	// Institution und Zeitraum der Ernte.
	InstitutionID string `envconfig:"INSTITUTION_ID" required:"true"`
	YearStart     int    `envconfig:"YEAR_START" default:"2023"`
	YearEnd       int    `envconfig:"YEAR_END" default:"2025"`

	// PerPage darf das API-Maximum von 200 nicht überschreiten.
	PerPage      int     `envconfig:"PER_PAGE" default:"200"`
	PageSleepMS  int     `envconfig:"PAGE_SLEEP_MS" default:"200"`
	RetryMax     int     `envconfig:"RETRY_MAX" default:"5"`
	RetryBaseMS  int     `envconfig:"RETRY_BASE_MS" default:"500"`
	RetryBackoff float64 `envconfig:"RETRY_BACKOFF" default:"1.6"`

	// Commit-Grenze beim Autoren-Durchlauf.
	CommitEvery int `envconfig:"COMMIT_EVERY" default:"500"`

	ExportCSVPath string `envconfig:"EXPORT_CSV_PATH" default:"author_year_outputs.csv"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
}

// UserAgent baut den Identifikations-Header für alle API-Anfragen.
func (c *Config) UserAgent() string {
	return fmt.Sprintf("%s (mailto:%s)", c.ClientAgent, c.OpenAlexMailto)
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
