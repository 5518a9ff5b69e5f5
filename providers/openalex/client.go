package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"pubharvest/config"
)

const (
	authorsPath = "/authors"
	worksPath   = "/works"
	topicsPath  = "/topics"
)

// Client kapselt den Zugriff auf die OpenAlex-API: ein GET pro Aufruf,
// Identifikations-Header, exponentielles Backoff für transiente Fehler.
type Client struct {
	cfg        *config.Config
	logger     *zap.Logger
	httpClient *http.Client

	// sleep ist in Tests ersetzbar, damit Backoff ohne Wartezeit prüfbar ist.
	sleep func(time.Duration)
}

// NewClient erstellt einen neuen OpenAlex-Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		sleep:      time.Sleep,
	}
}

// get führt ein GET mit Retry aus. 429/5xx werden mit wachsendem Delay
// wiederholt, bis RetryMax erreicht ist; jeder andere Nicht-200-Status ist
// eine permanente Ablehnung. Die Backoff-Pausen sind echte Wartezeit —
// ein enger Loop ohne Delay würde von der API als Missbrauch gewertet.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.cfg.OpenAlexBaseURL + path
	delay := time.Duration(c.cfg.RetryBaseMS) * time.Millisecond
	attempt := 0

	for {
		status, body, err := c.doOnce(ctx, fullURL, params)
		if err != nil {
			return nil, err
		}
		if status == http.StatusOK {
			return body, nil
		}

		switch status {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			attempt++
			if attempt > c.cfg.RetryMax {
				return nil, &RetriesExhaustedError{
					Attempts:   attempt,
					StatusCode: status,
					URL:        fullURL,
					Params:     params.Encode(),
					Body:       truncateBody(body),
				}
			}
			c.logger.Warn("Transienter API-Fehler, warte vor erneutem Versuch",
				zap.Int("status", status),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			c.sleep(delay)
			delay = time.Duration(float64(delay) * c.cfg.RetryBackoff)
		default:
			// Auch unbekannte Statuscodes gelten als permanente Ablehnung.
			return nil, &RequestRejectedError{
				StatusCode: status,
				URL:        fullURL,
				Params:     params.Encode(),
				Body:       truncateBody(body),
			}
		}
	}
}

// doOnce führt genau eine Anfrage aus und liest den Body vollständig.
func (c *Client) doOnce(ctx context.Context, fullURL string, params url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, nil, err
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", c.cfg.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("openalex request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("openalex response read failed: %w", err)
	}
	return resp.StatusCode, body, nil
}

// StreamAuthors liefert alle Autoren der Institution mit ORCID, sortiert nach
// absteigender Werkanzahl, einzeln an fn. Ein Fehler von fn bricht den
// Stream ab.
func (c *Client) StreamAuthors(ctx context.Context, fn func(Author) error) error {
	params := url.Values{}
	params.Set("filter", fmt.Sprintf("last_known_institutions.id:%s,has_orcid:true", c.cfg.InstitutionID))
	params.Set("select", authorSelect)
	params.Set("sort", "works_count:desc")

	pager := c.NewPager(authorsPath, params)
	for pager.Next(ctx) {
		var a Author
		if err := json.Unmarshal(pager.Record(), &a); err != nil {
			return fmt.Errorf("author record decode failed: %w", err)
		}
		if err := fn(a); err != nil {
			return err
		}
	}
	return pager.Err()
}

// StreamWorks liefert die Werke eines Autors in einem Jahr, beschränkt auf
// Werke mit Affiliation zur Institution, sortiert nach absteigender
// Zitationszahl.
func (c *Client) StreamWorks(ctx context.Context, authorID string, year int, fn func(Work) error) error {
	params := url.Values{}
	params.Set("filter", fmt.Sprintf("authorships.author.id:%s,publication_year:%d,authorships.institutions.id:%s",
		authorID, year, c.cfg.InstitutionID))
	params.Set("select", workSelect)
	params.Set("sort", "cited_by_count:desc")

	pager := c.NewPager(worksPath, params)
	for pager.Next(ctx) {
		var w Work
		if err := json.Unmarshal(pager.Record(), &w); err != nil {
			return fmt.Errorf("work record decode failed: %w", err)
		}
		if err := fn(w); err != nil {
			return err
		}
	}
	return pager.Err()
}

// shortID reduziert eine OpenAlex-URL-ID ("https://openalex.org/T11636")
// auf den letzten Pfadteil.
func shortID(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
