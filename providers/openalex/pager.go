package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// cursorStart ist der Sentinel-Wert für die erste Seite.
const cursorStart = "*"

// listPage ist der Seiten-Umschlag aller Collection-Endpunkte.
type listPage struct {
	Results []json.RawMessage `json:"results"`
	Meta    struct {
		NextCursor string `json:"next_cursor"`
	} `json:"meta"`
}

// Pager iteriert cursor-basiert über eine gefilterte Collection. Die Nutzung
// folgt bufio.Scanner: Next() schaltet weiter, Record() liefert den aktuellen
// Datensatz, Err() den ersten aufgetretenen Fehler. Ein Pager ist nach
// Erschöpfung nicht wiederverwendbar.
type Pager struct {
	client *Client
	path   string
	params url.Values

	cursor  string
	started bool
	done    bool

	buf    []json.RawMessage
	pos    int
	record json.RawMessage
	err    error
}

// NewPager erstellt einen Pager für einen Collection-Pfad. Die Seitengröße
// kommt aus der Konfiguration und liegt per Konstruktion unter dem
// API-Maximum.
func (c *Client) NewPager(path string, params url.Values) *Pager {
	p := make(url.Values, len(params)+2)
	for k, v := range params {
		p[k] = v
	}
	p.Set("per-page", strconv.Itoa(c.cfg.PerPage))
	return &Pager{
		client: c,
		path:   path,
		params: p,
		cursor: cursorStart,
	}
}

// Next lädt bei Bedarf die nächste Seite und schaltet auf den nächsten
// Datensatz weiter. false bedeutet Ende der Sequenz oder Fehler (siehe Err).
func (p *Pager) Next(ctx context.Context) bool {
	if p.err != nil {
		return false
	}
	for p.pos >= len(p.buf) {
		if p.done {
			return false
		}
		if !p.fetchPage(ctx) {
			return false
		}
	}
	p.record = p.buf[p.pos]
	p.pos++
	return true
}

// Record gibt den Datensatz zurück, auf den Next zuletzt geschaltet hat.
func (p *Pager) Record() json.RawMessage {
	return p.record
}

// Err gibt den ersten Fehler zurück, der die Iteration beendet hat.
func (p *Pager) Err() error {
	return p.err
}

func (p *Pager) fetchPage(ctx context.Context) bool {
	if p.started {
		// Rate-Limit-Pause zwischen Seiten, keine Optimierung.
		p.client.sleep(time.Duration(p.client.cfg.PageSleepMS) * time.Millisecond)
	}

	p.params.Set("cursor", p.cursor)
	body, err := p.client.get(ctx, p.path, p.params)
	if err != nil {
		p.err = err
		return false
	}

	var page listPage
	if err := json.Unmarshal(body, &page); err != nil {
		p.err = fmt.Errorf("page decode failed for %s: %w", p.path, err)
		return false
	}

	p.buf = page.Results
	p.pos = 0
	p.started = true

	// Ende bei fehlendem Cursor; ein sich wiederholender Token würde sonst
	// endlos dieselbe Seite anfordern.
	next := page.Meta.NextCursor
	if next == "" || next == p.cursor {
		p.done = true
	} else {
		p.cursor = next
	}
	return true
}
