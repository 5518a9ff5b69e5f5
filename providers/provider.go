package providers

import (
	"context"

	"pubharvest/models"
	"pubharvest/providers/openalex"
)

// Catalog ist das Interface, das jede Upstream-Quelle für den Harvester
// implementieren muss. Beide Streams liefern Datensätze lazy an fn, sobald
// eine Seite da ist; ein Fehler von fn bricht den Stream ab.
type Catalog interface {
	// StreamAuthors liefert die Autoren der konfigurierten Institution.
	StreamAuthors(ctx context.Context, fn func(openalex.Author) error) error

	// StreamWorks liefert die Werke eines Autors in einem Jahr.
	StreamWorks(ctx context.Context, authorID string, year int, fn func(openalex.Work) error) error
}

// TopicResolver löst eine Topic-Referenz bestmöglich auf. Das zweite
// Ergebnis meldet, ob die Hierarchie vollständig ist.
type TopicResolver interface {
	Resolve(ctx context.Context, ref openalex.TopicRef) (*models.Topic, bool)
}
