package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pubharvest/config"
	"pubharvest/models"
	"pubharvest/providers/openalex"
)

// fakeCatalog liefert vorbereitete Autoren und Werke; failFor simuliert
// Fetch-Fehler für einzelne Autoren.
type fakeCatalog struct {
	authors    []openalex.Author
	works      map[string][]openalex.Work
	failFor    map[string]error
	authorsErr error
}

func (f *fakeCatalog) StreamAuthors(ctx context.Context, fn func(openalex.Author) error) error {
	if f.authorsErr != nil {
		return f.authorsErr
	}
	for _, a := range f.authors {
		if err := fn(a); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCatalog) StreamWorks(ctx context.Context, authorID string, year int, fn func(openalex.Work) error) error {
	if err, ok := f.failFor[authorID]; ok {
		return err
	}
	for _, w := range f.works[authorID] {
		if err := fn(w); err != nil {
			return err
		}
	}
	return nil
}

// fakeResolver gibt Referenzen unverändert als unvollständige Topics zurück.
type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, ref openalex.TopicRef) (*models.Topic, bool) {
	return &models.Topic{TopicID: ref.ID, DisplayName: ref.DisplayName}, false
}

// fakeStore bildet die Upsert-Semantik in Maps nach: Dimensionen
// überschreiben, Fakten ignorieren Duplikate, Topics reichern monoton an.
type fakeStore struct {
	authors map[string]models.Author
	works   map[string]models.Work
	topics  map[string]models.Topic
	facts   map[string]models.Authorship
	links   map[string]models.WorkTopic
	flushes int

	failWork error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		authors: make(map[string]models.Author),
		works:   make(map[string]models.Work),
		topics:  make(map[string]models.Topic),
		facts:   make(map[string]models.Authorship),
		links:   make(map[string]models.WorkTopic),
	}
}

func (s *fakeStore) UpsertAuthor(a *models.Author) error {
	s.authors[a.AuthorID] = *a
	return nil
}

func (s *fakeStore) UpsertWork(w *models.Work) error {
	if s.failWork != nil {
		return s.failWork
	}
	s.works[w.WorkID] = *w
	return nil
}

func (s *fakeStore) UpsertTopic(t *models.Topic) error {
	if existing, ok := s.topics[t.TopicID]; ok {
		existing.Enrich(t)
		s.topics[t.TopicID] = existing
		return nil
	}
	s.topics[t.TopicID] = *t
	return nil
}

func (s *fakeStore) UpsertAuthorship(f *models.Authorship) error {
	key := f.AuthorID + "|" + f.WorkID
	if _, ok := s.facts[key]; !ok {
		s.facts[key] = *f
	}
	return nil
}

func (s *fakeStore) UpsertWorkTopic(l *models.WorkTopic) error {
	key := l.WorkID + "|" + l.TopicID
	if _, ok := s.links[key]; !ok {
		s.links[key] = *l
	}
	return nil
}

func (s *fakeStore) Flush() error {
	s.flushes++
	return nil
}

func (s *fakeStore) FactCounts() (int64, int64, error) {
	return int64(len(s.facts)), int64(len(s.links)), nil
}

func testHarvestConfig() *config.Config {
	return &config.Config{
		InstitutionID: "https://openalex.org/I1",
		YearStart:     2024,
		YearEnd:       2024,
		CommitEvery:   1,
	}
}

func intPtr(i int) *int { return &i }

// sharedWork ist ein Werk mit zwei Autoren der Institution — es taucht in
// beiden Werk-Streams auf und darf trotzdem nur einmal gezählt werden.
func sharedWork() openalex.Work {
	score := 0.98
	return openalex.Work{
		ID:              "https://openalex.org/W1",
		DisplayName:     "Shared Paper",
		PublicationYear: intPtr(2024),
		Type:            "article",
		TypeCrossref:    "journal-article",
		Authorships: []openalex.WorkAuthorship{
			{
				Author:         openalex.Ref{ID: "https://openalex.org/A1"},
				AuthorPosition: "first",
				Institutions:   []openalex.Ref{{ID: "https://openalex.org/I1"}},
			},
			{
				Author:         openalex.Ref{ID: "https://openalex.org/A2"},
				AuthorPosition: "last",
				Institutions:   []openalex.Ref{{ID: "https://openalex.org/I2"}},
			},
		},
		PrimaryTopic: &openalex.TopicRef{ID: "https://openalex.org/T1", DisplayName: "Primary", Score: &score},
		Topics: []openalex.TopicRef{
			{ID: "https://openalex.org/T1", DisplayName: "Primary", Score: &score},
			{ID: "https://openalex.org/T2", DisplayName: "Secondary"},
		},
	}
}

func twoAuthorCatalog() *fakeCatalog {
	w := sharedWork()
	return &fakeCatalog{
		authors: []openalex.Author{
			{ID: "https://openalex.org/A1", DisplayName: "Alice", ORCID: "https://orcid.org/0000-0001-0000-0001", WorksCount: 10},
			{ID: "https://openalex.org/A2", DisplayName: "Bob", WorksCount: 5},
		},
		works: map[string][]openalex.Work{
			"https://openalex.org/A1": {w},
			"https://openalex.org/A2": {w},
		},
	}
}

func newTestHarvester(store Store, catalog *fakeCatalog, logger *zap.Logger) *Harvester {
	return NewHarvester(testHarvestConfig(), store, catalog, fakeResolver{}, logger)
}

func TestRunStoresDimensionsFactsAndLinks(t *testing.T) {
	store := newFakeStore()
	h := newTestHarvester(store, twoAuthorCatalog(), zap.NewNop())

	sum, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Authors != 2 {
		t.Errorf("authors = %d, want 2", sum.Authors)
	}
	if sum.UniqueWorks != 1 {
		t.Errorf("unique works = %d, want 1 (shared work counted once)", sum.UniqueWorks)
	}
	if sum.Authorships != 2 {
		t.Errorf("authorships = %d, want one fact per (author, work)", sum.Authorships)
	}
	if sum.WorkTopics != 2 {
		t.Errorf("work topics = %d, want 2", sum.WorkTopics)
	}

	alice := store.authors["https://openalex.org/A1"]
	if alice.ORCID != "0000-0001-0000-0001" {
		t.Errorf("orcid not normalized: %q", alice.ORCID)
	}

	work := store.works["https://openalex.org/W1"]
	if work.VenueType != models.VenueJournal {
		t.Errorf("venue type = %q, want journal", work.VenueType)
	}

	fact := store.facts["https://openalex.org/A1|https://openalex.org/W1"]
	if !fact.IsHomeAffiliation {
		t.Error("first author is affiliated with the institution")
	}
	if fact.Year == nil || *fact.Year != 2024 {
		t.Error("fact must carry the publication year")
	}
	outside := store.facts["https://openalex.org/A2|https://openalex.org/W1"]
	if outside.IsHomeAffiliation {
		t.Error("second author is not affiliated with the institution")
	}

	primary := store.links["https://openalex.org/W1|https://openalex.org/T1"]
	if !primary.IsPrimary {
		t.Error("primary topic link must keep its first-seen primary flag")
	}
	if primary.Score == nil || *primary.Score != 0.98 {
		t.Error("topic link must carry the score")
	}
	secondary := store.links["https://openalex.org/W1|https://openalex.org/T2"]
	if secondary.IsPrimary {
		t.Error("secondary topic must not be primary")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	store := newFakeStore()
	catalog := twoAuthorCatalog()

	if _, err := newTestHarvester(store, catalog, zap.NewNop()).Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	snapshot := struct {
		authors map[string]models.Author
		works   map[string]models.Work
		topics  map[string]models.Topic
		facts   map[string]models.Authorship
		links   map[string]models.WorkTopic
	}{store.authors, store.works, store.topics, store.facts, store.links}
	factCount, linkCount := len(store.facts), len(store.links)

	sum, err := newTestHarvester(store, catalog, zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(store.facts) != factCount || len(store.links) != linkCount {
		t.Errorf("second run changed fact counts: %d/%d -> %d/%d",
			factCount, linkCount, len(store.facts), len(store.links))
	}
	if !reflect.DeepEqual(snapshot.authors, store.authors) ||
		!reflect.DeepEqual(snapshot.works, store.works) ||
		!reflect.DeepEqual(snapshot.topics, store.topics) ||
		!reflect.DeepEqual(snapshot.facts, store.facts) ||
		!reflect.DeepEqual(snapshot.links, store.links) {
		t.Error("second run must leave the store unchanged")
	}
	if sum.Authorships != int64(factCount) {
		t.Errorf("second run reports %d authorships, want %d", sum.Authorships, factCount)
	}
}

func TestRunSkipsFailedAuthorYear(t *testing.T) {
	catalog := twoAuthorCatalog()
	catalog.authors = append(catalog.authors, openalex.Author{ID: "https://openalex.org/A3", DisplayName: "Carol"})
	catalog.failFor = map[string]error{
		"https://openalex.org/A2": &openalex.RetriesExhaustedError{Attempts: 6, StatusCode: 503},
	}

	core, logs := observer.New(zap.WarnLevel)
	store := newFakeStore()
	h := newTestHarvester(store, catalog, zap.New(core))

	sum, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("fetch failure for one author-year must not abort the run: %v", err)
	}
	if sum.SkippedAuthorYears != 1 {
		t.Errorf("skipped author-years = %d, want 1", sum.SkippedAuthorYears)
	}
	if sum.Authors != 3 {
		t.Errorf("authors = %d, want 3 (author set is committed before works)", sum.Authors)
	}
	if _, ok := store.works["https://openalex.org/W1"]; !ok {
		t.Error("works of healthy authors must still be stored")
	}

	warned := false
	for _, entry := range logs.All() {
		for _, field := range entry.Context {
			if field.Key == "author_id" && field.String == "https://openalex.org/A2" {
				warned = true
			}
		}
	}
	if !warned {
		t.Error("skipped author-year must be logged with the author id")
	}
}

func TestRunFailsOnAuthorListingError(t *testing.T) {
	catalog := &fakeCatalog{
		authorsErr: &openalex.RequestRejectedError{StatusCode: 403},
	}
	h := newTestHarvester(newFakeStore(), catalog, zap.NewNop())

	_, err := h.Run(context.Background())
	var rejected *openalex.RequestRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("author listing errors are fatal, got %v", err)
	}
}

func TestRunFailsOnStorageError(t *testing.T) {
	store := newFakeStore()
	store.failWork = errors.New("write failed")
	h := newTestHarvester(store, twoAuthorCatalog(), zap.NewNop())

	_, err := h.Run(context.Background())
	if err == nil || !errors.Is(err, store.failWork) {
		t.Fatalf("storage errors inside a work stream are fatal, got %v", err)
	}
}
