package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"pubharvest/config"
	"pubharvest/models"
	"pubharvest/providers"
	"pubharvest/providers/openalex"
)

// Store ist die Persistenzschicht aus Sicht des Harvesters. Alle Writes sind
// Upserts auf den externen IDs; Flush committet den laufenden Batch.
type Store interface {
	UpsertAuthor(*models.Author) error
	UpsertWork(*models.Work) error
	UpsertTopic(*models.Topic) error
	UpsertAuthorship(*models.Authorship) error
	UpsertWorkTopic(*models.WorkTopic) error
	Flush() error
	FactCounts() (authorships int64, workTopics int64, err error)
}

// Summary fasst einen Erntelauf zusammen.
type Summary struct {
	Authors            int   `json:"authors"`
	UniqueWorks        int   `json:"unique_works"`
	Authorships        int64 `json:"authorships"`
	WorkTopics         int64 `json:"work_topics"`
	SkippedAuthorYears int   `json:"skipped_author_years"`
}

// Harvester orchestriert den Erntelauf: erst alle Autoren der Institution,
// dann pro Autor und Jahr die Werke samt Topics und Faktzeilen. Die
// Verarbeitung ist strikt sequenziell; Autoren sind vollständig committet,
// bevor das erste Werk geholt wird.
type Harvester struct {
	Config  *config.Config
	Store   Store
	Catalog providers.Catalog
	Topics  providers.TopicResolver
	Logger  *zap.Logger
}

// NewHarvester erstellt einen neuen Harvester.
func NewHarvester(cfg *config.Config, store Store, catalog providers.Catalog, topics providers.TopicResolver, logger *zap.Logger) *Harvester {
	return &Harvester{
		Config:  cfg,
		Store:   store,
		Catalog: catalog,
		Topics:  topics,
		Logger:  logger,
	}
}

// Run führt einen vollständigen Erntelauf aus. Fehler beim Autoren-Listing
// sind fatal (alles Weitere hängt am vollständigen Autorensatz), ebenso
// Storage-Fehler. Fetch-Fehler beim Werke-Listing eines Autor-Jahres werden
// geloggt und als "keine Werke" behandelt — der Lauf geht weiter.
func (h *Harvester) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	h.Logger.Info("Starte Erntelauf",
		zap.String("institution", h.Config.InstitutionID),
		zap.Int("year_start", h.Config.YearStart),
		zap.Int("year_end", h.Config.YearEnd))

	authorIDs, err := h.harvestAuthors(ctx, sum)
	if err != nil {
		return nil, err
	}
	h.Logger.Info("Autoren erfasst", zap.Int("count", sum.Authors))

	seenWorks := make(map[string]struct{})
	for _, authorID := range authorIDs {
		for year := h.Config.YearStart; year <= h.Config.YearEnd; year++ {
			err := h.harvestAuthorYear(ctx, authorID, year, seenWorks, sum)
			if err != nil {
				if isFetchError(err) {
					h.Logger.Warn("Werke-Abruf fehlgeschlagen, überspringe Autor-Jahr",
						zap.String("author_id", authorID),
						zap.Int("year", year),
						zap.Error(err))
					sum.SkippedAuthorYears++
					continue
				}
				return nil, err
			}
			if err := h.Store.Flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := h.Store.Flush(); err != nil {
		return nil, err
	}
	sum.Authorships, sum.WorkTopics, err = h.Store.FactCounts()
	if err != nil {
		return nil, err
	}

	h.Logger.Info("Erntelauf abgeschlossen",
		zap.Int("authors", sum.Authors),
		zap.Int("unique_works", sum.UniqueWorks),
		zap.Int64("authorships", sum.Authorships),
		zap.Int64("work_topics", sum.WorkTopics),
		zap.Int("skipped_author_years", sum.SkippedAuthorYears))
	return sum, nil
}

// harvestAuthors erfasst den vollständigen Autorensatz der Institution und
// committet alle CommitEvery Autoren.
func (h *Harvester) harvestAuthors(ctx context.Context, sum *Summary) ([]string, error) {
	var ids []string
	err := h.Catalog.StreamAuthors(ctx, func(a openalex.Author) error {
		if err := h.Store.UpsertAuthor(authorToModel(a)); err != nil {
			return err
		}
		ids = append(ids, a.ID)
		sum.Authors++
		if h.Config.CommitEvery > 0 && sum.Authors%h.Config.CommitEvery == 0 {
			return h.Store.Flush()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := h.Store.Flush(); err != nil {
		return nil, err
	}
	return ids, nil
}

// harvestAuthorYear verarbeitet den Werke-Stream eines Autor-Jahres.
func (h *Harvester) harvestAuthorYear(ctx context.Context, authorID string, year int, seen map[string]struct{}, sum *Summary) error {
	return h.Catalog.StreamWorks(ctx, authorID, year, func(w openalex.Work) error {
		return h.ingestWork(ctx, w, seen, sum)
	})
}

// ingestWork schreibt Werk, Faktzeilen und Topics. Die Reihenfolge —
// Werk vor Fakt, Topic vor Verknüpfung — sichert referenzielle Integrität.
func (h *Harvester) ingestWork(ctx context.Context, w openalex.Work, seen map[string]struct{}, sum *Summary) error {
	work := workToModel(w)
	if err := h.Store.UpsertWork(work); err != nil {
		return err
	}
	if _, ok := seen[w.ID]; !ok {
		seen[w.ID] = struct{}{}
		sum.UniqueWorks++
	}

	for _, au := range w.Authorships {
		if au.Author.ID == "" {
			continue
		}
		fact := &models.Authorship{
			AuthorID:          au.Author.ID,
			WorkID:            w.ID,
			Year:              work.PublicationYear,
			VenueType:         work.VenueType,
			AuthorPosition:    au.AuthorPosition,
			IsHomeAffiliation: hasInstitution(au.Institutions, h.Config.InstitutionID),
		}
		if err := h.Store.UpsertAuthorship(fact); err != nil {
			return err
		}
	}

	if w.PrimaryTopic != nil && w.PrimaryTopic.ID != "" {
		if err := h.ingestTopic(ctx, w.ID, *w.PrimaryTopic, true); err != nil {
			return err
		}
	}
	for _, ref := range w.Topics {
		if ref.ID == "" {
			continue
		}
		if err := h.ingestTopic(ctx, w.ID, ref, false); err != nil {
			return err
		}
	}
	return nil
}

// ingestTopic löst eine Topic-Referenz auf und schreibt Topic und
// Verknüpfung. Unvollständige Hierarchien sind erlaubt und werden bei
// späteren Beobachtungen monoton nachgefüllt.
func (h *Harvester) ingestTopic(ctx context.Context, workID string, ref openalex.TopicRef, primary bool) error {
	topic, complete := h.Topics.Resolve(ctx, ref)
	if !complete {
		h.Logger.Debug("Topic-Hierarchie unvollständig",
			zap.String("topic_id", ref.ID),
			zap.String("work_id", workID))
	}
	if err := h.Store.UpsertTopic(topic); err != nil {
		return err
	}
	return h.Store.UpsertWorkTopic(&models.WorkTopic{
		WorkID:    workID,
		TopicID:   topic.TopicID,
		Score:     ref.Score,
		IsPrimary: primary,
	})
}

// isFetchError meldet, ob ein Fehler aus dem Fetcher stammt (permanent oder
// nach Backoff erschöpft). Nur solche Fehler dürfen pro Autor-Jahr
// übersprungen werden; alles andere (Storage, Decode) ist fatal.
func isFetchError(err error) bool {
	var rejected *openalex.RequestRejectedError
	var exhausted *openalex.RetriesExhaustedError
	return errors.As(err, &rejected) || errors.As(err, &exhausted)
}

// authorToModel normalisiert den API-Payload in das Speicher-Modell.
// Die ORCID wird ohne Schema-Präfix abgelegt.
func authorToModel(a openalex.Author) *models.Author {
	m := &models.Author{
		AuthorID:    a.ID,
		DisplayName: a.DisplayName,
		ORCID:       strings.TrimPrefix(a.ORCID, "https://orcid.org/"),
		WorksCount:  a.WorksCount,
	}
	if len(a.LastKnownInstitutions) > 0 {
		inst := a.LastKnownInstitutions[0]
		m.LastKnownInstitutionID = &inst.ID
		if inst.DisplayName != "" {
			m.LastKnownInstitutionName = &inst.DisplayName
		}
	}
	return m
}

// workToModel normalisiert den API-Payload in das Speicher-Modell inklusive
// Venue-Klassifikation.
func workToModel(w openalex.Work) *models.Work {
	return &models.Work{
		WorkID:          w.ID,
		Title:           w.DisplayName,
		PublicationYear: w.PublicationYear,
		DOI:             w.DOI,
		VenueType:       ClassifyVenue(w),
	}
}

func hasInstitution(insts []openalex.Ref, id string) bool {
	for _, inst := range insts {
		if inst.ID == id {
			return true
		}
	}
	return false
}
