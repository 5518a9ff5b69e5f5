package openalex

import (
	"context"
	"encoding/json"
	"net/url"

	"go.uber.org/zap"

	"pubharvest/models"
)

// TopicResolver löst kompakte Topic-Referenzen zur vollen Hierarchie
// (Subfield → Field → Domain) auf. Der Cache lebt so lange wie der Resolver
// selbst; Tests erzeugen einfach eine frische Instanz.
type TopicResolver struct {
	client *Client
	logger *zap.Logger
	cache  map[string]*models.Topic
}

// NewTopicResolver erstellt einen Resolver mit leerem Cache.
func NewTopicResolver(client *Client, logger *zap.Logger) *TopicResolver {
	return &TopicResolver{
		client: client,
		logger: logger,
		cache:  make(map[string]*models.Topic),
	}
}

// Resolve gibt das bestmögliche Topic zu einer Referenz zurück. Das zweite
// Ergebnis meldet, ob die Hierarchie vollständig ist — Aufrufer müssen mit
// Teilinformation umgehen können, denn Anreicherung ist best-effort und darf
// die Ingestion des Werks nie blockieren.
func (r *TopicResolver) Resolve(ctx context.Context, ref TopicRef) (*models.Topic, bool) {
	topic := ref.toModel()
	if topic.Complete() {
		return topic, true
	}

	if full, ok := r.cache[ref.ID]; ok {
		topic.Enrich(full)
		return topic, topic.Complete()
	}

	full, err := r.fetchTopic(ctx, ref.ID)
	if err != nil {
		r.logger.Warn("Topic-Anreicherung fehlgeschlagen, fahre mit Teilinformation fort",
			zap.String("topic_id", ref.ID),
			zap.Error(err))
		return topic, false
	}

	r.cache[ref.ID] = full
	topic.Enrich(full)
	return topic, topic.Complete()
}

// fetchTopic holt den vollen Topic-Datensatz vom /topics/{id}-Endpunkt.
func (r *TopicResolver) fetchTopic(ctx context.Context, id string) (*models.Topic, error) {
	params := url.Values{}
	params.Set("select", topicSelect)

	body, err := r.client.get(ctx, topicsPath+"/"+shortID(id), params)
	if err != nil {
		return nil, err
	}

	var payload topicPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	full := &models.Topic{
		TopicID:     payload.ID,
		DisplayName: payload.DisplayName,
	}
	applyRef(payload.Subfield, &full.SubfieldID, &full.Subfield)
	applyRef(payload.Field, &full.FieldID, &full.Field)
	applyRef(payload.Domain, &full.DomainID, &full.Domain)
	return full, nil
}

// toModel normalisiert die Referenz in das Speicher-Modell.
func (t TopicRef) toModel() *models.Topic {
	m := &models.Topic{
		TopicID:     t.ID,
		DisplayName: t.DisplayName,
	}
	applyRef(t.Subfield, &m.SubfieldID, &m.Subfield)
	applyRef(t.Field, &m.FieldID, &m.Field)
	applyRef(t.Domain, &m.DomainID, &m.Domain)
	return m
}

func applyRef(ref *Ref, id **string, name **string) {
	if ref == nil || ref.ID == "" {
		return
	}
	*id = &ref.ID
	if ref.DisplayName != "" {
		*name = &ref.DisplayName
	}
}
