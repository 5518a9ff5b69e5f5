package openalex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func completeRef() TopicRef {
	return TopicRef{
		ID:          "https://openalex.org/T10017",
		DisplayName: "Machine Learning",
		Subfield:    &Ref{ID: "https://openalex.org/subfields/1702", DisplayName: "Artificial Intelligence"},
		Field:       &Ref{ID: "https://openalex.org/fields/17", DisplayName: "Computer Science"},
		Domain:      &Ref{ID: "https://openalex.org/domains/3", DisplayName: "Physical Sciences"},
	}
}

func TestResolveCompleteRefSkipsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request for already complete reference: %s", r.URL)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	r := NewTopicResolver(c, zap.NewNop())

	topic, complete := r.Resolve(context.Background(), completeRef())
	if !complete {
		t.Error("complete reference must resolve as complete")
	}
	if topic.FieldID == nil || topic.DomainID == nil {
		t.Error("hierarchy fields missing on resolved topic")
	}
}

func TestResolveFetchesOnceAndCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/topics/T11636" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"id": "https://openalex.org/T11636",
			"display_name": "Ecology",
			"subfield": {"id": "https://openalex.org/subfields/2303", "display_name": "Ecology"},
			"field": {"id": "https://openalex.org/fields/23", "display_name": "Environmental Science"},
			"domain": {"id": "https://openalex.org/domains/3", "display_name": "Physical Sciences"}
		}`)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	r := NewTopicResolver(c, zap.NewNop())

	ref := TopicRef{ID: "https://openalex.org/T11636", DisplayName: "Ecology"}
	topic, complete := r.Resolve(context.Background(), ref)
	if !complete {
		t.Fatal("enriched topic must be complete")
	}
	if topic.Field == nil || *topic.Field != "Environmental Science" {
		t.Errorf("field not enriched: %+v", topic)
	}

	// Zweite Auflösung derselben Referenz kommt aus dem Cache.
	if _, complete := r.Resolve(context.Background(), ref); !complete {
		t.Error("cached resolution must be complete")
	}
	if hits != 1 {
		t.Errorf("expected a single upstream request, got %d", hits)
	}
}

func TestResolveDegradesOnFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	c.cfg.RetryMax = 0
	r := NewTopicResolver(c, zap.NewNop())

	ref := TopicRef{ID: "https://openalex.org/T999", DisplayName: "Unknown"}
	topic, complete := r.Resolve(context.Background(), ref)
	if complete {
		t.Error("failed enrichment must report incomplete")
	}
	if topic == nil || topic.TopicID != ref.ID || topic.DisplayName != "Unknown" {
		t.Errorf("partial topic must carry the reference data: %+v", topic)
	}
	if topic.FieldID != nil {
		t.Error("partial topic must not invent hierarchy fields")
	}
}
