package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
)

func collectIDs(t *testing.T, p *Pager) []string {
	t.Helper()
	var ids []string
	for p.Next(context.Background()) {
		var rec struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(p.Record(), &rec); err != nil {
			t.Fatalf("record decode: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	return ids
}

func TestPagerFollowsCursorAndTerminates(t *testing.T) {
	var cursors []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := r.URL.Query().Get("cursor")
		cursors = append(cursors, cur)
		if got := r.URL.Query().Get("per-page"); got != "2" {
			t.Errorf("per-page = %q, want 2", got)
		}
		switch cur {
		case "*":
			fmt.Fprint(w, `{"results":[{"id":"W1"},{"id":"W2"}],"meta":{"next_cursor":"c2"}}`)
		case "c2":
			fmt.Fprint(w, `{"results":[{"id":"W3"}],"meta":{"next_cursor":""}}`)
		default:
			t.Errorf("unexpected cursor %q", cur)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c, sleeps := testClient(t, srv.URL)
	p := c.NewPager("/works", url.Values{})
	ids := collectIDs(t, p)

	if err := p.Err(); err != nil {
		t.Fatalf("pager error: %v", err)
	}
	if want := []string{"W1", "W2", "W3"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if len(cursors) != 2 {
		t.Errorf("expected exactly 2 page requests, got %d (%v)", len(cursors), cursors)
	}
	// Pause nur zwischen Seiten, nicht vor der ersten.
	if len(*sleeps) != 1 {
		t.Errorf("expected 1 pacing sleep, got %d", len(*sleeps))
	}
}

func TestPagerStopsOnRepeatedCursor(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		cur := r.URL.Query().Get("cursor")
		switch cur {
		case "*":
			fmt.Fprint(w, `{"results":[{"id":"W1"}],"meta":{"next_cursor":"stuck"}}`)
		case "stuck":
			// Server liefert denselben Token erneut.
			fmt.Fprint(w, `{"results":[{"id":"W2"}],"meta":{"next_cursor":"stuck"}}`)
		}
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	p := c.NewPager("/works", url.Values{})
	ids := collectIDs(t, p)

	if err := p.Err(); err != nil {
		t.Fatalf("pager error: %v", err)
	}
	if want := []string{"W1", "W2"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if requests != 2 {
		t.Errorf("repeated cursor must end iteration after 2 requests, got %d", requests)
	}
}

func TestPagerEmptyFirstPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[],"meta":{"next_cursor":""}}`)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	p := c.NewPager("/authors", url.Values{})
	if p.Next(context.Background()) {
		t.Error("Next must return false for an empty collection")
	}
	if err := p.Err(); err != nil {
		t.Errorf("empty collection is not an error: %v", err)
	}
}

func TestPagerPropagatesFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	p := c.NewPager("/works", url.Values{})
	if p.Next(context.Background()) {
		t.Error("Next must return false on fetch error")
	}
	if p.Err() == nil {
		t.Error("Err must carry the fetch error")
	}
}
