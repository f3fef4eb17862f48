package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"hotelscout/internal/logging"
	"hotelscout/pkg/models"
)

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

// fakePlatform serves the maps-platform endpoints for one hotel.
type fakePlatform struct {
	searchHits  []map[string]interface{}
	place       map[string]interface{}
	reviewPages [][]map[string]interface{}
	photos      []map[string]interface{}
}

func (f *fakePlatform) handler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("engine") {
		case "google_maps":
			if q.Get("type") == "search" {
				json.NewEncoder(w).Encode(map[string]interface{}{"local_results": f.searchHits})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"place_results": f.place})
		case "google_maps_reviews":
			start, _ := strconv.Atoi(q.Get("start"))
			page := start / googleReviewPageSize
			reviews := []map[string]interface{}{}
			if page < len(f.reviewPages) {
				reviews = f.reviewPages[page]
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"reviews": reviews})
		case "google_maps_photos":
			json.NewEncoder(w).Encode(map[string]interface{}{"photos": f.photos})
		default:
			t.Errorf("unexpected engine %q", q.Get("engine"))
			http.Error(w, "bad engine", http.StatusBadRequest)
		}
	})
}

func newTestGoogleFetcher(t *testing.T, platform *fakePlatform) *GoogleFetcher {
	t.Helper()
	srv := httptest.NewServer(platform.handler(t))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "test-key", 0, 0, srv.Client())
	g := NewGoogleFetcher(client, logging.NewNop())
	g.now = func() time.Time { return testNow }
	return g
}

func review(daysAgo int, text string) map[string]interface{} {
	return map[string]interface{}{
		"user":     map[string]interface{}{"name": "guest", "link": "https://example.com/u"},
		"rating":   4.0,
		"snippet":  text,
		"iso_date": testNow.AddDate(0, 0, -daysAgo).Format(time.RFC3339),
		"date":     fmt.Sprintf("%d days ago", daysAgo),
		"likes":    1.0,
	}
}

func prop() models.Property {
	return models.Property{ID: 7, Name: "Harborview Grand Hotel", City: "Charleston", State: "SC"}
}

func TestGoogleFetchNoResults(t *testing.T) {
	g := newTestGoogleFetcher(t, &fakePlatform{searchHits: []map[string]interface{}{}})

	rec := g.Fetch(context.Background(), prop())
	if rec.Error == "" {
		t.Fatal("expected error-tagged record for zero search results")
	}
	if rec.PropertyID != 7 || rec.Source != models.SourceGoogle {
		t.Fatalf("record identity wrong: %+v", rec)
	}
	if rec.Reviews == nil || len(rec.Reviews) != 0 {
		t.Fatalf("reviews = %v, want empty non-nil slice", rec.Reviews)
	}
	if rec.Photos == nil || len(rec.Photos) != 0 {
		t.Fatalf("photos = %v, want empty non-nil slice", rec.Photos)
	}
	if rec.Rating != nil || rec.PlaceID != "" {
		t.Fatalf("failed record carries data fields: %+v", rec)
	}
}

func TestGoogleFetchSuccess(t *testing.T) {
	platform := &fakePlatform{
		searchHits: []map[string]interface{}{{
			"data_id": "0x123",
			"title":   "Harborview Grand Hotel",
			"address": "12 East Bay Street",
		}},
		place: map[string]interface{}{
			"title":   "Harborview Grand Hotel",
			"address": "12 East Bay Street, Charleston",
			"url":     "https://maps.example.com/harborview",
			"price":   "$$$",
			"rating":  "4.6",    // string on purpose: must parse defensively
			"reviews": "1,234", // formatted count string
		},
		reviewPages: [][]map[string]interface{}{
			{review(10, "great stay"), review(20, "lovely")},
		},
		photos: []map[string]interface{}{
			{"image_id": "p1", "thumbnail": "https://img/t1", "image": "https://img/f1"},
		},
	}
	g := newTestGoogleFetcher(t, platform)

	rec := g.Fetch(context.Background(), prop())
	if rec.Error != "" {
		t.Fatalf("unexpected error: %s", rec.Error)
	}
	if rec.PlaceID != "0x123" {
		t.Fatalf("place id = %q", rec.PlaceID)
	}
	if rec.Rating == nil || *rec.Rating != 4.6 {
		t.Fatalf("rating = %v, want 4.6", rec.Rating)
	}
	if rec.ReviewCount == nil || *rec.ReviewCount != 1234 {
		t.Fatalf("review count = %v, want 1234", rec.ReviewCount)
	}
	if rec.PriceLevel != "$$$" {
		t.Fatalf("price level = %q", rec.PriceLevel)
	}
	if len(rec.Reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(rec.Reviews))
	}
	if rec.Reviews[0].Author != "guest" || rec.Reviews[0].Text != "great stay" {
		t.Fatalf("first review = %+v", rec.Reviews[0])
	}
	if len(rec.Photos) != 1 || rec.Photos[0].URLs["full"] != "https://img/f1" {
		t.Fatalf("photos = %+v", rec.Photos)
	}
}

// The platform returns reviews newest-first, so the first review older than
// the cutoff truncates everything after it, including an in-window review
// appearing later in the same page.
func TestGoogleReviewTruncationAtCutoff(t *testing.T) {
	fullPage := make([]map[string]interface{}, 0, googleReviewPageSize)
	for i := 0; i < googleReviewPageSize; i++ {
		fullPage = append(fullPage, review(i+1, fmt.Sprintf("review %d", i)))
	}
	oldDays := reviewWindowYears*365 + 100
	secondPage := []map[string]interface{}{
		review(400, "still in window"),
		review(oldDays, "out of window"),
		review(30, "in window but after an old one"),
	}
	platform := &fakePlatform{
		searchHits: []map[string]interface{}{{"data_id": "0x123", "title": "H"}},
		place:      map[string]interface{}{"title": "H"},
		reviewPages: [][]map[string]interface{}{
			fullPage,
			secondPage,
		},
	}
	g := newTestGoogleFetcher(t, platform)

	rec := g.Fetch(context.Background(), prop())
	if rec.Error != "" {
		t.Fatalf("unexpected error: %s", rec.Error)
	}
	want := googleReviewPageSize + 1
	if len(rec.Reviews) != want {
		t.Fatalf("got %d reviews, want %d (truncated, not filtered)", len(rec.Reviews), want)
	}
	last := rec.Reviews[len(rec.Reviews)-1]
	if last.Text != "still in window" {
		t.Fatalf("last kept review = %q", last.Text)
	}
	for _, rv := range rec.Reviews {
		if rv.Text == "in window but after an old one" {
			t.Fatal("review after the out-of-window one must be discarded")
		}
	}
}

// A review published exactly at the cutoff instant is out of window: only
// reviews strictly newer than the cutoff are kept.
func TestGoogleReviewCutoffBoundary(t *testing.T) {
	cutoff := testNow.AddDate(-reviewWindowYears, 0, 0)
	justInside := review(0, "one second inside")
	justInside["iso_date"] = cutoff.Add(time.Second).Format(time.RFC3339)
	atCutoff := review(0, "exactly at the boundary")
	atCutoff["iso_date"] = cutoff.Format(time.RFC3339)
	platform := &fakePlatform{
		searchHits:  []map[string]interface{}{{"data_id": "0x1", "title": "H"}},
		place:       map[string]interface{}{"title": "H"},
		reviewPages: [][]map[string]interface{}{{justInside, atCutoff}},
	}
	g := newTestGoogleFetcher(t, platform)

	rec := g.Fetch(context.Background(), prop())
	if rec.Error != "" {
		t.Fatalf("unexpected error: %s", rec.Error)
	}
	if len(rec.Reviews) != 1 {
		t.Fatalf("got %d reviews, want 1", len(rec.Reviews))
	}
	if rec.Reviews[0].Text != "one second inside" {
		t.Fatalf("kept review = %q", rec.Reviews[0].Text)
	}
}

func TestGoogleReviewShortPageStops(t *testing.T) {
	platform := &fakePlatform{
		searchHits:  []map[string]interface{}{{"data_id": "0x1", "title": "H"}},
		place:       map[string]interface{}{"title": "H"},
		reviewPages: [][]map[string]interface{}{{review(5, "a"), review(6, "b")}},
	}
	g := newTestGoogleFetcher(t, platform)

	rec := g.Fetch(context.Background(), prop())
	if rec.Error != "" {
		t.Fatalf("unexpected error: %s", rec.Error)
	}
	if len(rec.Reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(rec.Reviews))
	}
}

func TestGoogleSearchHotels(t *testing.T) {
	platform := &fakePlatform{
		searchHits: []map[string]interface{}{
			{"data_id": "a", "title": "A", "rating": 4.1, "reviews": 10.0},
			{"data_id": "b", "title": "B", "rating": 3.9, "reviews": 5.0},
			{"data_id": "c", "title": "C"},
		},
	}
	g := newTestGoogleFetcher(t, platform)

	hotels, err := g.SearchHotels(context.Background(), "hotel charleston", 2)
	if err != nil {
		t.Fatalf("SearchHotels: %v", err)
	}
	if len(hotels) != 2 {
		t.Fatalf("got %d hotels, want 2", len(hotels))
	}
	if hotels[0].PlaceID != "a" || hotels[0].Rating == nil || *hotels[0].Rating != 4.1 {
		t.Fatalf("first hotel = %+v", hotels[0])
	}
}
