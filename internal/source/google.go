package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"hotelscout/internal/logging"
	"hotelscout/pkg/models"
)

const (
	googleReviewPageSize = 20
	googlePhotoLimit     = 30

	// Reviews older than this are outside the reporting window.
	reviewWindowYears = 3
)

// GoogleFetcher runs the per-property pipeline against the maps platform:
// identity search, place details, time-windowed paginated reviews, photos.
type GoogleFetcher struct {
	client *Client
	logger *logging.Logger
	now    func() time.Time
}

func NewGoogleFetcher(client *Client, logger *logging.Logger) *GoogleFetcher {
	return &GoogleFetcher{client: client, logger: logger, now: time.Now}
}

func (g *GoogleFetcher) Name() string { return models.SourceGoogle }

// Fetch produces exactly one SourceRecord and never returns an error; any
// step failure yields an error-tagged record for this property only.
func (g *GoogleFetcher) Fetch(ctx context.Context, prop models.Property) models.SourceRecord {
	rec, err := g.fetch(ctx, prop)
	if err != nil {
		g.logger.Debug("google fetch failed for property %d (%s): %v", prop.ID, prop.Name, err)
		return failedRecord(prop.ID, models.SourceGoogle, g.now(), err)
	}
	return rec
}

func (g *GoogleFetcher) fetch(ctx context.Context, prop models.Property) (models.SourceRecord, error) {
	query := prop.SearchQuery(models.SourceGoogle)

	hit, err := g.search(ctx, query)
	if err != nil {
		return models.SourceRecord{}, err
	}

	place, err := g.details(ctx, hit.DataID)
	if err != nil {
		return models.SourceRecord{}, err
	}

	cutoff := g.now().AddDate(-reviewWindowYears, 0, 0)
	reviews, err := g.fetchReviews(ctx, hit.DataID, cutoff)
	if err != nil {
		return models.SourceRecord{}, err
	}

	photos, err := g.fetchPhotos(ctx, hit.DataID)
	if err != nil {
		return models.SourceRecord{}, err
	}

	return models.SourceRecord{
		PropertyID:  prop.ID,
		Source:      models.SourceGoogle,
		FetchedAt:   g.now(),
		PlaceID:     hit.DataID,
		URL:         place.URL,
		Name:        place.Title,
		Address:     place.Address,
		Rating:      parseFloat(place.Rating),
		ReviewCount: parseInt(place.Reviews),
		PriceLevel:  place.Price,
		Reviews:     reviews,
		Photos:      photos,
	}, nil
}

type googleSearchHit struct {
	DataID  string      `json:"data_id"`
	Title   string      `json:"title"`
	Address string      `json:"address"`
	Rating  interface{} `json:"rating"`
	Reviews interface{} `json:"reviews"`
}

func (g *GoogleFetcher) search(ctx context.Context, query string) (googleSearchHit, error) {
	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("type", "search")
	params.Set("q", query)

	body, err := g.client.Get(ctx, params)
	if err != nil {
		return googleSearchHit{}, err
	}

	var resp struct {
		LocalResults []googleSearchHit `json:"local_results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return googleSearchHit{}, Errorf(KindTransport, "parse search response: %v", err)
	}
	if len(resp.LocalResults) == 0 {
		return googleSearchHit{}, Errorf(KindNotFound, "no results for query %q", query)
	}
	// First result is the most relevant match.
	return resp.LocalResults[0], nil
}

type googlePlace struct {
	Title   string      `json:"title"`
	Address string      `json:"address"`
	URL     string      `json:"url"`
	Price   string      `json:"price"`
	Rating  interface{} `json:"rating"`
	Reviews interface{} `json:"reviews"`
}

func (g *GoogleFetcher) details(ctx context.Context, dataID string) (googlePlace, error) {
	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("type", "place")
	params.Set("data_id", dataID)

	body, err := g.client.Get(ctx, params)
	if err != nil {
		return googlePlace{}, err
	}

	var resp struct {
		PlaceResults googlePlace `json:"place_results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return googlePlace{}, Errorf(KindTransport, "parse place response: %v", err)
	}
	return resp.PlaceResults, nil
}

type googleReview struct {
	User struct {
		Name string `json:"name"`
		Link string `json:"link"`
	} `json:"user"`
	Rating  interface{} `json:"rating"`
	Snippet string      `json:"snippet"`
	Date    string      `json:"date"`
	ISODate string      `json:"iso_date"`
	Likes   interface{} `json:"likes"`
	Link    string      `json:"link"`
}

// fetchReviews pages through reviews newest-first and stops at the first
// review at or before the cutoff; only reviews strictly newer than the
// cutoff are kept. The platform returns reviews in descending
// publish order, so one out-of-window review means the rest of the history
// is out of window too: that review and everything after it is discarded,
// even a later in-window review on the same page.
func (g *GoogleFetcher) fetchReviews(ctx context.Context, dataID string, cutoff time.Time) ([]models.Review, error) {
	out := []models.Review{}
	for offset := 0; ; offset += googleReviewPageSize {
		params := url.Values{}
		params.Set("engine", "google_maps_reviews")
		params.Set("data_id", dataID)
		params.Set("start", strconv.Itoa(offset))
		params.Set("num", strconv.Itoa(googleReviewPageSize))

		body, err := g.client.Get(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("reviews page at offset %d: %w", offset, err)
		}

		var resp struct {
			Reviews []googleReview `json:"reviews"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, Errorf(KindTransport, "parse reviews response: %v", err)
		}
		if len(resp.Reviews) == 0 {
			return out, nil
		}

		for _, rv := range resp.Reviews {
			if ts, err := time.Parse(time.RFC3339, rv.ISODate); err == nil && !ts.After(cutoff) {
				return out, nil
			}
			out = append(out, models.Review{
				Author:       rv.User.Name,
				AuthorURL:    rv.User.Link,
				Rating:       parseFloat(rv.Rating),
				Text:         rv.Snippet,
				PublishedAt:  rv.ISODate,
				RelativeDate: rv.Date,
				HelpfulVotes: parseInt(rv.Likes),
				URL:          rv.Link,
			})
		}

		if len(resp.Reviews) < googleReviewPageSize {
			return out, nil
		}
	}
}

func (g *GoogleFetcher) fetchPhotos(ctx context.Context, dataID string) ([]models.Photo, error) {
	params := url.Values{}
	params.Set("engine", "google_maps_photos")
	params.Set("data_id", dataID)
	params.Set("num", strconv.Itoa(googlePhotoLimit))

	body, err := g.client.Get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Photos []struct {
			ImageID   string `json:"image_id"`
			Thumbnail string `json:"thumbnail"`
			Image     string `json:"image"`
		} `json:"photos"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, Errorf(KindTransport, "parse photos response: %v", err)
	}

	photos := []models.Photo{}
	for i, p := range resp.Photos {
		if i >= googlePhotoLimit {
			break
		}
		urls := map[string]string{}
		if p.Thumbnail != "" {
			urls["thumbnail"] = p.Thumbnail
		}
		if p.Image != "" {
			urls["full"] = p.Image
		}
		photos = append(photos, models.Photo{ID: p.ImageID, URLs: urls})
	}
	return photos, nil
}

// SearchHotels is the interactive-lookup path: a free-text search returning
// candidate hotels for the saved-folder feature, without the full pipeline.
func (g *GoogleFetcher) SearchHotels(ctx context.Context, query string, limit int) ([]models.SavedHotel, error) {
	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("type", "search")
	params.Set("q", query)

	body, err := g.client.Get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		LocalResults []googleSearchHit `json:"local_results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, Errorf(KindTransport, "parse search response: %v", err)
	}

	if limit <= 0 || limit > len(resp.LocalResults) {
		limit = len(resp.LocalResults)
	}
	hotels := []models.SavedHotel{}
	for _, hit := range resp.LocalResults[:limit] {
		hotels = append(hotels, models.SavedHotel{
			PlaceID:     hit.DataID,
			Name:        hit.Title,
			Address:     hit.Address,
			Rating:      parseFloat(hit.Rating),
			ReviewCount: parseInt(hit.Reviews),
		})
	}
	return hotels, nil
}

// FetchByPlaceID refetches reviews and photos for one already-identified
// hotel (saved-folder refresh); the same review window applies.
func (g *GoogleFetcher) FetchByPlaceID(ctx context.Context, placeID string) ([]models.Review, []models.Photo, error) {
	cutoff := g.now().AddDate(-reviewWindowYears, 0, 0)
	reviews, err := g.fetchReviews(ctx, placeID, cutoff)
	if err != nil {
		return nil, nil, err
	}
	photos, err := g.fetchPhotos(ctx, placeID)
	if err != nil {
		return nil, nil, err
	}
	return reviews, photos, nil
}
