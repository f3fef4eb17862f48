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
	taReviewPageSize = 20
	// The travel platform has no reliable per-review timestamps for
	// windowing, so the pipeline captures the most recent N reviews via a
	// fixed page cap instead.
	taReviewPageCap = 5
	taPhotoLimit    = 30
)

// TripadvisorFetcher runs the per-property pipeline against the travel
// platform: location search, details with subratings, page-capped reviews,
// photos tagged by submitter type.
type TripadvisorFetcher struct {
	client *Client
	logger *logging.Logger
	now    func() time.Time
}

func NewTripadvisorFetcher(client *Client, logger *logging.Logger) *TripadvisorFetcher {
	return &TripadvisorFetcher{client: client, logger: logger, now: time.Now}
}

func (t *TripadvisorFetcher) Name() string { return models.SourceTripadvisor }

// Fetch produces exactly one SourceRecord and never returns an error; any
// step failure yields an error-tagged record for this property only.
func (t *TripadvisorFetcher) Fetch(ctx context.Context, prop models.Property) models.SourceRecord {
	rec, err := t.fetch(ctx, prop)
	if err != nil {
		t.logger.Debug("tripadvisor fetch failed for property %d (%s): %v", prop.ID, prop.Name, err)
		return failedRecord(prop.ID, models.SourceTripadvisor, t.now(), err)
	}
	return rec
}

func (t *TripadvisorFetcher) fetch(ctx context.Context, prop models.Property) (models.SourceRecord, error) {
	query := prop.SearchQuery(models.SourceTripadvisor)

	locationID, err := t.search(ctx, query)
	if err != nil {
		return models.SourceRecord{}, err
	}

	details, err := t.details(ctx, locationID)
	if err != nil {
		return models.SourceRecord{}, err
	}

	reviews, err := t.fetchReviews(ctx, locationID)
	if err != nil {
		return models.SourceRecord{}, err
	}

	photos, err := t.fetchPhotos(ctx, locationID)
	if err != nil {
		return models.SourceRecord{}, err
	}

	subratings := map[string]float64{}
	for name, raw := range details.Subratings {
		if f := parseFloat(raw); f != nil {
			subratings[name] = *f
		}
	}
	if len(subratings) == 0 {
		subratings = nil
	}

	return models.SourceRecord{
		PropertyID:  prop.ID,
		Source:      models.SourceTripadvisor,
		FetchedAt:   t.now(),
		PlaceID:     locationID,
		URL:         details.WebURL,
		Name:        details.Name,
		Address:     details.Address,
		Rating:      parseFloat(details.Rating),
		ReviewCount: parseInt(details.NumReviews),
		Subratings:  subratings,
		Reviews:     reviews,
		Photos:      photos,
	}, nil
}

func (t *TripadvisorFetcher) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("engine", "tripadvisor")
	params.Set("type", "search")
	params.Set("q", query)

	body, err := t.client.Get(ctx, params)
	if err != nil {
		return "", err
	}

	var resp struct {
		Results []struct {
			LocationID interface{} `json:"location_id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", Errorf(KindTransport, "parse search response: %v", err)
	}
	if len(resp.Results) == 0 {
		return "", Errorf(KindNotFound, "no results for query %q", query)
	}

	// location_id arrives as a number on some plans and a string on others.
	switch id := resp.Results[0].LocationID.(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case float64:
		return strconv.Itoa(int(id)), nil
	}
	return "", Errorf(KindTransport, "search result has no location id")
}

type taDetails struct {
	Name       string                 `json:"name"`
	Address    string                 `json:"address"`
	WebURL     string                 `json:"web_url"`
	Rating     interface{}            `json:"rating"`
	NumReviews interface{}            `json:"num_reviews"`
	Subratings map[string]interface{} `json:"subratings"`
}

func (t *TripadvisorFetcher) details(ctx context.Context, locationID string) (taDetails, error) {
	params := url.Values{}
	params.Set("engine", "tripadvisor")
	params.Set("type", "details")
	params.Set("location_id", locationID)

	body, err := t.client.Get(ctx, params)
	if err != nil {
		return taDetails{}, err
	}

	var resp struct {
		Details taDetails `json:"details"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return taDetails{}, Errorf(KindTransport, "parse details response: %v", err)
	}
	return resp.Details, nil
}

type taReview struct {
	Username      string      `json:"username"`
	Rating        interface{} `json:"rating"`
	Title         string      `json:"title"`
	Text          string      `json:"text"`
	PublishedDate string      `json:"published_date"`
	HelpfulVotes  interface{} `json:"helpful_votes"`
	URL           string      `json:"url"`
}

// fetchReviews captures the most recent reviews up to a fixed page cap,
// stopping early on a short or empty page.
func (t *TripadvisorFetcher) fetchReviews(ctx context.Context, locationID string) ([]models.Review, error) {
	out := []models.Review{}
	for page := 0; page < taReviewPageCap; page++ {
		params := url.Values{}
		params.Set("engine", "tripadvisor_reviews")
		params.Set("location_id", locationID)
		params.Set("offset", strconv.Itoa(page*taReviewPageSize))
		params.Set("limit", strconv.Itoa(taReviewPageSize))

		body, err := t.client.Get(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("reviews page %d: %w", page, err)
		}

		var resp struct {
			Reviews []taReview `json:"reviews"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, Errorf(KindTransport, "parse reviews response: %v", err)
		}
		if len(resp.Reviews) == 0 {
			break
		}

		for _, rv := range resp.Reviews {
			text := rv.Text
			if rv.Title != "" && text != "" {
				text = rv.Title + ": " + text
			} else if rv.Title != "" {
				text = rv.Title
			}
			out = append(out, models.Review{
				Author:       rv.Username,
				Rating:       parseFloat(rv.Rating),
				Text:         text,
				PublishedAt:  rv.PublishedDate,
				HelpfulVotes: parseInt(rv.HelpfulVotes),
				URL:          rv.URL,
			})
		}

		if len(resp.Reviews) < taReviewPageSize {
			break
		}
	}
	return out, nil
}

func (t *TripadvisorFetcher) fetchPhotos(ctx context.Context, locationID string) ([]models.Photo, error) {
	params := url.Values{}
	params.Set("engine", "tripadvisor_photos")
	params.Set("location_id", locationID)
	params.Set("limit", strconv.Itoa(taPhotoLimit))

	body, err := t.client.Get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Photos []struct {
			ID      interface{} `json:"id"`
			Caption string      `json:"caption"`
			Source  string      `json:"source"`
			Images  map[string]struct {
				URL string `json:"url"`
			} `json:"images"`
		} `json:"photos"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, Errorf(KindTransport, "parse photos response: %v", err)
	}

	photos := []models.Photo{}
	for i, p := range resp.Photos {
		if i >= taPhotoLimit {
			break
		}
		urls := map[string]string{}
		for size, img := range p.Images {
			if img.URL != "" {
				urls[size] = img.URL
			}
		}
		id := asString(p.ID)
		if id == "" {
			if n := parseInt(p.ID); n != nil {
				id = strconv.Itoa(*n)
			}
		}
		photos = append(photos, models.Photo{
			ID:      id,
			Caption: p.Caption,
			URLs:    urls,
			Source:  p.Source,
		})
	}
	return photos, nil
}
