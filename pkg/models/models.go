package models

import "time"

// Source names used throughout the fetch pipeline and the persisted files.
const (
	SourceGoogle      = "google"
	SourceTripadvisor = "tripadvisor"
)

// Property is one hotel from the static property list. The list is input
// config: this system never creates or mutates properties.
type Property struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Brand            string `json:"brand"`
	City             string `json:"city"`
	State            string `json:"state"`
	Address          string `json:"address"`
	GoogleQuery      string `json:"google_query"`
	TripadvisorQuery string `json:"tripadvisor_query"`
}

// SearchQuery returns the free-text identity query for the given source,
// falling back to "name city state" when no per-source query is configured.
func (p Property) SearchQuery(source string) string {
	switch source {
	case SourceGoogle:
		if p.GoogleQuery != "" {
			return p.GoogleQuery
		}
	case SourceTripadvisor:
		if p.TripadvisorQuery != "" {
			return p.TripadvisorQuery
		}
	}
	return p.Name + " " + p.City + " " + p.State
}

// SourceRecord is the normalized per-property, per-source fetch result.
// Either Error is set (and Reviews/Photos are empty, all optional fields
// zero) or Error is empty and the record carries whatever the platform
// returned; missing platform fields stay null.
type SourceRecord struct {
	PropertyID int       `json:"propertyId"`
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetchedAt"`

	PlaceID string `json:"placeId,omitempty"`
	URL     string `json:"url,omitempty"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`

	Rating      *float64 `json:"rating"`
	ReviewCount *int     `json:"numReviews"`

	// PriceLevel is google-only; Subratings is tripadvisor-only.
	PriceLevel string             `json:"priceLevel,omitempty"`
	Subratings map[string]float64 `json:"subratings,omitempty"`

	Reviews []Review `json:"reviews"`
	Photos  []Photo  `json:"photos"`

	Error string `json:"error,omitempty"`
}

// Failed reports whether this record represents a failed fetch.
func (r SourceRecord) Failed() bool { return r.Error != "" }

// Review is the common shape both platforms normalize into.
type Review struct {
	Author       string   `json:"author"`
	AuthorURL    string   `json:"authorUrl,omitempty"`
	Rating       *float64 `json:"rating"`
	Text         string   `json:"text"`
	PublishedAt  string   `json:"publishedAt,omitempty"`
	RelativeDate string   `json:"relativeDate,omitempty"`
	HelpfulVotes *int     `json:"helpfulVotes,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Photo is a platform photo descriptor with resolution-keyed image URLs.
type Photo struct {
	ID      string            `json:"id"`
	Caption string            `json:"caption,omitempty"`
	URLs    map[string]string `json:"urls"`
	Source  string            `json:"source,omitempty"`
}

// PortfolioRecord is the merge output: one per property, in property-list
// order. A nil source pointer serializes as JSON null, never a missing key.
type PortfolioRecord struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Brand   string `json:"brand"`
	City    string `json:"city"`
	State   string `json:"state"`
	Address string `json:"address"`

	Google      *SourceRecord `json:"google"`
	Tripadvisor *SourceRecord `json:"tripadvisor"`
}

// Metadata summarizes the most recent batch run.
type Metadata struct {
	LastFetch          time.Time `json:"lastFetch"`
	PropertyCount      int       `json:"propertyCount"`
	GoogleSuccess      int       `json:"googleSuccess"`
	TripadvisorSuccess int       `json:"taSuccess"`
}

// SavedFolder is a user-curated collection of hotels, independent of the
// static property list.
type SavedFolder struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"createdAt"`
	Hotels    []SavedHotel `json:"hotels"`
}

// SavedHotel is one hotel inside a folder, with its on-demand cache.
type SavedHotel struct {
	PlaceID     string      `json:"placeId"`
	Name        string      `json:"name"`
	Address     string      `json:"address,omitempty"`
	Rating      *float64    `json:"rating"`
	ReviewCount *int        `json:"numReviews"`
	CachedData  *HotelCache `json:"cachedData,omitempty"`
	SavedAt     time.Time   `json:"savedAt"`
	LastFetched time.Time   `json:"lastFetched"`
}

// HotelCache holds on-demand fetch and enrichment results for a saved hotel.
type HotelCache struct {
	Reviews          []Review      `json:"reviews,omitempty"`
	Photos           []Photo       `json:"photos,omitempty"`
	Tripadvisor      *SourceRecord `json:"tripadvisor,omitempty"`
	RoomCount        *int          `json:"roomCount,omitempty"`
	SentimentSummary string        `json:"sentimentSummary,omitempty"`
}

// FolderDocument is the persisted saved-folders file.
type FolderDocument struct {
	Folders []SavedFolder `json:"folders"`
}

// JobStatus is the lifecycle state of a background refresh.
type JobStatus string

const (
	JobIdle    JobStatus = "idle"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// RefreshJob is the status record for the asynchronous batch refresh.
type RefreshJob struct {
	Status     JobStatus  `json:"status"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
}
