package source

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"hotelscout/pkg/models"
)

// Fetcher produces one SourceRecord for one property. Implementations never
// return an error: every failure is caught at the property boundary and
// converted into an error-tagged record so one property cannot abort a batch.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, prop models.Property) models.SourceRecord
}

// failedRecord builds the canonical failure record: error message set,
// empty (non-nil) review/photo slices, no other fields populated.
func failedRecord(propertyID int, src string, now time.Time, err error) models.SourceRecord {
	return models.SourceRecord{
		PropertyID: propertyID,
		Source:     src,
		FetchedAt:  now,
		Reviews:    []models.Review{},
		Photos:     []models.Photo{},
		Error:      err.Error(),
	}
}

// parseFloat converts a platform numeric that may arrive as a JSON number
// or a string. Invalid or missing values become nil, never an error.
func parseFloat(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// parseInt converts a platform count that may arrive as a JSON number or a
// string like "1,234 reviews". Invalid or missing values become nil.
func parseInt(v interface{}) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case json.Number:
		if i64, err := n.Int64(); err == nil {
			i := int(i64)
			return &i
		}
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if cut := strings.IndexByte(s, ' '); cut > 0 {
			s = s[:cut]
		}
		if i, err := strconv.Atoi(s); err == nil {
			return &i
		}
	}
	return nil
}

// asString returns v when it is a string, otherwise "".
func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
