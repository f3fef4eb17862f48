package merge

import (
	"time"

	"hotelscout/pkg/models"
)

// Build joins the two per-source indexes against the canonical property
// list. Output is in property-list order, one record per property, with nil
// for a source that has no entry; absence is never an error. Success counts
// cover records that are present and not error-tagged.
func Build(props []models.Property, google, tripadvisor map[int]models.SourceRecord, now time.Time) ([]models.PortfolioRecord, models.Metadata) {
	records := make([]models.PortfolioRecord, 0, len(props))
	meta := models.Metadata{
		LastFetch:     now,
		PropertyCount: len(props),
	}

	for _, p := range props {
		rec := models.PortfolioRecord{
			ID:      p.ID,
			Name:    p.Name,
			Brand:   p.Brand,
			City:    p.City,
			State:   p.State,
			Address: p.Address,
		}
		if g, ok := google[p.ID]; ok {
			rec.Google = &g
			if !g.Failed() {
				meta.GoogleSuccess++
			}
		}
		if t, ok := tripadvisor[p.ID]; ok {
			rec.Tripadvisor = &t
			if !t.Failed() {
				meta.TripadvisorSuccess++
			}
		}
		records = append(records, rec)
	}
	return records, meta
}
