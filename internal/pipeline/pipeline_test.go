package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hotelscout/internal/logging"
	"hotelscout/internal/store"
	"hotelscout/pkg/models"
)

// stubFetcher returns canned records and can fail specific property ids.
type stubFetcher struct {
	name    string
	label   string
	failIDs map[int]bool
	fetched []int
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Fetch(ctx context.Context, prop models.Property) models.SourceRecord {
	f.fetched = append(f.fetched, prop.ID)
	if f.failIDs[prop.ID] {
		return models.SourceRecord{
			PropertyID: prop.ID,
			Source:     f.name,
			FetchedAt:  time.Now(),
			Reviews:    []models.Review{},
			Photos:     []models.Photo{},
			Error:      "no results",
		}
	}
	return models.SourceRecord{
		PropertyID: prop.ID,
		Source:     f.name,
		FetchedAt:  time.Now(),
		Name:       fmt.Sprintf("%s %d", f.label, prop.ID),
		Reviews:    []models.Review{},
		Photos:     []models.Photo{},
	}
}

// countingStore wraps the file store to count persist calls.
type countingStore struct {
	*store.FileStore
	saves int
}

func (c *countingStore) SaveSourceIndex(source string, idx map[int]models.SourceRecord) error {
	c.saves++
	return c.FileStore.SaveSourceIndex(source, idx)
}

func testProps(n int) []models.Property {
	props := make([]models.Property, 0, n)
	for i := 1; i <= n; i++ {
		props = append(props, models.Property{ID: i, Name: fmt.Sprintf("Hotel %d", i)})
	}
	return props
}

func newRunner(t *testing.T) (*Runner, *countingStore) {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cs := &countingStore{FileStore: fs}
	return NewRunner(cs, logging.NewNop()), cs
}

func TestRunSourcePersistsAfterEveryProperty(t *testing.T) {
	runner, cs := newRunner(t)
	fetcher := &stubFetcher{name: models.SourceGoogle, label: "run1"}

	succeeded, err := runner.RunSource(context.Background(), fetcher, testProps(3))
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if succeeded != 3 {
		t.Fatalf("succeeded = %d, want 3", succeeded)
	}
	if cs.saves != 3 {
		t.Fatalf("persisted %d times, want once per property", cs.saves)
	}

	idx, err := cs.LoadSourceIndex(models.SourceGoogle)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx) != 3 {
		t.Fatalf("stored %d records, want 3", len(idx))
	}
}

func TestRunSourceFailureIsolation(t *testing.T) {
	runner, cs := newRunner(t)
	fetcher := &stubFetcher{name: models.SourceGoogle, label: "run1", failIDs: map[int]bool{2: true}}

	succeeded, err := runner.RunSource(context.Background(), fetcher, testProps(3))
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if succeeded != 2 {
		t.Fatalf("succeeded = %d, want 2", succeeded)
	}
	if len(fetcher.fetched) != 3 {
		t.Fatalf("fetched %v, a failed property must not stop the batch", fetcher.fetched)
	}

	idx, _ := cs.LoadSourceIndex(models.SourceGoogle)
	if idx[2].Error == "" {
		t.Fatal("failed property must be stored as an error-tagged record")
	}
	if idx[1].Error != "" || idx[3].Error != "" {
		t.Fatal("other properties must be unaffected")
	}
}

// Interrupting a run partway and rerunning leaves re-processed properties
// with the second run's data and never-reached properties with the first
// run's data.
func TestRunSourceResume(t *testing.T) {
	runner, cs := newRunner(t)

	first := &stubFetcher{name: models.SourceGoogle, label: "run1"}
	if _, err := runner.RunSource(context.Background(), first, testProps(3)); err != nil {
		t.Fatal(err)
	}

	// Second run interrupted after property 1: modeled by running over the
	// prefix it managed to process.
	second := &stubFetcher{name: models.SourceGoogle, label: "run2"}
	if _, err := runner.RunSource(context.Background(), second, testProps(1)); err != nil {
		t.Fatal(err)
	}

	idx, err := cs.LoadSourceIndex(models.SourceGoogle)
	if err != nil {
		t.Fatal(err)
	}
	if idx[1].Name != "run2 1" {
		t.Fatalf("property 1 = %q, want second run's data", idx[1].Name)
	}
	if idx[2].Name != "run1 2" || idx[3].Name != "run1 3" {
		t.Fatalf("unreached properties changed: %+v", idx)
	}
}

func TestRunSourceSequentialOrder(t *testing.T) {
	runner, _ := newRunner(t)
	fetcher := &stubFetcher{name: models.SourceTripadvisor, label: "run"}

	if _, err := runner.RunSource(context.Background(), fetcher, testProps(4)); err != nil {
		t.Fatal(err)
	}
	for i, id := range fetcher.fetched {
		if id != i+1 {
			t.Fatalf("fetch order = %v, want property-list order", fetcher.fetched)
		}
	}
}

func TestRunSourceStopsOnCancelledContext(t *testing.T) {
	runner, _ := newRunner(t)
	fetcher := &stubFetcher{name: models.SourceGoogle, label: "run"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.RunSource(ctx, fetcher, testProps(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(fetcher.fetched) != 0 {
		t.Fatalf("fetched %v after cancellation", fetcher.fetched)
	}
}
