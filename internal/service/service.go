package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hotelscout/internal/folders"
	"hotelscout/internal/logging"
	"hotelscout/internal/merge"
	"hotelscout/internal/pipeline"
	"hotelscout/internal/source"
	"hotelscout/pkg/models"
)

// BatchStore is the slice of the file store the service reads and writes.
type BatchStore interface {
	LoadSourceIndex(source string) (map[int]models.SourceRecord, error)
	SaveSourceIndex(source string, idx map[int]models.SourceRecord) error
	SavePortfolio(records []models.PortfolioRecord) error
	SaveMetadata(meta models.Metadata) error
	RawPortfolio() ([]byte, bool, error)
	RawMetadata() ([]byte, bool, error)
	RawSource(source string) ([]byte, bool, error)
}

// HotelSearcher is the interactive free-text lookup used by the dashboard.
type HotelSearcher interface {
	SearchHotels(ctx context.Context, query string, limit int) ([]models.SavedHotel, error)
}

// Service ties the batch pipeline, merge, folder curation and the refresh
// job together behind one facade for the API and CLI layers.
type Service struct {
	store       BatchStore
	runner      *pipeline.Runner
	google      source.Fetcher
	tripadvisor source.Fetcher
	searcher    HotelSearcher
	folders     *folders.Service
	props       []models.Property
	logger      *logging.Logger

	mu  sync.Mutex
	job models.RefreshJob
}

func New(store BatchStore, runner *pipeline.Runner, google, tripadvisor source.Fetcher, searcher HotelSearcher, folderSvc *folders.Service, props []models.Property, logger *logging.Logger) *Service {
	return &Service{
		store:       store,
		runner:      runner,
		google:      google,
		tripadvisor: tripadvisor,
		searcher:    searcher,
		folders:     folderSvc,
		props:       props,
		logger:      logger,
		job:         models.RefreshJob{Status: models.JobIdle},
	}
}

// Folders exposes the saved-folder service.
func (s *Service) Folders() *folders.Service { return s.folders }

// RunBatch executes the whole pipeline synchronously: both sources in
// sequence over the full property list, then the merge.
func (s *Service) RunBatch(ctx context.Context) error {
	if _, err := s.runner.RunSource(ctx, s.google, s.props); err != nil {
		return fmt.Errorf("google pipeline: %w", err)
	}
	if _, err := s.runner.RunSource(ctx, s.tripadvisor, s.props); err != nil {
		return fmt.Errorf("tripadvisor pipeline: %w", err)
	}
	return s.RunMerge(ctx)
}

// RunSourceByName runs one source's pipeline only, without merging.
func (s *Service) RunSourceByName(ctx context.Context, name string) (int, error) {
	switch name {
	case models.SourceGoogle:
		return s.runner.RunSource(ctx, s.google, s.props)
	case models.SourceTripadvisor:
		return s.runner.RunSource(ctx, s.tripadvisor, s.props)
	}
	return 0, fmt.Errorf("unknown source %q", name)
}

// RunMerge rebuilds the portfolio and metadata files from the two source
// result files and the property list. Missing result files degrade to
// empty source views, never an error.
func (s *Service) RunMerge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	googleIdx, err := s.store.LoadSourceIndex(models.SourceGoogle)
	if err != nil {
		return fmt.Errorf("load google results: %w", err)
	}
	taIdx, err := s.store.LoadSourceIndex(models.SourceTripadvisor)
	if err != nil {
		return fmt.Errorf("load tripadvisor results: %w", err)
	}

	records, meta := merge.Build(s.props, googleIdx, taIdx, time.Now())
	if err := s.store.SavePortfolio(records); err != nil {
		return fmt.Errorf("write portfolio: %w", err)
	}
	if err := s.store.SaveMetadata(meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	s.logger.Info("merged %d properties (google %d ok, tripadvisor %d ok)",
		meta.PropertyCount, meta.GoogleSuccess, meta.TripadvisorSuccess)
	return nil
}

// StartRefresh kicks off the batch pipeline in the background and returns
// the job snapshot immediately. The second return is false when a refresh
// is already running; callers poll RefreshStatus for completion.
func (s *Service) StartRefresh() (models.RefreshJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job.Status == models.JobRunning {
		return s.job, false
	}
	now := time.Now()
	s.job = models.RefreshJob{Status: models.JobRunning, StartedAt: &now}

	go s.runRefresh()
	return s.job, true
}

func (s *Service) runRefresh() {
	err := s.RunBatch(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.job.FinishedAt = &now
	if err != nil {
		s.logger.Error("background refresh failed: %v", err)
		s.job.Status = models.JobFailed
		s.job.Error = err.Error()
		return
	}
	s.job.Status = models.JobDone
}

// RefreshStatus returns the current refresh job snapshot.
func (s *Service) RefreshStatus() models.RefreshJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// Portfolio returns the portfolio file verbatim.
func (s *Service) Portfolio() ([]byte, bool, error) { return s.store.RawPortfolio() }

// Metadata returns the metadata file verbatim.
func (s *Service) Metadata() ([]byte, bool, error) { return s.store.RawMetadata() }

// SourceResults returns a per-source result file verbatim.
func (s *Service) SourceResults(src string) ([]byte, bool, error) { return s.store.RawSource(src) }

// SearchHotels runs the interactive single-hotel lookup.
func (s *Service) SearchHotels(ctx context.Context, query string, limit int) ([]models.SavedHotel, error) {
	return s.searcher.SearchHotels(ctx, query, limit)
}
