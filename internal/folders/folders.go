package folders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hotelscout/internal/logging"
	"hotelscout/pkg/models"
)

var (
	ErrFolderNotFound     = errors.New("folder not found")
	ErrHotelNotFound      = errors.New("hotel not found in folder")
	ErrDuplicateHotel     = errors.New("hotel already saved in folder")
	ErrEnrichmentDisabled = errors.New("llm enrichment is not configured")
)

// FolderStore is the slice of the file store this service needs.
type FolderStore interface {
	LoadFolders() (models.FolderDocument, error)
	SaveFolders(doc models.FolderDocument) error
}

// HotelFetcher refetches reviews and photos for one saved hotel.
type HotelFetcher interface {
	FetchByPlaceID(ctx context.Context, placeID string) ([]models.Review, []models.Photo, error)
}

// Enricher is the pluggable LLM capability; a nil Enricher disables the
// enrichment path without touching anything else.
type Enricher interface {
	Summarize(ctx context.Context, hotelName string, reviews []models.Review) (string, error)
	LookupRoomCount(ctx context.Context, name, address string) (*int, error)
}

// Mirror pushes the persisted folders document to a remote host after a
// write. Mirror failures are never fatal; local state stays authoritative.
type Mirror interface {
	Push(ctx context.Context, content []byte) error
}

// Service manages the user-curated saved-folder collection. Every mutation
// persists the whole document before returning.
type Service struct {
	store    FolderStore
	fetcher  HotelFetcher
	enricher Enricher
	mirror   Mirror
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(store FolderStore, fetcher HotelFetcher, enricher Enricher, mirror Mirror, logger *logging.Logger) *Service {
	return &Service{
		store:    store,
		fetcher:  fetcher,
		enricher: enricher,
		mirror:   mirror,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) List() (models.FolderDocument, error) {
	return s.store.LoadFolders()
}

func (s *Service) CreateFolder(ctx context.Context, name string) (models.SavedFolder, error) {
	doc, err := s.store.LoadFolders()
	if err != nil {
		return models.SavedFolder{}, err
	}
	folder := models.SavedFolder{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: s.now(),
		Hotels:    []models.SavedHotel{},
	}
	doc.Folders = append(doc.Folders, folder)
	if err := s.save(ctx, doc); err != nil {
		return models.SavedFolder{}, err
	}
	return folder, nil
}

func (s *Service) DeleteFolder(ctx context.Context, folderID string) error {
	doc, err := s.store.LoadFolders()
	if err != nil {
		return err
	}
	kept := doc.Folders[:0]
	found := false
	for _, f := range doc.Folders {
		if f.ID == folderID {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return ErrFolderNotFound
	}
	doc.Folders = kept
	return s.save(ctx, doc)
}

// AddHotel appends a hotel to a folder. Adding a hotel whose platform id is
// already present is rejected before anything is persisted, so the stored
// document is untouched.
func (s *Service) AddHotel(ctx context.Context, folderID string, hotel models.SavedHotel) (models.SavedHotel, error) {
	doc, err := s.store.LoadFolders()
	if err != nil {
		return models.SavedHotel{}, err
	}
	folder := findFolder(&doc, folderID)
	if folder == nil {
		return models.SavedHotel{}, ErrFolderNotFound
	}
	for _, h := range folder.Hotels {
		if h.PlaceID == hotel.PlaceID {
			return models.SavedHotel{}, ErrDuplicateHotel
		}
	}
	hotel.SavedAt = s.now()
	folder.Hotels = append(folder.Hotels, hotel)
	if err := s.save(ctx, doc); err != nil {
		return models.SavedHotel{}, err
	}
	return hotel, nil
}

func (s *Service) RemoveHotel(ctx context.Context, folderID, placeID string) error {
	doc, err := s.store.LoadFolders()
	if err != nil {
		return err
	}
	folder := findFolder(&doc, folderID)
	if folder == nil {
		return ErrFolderNotFound
	}
	kept := folder.Hotels[:0]
	found := false
	for _, h := range folder.Hotels {
		if h.PlaceID == placeID {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	if !found {
		return ErrHotelNotFound
	}
	folder.Hotels = kept
	return s.save(ctx, doc)
}

// RefreshHotel refetches reviews and photos for one saved hotel and stamps
// LastFetched. Existing enrichment results in the cache are kept.
func (s *Service) RefreshHotel(ctx context.Context, folderID, placeID string) (models.SavedHotel, error) {
	doc, err := s.store.LoadFolders()
	if err != nil {
		return models.SavedHotel{}, err
	}
	folder, hotel := findHotel(&doc, folderID, placeID)
	if folder == nil {
		return models.SavedHotel{}, ErrFolderNotFound
	}
	if hotel == nil {
		return models.SavedHotel{}, ErrHotelNotFound
	}

	reviews, photos, err := s.fetcher.FetchByPlaceID(ctx, placeID)
	if err != nil {
		return models.SavedHotel{}, fmt.Errorf("refresh hotel %s: %w", placeID, err)
	}

	if hotel.CachedData == nil {
		hotel.CachedData = &models.HotelCache{}
	}
	hotel.CachedData.Reviews = reviews
	hotel.CachedData.Photos = photos
	hotel.LastFetched = s.now()

	if err := s.save(ctx, doc); err != nil {
		return models.SavedHotel{}, err
	}
	return *hotel, nil
}

// EnrichHotel runs the LLM enrichment for one saved hotel: room-count
// lookup plus a sentiment summary of its cached reviews.
func (s *Service) EnrichHotel(ctx context.Context, folderID, placeID string) (models.SavedHotel, error) {
	if s.enricher == nil {
		return models.SavedHotel{}, ErrEnrichmentDisabled
	}
	doc, err := s.store.LoadFolders()
	if err != nil {
		return models.SavedHotel{}, err
	}
	folder, hotel := findHotel(&doc, folderID, placeID)
	if folder == nil {
		return models.SavedHotel{}, ErrFolderNotFound
	}
	if hotel == nil {
		return models.SavedHotel{}, ErrHotelNotFound
	}

	if hotel.CachedData == nil {
		hotel.CachedData = &models.HotelCache{}
	}

	rooms, err := s.enricher.LookupRoomCount(ctx, hotel.Name, hotel.Address)
	if err != nil {
		return models.SavedHotel{}, fmt.Errorf("room count lookup: %w", err)
	}
	if rooms != nil {
		hotel.CachedData.RoomCount = rooms
	}

	if len(hotel.CachedData.Reviews) > 0 {
		summary, err := s.enricher.Summarize(ctx, hotel.Name, hotel.CachedData.Reviews)
		if err != nil {
			return models.SavedHotel{}, fmt.Errorf("sentiment summary: %w", err)
		}
		hotel.CachedData.SentimentSummary = summary
	}

	if err := s.save(ctx, doc); err != nil {
		return models.SavedHotel{}, err
	}
	return *hotel, nil
}

// save persists the document, then mirrors it. A failed mirror push only
// logs a warning.
func (s *Service) save(ctx context.Context, doc models.FolderDocument) error {
	if err := s.store.SaveFolders(doc); err != nil {
		return err
	}
	if s.mirror != nil {
		b, err := json.MarshalIndent(doc, "", "  ")
		if err == nil {
			err = s.mirror.Push(ctx, b)
		}
		if err != nil {
			s.logger.Warn("folders mirror push failed: %v", err)
		}
	}
	return nil
}

func findFolder(doc *models.FolderDocument, folderID string) *models.SavedFolder {
	for i := range doc.Folders {
		if doc.Folders[i].ID == folderID {
			return &doc.Folders[i]
		}
	}
	return nil
}

func findHotel(doc *models.FolderDocument, folderID, placeID string) (*models.SavedFolder, *models.SavedHotel) {
	folder := findFolder(doc, folderID)
	if folder == nil {
		return nil, nil
	}
	for i := range folder.Hotels {
		if folder.Hotels[i].PlaceID == placeID {
			return folder, &folder.Hotels[i]
		}
	}
	return folder, nil
}
