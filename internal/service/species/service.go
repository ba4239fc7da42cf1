package species

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/repository/mongodb"
)

var (
	// ErrNotFound is returned when a catalog entry does not exist.
	ErrNotFound = errors.New("species not found")
	// ErrInvalidQuery is returned for an empty search keyword.
	ErrInvalidQuery = errors.New("invalid species query")
)

// Store is the catalog persistence the service depends on.
type Store interface {
	ListSpecies(ctx context.Context) ([]models.Species, error)
	GetSpecies(ctx context.Context, id int64) (models.Species, error)
	SearchSpecies(ctx context.Context, keyword string) ([]models.Species, error)
	FindSpeciesByLabel(ctx context.Context, label string) (models.Species, error)
	PutSpecies(ctx context.Context, entries []models.Species) (int, error)
}

// Service exposes the reference catalog of houseplant species.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a catalog service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]models.Species, error) {
	entries, err := s.store.ListSpecies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list species: %w", err)
	}
	return entries, nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id int64) (models.Species, error) {
	entry, err := s.store.GetSpecies(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return models.Species{}, ErrNotFound
	}
	if err != nil {
		return models.Species{}, fmt.Errorf("get species %d: %w", id, err)
	}
	return entry, nil
}

// Search matches the keyword against the Korean and English labels.
func (s *Service) Search(ctx context.Context, keyword string) ([]models.Species, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: a keyword is required", ErrInvalidQuery)
	}
	entries, err := s.store.SearchSpecies(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("search species %q: %w", keyword, err)
	}
	return entries, nil
}

// WateringDays returns the catalog watering interval of the first label that
// matches an entry with one, or 0. Lookup failures are logged and yield 0.
func (s *Service) WateringDays(ctx context.Context, labels ...string) int {
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		entry, err := s.store.FindSpeciesByLabel(ctx, label)
		if errors.Is(err, mongodb.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("species lookup failed", zap.String("label", label), zap.Error(err))
			return 0
		}
		if entry.WateringDays > 0 {
			s.logger.Debug("watering interval from catalog",
				zap.String("label", label),
				zap.Int64("species_id", entry.ID),
				zap.Int("days", entry.WateringDays))
			return entry.WateringDays
		}
	}
	return 0
}

// Seed upserts catalog entries. Entries without an id or a classifier label
// cannot be matched and are skipped.
func (s *Service) Seed(ctx context.Context, entries []models.Species) (int, error) {
	usable := make([]models.Species, 0, len(entries))
	for _, entry := range entries {
		if entry.ID <= 0 || !entry.Labeled() {
			continue
		}
		usable = append(usable, entry)
	}

	n, err := s.store.PutSpecies(ctx, usable)
	if err != nil {
		return 0, fmt.Errorf("seed species: %w", err)
	}
	s.logger.Info("species catalog seeded", zap.Int("written", n), zap.Int("skipped", len(entries)-len(usable)))
	return n, nil
}
