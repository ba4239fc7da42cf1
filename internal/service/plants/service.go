package plants

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/cache"
	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/domain/watering"
	"github.com/mamadbah2/plantcare/internal/repository/mongodb"
	"github.com/mamadbah2/plantcare/pkg/clients/anthropic"
	"github.com/mamadbah2/plantcare/pkg/clients/classifier"
)

var (
	// ErrNotFound is returned when a plant does not exist or cannot be read.
	ErrNotFound = errors.New("plant not found")
	// ErrInvalidInput is returned for requests that cannot be applied.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream wraps failures of the classifier or advisor.
	ErrUpstream = errors.New("upstream service failed")
)

// Store is the persistence surface the service depends on.
type Store interface {
	Get(ctx context.Context, id int64) (models.Plant, error)
	List(ctx context.Context) ([]models.Plant, error)
	Put(ctx context.Context, plant models.Plant) (models.Plant, error)
	Delete(ctx context.Context, id int64) error

	AppendWatering(ctx context.Context, event models.WateringEvent) error
	ListWaterings(ctx context.Context, plantID int64, since time.Time) ([]models.WateringEvent, error)
	DeleteWaterings(ctx context.Context, plantID int64) error

	GetMetadata(ctx context.Context, userID string) (models.Metadata, error)
	PutMetadata(ctx context.Context, meta models.Metadata) error
}

// Classifier identifies species and leaf diseases from photos.
type Classifier interface {
	Classify(ctx context.Context, mode classifier.Mode, filename string, image io.Reader) (*classifier.Result, error)
}

// Advisor writes care notes. It is optional.
type Advisor interface {
	CareAdvice(ctx context.Context, req anthropic.CareRequest) (string, error)
}

// Catalog supplies reference watering intervals by species label. It is optional.
type Catalog interface {
	WateringDays(ctx context.Context, labels ...string) int
}

// Options carries the per-deployment settings of the service.
type Options struct {
	UserID   string
	Location *time.Location
	Catalog  Catalog
}

// Service implements the plant collection use cases.
type Service struct {
	store      Store
	classifier Classifier
	advisor    Advisor
	catalog    Catalog
	cache      *cache.PlantCache
	userID     string
	loc        *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a plant service. advisor may be nil.
func NewService(store Store, cls Classifier, advisor Advisor, plantCache *cache.PlantCache, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if plantCache == nil {
		plantCache = cache.NewPlantCache(0)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		store:      store,
		classifier: cls,
		advisor:    advisor,
		catalog:    opts.Catalog,
		cache:      plantCache,
		userID:     opts.UserID,
		loc:        opts.Location,
		logger:     logger,
		now:        time.Now,
	}
}

// Today is the current calendar day in the configured timezone.
func (s *Service) Today() time.Time {
	return watering.Day(s.now(), s.loc)
}

// RegisterRequest describes a new plant. Either SpeciesLabel or Photo is required.
type RegisterRequest struct {
	Nickname           string
	SpeciesLabel       string
	SpeciesLabelKo     string
	WateringPeriodDays int
	Filename           string
	Photo              io.Reader
}

// Register identifies (when needed) and stores a new plant. The watering
// interval comes from the request, then the classifier, then the species
// catalog. The plant starts with no watering on record, so it is due
// immediately.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (models.Plant, error) {
	plant := models.Plant{
		SpeciesLabel:   req.SpeciesLabel,
		SpeciesLabelKo: req.SpeciesLabelKo,
		Image:          req.Filename,
		Score:          models.DefaultScore,
	}
	period := req.WateringPeriodDays

	if plant.SpeciesLabel == "" && plant.SpeciesLabelKo == "" {
		if req.Photo == nil {
			return models.Plant{}, fmt.Errorf("%w: a photo or species label is required", ErrInvalidInput)
		}
		result, err := s.classifier.Classify(ctx, classifier.ModeSpecies, req.Filename, req.Photo)
		if err != nil {
			return models.Plant{}, fmt.Errorf("%w: identify species: %w", ErrUpstream, err)
		}
		plant.SpeciesLabel = result.Label
		plant.SpeciesLabelKo = result.LabelKo
		plant.Confidence = result.Confidence
		if period <= 0 {
			period = result.WateringDays
		}
	}

	if period <= 0 && s.catalog != nil {
		period = s.catalog.WateringDays(ctx, plant.SpeciesLabel, plant.SpeciesLabelKo)
	}

	plant.WateringPeriodDays = watering.NormalizePeriod(period)
	plant.Nickname = models.SanitizeNickname(req.Nickname)
	if plant.Nickname == "" {
		plant.Nickname = plant.DisplayName()
	}

	saved, err := s.store.Put(ctx, plant)
	if err != nil {
		return models.Plant{}, fmt.Errorf("save plant: %w", err)
	}
	s.cache.Invalidate()

	s.logger.Info("plant registered",
		zap.Int64("plant_id", saved.ID),
		zap.String("species", saved.SpeciesLabel),
		zap.Int("period_days", saved.WateringPeriodDays))
	return saved, nil
}

// List returns every plant with the favorite overlay applied. Unless force is
// set, a fresh cached list is returned without touching the store. A store
// failure yields an empty list.
func (s *Service) List(ctx context.Context, force bool) []models.Plant {
	now := s.now()
	if !force {
		if plants, ok := s.cache.Get(now); ok {
			return plants
		}
	}

	plants, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to load plants", zap.Error(err))
		return []models.Plant{}
	}

	meta := s.metadata(ctx)
	for i := range plants {
		plants[i] = applyMeta(plants[i], meta)
	}

	s.cache.Set(plants, now)
	return plants
}

// Get returns one plant. Store failures are reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (models.Plant, error) {
	plant, err := s.load(ctx, id)
	if err != nil {
		return models.Plant{}, err
	}
	return applyMeta(plant, s.metadata(ctx)), nil
}

// Update applies an edit and recomputes the next watering date.
func (s *Service) Update(ctx context.Context, id int64, patch models.PlantPatch) (models.Plant, error) {
	plant, err := s.load(ctx, id)
	if err != nil {
		return models.Plant{}, err
	}

	if patch.Nickname != nil {
		nickname := models.SanitizeNickname(*patch.Nickname)
		if nickname == "" {
			return models.Plant{}, fmt.Errorf("%w: nickname must not be empty", ErrInvalidInput)
		}
		plant.Nickname = nickname
	}
	if patch.WateringPeriodDays != nil {
		plant.WateringPeriodDays = watering.NormalizePeriod(*patch.WateringPeriodDays)
	}
	if patch.LastWatered != nil {
		last := watering.Day(*patch.LastWatered, s.loc)
		if last.After(s.Today()) {
			return models.Plant{}, fmt.Errorf("%w: last watered date is in the future", ErrInvalidInput)
		}
		plant.LastWatered = &last
	}
	if patch.Image != nil {
		plant.Image = *patch.Image
	}

	plant = watering.Reschedule(plant)

	saved, err := s.store.Put(ctx, plant)
	if err != nil {
		return models.Plant{}, fmt.Errorf("update plant %d: %w", id, err)
	}
	s.cache.Invalidate()

	return applyMeta(saved, s.metadata(ctx)), nil
}

// Delete removes a plant together with its watering log and metadata entry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete plant %d: %w", id, err)
	}
	s.cache.Invalidate()

	if err := s.store.DeleteWaterings(ctx, id); err != nil {
		s.logger.Warn("failed to drop watering log", zap.Int64("plant_id", id), zap.Error(err))
	}

	meta, err := s.loadMetadata(ctx)
	if err != nil {
		s.logger.Warn("failed to load metadata", zap.Error(err))
		return nil
	}
	key := metaKey(id)
	if _, ok := meta.Plants[key]; ok {
		delete(meta.Plants, key)
		if err := s.store.PutMetadata(ctx, meta); err != nil {
			s.logger.Warn("failed to drop plant metadata", zap.Int64("plant_id", id), zap.Error(err))
		}
	}

	s.logger.Info("plant deleted", zap.Int64("plant_id", id))
	return nil
}

// Water records a watering on today, updating the score and schedule.
func (s *Service) Water(ctx context.Context, id int64) (models.Plant, error) {
	plant, err := s.load(ctx, id)
	if err != nil {
		return models.Plant{}, err
	}

	today := s.Today()
	before := plant.Score
	plant = watering.RecordWatering(plant, today)

	saved, err := s.store.Put(ctx, plant)
	if err != nil {
		return models.Plant{}, fmt.Errorf("record watering for plant %d: %w", id, err)
	}
	s.cache.Invalidate()

	// The log is best effort once the plant is saved.
	if err := s.store.AppendWatering(ctx, models.WateringEvent{PlantID: id, Date: today}); err != nil {
		s.logger.Warn("failed to append watering log", zap.Int64("plant_id", id), zap.Error(err))
	}

	s.logger.Info("plant watered",
		zap.Int64("plant_id", id),
		zap.Int("score_before", before),
		zap.Int("score_after", saved.Score))
	return applyMeta(saved, s.metadata(ctx)), nil
}

// SetFavorite toggles the favorite flag of one plant.
func (s *Service) SetFavorite(ctx context.Context, id int64, favorite bool) (models.Plant, error) {
	plant, err := s.load(ctx, id)
	if err != nil {
		return models.Plant{}, err
	}

	meta, err := s.loadMetadata(ctx)
	if err != nil {
		return models.Plant{}, err
	}
	entry := meta.Plants[metaKey(id)]
	entry.Favorite = favorite
	meta.Plants[metaKey(id)] = entry

	if err := s.store.PutMetadata(ctx, meta); err != nil {
		return models.Plant{}, fmt.Errorf("save metadata: %w", err)
	}
	s.cache.Invalidate()

	plant.Favorite = favorite
	return plant, nil
}

// Due lists the plants that need water today.
func (s *Service) Due(ctx context.Context) []models.Plant {
	today := s.Today()
	due := []models.Plant{}
	for _, p := range s.List(ctx, false) {
		if watering.IsDue(p, today) {
			due = append(due, p)
		}
	}
	return due
}

// Calendar returns the due and watered markers of the whole collection.
func (s *Service) Calendar(ctx context.Context) []watering.Marker {
	return watering.CalendarMarkers(s.List(ctx, false))
}

// Diagnosis is the outcome of a leaf photo check.
type Diagnosis struct {
	Plant      models.Plant `json:"plant"`
	Label      string       `json:"label"`
	LabelKo    string       `json:"label_ko,omitempty"`
	Confidence float64      `json:"confidence"`
}

// Diagnose classifies a leaf photo and stores the detected condition on the plant.
func (s *Service) Diagnose(ctx context.Context, id int64, filename string, photo io.Reader) (Diagnosis, error) {
	if photo == nil {
		return Diagnosis{}, fmt.Errorf("%w: a leaf photo is required", ErrInvalidInput)
	}
	plant, err := s.load(ctx, id)
	if err != nil {
		return Diagnosis{}, err
	}

	result, err := s.classifier.Classify(ctx, classifier.ModeDisease, filename, photo)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("%w: diagnose plant %d: %w", ErrUpstream, id, err)
	}

	plant.Disease = result.Label
	if result.LabelKo != "" {
		plant.Disease = result.LabelKo
	}
	saved, err := s.store.Put(ctx, plant)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("save diagnosis for plant %d: %w", id, err)
	}
	s.cache.Invalidate()

	return Diagnosis{
		Plant:      applyMeta(saved, s.metadata(ctx)),
		Label:      result.Label,
		LabelKo:    result.LabelKo,
		Confidence: result.Confidence,
	}, nil
}

// Advice asks the advisor for a care note. temperature may be nil.
func (s *Service) Advice(ctx context.Context, id int64, temperature *float64) (string, error) {
	if s.advisor == nil {
		return "", anthropic.ErrDisabled
	}
	plant, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	species := plant.SpeciesLabel
	if species == "" {
		species = plant.SpeciesLabelKo
	}
	advice, err := s.advisor.CareAdvice(ctx, anthropic.CareRequest{
		Name:         plant.DisplayName(),
		Species:      species,
		Disease:      plant.Disease,
		PeriodDays:   watering.NormalizePeriod(plant.WateringPeriodDays),
		TemperatureC: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: care advice for plant %d: %w", ErrUpstream, id, err)
	}
	return advice, nil
}

// ImportResult summarises a legacy import.
type ImportResult struct {
	Imported []int64  `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Import ingests records in any of the historical field layouts. Records
// that cannot be normalized are skipped and reported.
func (s *Service) Import(ctx context.Context, records []map[string]any) (ImportResult, error) {
	result := ImportResult{Imported: []int64{}}
	favorites := map[int64]bool{}

	for i, raw := range records {
		plant, err := models.NormalizeNewRecord(raw)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		if plant.DisplayName() == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: no name or species", i))
			continue
		}

		if plant.ID != 0 {
			taken, err := s.idTaken(ctx, plant.ID)
			if err != nil {
				return result, fmt.Errorf("import record %d: %w", i, err)
			}
			if taken {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("record %d: id %d already exists", i, plant.ID))
				continue
			}
		}

		favorite := plant.Favorite
		plant = watering.Reschedule(plant)
		saved, err := s.store.Put(ctx, plant)
		if err != nil {
			return result, fmt.Errorf("import record %d: %w", i, err)
		}
		result.Imported = append(result.Imported, saved.ID)
		if favorite {
			favorites[saved.ID] = true
		}
	}
	s.cache.Invalidate()

	if len(favorites) > 0 {
		meta, err := s.loadMetadata(ctx)
		if err != nil {
			return result, err
		}
		for id := range favorites {
			meta.Plants[metaKey(id)] = models.PlantMeta{Favorite: true}
		}
		if err := s.store.PutMetadata(ctx, meta); err != nil {
			return result, fmt.Errorf("save metadata: %w", err)
		}
	}

	s.logger.Info("legacy import finished", zap.Int("imported", len(result.Imported)), zap.Int("skipped", result.Skipped))
	return result, nil
}

// idTaken reports whether a plant with the given id is already stored.
func (s *Service) idTaken(ctx context.Context, id int64) (bool, error) {
	_, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongodb.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("look up plant %d: %w", id, err)
	}
}

// Notifications returns the reminder preferences.
func (s *Service) Notifications(ctx context.Context) models.NotificationPrefs {
	return s.metadata(ctx).Notifications
}

// SetNotifications replaces the reminder preferences.
func (s *Service) SetNotifications(ctx context.Context, prefs models.NotificationPrefs) (models.NotificationPrefs, error) {
	if prefs.Enabled && prefs.Recipient == "" {
		return models.NotificationPrefs{}, fmt.Errorf("%w: a recipient is required to enable reminders", ErrInvalidInput)
	}
	meta, err := s.loadMetadata(ctx)
	if err != nil {
		return models.NotificationPrefs{}, err
	}
	meta.Notifications = prefs
	if err := s.store.PutMetadata(ctx, meta); err != nil {
		return models.NotificationPrefs{}, fmt.Errorf("save metadata: %w", err)
	}
	return prefs, nil
}

// Waterings returns the watering log of a plant since the given day.
func (s *Service) Waterings(ctx context.Context, id int64, since time.Time) ([]models.WateringEvent, error) {
	events, err := s.store.ListWaterings(ctx, id, since)
	if err != nil {
		return nil, fmt.Errorf("load watering log for plant %d: %w", id, err)
	}
	return events, nil
}

func (s *Service) load(ctx context.Context, id int64) (models.Plant, error) {
	plant, err := s.store.Get(ctx, id)
	if err == nil {
		return plant, nil
	}
	if !errors.Is(err, mongodb.ErrNotFound) {
		s.logger.Error("failed to load plant", zap.Int64("plant_id", id), zap.Error(err))
	}
	return models.Plant{}, ErrNotFound
}

// metadata is the lenient loader used on read paths.
func (s *Service) metadata(ctx context.Context) models.Metadata {
	meta, err := s.loadMetadata(ctx)
	if err != nil {
		s.logger.Warn("failed to load metadata", zap.Error(err))
		return models.Metadata{UserID: s.userID, Plants: map[string]models.PlantMeta{}}
	}
	return meta
}

func (s *Service) loadMetadata(ctx context.Context) (models.Metadata, error) {
	meta, err := s.store.GetMetadata(ctx, s.userID)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("load metadata: %w", err)
	}
	if meta.UserID == "" {
		meta.UserID = s.userID
	}
	if meta.Plants == nil {
		meta.Plants = map[string]models.PlantMeta{}
	}
	return meta, nil
}

func applyMeta(p models.Plant, meta models.Metadata) models.Plant {
	p.Favorite = meta.Plants[metaKey(p.ID)].Favorite
	return p
}

func metaKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
