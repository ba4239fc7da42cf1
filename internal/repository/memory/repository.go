// Package memory is an in-process store used for local development
// (MONGODB_URI=memory://) and by service tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/repository/mongodb"
)

// Repository keeps plants, watering logs, metadata and the species catalog
// in maps.
type Repository struct {
	mu        sync.RWMutex
	plants    map[int64]models.Plant
	waterings []models.WateringEvent
	metadata  map[string]models.Metadata
	species   map[int64]models.Species
	seq       int64
	now       func() time.Time

	// FailReads and FailWrites make every read or write return an error.
	FailReads  bool
	FailWrites bool
}

var errInjected = errors.New("memory store unavailable")

var _ mongodb.Repository = (*Repository)(nil)

// NewRepository returns an empty store.
func NewRepository() *Repository {
	return &Repository{
		plants:   map[int64]models.Plant{},
		metadata: map[string]models.Metadata{},
		species:  map[int64]models.Species{},
		now:      time.Now,
	}
}

func (r *Repository) readErr() error {
	if r.FailReads {
		return errInjected
	}
	return nil
}

func (r *Repository) writeErr() error {
	if r.FailWrites {
		return errInjected
	}
	return nil
}

// Get returns one plant or mongodb.ErrNotFound.
func (r *Repository) Get(_ context.Context, id int64) (models.Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.readErr(); err != nil {
		return models.Plant{}, err
	}
	p, ok := r.plants[id]
	if !ok {
		return models.Plant{}, mongodb.ErrNotFound
	}
	return p, nil
}

// List returns every plant, newest first.
func (r *Repository) List(_ context.Context) ([]models.Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.readErr(); err != nil {
		return nil, err
	}
	out := make([]models.Plant, 0, len(r.plants))
	for _, p := range r.plants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Put upserts a plant, allocating an id when it has none.
func (r *Repository) Put(_ context.Context, plant models.Plant) (models.Plant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeErr(); err != nil {
		return models.Plant{}, err
	}
	if plant.ID == 0 {
		r.seq++
		plant.ID = r.seq
	} else if plant.ID > r.seq {
		r.seq = plant.ID
	}
	now := r.now().UTC()
	if plant.CreatedAt.IsZero() {
		plant.CreatedAt = now
	}
	plant.UpdatedAt = now
	plant.Favorite = false
	r.plants[plant.ID] = plant
	return plant, nil
}

// Delete removes a plant.
func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeErr(); err != nil {
		return err
	}
	if _, ok := r.plants[id]; !ok {
		return mongodb.ErrNotFound
	}
	delete(r.plants, id)
	return nil
}

// AppendWatering saves one watering log row.
func (r *Repository) AppendWatering(_ context.Context, event models.WateringEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeErr(); err != nil {
		return err
	}
	r.waterings = append(r.waterings, event)
	return nil
}

// ListWaterings returns the log rows of a plant on or after since, newest first.
func (r *Repository) ListWaterings(_ context.Context, plantID int64, since time.Time) ([]models.WateringEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.readErr(); err != nil {
		return nil, err
	}
	var out []models.WateringEvent
	for _, ev := range r.waterings {
		if ev.PlantID == plantID && !ev.Date.Before(since) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// DeleteWaterings drops the log of a plant.
func (r *Repository) DeleteWaterings(_ context.Context, plantID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeErr(); err != nil {
		return err
	}
	kept := r.waterings[:0]
	for _, ev := range r.waterings {
		if ev.PlantID != plantID {
			kept = append(kept, ev)
		}
	}
	r.waterings = kept
	return nil
}

// GetMetadata returns the overlay of a user, empty when none is stored.
func (r *Repository) GetMetadata(_ context.Context, userID string) (models.Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.readErr(); err != nil {
		return models.Metadata{}, err
	}
	meta, ok := r.metadata[userID]
	if !ok {
		return models.Metadata{UserID: userID, Plants: map[string]models.PlantMeta{}}, nil
	}
	plants := make(map[string]models.PlantMeta, len(meta.Plants))
	for k, v := range meta.Plants {
		plants[k] = v
	}
	meta.Plants = plants
	return meta, nil
}

// PutMetadata replaces the overlay of a user.
func (r *Repository) PutMetadata(_ context.Context, meta models.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeErr(); err != nil {
		return err
	}
	if meta.UserID == "" {
		return errors.New("metadata user id must not be empty")
	}
	plants := make(map[string]models.PlantMeta, len(meta.Plants))
	for k, v := range meta.Plants {
		plants[k] = v
	}
	meta.Plants = plants
	r.metadata[meta.UserID] = meta
	return nil
}

// Ping always succeeds unless reads are failing.
func (r *Repository) Ping(_ context.Context) error {
	return r.readErr()
}

// Close is a no-op.
func (r *Repository) Close(_ context.Context) error {
	return nil
}
