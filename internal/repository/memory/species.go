package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/repository/mongodb"
)

var _ mongodb.SpeciesRepository = (*Repository)(nil)

// ListSpecies returns the catalog ordered by id.
func (r *Repository) ListSpecies(_ context.Context) ([]models.Species, error) {
	return r.filterSpecies(func(models.Species) bool { return true })
}

// GetSpecies returns one entry or mongodb.ErrNotFound.
func (r *Repository) GetSpecies(_ context.Context, id int64) (models.Species, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.readErr(); err != nil {
		return models.Species{}, err
	}
	entry, ok := r.species[id]
	if !ok {
		return models.Species{}, mongodb.ErrNotFound
	}
	return entry, nil
}

// SearchSpecies matches keyword anywhere in either label, ignoring case.
func (r *Repository) SearchSpecies(_ context.Context, keyword string) ([]models.Species, error) {
	needle := strings.ToLower(keyword)
	return r.filterSpecies(func(s models.Species) bool {
		return strings.Contains(strings.ToLower(s.LabelKo), needle) ||
			strings.Contains(strings.ToLower(s.LabelEn), needle)
	})
}

// FindSpeciesByLabel returns the lowest-id entry whose label or latin name
// equals label, ignoring case.
func (r *Repository) FindSpeciesByLabel(_ context.Context, label string) (models.Species, error) {
	matches, err := r.filterSpecies(func(s models.Species) bool {
		return strings.EqualFold(s.LabelEn, label) ||
			strings.EqualFold(s.LabelKo, label) ||
			strings.EqualFold(s.LatinName, label)
	})
	if err != nil {
		return models.Species{}, err
	}
	if len(matches) == 0 {
		return models.Species{}, mongodb.ErrNotFound
	}
	return matches[0], nil
}

// PutSpecies upserts catalog entries by id.
func (r *Repository) PutSpecies(_ context.Context, entries []models.Species) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeErr(); err != nil {
		return 0, err
	}
	for _, entry := range entries {
		r.species[entry.ID] = entry
	}
	return len(entries), nil
}

func (r *Repository) filterSpecies(keep func(models.Species) bool) ([]models.Species, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.readErr(); err != nil {
		return nil, err
	}
	out := []models.Species{}
	for _, entry := range r.species {
		if keep(entry) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
