package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

const speciesCollection = "species"

// SpeciesRepository is the read-mostly species catalog.
type SpeciesRepository interface {
	ListSpecies(ctx context.Context) ([]models.Species, error)
	GetSpecies(ctx context.Context, id int64) (models.Species, error)
	SearchSpecies(ctx context.Context, keyword string) ([]models.Species, error)
	FindSpeciesByLabel(ctx context.Context, label string) (models.Species, error)
	PutSpecies(ctx context.Context, entries []models.Species) (int, error)
}

var _ SpeciesRepository = (*MongoDBRepository)(nil)

// ListSpecies returns the whole catalog ordered by id.
func (r *MongoDBRepository) ListSpecies(ctx context.Context) ([]models.Species, error) {
	return r.findSpecies(ctx, bson.M{})
}

// GetSpecies loads one catalog entry.
func (r *MongoDBRepository) GetSpecies(ctx context.Context, id int64) (models.Species, error) {
	var entry models.Species
	err := r.collection(speciesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Species{}, ErrNotFound
	}
	if err != nil {
		return models.Species{}, fmt.Errorf("find species %d: %w", id, err)
	}
	return entry, nil
}

// SearchSpecies matches keyword anywhere in the Korean or English label,
// ignoring case.
func (r *MongoDBRepository) SearchSpecies(ctx context.Context, keyword string) ([]models.Species, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
	return r.findSpecies(ctx, bson.M{"$or": bson.A{
		bson.M{"ai_label_ko": pattern},
		bson.M{"ai_label_en": pattern},
	}})
}

// FindSpeciesByLabel returns the entry whose label or latin name equals
// label, ignoring case.
func (r *MongoDBRepository) FindSpeciesByLabel(ctx context.Context, label string) (models.Species, error) {
	pattern := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(label) + "$", Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"ai_label_en": pattern},
		bson.M{"ai_label_ko": pattern},
		bson.M{"latin_name": pattern},
	}}

	var entry models.Species
	err := r.collection(speciesCollection).FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Species{}, ErrNotFound
	}
	if err != nil {
		return models.Species{}, fmt.Errorf("find species %q: %w", label, err)
	}
	return entry, nil
}

// PutSpecies upserts catalog entries by id and returns how many were written.
func (r *MongoDBRepository) PutSpecies(ctx context.Context, entries []models.Species) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	writes := make([]mongo.WriteModel, 0, len(entries))
	for _, entry := range entries {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": entry.ID}).
			SetReplacement(entry).
			SetUpsert(true))
	}

	res, err := r.collection(speciesCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("upsert species: %w", err)
	}
	return int(res.UpsertedCount + res.MatchedCount), nil
}

func (r *MongoDBRepository) findSpecies(ctx context.Context, filter bson.M) ([]models.Species, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection(speciesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find species: %w", err)
	}

	entries := []models.Species{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode species: %w", err)
	}
	return entries, nil
}
