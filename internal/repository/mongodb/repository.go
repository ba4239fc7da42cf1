package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

// ErrNotFound is returned when no document matches the requested id.
var ErrNotFound = errors.New("document not found")

const (
	plantsCollection   = "user_plants"
	wateringCollection = "watering_logs"
	metadataCollection = "metadata"
	countersCollection = "counters"
	plantSequence      = "user_plants"
)

// Repository defines the persistence operations used by the plant services.
type Repository interface {
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

var _ Repository = (*MongoDBRepository)(nil)

// MongoDBRepository implements Repository for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
	now    func() time.Time
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client: client,
		dbName: dbName,
		logger: logger,
		now:    time.Now,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure indexes", zap.Error(err))
	}

	return repo, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection(wateringCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "plant_id", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create watering index: %w", err)
	}
	return nil
}

// Get loads one plant and normalizes it.
func (r *MongoDBRepository) Get(ctx context.Context, id int64) (models.Plant, error) {
	var raw bson.M
	err := r.collection(plantsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Plant{}, ErrNotFound
	}
	if err != nil {
		return models.Plant{}, fmt.Errorf("find plant %d: %w", id, err)
	}

	plant, err := models.NormalizeRecord(raw)
	if err != nil {
		return models.Plant{}, fmt.Errorf("normalize plant %d: %w", id, err)
	}
	return plant, nil
}

// List returns every plant, newest first. Documents that cannot be
// normalized are logged and skipped.
func (r *MongoDBRepository) List(ctx context.Context) ([]models.Plant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection(plantsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find plants: %w", err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode plants: %w", err)
	}

	plants := make([]models.Plant, 0, len(docs))
	for _, doc := range docs {
		plant, err := models.NormalizeRecord(doc)
		if err != nil {
			r.logger.Warn("skip malformed plant document", zap.Any("id", doc["_id"]), zap.Error(err))
			continue
		}
		plants = append(plants, plant)
	}
	return plants, nil
}

// Put upserts a plant in canonical form, allocating an id when it has none.
func (r *MongoDBRepository) Put(ctx context.Context, plant models.Plant) (models.Plant, error) {
	if plant.ID == 0 {
		id, err := r.nextID(ctx)
		if err != nil {
			return models.Plant{}, err
		}
		plant.ID = id
	} else if err := r.raiseSequence(ctx, plant.ID); err != nil {
		return models.Plant{}, err
	}

	now := r.now().UTC()
	if plant.CreatedAt.IsZero() {
		plant.CreatedAt = now
	}
	plant.UpdatedAt = now

	_, err := r.collection(plantsCollection).ReplaceOne(ctx,
		bson.M{"_id": plant.ID},
		plant,
		options.Replace().SetUpsert(true))
	if err != nil {
		return models.Plant{}, fmt.Errorf("upsert plant %d: %w", plant.ID, err)
	}
	return plant, nil
}

// Delete removes a plant document.
func (r *MongoDBRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.collection(plantsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete plant %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoDBRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": plantSequence},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate plant id: %w", err)
	}
	return counter.Seq, nil
}

// raiseSequence keeps the counter at or above ids written by imports.
func (r *MongoDBRepository) raiseSequence(ctx context.Context, id int64) error {
	_, err := r.collection(countersCollection).UpdateOne(ctx,
		bson.M{"_id": plantSequence},
		bson.M{"$max": bson.M{"seq": id}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("raise plant sequence to %d: %w", id, err)
	}
	return nil
}

// AppendWatering saves one watering log row.
func (r *MongoDBRepository) AppendWatering(ctx context.Context, event models.WateringEvent) error {
	if _, err := r.collection(wateringCollection).InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert watering log: %w", err)
	}
	return nil
}

// ListWaterings returns the log rows of a plant on or after since, newest first.
func (r *MongoDBRepository) ListWaterings(ctx context.Context, plantID int64, since time.Time) ([]models.WateringEvent, error) {
	filter := bson.M{"plant_id": plantID, "date": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	cursor, err := r.collection(wateringCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find watering logs: %w", err)
	}

	var events []models.WateringEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode watering logs: %w", err)
	}
	for i := range events {
		events[i].Date = events[i].Date.UTC()
	}
	return events, nil
}

// DeleteWaterings drops the log of a deleted plant.
func (r *MongoDBRepository) DeleteWaterings(ctx context.Context, plantID int64) error {
	if _, err := r.collection(wateringCollection).DeleteMany(ctx, bson.M{"plant_id": plantID}); err != nil {
		return fmt.Errorf("delete watering logs: %w", err)
	}
	return nil
}

// GetMetadata loads the metadata of a user, returning an empty overlay when none is stored.
func (r *MongoDBRepository) GetMetadata(ctx context.Context, userID string) (models.Metadata, error) {
	meta := models.Metadata{UserID: userID, Plants: map[string]models.PlantMeta{}}

	err := r.collection(metadataCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&meta)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return meta, nil
	}
	if err != nil {
		return models.Metadata{}, fmt.Errorf("find metadata: %w", err)
	}
	if meta.Plants == nil {
		meta.Plants = map[string]models.PlantMeta{}
	}
	return meta, nil
}

// PutMetadata replaces the metadata of a user.
func (r *MongoDBRepository) PutMetadata(ctx context.Context, meta models.Metadata) error {
	if meta.UserID == "" {
		return errors.New("metadata user id must not be empty")
	}
	_, err := r.collection(metadataCollection).ReplaceOne(ctx,
		bson.M{"_id": meta.UserID},
		meta,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert metadata: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (r *MongoDBRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
