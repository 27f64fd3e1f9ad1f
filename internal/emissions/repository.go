package emissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores emission records and their summaries
type Repository interface {
	InsertRecord(ctx context.Context, record *Record) error
	Latest(ctx context.Context, limit int) ([]Record, error)
	Historical(ctx context.Context, mineID string, since time.Time) ([]Record, error)
	Monthly(ctx context.Context) ([]MonthlySummary, error)
	ReplaceMonthly(ctx context.Context, docs []MonthlySummary) (int, error)
	Overall(ctx context.Context) (*OverallSummary, error)
	ReplaceOverall(ctx context.Context, doc *OverallSummary) error
}

type mongoRepository struct {
	records  *mongo.Collection
	monthly  *mongo.Collection
	averages *mongo.Collection
}

// NewMongoRepository creates a repository over db's emission collections
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		records:  db.Collection(CollectionRecords),
		monthly:  db.Collection(CollectionMonthly),
		averages: db.Collection(CollectionAverages),
	}
}

// EnsureIndexes creates the record lookup indexes if they are missing
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionRecords).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "mine_id", Value: 1}, {Key: "date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create emission indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) InsertRecord(ctx context.Context, record *Record) error {
	res, err := r.records.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert emission record: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		record.ID = id
	}
	return nil
}

func (r *mongoRepository) Latest(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(limit))
	return findAll[Record](ctx, r.records, bson.D{}, opts)
}

func (r *mongoRepository) Historical(ctx context.Context, mineID string, since time.Time) ([]Record, error) {
	filter := bson.D{
		{Key: "mine_id", Value: mineID},
		{Key: "date", Value: bson.D{{Key: "$gte", Value: since}}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	return findAll[Record](ctx, r.records, filter, opts)
}

func (r *mongoRepository) Monthly(ctx context.Context) ([]MonthlySummary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	return findAll[MonthlySummary](ctx, r.monthly, bson.D{}, opts)
}

// ReplaceMonthly clears the monthly collection and inserts docs
func (r *mongoRepository) ReplaceMonthly(ctx context.Context, docs []MonthlySummary) (int, error) {
	if _, err := r.monthly.DeleteMany(ctx, bson.D{}); err != nil {
		return 0, fmt.Errorf("failed to clear monthly summaries: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := make([]interface{}, len(docs))
	for i := range docs {
		docs[i].ID = primitive.NilObjectID
		batch[i] = docs[i]
	}
	res, err := r.monthly.InsertMany(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to insert monthly summaries: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// Overall returns the single averages document, or nil when none exists
func (r *mongoRepository) Overall(ctx context.Context) (*OverallSummary, error) {
	var doc OverallSummary
	err := r.averages.FindOne(ctx, bson.D{}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read overall averages: %w", err)
	}
	return &doc, nil
}

// ReplaceOverall overwrites the single averages document
func (r *mongoRepository) ReplaceOverall(ctx context.Context, doc *OverallSummary) error {
	replacement := bson.D{
		{Key: "average_emissions_ppm", Value: doc.Averages},
		{Key: "ingested_at", Value: doc.IngestedAt},
	}
	_, err := r.averages.ReplaceOne(ctx, bson.D{}, replacement, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to replace overall averages: %w", err)
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}
