package mongodb

import (
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/repository"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/metrics"
)

const generationsCollection = "generations"

type MongoGenerationRepo struct {
	col *mongo.Collection
}

var _ repository.GenerationRepository = (*MongoGenerationRepo)(nil)

func NewMongoGenerationRepo(db *mongo.Database) *MongoGenerationRepo {
	return &MongoGenerationRepo{
		col: db.Collection(generationsCollection),
	}
}

// EnsureIndexes creates the lookup and ordering indexes used by the repo.
func (r *MongoGenerationRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{bson.E{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		metrics.IncError("mongo_generation_repo", "index_error")
	}
	return err
}

func (r *MongoGenerationRepo) Save(ctx context.Context, g *entity.Generation) error {
	metrics.IncHistoryOp("put")

	_, err := r.col.InsertOne(ctx, g)
	if err != nil {
		metrics.IncError("mongo_generation_repo", "save_error")
		return err
	}
	return nil
}

func (r *MongoGenerationRepo) GetByID(ctx context.Context, id string) (*entity.Generation, error) {
	metrics.IncHistoryOp("get")

	var g entity.Generation
	err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrGenerationNotFound
		}
		metrics.IncError("mongo_generation_repo", "get_error")
		return nil, err
	}
	return &g, nil
}

func (r *MongoGenerationRepo) List(ctx context.Context, limit int) ([]*entity.Generation, error) {
	metrics.IncHistoryOp("list")

	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		metrics.IncError("mongo_generation_repo", "list_error")
		return nil, err
	}
	defer func() {
		err := cur.Close(ctx)
		if err != nil {
			log.Printf("close cursor err: %s", err)
		}
	}()

	generations := make([]*entity.Generation, 0, limit)
	for cur.Next(ctx) {
		var g entity.Generation
		if err := cur.Decode(&g); err != nil {
			metrics.IncError("mongo_generation_repo", "list_decode_error")
			return nil, err
		}
		generations = append(generations, &g)
	}
	if err := cur.Err(); err != nil {
		metrics.IncError("mongo_generation_repo", "list_cursor_error")
		return nil, err
	}
	return generations, nil
}
