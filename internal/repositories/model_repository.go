package repositories

import (
	"context"
	"time"

	"github.com/meshvault/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ModelRepository defines the interface for 3D model data operations
type ModelRepository interface {
	Create(ctx context.Context, model *models.Model) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Model, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Model, error)
	List(ctx context.Context, opts ListOptions) ([]models.Model, error)
	ListFeatured(ctx context.Context) ([]models.Model, error)
	ListByCategory(ctx context.Context, category string) ([]models.Model, error)
	ListByTag(ctx context.Context, tag string) ([]models.Model, error)
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementDownloadCount(ctx context.Context, id primitive.ObjectID) (int, error)
	IncrementViewCount(ctx context.Context, id primitive.ObjectID) (int, error)
}

// MongoModelRepository implements ModelRepository for MongoDB
type MongoModelRepository struct {
	collection *mongo.Collection
}

// NewMongoModelRepository creates a new MongoModelRepository
func NewMongoModelRepository(db *mongo.Database) *MongoModelRepository {
	return &MongoModelRepository{collection: db.Collection("models")}
}

// Create inserts a new model
func (r *MongoModelRepository) Create(ctx context.Context, model *models.Model) error {
	model.ID = primitive.NewObjectID()
	model.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, model)
	return err
}

// GetByID retrieves a model by ID
func (r *MongoModelRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Model, error) {
	var model models.Model
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&model)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &model, nil
}

// GetByIDs retrieves all models whose IDs are in the given list
func (r *MongoModelRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Model, error) {
	if len(ids) == 0 {
		return []models.Model{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// List retrieves models with pagination and sorting
func (r *MongoModelRepository) List(ctx context.Context, opts ListOptions) ([]models.Model, error) {
	return r.find(ctx, bson.M{}, opts.find())
}

// ListFeatured retrieves all featured models
func (r *MongoModelRepository) ListFeatured(ctx context.Context) ([]models.Model, error) {
	return r.find(ctx, bson.M{"featured": true}, nil)
}

// ListByCategory retrieves all models in a category
func (r *MongoModelRepository) ListByCategory(ctx context.Context, category string) ([]models.Model, error) {
	return r.find(ctx, bson.M{"category": category}, nil)
}

// ListByTag retrieves all models carrying a tag
func (r *MongoModelRepository) ListByTag(ctx context.Context, tag string) ([]models.Model, error) {
	return r.find(ctx, bson.M{"tags": tag}, nil)
}

func (r *MongoModelRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Model, error) {
	var result []models.Model
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = []models.Model{}
	}
	return result, nil
}

// Update applies a partial $set update to a model
func (r *MongoModelRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a model by ID
func (r *MongoModelRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementDownloadCount atomically increments the download counter and
// returns the new value
func (r *MongoModelRepository) IncrementDownloadCount(ctx context.Context, id primitive.ObjectID) (int, error) {
	return r.increment(ctx, id, "downloadCount")
}

// IncrementViewCount atomically increments the view counter and returns the
// new value
func (r *MongoModelRepository) IncrementViewCount(ctx context.Context, id primitive.ObjectID) (int, error) {
	return r.increment(ctx, id, "viewCount")
}

func (r *MongoModelRepository) increment(ctx context.Context, id primitive.ObjectID, field string) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var model models.Model
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: 1}}, opts).Decode(&model)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if field == "downloadCount" {
		return model.DownloadCount, nil
	}
	return model.ViewCount, nil
}
