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

// TutorialRepository defines the interface for tutorial data operations
type TutorialRepository interface {
	Create(ctx context.Context, tutorial *models.Tutorial) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tutorial, error)
	List(ctx context.Context, opts ListOptions) ([]models.Tutorial, error)
	ListFeatured(ctx context.Context) ([]models.Tutorial, error)
	ListByCategory(ctx context.Context, category string) ([]models.Tutorial, error)
	ListByDifficulty(ctx context.Context, difficulty string) ([]models.Tutorial, error)
	ListByTag(ctx context.Context, tag string) ([]models.Tutorial, error)
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementViewCount(ctx context.Context, id primitive.ObjectID) (int, error)
}

// MongoTutorialRepository implements TutorialRepository for MongoDB
type MongoTutorialRepository struct {
	collection *mongo.Collection
}

// NewMongoTutorialRepository creates a new MongoTutorialRepository
func NewMongoTutorialRepository(db *mongo.Database) *MongoTutorialRepository {
	return &MongoTutorialRepository{collection: db.Collection("tutorials")}
}

// Create inserts a new tutorial. A duplicate title is reported as
// ErrDuplicate via the unique title index.
func (r *MongoTutorialRepository) Create(ctx context.Context, tutorial *models.Tutorial) error {
	tutorial.ID = primitive.NewObjectID()
	tutorial.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, tutorial)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID retrieves a tutorial by ID
func (r *MongoTutorialRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tutorial, error) {
	var tutorial models.Tutorial
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tutorial)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tutorial, nil
}

// List retrieves tutorials with pagination and sorting
func (r *MongoTutorialRepository) List(ctx context.Context, opts ListOptions) ([]models.Tutorial, error) {
	return r.find(ctx, bson.M{}, opts.find())
}

// ListFeatured retrieves all featured, published tutorials
func (r *MongoTutorialRepository) ListFeatured(ctx context.Context) ([]models.Tutorial, error) {
	return r.find(ctx, bson.M{"featured": true, "published": true}, nil)
}

// ListByCategory retrieves all published tutorials in a category
func (r *MongoTutorialRepository) ListByCategory(ctx context.Context, category string) ([]models.Tutorial, error) {
	return r.find(ctx, bson.M{"category": category, "published": true}, nil)
}

// ListByDifficulty retrieves all published tutorials at a difficulty level
func (r *MongoTutorialRepository) ListByDifficulty(ctx context.Context, difficulty string) ([]models.Tutorial, error) {
	return r.find(ctx, bson.M{"difficulty": difficulty, "published": true}, nil)
}

// ListByTag retrieves all published tutorials carrying a tag
func (r *MongoTutorialRepository) ListByTag(ctx context.Context, tag string) ([]models.Tutorial, error) {
	return r.find(ctx, bson.M{"tags": tag, "published": true}, nil)
}

func (r *MongoTutorialRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Tutorial, error) {
	var tutorials []models.Tutorial
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

	if err = cursor.All(ctx, &tutorials); err != nil {
		return nil, err
	}
	if tutorials == nil {
		tutorials = []models.Tutorial{}
	}
	return tutorials, nil
}

// Update applies a partial $set update to a tutorial
func (r *MongoTutorialRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a tutorial by ID
func (r *MongoTutorialRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViewCount atomically increments the view counter and returns the
// new value
func (r *MongoTutorialRepository) IncrementViewCount(ctx context.Context, id primitive.ObjectID) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var tutorial models.Tutorial
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"viewCount": 1}}, opts).Decode(&tutorial)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return tutorial.ViewCount, nil
}
