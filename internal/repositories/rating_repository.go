package repositories

import (
	"context"
	"math"
	"time"

	"github.com/meshvault/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RatingRepository defines the interface for rating data operations
type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Rating, error)
	List(ctx context.Context, opts ListOptions) ([]models.Rating, error)
	ListByModelID(ctx context.Context, modelID primitive.ObjectID) ([]models.Rating, error)
	FindByUserAndModel(ctx context.Context, userID, modelID primitive.ObjectID) (*models.Rating, error)
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByModelID(ctx context.Context, modelID primitive.ObjectID) error
	RecalculateAverage(ctx context.Context, modelID primitive.ObjectID) error
}

// MongoRatingRepository implements RatingRepository for MongoDB. It holds the
// models collection too, since the average-rating recompute writes the
// materialized value onto the model document.
type MongoRatingRepository struct {
	collection *mongo.Collection
	modelsColl *mongo.Collection
}

// NewMongoRatingRepository creates a new MongoRatingRepository
func NewMongoRatingRepository(db *mongo.Database) *MongoRatingRepository {
	return &MongoRatingRepository{
		collection: db.Collection("ratings"),
		modelsColl: db.Collection("models"),
	}
}

// Create inserts a new rating. A duplicate (model, user) pair is reported as
// ErrDuplicate via the unique compound index.
func (r *MongoRatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	rating.ID = primitive.NewObjectID()
	rating.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, rating)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID retrieves a rating by ID
func (r *MongoRatingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Rating, error) {
	var rating models.Rating
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rating)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rating, nil
}

// List retrieves ratings with pagination and sorting
func (r *MongoRatingRepository) List(ctx context.Context, opts ListOptions) ([]models.Rating, error) {
	var ratings []models.Rating
	cursor, err := r.collection.Find(ctx, bson.M{}, opts.find())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &ratings); err != nil {
		return nil, err
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	return ratings, nil
}

// ListByModelID retrieves all ratings for a model
func (r *MongoRatingRepository) ListByModelID(ctx context.Context, modelID primitive.ObjectID) ([]models.Rating, error) {
	var ratings []models.Rating
	cursor, err := r.collection.Find(ctx, bson.M{"model": modelID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &ratings); err != nil {
		return nil, err
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	return ratings, nil
}

// FindByUserAndModel retrieves a user's rating of a model, if any
func (r *MongoRatingRepository) FindByUserAndModel(ctx context.Context, userID, modelID primitive.ObjectID) (*models.Rating, error) {
	var rating models.Rating
	err := r.collection.FindOne(ctx, bson.M{"user": userID, "model": modelID}).Decode(&rating)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rating, nil
}

// Update applies a partial $set update to a rating
func (r *MongoRatingRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a rating by ID
func (r *MongoRatingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByModelID removes every rating targeting a model
func (r *MongoRatingRepository) DeleteByModelID(ctx context.Context, modelID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"model": modelID})
	return err
}

// RecalculateAverage aggregates the mean rating of a model, rounds it to one
// decimal place and writes it onto the model document. When no ratings
// remain the field is unset rather than written as zero. The model document
// is never the source of truth for this value.
func (r *MongoRatingRepository) RecalculateAverage(ctx context.Context, modelID primitive.ObjectID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"model": modelID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$model",
			"averageRating": bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var results []struct {
		AverageRating float64 `bson:"averageRating"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return err
	}

	if len(results) == 0 {
		_, err = r.modelsColl.UpdateOne(ctx, bson.M{"_id": modelID}, bson.M{"$unset": bson.M{"averageRating": ""}})
		return err
	}

	average := math.Round(results[0].AverageRating*10) / 10
	_, err = r.modelsColl.UpdateOne(ctx, bson.M{"_id": modelID}, bson.M{"$set": bson.M{"averageRating": average}})
	return err
}
