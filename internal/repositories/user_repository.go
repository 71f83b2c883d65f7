package repositories

import (
	"context"

	"github.com/meshvault/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetPublicByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.PublicUser, error)
	List(ctx context.Context, opts ListOptions) ([]models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddFavorite(ctx context.Context, id, modelID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, id, modelID primitive.ObjectID) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// GetByID retrieves a user by ID
func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetPublicByIDs retrieves the public projection (name, avatar) of every user
// in ids, keyed by ID. Used to populate owners on documents.
func (r *MongoUserRepository) GetPublicByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.PublicUser, error) {
	result := make(map[primitive.ObjectID]*models.PublicUser)
	if len(ids) == 0 {
		return result, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1, "avatar": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.PublicUser
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}

// List retrieves users with pagination and sorting
func (r *MongoUserRepository) List(ctx context.Context, opts ListOptions) ([]models.User, error) {
	var users []models.User
	cursor, err := r.collection.Find(ctx, bson.M{}, opts.find())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// Update applies a partial $set update to a user
func (r *MongoUserRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user by ID
func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFavorite adds a model reference to the user's favorites list
func (r *MongoUserRepository) AddFavorite(ctx context.Context, id, modelID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$addToSet": bson.M{"favorites": modelID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveFavorite removes a model reference from the user's favorites list
func (r *MongoUserRepository) RemoveFavorite(ctx context.Context, id, modelID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"favorites": modelID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
