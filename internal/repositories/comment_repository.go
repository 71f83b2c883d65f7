package repositories

import (
	"context"
	"time"

	"github.com/meshvault/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	List(ctx context.Context, opts ListOptions) ([]models.Comment, error)
	ListTopLevelByModelID(ctx context.Context, modelID primitive.ObjectID) ([]models.Comment, error)
	ListByParentID(ctx context.Context, parentID primitive.ObjectID) ([]models.Comment, error)
	ListByTutorialID(ctx context.Context, tutorialID primitive.ObjectID) ([]models.Comment, error)
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByModelID(ctx context.Context, modelID primitive.ObjectID) error
	DeleteByParentID(ctx context.Context, parentID primitive.ObjectID) error
	DeleteByTutorialID(ctx context.Context, tutorialID primitive.ObjectID) error
	AddLike(ctx context.Context, id, userID primitive.ObjectID) error
	RemoveLike(ctx context.Context, id, userID primitive.ObjectID) error
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// Create inserts a new comment
func (r *MongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	if comment.Likes == nil {
		comment.Likes = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

// GetByID retrieves a comment by ID
func (r *MongoCommentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// List retrieves comments with pagination and sorting
func (r *MongoCommentRepository) List(ctx context.Context, opts ListOptions) ([]models.Comment, error) {
	var comments []models.Comment
	cursor, err := r.collection.Find(ctx, bson.M{}, opts.find())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// ListTopLevelByModelID retrieves a model's comments that are not replies
func (r *MongoCommentRepository) ListTopLevelByModelID(ctx context.Context, modelID primitive.ObjectID) ([]models.Comment, error) {
	return r.find(ctx, bson.M{"model": modelID, "parent": bson.M{"$exists": false}})
}

// ListByParentID retrieves the replies of a comment
func (r *MongoCommentRepository) ListByParentID(ctx context.Context, parentID primitive.ObjectID) ([]models.Comment, error) {
	return r.find(ctx, bson.M{"parent": parentID})
}

// ListByTutorialID retrieves comments filed under a tutorial key. See
// DeleteByTutorialID: nothing writes that key, so this comes back empty.
func (r *MongoCommentRepository) ListByTutorialID(ctx context.Context, tutorialID primitive.ObjectID) ([]models.Comment, error) {
	return r.find(ctx, bson.M{"tutorial": tutorialID})
}

func (r *MongoCommentRepository) find(ctx context.Context, filter bson.M) ([]models.Comment, error) {
	var comments []models.Comment
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// Update applies a partial $set update to a comment
func (r *MongoCommentRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a comment by ID
func (r *MongoCommentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByModelID removes every comment targeting a model
func (r *MongoCommentRepository) DeleteByModelID(ctx context.Context, modelID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"model": modelID})
	return err
}

// DeleteByParentID removes every reply of a comment
func (r *MongoCommentRepository) DeleteByParentID(ctx context.Context, parentID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"parent": parentID})
	return err
}

// DeleteByTutorialID removes comments filed under a tutorial key. Comments are
// only ever written against models, so this matches nothing today; the delete
// is kept so a tutorial removal clears any legacy documents.
func (r *MongoCommentRepository) DeleteByTutorialID(ctx context.Context, tutorialID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"tutorial": tutorialID})
	return err
}

// AddLike adds a user reference to the comment's likes list
func (r *MongoCommentRepository) AddLike(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$addToSet": bson.M{"likes": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveLike removes a user reference from the comment's likes list
func (r *MongoCommentRepository) RemoveLike(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"likes": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
