package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sentinel errors shared by all repositories
var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document")
)

// ListOptions carries pagination and sorting for top-level list queries
type ListOptions struct {
	Skip  int64
	Limit int64
	Sort  string // field name, prefix with "-" for descending
}

func (o ListOptions) find() *options.FindOptions {
	opts := options.Find()
	if o.Skip > 0 {
		opts.SetSkip(o.Skip)
	}
	if o.Limit > 0 {
		opts.SetLimit(o.Limit)
	}
	field, dir := "createdAt", -1
	if o.Sort != "" {
		field, dir = o.Sort, 1
		if field[0] == '-' {
			field, dir = field[1:], -1
		}
	}
	opts.SetSort(bson.D{{Key: field, Value: dir}})
	return opts
}

// EnsureIndexes creates the indexes the collections rely on: the unique
// (model, user) pair on ratings and the unique title on tutorials.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("ratings").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "model", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("tutorials").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
