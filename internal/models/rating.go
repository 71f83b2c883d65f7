package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating represents a user's rating of a model. A compound unique index on
// (model, user) keeps ratings to one per user per model.
type Rating struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Rating    int                `json:"rating" bson:"rating"`
	Review    string             `json:"review,omitempty" bson:"review,omitempty"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	Model     primitive.ObjectID `json:"model" bson:"model"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// PopulatedRating is a rating with its owner resolved
type PopulatedRating struct {
	Rating
	User *PublicUser `json:"user"`
}

// CreateRatingRequest defines the request body for creating a new rating
type CreateRatingRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review,omitempty" validate:"omitempty,max=500"`
}

// UpdateRatingRequest defines the request body for updating an existing rating
type UpdateRatingRequest struct {
	Rating int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Review string `json:"review,omitempty" validate:"omitempty,max=500"`
}
