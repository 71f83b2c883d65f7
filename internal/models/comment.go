package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment represents a comment on a model. Replies are comments whose parent
// field points at another comment; nesting stops at one level.
type Comment struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Text      string               `json:"text" bson:"text"`
	User      primitive.ObjectID   `json:"user" bson:"user"`
	Model     primitive.ObjectID   `json:"model" bson:"model"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Parent    *primitive.ObjectID  `json:"parent,omitempty" bson:"parent,omitempty"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
}

// HasLike reports whether userID is in the likes list
func (c *Comment) HasLike(userID primitive.ObjectID) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// PopulatedComment is a comment with its owner and replies resolved
type PopulatedComment struct {
	Comment
	User    *PublicUser        `json:"user"`
	Replies []PopulatedComment `json:"replies,omitempty"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// UpdateCommentRequest defines the request body for updating an existing comment
type UpdateCommentRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}
