package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tutorial represents a learning article stored in MongoDB
type Tutorial struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title         string               `json:"title" bson:"title"`
	Slug          string               `json:"slug" bson:"slug"`
	Description   string               `json:"description" bson:"description"`
	Content       string               `json:"content" bson:"content"`
	Thumbnail     string               `json:"thumbnail" bson:"thumbnail"`
	Category      string               `json:"category" bson:"category"`
	Tags          []string             `json:"tags" bson:"tags"`
	Difficulty    string               `json:"difficulty" bson:"difficulty"`
	Duration      int                  `json:"duration" bson:"duration"`
	RelatedModels []primitive.ObjectID `json:"relatedModels" bson:"relatedModels"`
	User          primitive.ObjectID   `json:"user" bson:"user"`
	Featured      bool                 `json:"featured" bson:"featured"`
	Published     bool                 `json:"published" bson:"published"`
	ViewCount     int                  `json:"viewCount" bson:"viewCount"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
}

// PopulatedTutorial is a tutorial with its owner and relations resolved
type PopulatedTutorial struct {
	Tutorial
	User          *PublicUser        `json:"user"`
	RelatedModels []Model            `json:"relatedModels"`
	Comments      []PopulatedComment `json:"comments"`
}

// TutorialWithOwner is a tutorial with only the owner resolved
type TutorialWithOwner struct {
	Tutorial
	User *PublicUser `json:"user"`
}

// CreateTutorialRequest defines the request body for creating a new tutorial
type CreateTutorialRequest struct {
	Title         string   `json:"title" validate:"required,max=100"`
	Description   string   `json:"description" validate:"required,max=500"`
	Content       string   `json:"content" validate:"required"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	Category      string   `json:"category" validate:"required,oneof=beginner intermediate advanced modeling texturing animation rigging rendering other"`
	Tags          []string `json:"tags" validate:"required,min=1,dive,required"`
	Difficulty    string   `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	Duration      int      `json:"duration" validate:"required,min=1"`
	RelatedModels []string `json:"relatedModels,omitempty" validate:"omitempty,dive,required"`
	Published     *bool    `json:"published,omitempty"`
}

// UpdateTutorialRequest defines the request body for updating an existing tutorial
type UpdateTutorialRequest struct {
	Title         string   `json:"title,omitempty" validate:"omitempty,max=100"`
	Description   string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Content       string   `json:"content,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	Category      string   `json:"category,omitempty" validate:"omitempty,oneof=beginner intermediate advanced modeling texturing animation rigging rendering other"`
	Tags          []string `json:"tags,omitempty" validate:"omitempty,min=1,dive,required"`
	Difficulty    string   `json:"difficulty,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration      *int     `json:"duration,omitempty" validate:"omitempty,min=1"`
	RelatedModels []string `json:"relatedModels,omitempty" validate:"omitempty,dive,required"`
	Featured      *bool    `json:"featured,omitempty"`
	Published     *bool    `json:"published,omitempty"`
}
