package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Model represents a 3D asset stored in MongoDB
type Model struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Slug          string             `json:"slug" bson:"slug"`
	Description   string             `json:"description" bson:"description"`
	FilePath      string             `json:"filePath" bson:"filePath"`
	FileFormat    string             `json:"fileFormat" bson:"fileFormat"`
	Thumbnail     string             `json:"thumbnail" bson:"thumbnail"`
	Category      string             `json:"category" bson:"category"`
	Tags          []string           `json:"tags" bson:"tags"`
	PolygonCount  int                `json:"polygonCount,omitempty" bson:"polygonCount,omitempty"`
	Textured      bool               `json:"textured" bson:"textured"`
	Animated      bool               `json:"animated" bson:"animated"`
	Rigged        bool               `json:"rigged" bson:"rigged"`
	User          primitive.ObjectID `json:"user" bson:"user"`
	AverageRating *float64           `json:"averageRating,omitempty" bson:"averageRating,omitempty"`
	Featured      bool               `json:"featured" bson:"featured"`
	DownloadCount int                `json:"downloadCount" bson:"downloadCount"`
	ViewCount     int                `json:"viewCount" bson:"viewCount"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// PopulatedModel is a model with its owner and reverse relations resolved
type PopulatedModel struct {
	Model
	User     *PublicUser        `json:"user"`
	Comments []PopulatedComment `json:"comments"`
	Ratings  []PopulatedRating  `json:"ratings"`
}

// ModelWithOwner is a model with only the owner resolved, used by list responses
type ModelWithOwner struct {
	Model
	User *PublicUser `json:"user"`
}

// CreateModelRequest defines the request body for creating a new model
type CreateModelRequest struct {
	Name         string   `json:"name" validate:"required,max=50"`
	Description  string   `json:"description" validate:"required,max=500"`
	FilePath     string   `json:"filePath" validate:"required"`
	FileFormat   string   `json:"fileFormat" validate:"required,oneof=glb gltf obj fbx stl other"`
	Thumbnail    string   `json:"thumbnail,omitempty"`
	Category     string   `json:"category" validate:"required,oneof=character environment vehicle architecture furniture animal plant prop other"`
	Tags         []string `json:"tags" validate:"required,min=1,dive,required"`
	PolygonCount int      `json:"polygonCount,omitempty" validate:"omitempty,min=0"`
	Textured     bool     `json:"textured,omitempty"`
	Animated     bool     `json:"animated,omitempty"`
	Rigged       bool     `json:"rigged,omitempty"`
}

// UpdateModelRequest defines the request body for updating an existing model
type UpdateModelRequest struct {
	Name         string   `json:"name,omitempty" validate:"omitempty,max=50"`
	Description  string   `json:"description,omitempty" validate:"omitempty,max=500"`
	FilePath     string   `json:"filePath,omitempty"`
	FileFormat   string   `json:"fileFormat,omitempty" validate:"omitempty,oneof=glb gltf obj fbx stl other"`
	Thumbnail    string   `json:"thumbnail,omitempty"`
	Category     string   `json:"category,omitempty" validate:"omitempty,oneof=character environment vehicle architecture furniture animal plant prop other"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,min=1,dive,required"`
	PolygonCount *int     `json:"polygonCount,omitempty" validate:"omitempty,min=0"`
	Textured     *bool    `json:"textured,omitempty"`
	Animated     *bool    `json:"animated,omitempty"`
	Rigged       *bool    `json:"rigged,omitempty"`
	Featured     *bool    `json:"featured,omitempty"`
}
