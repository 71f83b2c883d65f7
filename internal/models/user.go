package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleUser    = "user"
	RoleCreator = "creator"
	RoleAdmin   = "admin"
)

// User represents a registered account
type User struct {
	ID          primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Name        string                 `json:"name" bson:"name"`
	Email       string                 `json:"email" bson:"email"`
	Password    string                 `json:"-" bson:"password"` // Store hashed password, ignore for JSON serialization
	Role        string                 `json:"role" bson:"role"`
	Avatar      string                 `json:"avatar" bson:"avatar"`
	Favorites   []primitive.ObjectID   `json:"favorites" bson:"favorites"`
	Preferences map[string]interface{} `json:"preferences,omitempty" bson:"preferences,omitempty"`
	CreatedAt   time.Time              `json:"createdAt" bson:"createdAt"`
}

// PublicUser is the projection of a user exposed on populated documents
type PublicUser struct {
	ID     primitive.ObjectID `json:"id" bson:"_id"`
	Name   string             `json:"name" bson:"name"`
	Avatar string             `json:"avatar" bson:"avatar"`
}

// Public returns the owner projection of the user
func (u *User) Public() *PublicUser {
	return &PublicUser{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpdateUserRequest defines the request body for the admin user update
type UpdateUserRequest struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=user creator admin"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
