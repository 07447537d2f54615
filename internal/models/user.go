package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User represents an account stored in the users collection. The password
// field holds a bcrypt hash and is never serialized to JSON.
type User struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name     string             `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email    string             `json:"email" bson:"email" validate:"required,email"`
	Password string             `json:"-" bson:"password" validate:"required,min=6"`
}
