package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Avatar references an externally hosted profile image.
type Avatar struct {
	PublicID string `bson:"public_id,omitempty" json:"public_id,omitempty"`
	URL      string `bson:"url,omitempty" json:"url,omitempty"`
}

// CourseRef links a user to a purchased course.
type CourseRef struct {
	CourseID string `bson:"course_id" json:"course_id"`
}

// User represents an account in the platform.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Avatar       Avatar             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role         Role               `bson:"role" json:"role"`
	IsVerified   bool               `bson:"is_verified" json:"is_verified"`
	Courses      []CourseRef        `bson:"courses,omitempty" json:"courses,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
