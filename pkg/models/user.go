package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the local record the identity bridge resolves an OIDC subject to.
// Credentials never touch this service; the record exists so orders and
// carts have a stable local owner.
type User struct {
	ID        bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Subject   string        `json:"-" bson:"oidc_subject" validate:"required"`
	Email     string        `json:"email" bson:"email" validate:"required,email"`
	Name      string        `json:"name" bson:"name"`
	Phone     string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Role      string        `json:"role" bson:"role" validate:"required,oneof=user admin"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) SetTimestamps() {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}
