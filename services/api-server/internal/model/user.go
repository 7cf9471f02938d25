package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an account. PasswordHash is nil for accounts that only sign
// in through an external identity provider.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"         json:"id"`
	Name         string        `bson:"name"                  json:"name"`
	Email        string        `bson:"email"                 json:"email"`
	PasswordHash *string       `bson:"password_hash"         json:"-"`
	ExternalID   *string       `bson:"external_id,omitempty" json:"external_id,omitempty"`
	Avatar       *string       `bson:"avatar,omitempty"      json:"avatar,omitempty"`
	Verified     bool          `bson:"verified"              json:"verified"`
	CreatedAt    time.Time     `bson:"created_at"            json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"            json:"updated_at"`
}

// CanLogin reports whether at least one credential is attached to the user.
func (u *User) CanLogin() bool {
	return u.PasswordHash != nil || u.ExternalID != nil
}
