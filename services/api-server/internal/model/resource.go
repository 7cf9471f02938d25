package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Document is implemented by records that belong to a single user.
type Document interface {
	DocumentID() bson.ObjectID
	SetDocumentID(id bson.ObjectID)
	Owner() string
	SetOwner(userID string)
	Created() time.Time
	Touch(createdAt, updatedAt time.Time)
}

// Owned carries the identity and ownership fields shared by user records.
type Owned struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string        `bson:"user_id"       json:"user_id"`
	CreatedAt time.Time     `bson:"created_at"    json:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"    json:"updated_at"`
}

func (o *Owned) DocumentID() bson.ObjectID      { return o.ID }
func (o *Owned) SetDocumentID(id bson.ObjectID) { o.ID = id }
func (o *Owned) Owner() string                  { return o.UserID }
func (o *Owned) SetOwner(userID string)         { o.UserID = userID }
func (o *Owned) Created() time.Time             { return o.CreatedAt }

func (o *Owned) Touch(createdAt, updatedAt time.Time) {
	o.CreatedAt = createdAt
	o.UpdatedAt = updatedAt
}

// Task is a to-do item.
type Task struct {
	Owned       `bson:",inline"`
	Title       string     `bson:"title"                 json:"title" validate:"required,max=200"`
	Description string     `bson:"description,omitempty" json:"description,omitempty" validate:"max=2000"`
	DueDate     *time.Time `bson:"due_date,omitempty"    json:"due_date,omitempty"`
	Completed   bool       `bson:"completed"             json:"completed"`
	ColorID     string     `bson:"color_id,omitempty"    json:"color_id,omitempty" validate:"omitempty,mongodb"`
}

// Event is a calendar entry.
type Event struct {
	Owned       `bson:",inline"`
	Title       string    `bson:"title"                 json:"title" validate:"required,max=200"`
	Description string    `bson:"description,omitempty" json:"description,omitempty" validate:"max=2000"`
	Location    string    `bson:"location,omitempty"    json:"location,omitempty" validate:"max=200"`
	StartAt     time.Time `bson:"start_at"              json:"start_at" validate:"required"`
	EndAt       time.Time `bson:"end_at"                json:"end_at" validate:"required,gtefield=StartAt"`
	AllDay      bool      `bson:"all_day"               json:"all_day"`
	ColorID     string    `bson:"color_id,omitempty"    json:"color_id,omitempty" validate:"omitempty,mongodb"`
}

// Schedule is a weekly course slot.
type Schedule struct {
	Owned      `bson:",inline"`
	CourseName string `bson:"course_name"        json:"course_name" validate:"required,max=200"`
	Lecturer   string `bson:"lecturer,omitempty" json:"lecturer,omitempty" validate:"max=200"`
	Room       string `bson:"room,omitempty"     json:"room,omitempty" validate:"max=100"`
	DayID      int    `bson:"day_id"             json:"day_id" validate:"required,min=1,max=7"`
	StartTime  string `bson:"start_time"         json:"start_time" validate:"required,datetime=15:04"`
	EndTime    string `bson:"end_time"           json:"end_time" validate:"required,datetime=15:04"`
	ColorID    string `bson:"color_id,omitempty" json:"color_id,omitempty" validate:"omitempty,mongodb"`
}

// Activity is a recurring study or activity block.
type Activity struct {
	Owned     `bson:",inline"`
	Title     string `bson:"title"              json:"title" validate:"required,max=200"`
	Kind      string `bson:"kind"               json:"kind" validate:"required,oneof=study activity"`
	DayID     int    `bson:"day_id"             json:"day_id" validate:"required,min=1,max=7"`
	StartTime string `bson:"start_time"         json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `bson:"end_time"           json:"end_time" validate:"required,datetime=15:04"`
	ColorID   string `bson:"color_id,omitempty" json:"color_id,omitempty" validate:"omitempty,mongodb"`
}

const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction is a single income or expense entry.
type Transaction struct {
	Owned      `bson:",inline"`
	Type       string    `bson:"type"           json:"type" validate:"required,oneof=income expense"`
	Amount     int64     `bson:"amount"         json:"amount" validate:"required,gt=0"`
	Category   string    `bson:"category"       json:"category" validate:"required,max=100"`
	Note       string    `bson:"note,omitempty" json:"note,omitempty" validate:"max=500"`
	OccurredAt time.Time `bson:"occurred_at"    json:"occurred_at" validate:"required"`
}
