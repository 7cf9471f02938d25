package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Color is an entry of the shared color palette used to label records.
type Color struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string        `bson:"name"          json:"name"`
	Hex       string        `bson:"hex"           json:"hex"`
	CreatedAt time.Time     `bson:"created_at"    json:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"    json:"updated_at"`
}

// DefaultColors seeds an empty palette.
var DefaultColors = []Color{
	{Name: "Red", Hex: "#EF4444"},
	{Name: "Orange", Hex: "#F97316"},
	{Name: "Yellow", Hex: "#EAB308"},
	{Name: "Green", Hex: "#22C55E"},
	{Name: "Blue", Hex: "#3B82F6"},
	{Name: "Purple", Hex: "#A855F7"},
	{Name: "Pink", Hex: "#EC4899"},
	{Name: "Gray", Hex: "#6B7280"},
}
