package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Image is display metadata for a product photo in a given color.
type Image struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID string             `json:"product" bson:"product_id"`
	Color     string             `json:"color" bson:"color"`
	URL       string             `json:"url" bson:"url"`
	PublicID  string             `json:"publicId,omitempty" bson:"public_id,omitempty"`
}
