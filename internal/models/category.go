package models

import "github.com/google/uuid"

// Category groups products. Top-level categories have no parent.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
}
