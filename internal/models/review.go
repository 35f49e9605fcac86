package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is unique per (Bootcamp, User).
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Text      string             `bson:"text" json:"text"`
	Rating    int                `bson:"rating" json:"rating"`
	Bootcamp  primitive.ObjectID `bson:"bootcamp" json:"bootcamp"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	BootcampInfo *BootcampSummary `bson:"bootcampInfo,omitempty" json:"bootcampInfo,omitempty"`
}

func (r *Review) OwnerID() primitive.ObjectID { return r.User }
