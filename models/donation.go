package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApprovalStatus is shared by donations and partnership applications.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Donation is a monetary contribution tracked for admin reporting.
type Donation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DonorID   primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	Amount    float64            `bson:"amount" json:"amount"`
	Details   string             `bson:"details,omitempty" json:"details,omitempty"`
	Status    ApprovalStatus     `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Partnership is an organization's application to partner with the platform.
type Partnership struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrgName      string             `bson:"org_name" json:"org_name"`
	ContactEmail string             `bson:"contact_email" json:"contact_email"`
	Details      string             `bson:"details,omitempty" json:"details,omitempty"`
	Status       ApprovalStatus     `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
