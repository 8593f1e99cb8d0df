package models

import (
	"time"

	"gorm.io/datatypes"
)

// Verification request statuses. A request is reviewed exactly once: it is
// either still pending or in one of the two terminal states.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// Verification request types.
const (
	RequestTypeID       = "id"
	RequestTypeBusiness = "business"
)

// VerificationRequest is one submission by a user to obtain elevated trust.
// Submitter fields are a denormalized snapshot taken at submission time, not
// a live join against the users table.
type VerificationRequest struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"userID" gorm:"not null;index"`
	UserEmail   string         `json:"userEmail" gorm:"size:256"`
	UserName    string         `json:"userName" gorm:"size:256"`
	UserType    string         `json:"userType" gorm:"size:20"`
	AccountType string         `json:"accountType" gorm:"size:20"`
	Type        string         `json:"type" gorm:"size:20;not null"`                          // id, business
	Status      string         `json:"status" gorm:"size:20;default:'pending';index"`         // pending, approved, rejected
	Documents   datatypes.JSON `json:"documents"`                                             // kind -> {status, url}
	SubmittedAt time.Time      `json:"submittedAt"`
	ReviewedAt  *time.Time     `json:"reviewedAt"`
	ReviewedBy  *uint          `json:"reviewedBy" gorm:"index"`
	ReviewNotes string         `json:"reviewNotes" gorm:"type:text"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// RequestDocument is the per-kind entry stored in Documents.
type RequestDocument struct {
	Status string `json:"status"`
	URL    string `json:"url"`
}
