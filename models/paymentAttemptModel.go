package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AttemptInitializing = "initializing"
	AttemptInitialized  = "initialized"
	AttemptFailed       = "failed"
	AttemptBound        = "bound"
	AttemptOrphaned     = "orphaned"
	AttemptCompleted    = "completed"
)

// PaymentAttempt is written before the gateway is contacted, keyed by the pre-generated
// order id. An attempt left in "orphaned" holds a gateway reference without an order row
// and needs manual reconciliation.
type PaymentAttempt struct {
	ID            string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID       string         `json:"buyerId" gorm:"type:varchar(36);not null;index"`
	Email         string         `json:"email"`
	AmountMinor   int64          `json:"amountMinor" gorm:"not null"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;index"`
	Reference     string         `json:"reference" gorm:"type:varchar(100);index"`
	AccessCode    string         `json:"accessCode" gorm:"type:varchar(100)"`
	FailureReason string         `json:"failureReason"`
	Metadata      datatypes.JSON `json:"metadata"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
