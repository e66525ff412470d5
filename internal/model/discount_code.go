package model

import (
	"time"

	"github.com/google/uuid"
)

// CodeState is the redemption state of a discount code.
type CodeState string

const (
	StateActive   CodeState = "ACTIVE"
	StateRedeemed CodeState = "REDEEMED"
)

// DiscountCode represents a single-use discount code.
type DiscountCode struct {
	Code      string     `json:"code" db:"code"`
	IsUsed    bool       `json:"isUsed" db:"is_used"`
	BatchID   uuid.UUID  `json:"batchId" db:"batch_id"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UsedAt    *time.Time `json:"usedAt,omitempty" db:"used_at"`
}

// NewDiscountCode creates an active code belonging to the given batch.
func NewDiscountCode(code string, batchID uuid.UUID, now time.Time) DiscountCode {
	return DiscountCode{
		Code:      code,
		BatchID:   batchID,
		CreatedAt: now,
	}
}

// State returns the current redemption state.
func (c *DiscountCode) State() CodeState {
	if c.IsUsed {
		return StateRedeemed
	}
	return StateActive
}

// Redeem moves the code from Active to Redeemed.
// Redeemed is terminal: a second call returns ErrCodeAlreadyUsed and leaves the code unchanged.
func (c *DiscountCode) Redeem(now time.Time) error {
	if c.IsUsed {
		return ErrCodeAlreadyUsed
	}
	c.IsUsed = true
	c.UsedAt = &now
	return nil
}
