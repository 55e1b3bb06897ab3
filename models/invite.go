package models

import (
	"time"
)

// Invite is a redeemable provisioning code that pre-sets role and store for
// a new profile. Uses only ever increases; once exhausted (or Used for
// legacy single-use invites) redemption must fail.
type Invite struct {
	Code       string     `gorm:"primaryKey" json:"code"`
	Role       string     `gorm:"not null" json:"role"`
	StoreID    *string    `json:"store_id"` // nil for admin invites
	Disabled   bool       `gorm:"not null;default:false" json:"disabled"`
	MaxUses    int        `gorm:"not null;default:1" json:"max_uses"`
	Uses       int        `gorm:"not null;default:0" json:"uses"`
	Used       bool       `gorm:"not null;default:false" json:"used"` // legacy single-use flag
	LastUsedAt *time.Time `json:"last_used_at"`
	LastUsedBy string     `json:"last_used_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Invite model
func (Invite) TableName() string {
	return "invites"
}

// Exhausted reports whether the invite has no remaining uses
func (i *Invite) Exhausted() bool {
	return i.Uses >= i.MaxUses
}
