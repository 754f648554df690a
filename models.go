package authgate

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the locally provisioned identity record. The id is assigned
// once, at creation, from the originating token's subject claim and
// never changes; email is the stable reconciliation key.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            string     `bun:"id,pk" json:"id"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	FirstName     *string    `bun:"first_name" json:"firstName"`
	LastName      *string    `bun:"last_name" json:"lastName"`
	Avatar        *string    `bun:"avatar" json:"avatar"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
}

// OneTimeCode is a short-lived verification code mailed to a prospective
// registrant. One row per email: the record id is derived
// deterministically from the address so a re-request replaces the
// previous code.
type OneTimeCode struct {
	bun.BaseModel `bun:"table:one_time_codes,alias:otc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Code          string     `bun:"code,notnull" json:"code,omitempty"`
	ExpiresAt     *time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	ConsumedAt    *time.Time `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Expired reports whether the code is past its expiry at the given time.
func (c *OneTimeCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
