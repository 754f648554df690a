package authgate

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Known claim keys. The reference identity step signs the subject under
// "id" rather than the registered "sub" claim.
const (
	claimSubjectID = "id"
	claimEmail     = "email"
	claimFirstName = "firstName"
	claimLastName  = "lastName"
	claimAvatar    = "avatar"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimNotBefore = "nbf"
)

// Claims is the decoded payload of a signed identity token. Any payload
// keys beyond the typed fields are preserved in Extra and re-emitted
// verbatim when the claims are marshaled back to JSON. Typed fields that
// were explicitly null in the payload re-emit as null; absent fields
// stay absent. A Claims value is immutable once decoded and lives for a
// single request.
type Claims struct {
	SubjectID string
	Email     string
	FirstName *string
	LastName  *string
	Avatar    *string
	IssuedAt  *jwt.NumericDate
	ExpiresAt *jwt.NumericDate
	NotBefore *jwt.NumericDate
	Extra     map[string]any

	nullKeys map[string]struct{}
}

var (
	_ jwt.Claims       = (*Claims)(nil)
	_ json.Marshaler   = (*Claims)(nil)
	_ json.Unmarshaler = (*Claims)(nil)
)

// GetExpirationTime implements jwt.Claims.
func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return c.ExpiresAt, nil
}

// GetIssuedAt implements jwt.Claims.
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return c.IssuedAt, nil
}

// GetNotBefore implements jwt.Claims.
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) {
	return c.NotBefore, nil
}

// GetIssuer implements jwt.Claims.
func (c *Claims) GetIssuer() (string, error) {
	if iss, ok := c.Extra["iss"].(string); ok {
		return iss, nil
	}
	return "", nil
}

// GetSubject implements jwt.Claims.
func (c *Claims) GetSubject() (string, error) {
	return c.SubjectID, nil
}

// GetAudience implements jwt.Claims.
func (c *Claims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}

// Expires returns the expiration time, zero when the token has none.
func (c *Claims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued-at time, zero when the token has none.
func (c *Claims) Issued() time.Time {
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// ExtraClaim looks up an open-ended payload key.
func (c *Claims) ExtraClaim(key string) (any, bool) {
	v, ok := c.Extra[key]
	return v, ok
}

// UnmarshalJSON decodes the typed fields and collects every remaining
// payload key into Extra.
func (c *Claims) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw[claimSubjectID]; ok {
		if err := json.Unmarshal(v, &c.SubjectID); err != nil {
			return err
		}
		delete(raw, claimSubjectID)
	}

	if v, ok := raw[claimEmail]; ok {
		if err := json.Unmarshal(v, &c.Email); err != nil {
			return err
		}
		delete(raw, claimEmail)
	}

	var err error
	if c.FirstName, err = c.popNullableString(raw, claimFirstName); err != nil {
		return err
	}
	if c.LastName, err = c.popNullableString(raw, claimLastName); err != nil {
		return err
	}
	if c.Avatar, err = c.popNullableString(raw, claimAvatar); err != nil {
		return err
	}

	if c.IssuedAt, err = c.popNumericDate(raw, claimIssuedAt); err != nil {
		return err
	}
	if c.ExpiresAt, err = c.popNumericDate(raw, claimExpiresAt); err != nil {
		return err
	}
	if c.NotBefore, err = c.popNumericDate(raw, claimNotBefore); err != nil {
		return err
	}

	if len(raw) > 0 {
		c.Extra = make(map[string]any, len(raw))
		for key, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			c.Extra[key] = val
		}
	}

	return nil
}

// MarshalJSON re-emits the payload: extra keys first, typed fields on
// top. Fields that decoded from an explicit null re-emit as null; fields
// that were absent stay absent, matching the original signed payload
// shape.
func (c *Claims) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+8)
	for key, v := range c.Extra {
		out[key] = v
	}

	if c.SubjectID != "" {
		out[claimSubjectID] = c.SubjectID
	}
	if c.Email != "" {
		out[claimEmail] = c.Email
	}
	if c.FirstName != nil {
		out[claimFirstName] = *c.FirstName
	}
	if c.LastName != nil {
		out[claimLastName] = *c.LastName
	}
	if c.Avatar != nil {
		out[claimAvatar] = *c.Avatar
	}
	if c.IssuedAt != nil {
		out[claimIssuedAt] = c.IssuedAt.Unix()
	}
	if c.ExpiresAt != nil {
		out[claimExpiresAt] = c.ExpiresAt.Unix()
	}
	if c.NotBefore != nil {
		out[claimNotBefore] = c.NotBefore.Unix()
	}

	for key := range c.nullKeys {
		if _, ok := out[key]; !ok {
			out[key] = nil
		}
	}

	return json.Marshal(out)
}

func (c *Claims) markNull(key string) {
	if c.nullKeys == nil {
		c.nullKeys = map[string]struct{}{}
	}
	c.nullKeys[key] = struct{}{}
}

func (c *Claims) popNullableString(raw map[string]json.RawMessage, key string) (*string, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	delete(raw, key)

	if string(v) == "null" {
		c.markNull(key)
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Claims) popNumericDate(raw map[string]json.RawMessage, key string) (*jwt.NumericDate, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	delete(raw, key)

	if string(v) == "null" {
		c.markNull(key)
		return nil, nil
	}

	var secs float64
	if err := json.Unmarshal(v, &secs); err != nil {
		return nil, err
	}
	return jwt.NewNumericDate(time.Unix(int64(secs), 0)), nil
}
