package coupon

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingCode  = errors.New("coupon code is required")
	ErrInvalidCode  = errors.New("invalid coupon code")
	ErrNotYetActive = errors.New("coupon is not active yet")
	ErrExpired      = errors.New("coupon has expired")
)

// Coupon is a time-bounded percentage discount identified by a unique code.
// Codes are compared case-insensitively.
type Coupon struct {
	Code               string    `json:"code" bson:"code"`
	DiscountPercentage int64     `json:"discountPercentage" bson:"discount_percentage"`
	StartDate          time.Time `json:"startDate" bson:"start_date"`
	EndDate            time.Time `json:"endDate" bson:"end_date"`
	IsActive           bool      `json:"isActive" bson:"is_active"`
}

// InWindow reports whether the coupon may produce a discount at the given
// instant. Both window bounds are inclusive.
func (c *Coupon) InWindow(now time.Time) bool {
	return c.IsActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Validate resolves a user-supplied code against the available catalog.
// An empty or missing catalog simply means no code can match.
func Validate(code string, available []Coupon, now time.Time) (*Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrMissingCode
	}

	for i := range available {
		if !strings.EqualFold(available[i].Code, code) {
			continue
		}
		c := available[i]
		if !c.IsActive {
			return nil, ErrInvalidCode
		}
		if now.Before(c.StartDate) {
			return nil, ErrNotYetActive
		}
		if now.After(c.EndDate) {
			return nil, ErrExpired
		}
		return &c, nil
	}

	return nil, ErrInvalidCode
}
