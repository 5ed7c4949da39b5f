package domain

import (
	"time"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/coupon"
)

// Cart is the user's in-progress selection of courses. Items are kept in
// insertion order for display; uniqueness is by item ID.
type Cart struct {
	ID            string         `bson:"_id,omitempty" json:"-"`
	UserID        string         `bson:"user_id" json:"user_id"`
	Items         []CartItem     `bson:"items" json:"items"`
	AppliedCoupon *coupon.Coupon `bson:"applied_coupon,omitempty" json:"applied_coupon,omitempty"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at" json:"updated_at"`
}

// CartItem is a course as it sits in the cart. Prices are INR minor units
// (paise), captured from the catalog at add time.
type CartItem struct {
	ID              string    `bson:"item_id" json:"id"`
	Title           string    `bson:"title" json:"title"`
	Subject         string    `bson:"subject" json:"subject"`
	Paper           string    `bson:"paper" json:"paper"`
	ListPrice       int64     `bson:"list_price" json:"list_price"`
	DiscountedPrice *int64    `bson:"discounted_price,omitempty" json:"discounted_price,omitempty"`
	ImageURL        string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	AddedAt         time.Time `bson:"added_at" json:"added_at"`
}

// EffectiveUnitPrice is the discounted price when one is set and actually
// differs from the list price, else the list price.
func (i CartItem) EffectiveUnitPrice() int64 {
	if i.DiscountedPrice != nil && *i.DiscountedPrice != i.ListPrice {
		return *i.DiscountedPrice
	}
	return i.ListPrice
}

func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.EffectiveUnitPrice()
	}
	return total
}

func (c *Cart) HasItem(itemID string) bool {
	for _, item := range c.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
