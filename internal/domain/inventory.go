package domain

import (
	"time"
)

// InventoryItem is a pharmacy stock record. Reservation moves units between
// available and reserved; completion burns reserved units out of the total.
type InventoryItem struct {
	ID                string     `json:"id" db:"id"`
	PharmacyID        string     `json:"pharmacy_id" db:"pharmacy_id"`
	MedicineID        string     `json:"medicine_id" db:"medicine_id"`
	MedicineName      string     `json:"medicine_name" db:"medicine_name"`
	Dosage            string     `json:"dosage,omitempty" db:"dosage"`
	Form              string     `json:"form,omitempty" db:"form"`
	Packaging         string     `json:"packaging,omitempty" db:"packaging"`
	AvailableQuantity int64      `json:"available_quantity" db:"available_quantity"`
	ReservedQuantity  int64      `json:"reserved_quantity" db:"reserved_quantity"`
	TotalQuantity     int64      `json:"total_quantity" db:"total_quantity"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the batch expiry has passed at the given time.
func (i *InventoryItem) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}
