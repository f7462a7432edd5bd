package domain

import (
	"context"
	"time"
)

// Cleaning states of a unit.
const (
	CleaningStatusCleaned     = "cleaned"
	CleaningStatusToBeCleaned = "to_be_cleaned"
)

// Unit is a rentable sleeping slot (capsule or room).
type Unit struct {
	ID             string     `json:"id"`
	Number         string     `json:"number"`
	Section        string     `json:"section"`
	IsAvailable    bool       `json:"isAvailable"`
	CleaningStatus string     `json:"cleaningStatus"`
	ToRent         *bool      `json:"toRent"`
	LastCleanedAt  *time.Time `json:"lastCleanedAt"`
	LastCleanedBy  *string    `json:"lastCleanedBy"`
	Color          string     `json:"color"`
	Position       string     `json:"position"`
	PurchaseDate   *time.Time `json:"purchaseDate"`
	Remark         string     `json:"remark"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Rentable reports whether the unit may be rented at all. Units whose
// suitability flag has not been recorded yet count as rentable.
func (u Unit) Rentable() bool {
	return u.ToRent == nil || *u.ToRent
}

// Occupiable reports whether a guest can be placed in the unit right now,
// ignoring whether someone is already in it.
func (u Unit) Occupiable() bool {
	return u.IsAvailable && u.CleaningStatus == CleaningStatusCleaned && u.Rentable()
}

// UnitPatch carries the fields of a partial unit update; nil means unchanged.
type UnitPatch struct {
	Number         *string
	Section        *string
	IsAvailable    *bool
	CleaningStatus *string
	ToRent         *bool
	Color          *string
	Position       *string
	PurchaseDate   *time.Time
	Remark         *string
}

// Apply copies the set fields of p onto u.
func (p UnitPatch) Apply(u *Unit) {
	setString(&u.Number, p.Number)
	setString(&u.Section, p.Section)
	if p.IsAvailable != nil {
		u.IsAvailable = *p.IsAvailable
	}
	setString(&u.CleaningStatus, p.CleaningStatus)
	if p.ToRent != nil {
		v := *p.ToRent
		u.ToRent = &v
	}
	setString(&u.Color, p.Color)
	setString(&u.Position, p.Position)
	if p.PurchaseDate != nil {
		u.PurchaseDate = p.PurchaseDate
	}
	setString(&u.Remark, p.Remark)
}

// UnitRepository is the port for unit persistence.
type UnitRepository interface {
	GetUnits(ctx context.Context) ([]Unit, error)
	GetUnitByNumber(ctx context.Context, number string) (*Unit, error)
	GetUnitByID(ctx context.Context, id string) (*Unit, error)
	CreateUnit(ctx context.Context, u Unit) (*Unit, error)
	UpdateUnit(ctx context.Context, number string, patch UnitPatch) (*Unit, error)
	DeleteUnit(ctx context.Context, number string) (bool, error)
	MarkUnitCleaned(ctx context.Context, number, cleanedBy string) (*Unit, error)
	MarkUnitNeedsCleaning(ctx context.Context, number string) (*Unit, error)
	GetUnitsByCleaningStatus(ctx context.Context, status string) ([]Unit, error)
}
