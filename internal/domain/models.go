// Package domain defines the persistence models for rooms and food items.
// These types are mapped with GORM and form the core data layer of the
// bill-split application.
//
// Rooms behave like short-lived documents: the group roster is owned by the
// room by value (a JSON column, not a child table) and is immutable after
// creation. Food items reference their room by code only; both carry the same
// absolute expiry instant so they disappear from reads in lockstep without a
// cascading delete.
package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Group is one named party sharing the bill, referenced by a number that is
// stable for the life of the room. Groups are embedded in the Room row.
type Group struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Room is a time-bounded session scoping a fixed roster of groups and a
// short numeric code to reach it.
//
// Fields:
//   - Code: 5-digit human-typeable primary key.
//   - Groups: ordered roster, JSON-serialized; insertion order = display order.
//   - CreatedAt: creation timestamp (UTC).
//   - ExpiresAt: absolute instant after which the room is gone from all reads.
type Room struct {
	Code      string    `json:"room_code"  gorm:"type:varchar(16);primaryKey"`
	Groups    []Group   `json:"groups"     gorm:"serializer:json;not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
}

// TableName returns the database table name for Room.
func (Room) TableName() string { return "rooms" }

// Expired reports whether the room is past its expiry at the given instant.
func (r *Room) Expired(now time.Time) bool { return !now.Before(r.ExpiresAt) }

// GroupName returns the name for a group number and whether it exists.
func (r *Room) GroupName(number int) (string, bool) {
	for _, g := range r.Groups {
		if g.Number == number {
			return g.Name, true
		}
	}
	return "", false
}

// FoodItem is one priced entry with its percentage allocation across groups.
// The three slices are positionally paired and JSON-serialized in place; the
// group names and submitter name are frozen at write time so historical
// display never depends on a live join back to the room.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - RoomCode: weak reference to the owning room (indexed, no FK).
//   - GroupNumbers / Percentages / GroupNames: positionally paired allocation.
//   - PersonName: submitter's credential-bound display name.
//   - ExpiresAt: copied from the room at write time.
type FoodItem struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	RoomCode     string    `json:"room_code"     gorm:"type:varchar(16);not null;index:idx_room_items,priority:1"`
	Name         string    `json:"name"          gorm:"type:varchar(255);not null"`
	Price        float64   `json:"price"         gorm:"not null"`
	GroupNumbers []int     `json:"group_numbers" gorm:"serializer:json;not null"`
	Percentages  []float64 `json:"percentages"   gorm:"serializer:json;not null"`
	GroupNames   []string  `json:"group_names"   gorm:"serializer:json;not null"`
	PersonName   string    `json:"person_name"   gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_room_items,priority:2"`
	ExpiresAt    time.Time `json:"expires_at"    gorm:"index;not null"`
}

// TableName returns the database table name for FoodItem.
func (FoodItem) TableName() string { return "food_items" }

// Construction-time validation errors.
var (
	ErrBlankName         = errors.New("name must not be blank")
	ErrNegativePrice     = errors.New("price must be >= 0")
	ErrAllocationShape   = errors.New("group numbers and percentages must be non-empty and the same length")
	ErrAllocationSum     = errors.New("percentages must sum to 100")
	ErrRosterEmpty       = errors.New("at least one group name is required")
	ErrRosterBlankName   = errors.New("group names must not be blank")
	ErrSnapshotMismatch  = errors.New("group name snapshot must pair with group numbers")
)

// NewRoster builds the ordered group roster from raw names, assigning
// numbers 1..N in input order. Names are trimmed; blanks are rejected.
func NewRoster(groupNames []string) ([]Group, error) {
	if len(groupNames) == 0 {
		return nil, ErrRosterEmpty
	}
	groups := make([]Group, 0, len(groupNames))
	for i, name := range groupNames {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrRosterBlankName
		}
		groups = append(groups, Group{Number: i + 1, Name: name})
	}
	return groups, nil
}

// NewFoodItem validates and assembles an item record. It enforces the shape
// invariant (paired non-empty slices) and the allocation-sum invariant: the
// sum of percentages, rounded to the nearest integer, must equal 100. The
// stored percentages are kept exactly as supplied.
//
// The group-name snapshot and the person name come from the caller, which is
// expected to have resolved them from the room roster and the verified
// credential respectively.
func NewFoodItem(id, roomCode, name string, price float64, groupNumbers []int, percentages []float64, groupNames []string, personName string, now, expiresAt time.Time) (*FoodItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBlankName
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, ErrNegativePrice
	}
	if len(groupNumbers) == 0 || len(groupNumbers) != len(percentages) {
		return nil, ErrAllocationShape
	}
	if len(groupNames) != len(groupNumbers) {
		return nil, ErrSnapshotMismatch
	}
	if !PercentagesSumTo100(percentages) {
		return nil, ErrAllocationSum
	}
	return &FoodItem{
		ID:           id,
		RoomCode:     roomCode,
		Name:         name,
		Price:        price,
		GroupNumbers: groupNumbers,
		Percentages:  percentages,
		GroupNames:   groupNames,
		PersonName:   personName,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}, nil
}

// PercentagesSumTo100 reports whether the integer-rounded sum of the supplied
// percentages equals 100. Only the sum is rounded, never each term, so
// repeating-decimal splits like 33.33/33.33/33.34 pass.
func PercentagesSumTo100(percentages []float64) bool {
	var sum float64
	for _, p := range percentages {
		sum += p
	}
	return math.Round(sum) == 100
}
