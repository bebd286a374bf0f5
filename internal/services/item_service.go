// Package services – ItemService
//
// This file implements the item ledger and the bill aggregator. The ledger
// validates and appends food items scoped to a room; the aggregator folds the
// ledger into per-group totals on demand. There is no cross-request locking:
// each write is independently validated and appended, and totals are always
// recomputed from the full set, so concurrent writers interleave freely.
package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/auth"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/domain"
)

// ItemRepo defines the repository contract required by ItemService.
type ItemRepo interface {
	// CreateItem appends a validated item to the ledger.
	CreateItem(ctx context.Context, db *gorm.DB, item *domain.FoodItem) error

	// ListItems returns a room's live items ordered by creation time ascending.
	ListItems(ctx context.Context, db *gorm.DB, roomCode string, now time.Time) ([]domain.FoodItem, error)
}

// RoomGetter resolves a live room by code. Satisfied by RoomService.
type RoomGetter interface {
	Get(ctx context.Context, code string) (*domain.Room, error)
}

// Notifier receives accepted items for fan-out to connected participants.
// Satisfied by notify.Hub. Publishing is best-effort and must never block.
type Notifier interface {
	Publish(roomCode string, item *domain.FoodItem)
}

// ItemService provides the ledger operations: list, add, and the per-group
// bill aggregation.
type ItemService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the item repository used by this service.
	Repo ItemRepo
	// Rooms resolves rooms for referential validation and roster snapshots.
	Rooms RoomGetter
	// Notifier fans accepted items out to the room's live connections.
	// Optional: nil disables broadcasting (tests).
	Notifier Notifier

	// now is a clock seam for tests.
	now func() time.Time
}

// AddItemInput is the caller-supplied portion of an item submission. The
// submitter's name is deliberately absent: it always comes from the verified
// credential to prevent impersonation.
type AddItemInput struct {
	Name         string
	Price        float64
	GroupNumbers []int
	Percentages  []float64
}

// GroupBill is one group's aggregated share of the room's ledger.
type GroupBill struct {
	GroupNumber int     `json:"group_number"`
	GroupName   string  `json:"group_name"`
	Bill        float64 `json:"bill"`
}

// NewItemService constructs an ItemService with the default clock.
func NewItemService(db *gorm.DB, r ItemRepo, rooms RoomGetter, n Notifier) *ItemService {
	return &ItemService{
		DB:       db,
		Repo:     r,
		Rooms:    rooms,
		Notifier: n,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns the room's items by creation time ascending, or
// ErrRoomNotFound when the room is absent/expired.
func (s *ItemService) List(ctx context.Context, roomCode string) ([]domain.FoodItem, error) {
	room, err := s.Rooms.Get(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.ListItems(ctx, s.DB, room.Code, s.now())
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Add validates and appends one item to the room's ledger. Preconditions are
// checked in order, first failure wins:
//
//  1. room exists                      -> ErrRoomNotFound
//  2. name non-blank, price >= 0       -> ErrInvalidInput
//  3. paired non-empty arrays          -> ErrInvalidInput
//  4. rounded percentage sum == 100    -> ErrPercentageMismatch
//  5. every group number in the roster -> UnknownGroupError
//
// On success the item is durably stored and then handed to the notifier; the
// broadcast is outside the write's success/failure contract.
func (s *ItemService) Add(ctx context.Context, roomCode string, claims *auth.Claims, in AddItemInput) (*domain.FoodItem, error) {
	room, err := s.Rooms.Get(ctx, roomCode)
	if err != nil {
		return nil, err
	}

	// Field checks come before allocation checks so "first failure wins"
	// holds for submissions broken in more than one way.
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, domain.ErrBlankName)
	}
	if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, domain.ErrNegativePrice)
	}

	// Resolve and freeze the group-name snapshot before construction so the
	// unknown-group check can name the offending number.
	groupNames, err := s.resolveGroupNames(room, in.GroupNumbers, in.Percentages)
	if err != nil {
		return nil, err
	}

	item, err := domain.NewFoodItem(
		uuid.NewString(),
		room.Code,
		in.Name,
		in.Price,
		in.GroupNumbers,
		in.Percentages,
		groupNames,
		claims.Name,
		s.now(),
		room.ExpiresAt,
	)
	if err != nil {
		switch err {
		case domain.ErrAllocationSum:
			return nil, ErrPercentageMismatch
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	if err := s.Repo.CreateItem(ctx, s.DB, item); err != nil {
		return nil, fmt.Errorf("persist item: %w", err)
	}

	if s.Notifier != nil {
		s.Notifier.Publish(room.Code, item)
	}
	return item, nil
}

// resolveGroupNames maps each referenced group number to its roster name,
// preserving order. Shape and sum problems are left to the constructor; this
// only owns the referential check, which runs after those per the precondition
// order (a same-length, sum-valid allocation with a bad number must surface
// UnknownGroupError, not ErrInvalidInput).
func (s *ItemService) resolveGroupNames(room *domain.Room, groupNumbers []int, percentages []float64) ([]string, error) {
	if len(groupNumbers) == 0 || len(groupNumbers) != len(percentages) {
		return nil, ErrInvalidInput
	}
	if !domain.PercentagesSumTo100(percentages) {
		return nil, ErrPercentageMismatch
	}
	names := make([]string, 0, len(groupNumbers))
	for _, n := range groupNumbers {
		name, ok := room.GroupName(n)
		if !ok {
			return nil, &UnknownGroupError{Number: n}
		}
		names = append(names, name)
	}
	return names, nil
}

// Calculate folds the room's ledger into one total per roster group, in
// roster order, including zero entries for groups nothing was allocated to.
// Each total is rounded to 2 decimals, half away from zero. The fold is a
// pure read: it may reflect a write landing mid-computation, which is
// acceptable for a live collaborative view.
func (s *ItemService) Calculate(ctx context.Context, roomCode string) ([]GroupBill, error) {
	room, err := s.Rooms.Get(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.ListItems(ctx, s.DB, room.Code, s.now())
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	totals := make(map[int]float64, len(room.Groups))
	for _, it := range items {
		for i, gnum := range it.GroupNumbers {
			totals[gnum] += it.Price * it.Percentages[i] / 100
		}
	}

	bills := make([]GroupBill, 0, len(room.Groups))
	for _, g := range room.Groups {
		bills = append(bills, GroupBill{
			GroupNumber: g.Number,
			GroupName:   g.Name,
			Bill:        roundCents(totals[g.Number]),
		})
	}
	return bills, nil
}

// roundCents rounds to 2 decimal places, half away from zero.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
