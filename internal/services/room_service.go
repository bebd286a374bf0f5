// Package services – RoomService
//
// This file implements the RoomService, which manages the room lifecycle:
// creating a room with its fixed group roster, allocating a short numeric
// code, issuing the creator's session credential, and serving lookups and
// joins. Rooms are immutable after creation and vanish from all reads at
// their expiry instant.
//
// Service-level errors (e.g., ErrRoomNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/auth"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/domain"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/repo"
)

// codeAttempts bounds the collision retries during code allocation. The code
// space is 90000 values, so hitting the bound means the deployment is far
// beyond its intended scale and a 5xx is the honest answer.
const codeAttempts = 6

// RoomRepo defines the repository contract required by RoomService.
type RoomRepo interface {
	// CreateRoom persists a new room row.
	CreateRoom(ctx context.Context, db *gorm.DB, room *domain.Room) error

	// GetRoom fetches a live room by code, repo.ErrNotFound when absent/expired.
	GetRoom(ctx context.Context, db *gorm.DB, code string, now time.Time) (*domain.Room, error)

	// RoomCodeExists reports whether a live room holds the code.
	RoomCodeExists(ctx context.Context, db *gorm.DB, code string, now time.Time) (bool, error)
}

// RoomService provides room lifecycle operations: create, fetch, join.
type RoomService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the room repository used by this service.
	Repo RoomRepo
	// Issuer signs session credentials for creators and joiners.
	Issuer *auth.Issuer
	// TTL is the room lifetime applied at creation.
	TTL time.Duration

	// cache is a read-through roster cache. Entries expire with the room, so
	// a hit can never resurrect an expired room.
	cache *gocache.Cache

	// now is a clock seam for tests.
	now func() time.Time
	// codeFn generates candidate codes; a seam for collision tests.
	codeFn func() string
}

// CreatedRoom is the result of a successful room creation.
type CreatedRoom struct {
	Room  *domain.Room
	Token string
}

// JoinedRoom is the result of a successful join.
type JoinedRoom struct {
	Room  *domain.Room
	Token string
}

// NewRoomService constructs a RoomService with the default clock and code
// generator.
func NewRoomService(db *gorm.DB, r RoomRepo, issuer *auth.Issuer, ttl time.Duration) *RoomService {
	return &RoomService{
		DB:     db,
		Repo:   r,
		Issuer: issuer,
		TTL:    ttl,
		cache:  gocache.New(ttl, 10*time.Minute),
		now:    func() time.Time { return time.Now().UTC() },
		codeFn: randomCode,
	}
}

// randomCode returns a uniformly random 5-digit code. Codes are only a
// rendezvous point, not a secret, so math/rand is sufficient.
func randomCode() string {
	return fmt.Sprintf("%d", 10000+rand.Intn(90000))
}

// Create builds a room from the ordered group names, allocates a free code,
// persists the room, and issues the creator's credential bound to
// creatorGroupNumber. Group numbers are assigned 1..N in input order.
func (s *RoomService) Create(ctx context.Context, groupNames []string, creatorName string, creatorGroupNumber int) (*CreatedRoom, error) {
	groups, err := domain.NewRoster(groupNames)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	creatorName = strings.TrimSpace(creatorName)
	if creatorName == "" {
		return nil, ErrInvalidName
	}
	if creatorGroupNumber < 1 || creatorGroupNumber > len(groups) {
		return nil, ErrInvalidGroup
	}

	now := s.now()
	code, err := s.allocateCode(ctx, now)
	if err != nil {
		return nil, err
	}

	room := &domain.Room{
		Code:      code,
		Groups:    groups,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}
	if err := s.Repo.CreateRoom(ctx, s.DB, room); err != nil {
		return nil, fmt.Errorf("persist room: %w", err)
	}
	s.cacheRoom(room, now)

	token, err := s.Issuer.Issue(creatorName, creatorGroupNumber, room.Code, room.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("issue creator credential: %w", err)
	}
	return &CreatedRoom{Room: room, Token: token}, nil
}

// Get fetches a live room by code, or ErrRoomNotFound.
func (s *RoomService) Get(ctx context.Context, code string) (*domain.Room, error) {
	now := s.now()
	if room, ok := s.cachedRoom(code, now); ok {
		return room, nil
	}

	room, err := s.Repo.GetRoom(ctx, s.DB, code, now)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("fetch room: %w", err)
	}
	s.cacheRoom(room, now)
	return room, nil
}

// Join validates the participant against the room's roster and issues a fresh
// credential bound to the room/group/name triple. Several participants may
// join under the same group number.
func (s *RoomService) Join(ctx context.Context, code, name string, groupNumber int) (*JoinedRoom, error) {
	room, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if _, ok := room.GroupName(groupNumber); !ok {
		return nil, ErrInvalidGroup
	}

	token, err := s.Issuer.Issue(name, groupNumber, room.Code, room.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}
	return &JoinedRoom{Room: room, Token: token}, nil
}

// allocateCode picks a random code and retries on collision against live
// rooms up to the attempt bound. The check-then-insert window is accepted:
// the code space is large, the bound is small, and a duplicate insert still
// fails on the primary key rather than corrupting anything.
func (s *RoomService) allocateCode(ctx context.Context, now time.Time) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		candidate := s.codeFn()
		exists, err := s.Repo.RoomCodeExists(ctx, s.DB, candidate, now)
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrCodeExhausted
}

// cacheRoom stores the roster with a TTL equal to the room's remaining life.
func (s *RoomService) cacheRoom(room *domain.Room, now time.Time) {
	if s.cache == nil {
		return
	}
	if remaining := room.ExpiresAt.Sub(now); remaining > 0 {
		s.cache.Set(room.Code, room, remaining)
	}
}

// cachedRoom returns a cached live room, double-checking expiry against the
// caller's clock so a stale cache entry can never outlive the room.
func (s *RoomService) cachedRoom(code string, now time.Time) (*domain.Room, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(code)
	if !ok {
		return nil, false
	}
	room, ok := v.(*domain.Room)
	if !ok || room.Expired(now) {
		return nil, false
	}
	return room, true
}
