// Room HTTP handlers.
//
// This file exposes REST endpoints for the room lifecycle:
//   - POST   /rooms          (create a room, returns code + creator credential)
//   - GET    /rooms/{code}   (public roster fetch)
//   - POST   /rooms/join     (join an existing room, returns credential)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/auth"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/domain"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/notify"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/services"
)

//
// Service contracts (context-aware)
//

// RoomService defines room lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RoomService interface {
	// Create allocates a fresh room from the ordered group names and issues
	// the creator's credential.
	Create(ctx context.Context, groupNames []string, creatorName string, creatorGroupNumber int) (*services.CreatedRoom, error)
	// Get returns a live (non-expired) room by code.
	Get(ctx context.Context, code string) (*domain.Room, error)
	// Join validates membership input against the room and issues a credential.
	Join(ctx context.Context, code, name string, groupNumber int) (*services.JoinedRoom, error)
}

// ItemService defines ledger operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ItemService interface {
	// List returns the room's items, oldest first.
	List(ctx context.Context, roomCode string) ([]domain.FoodItem, error)
	// Add validates and appends one item on behalf of the credential holder.
	Add(ctx context.Context, roomCode string, claims *auth.Claims, in services.AddItemInput) (*domain.FoodItem, error)
	// Calculate folds the ledger into one rounded total per group.
	Calculate(ctx context.Context, roomCode string) ([]services.GroupBill, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for rooms, items, bills, and the live stream.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	roomSvc RoomService
	itemSvc ItemService
	hub     *notify.Hub
}

// New constructs and returns a Handlers instance bound to the given services.
func New(roomSvc RoomService, itemSvc ItemService, hub *notify.Hub) *Handlers {
	return &Handlers{roomSvc: roomSvc, itemSvc: itemSvc, hub: hub}
}

//
// DTOs
//

// CreateRoomRequest is the JSON payload for creating a room.
type CreateRoomRequest struct {
	// GroupNames lists the party's groups in seating order; position assigns
	// the 1-based group number.
	GroupNames []string `json:"group_names"`
	// NumGroups optionally cross-checks len(GroupNames); a mismatch is a 400.
	NumGroups *int `json:"num_groups,omitempty"`
	// CreatorName is the display name of the person opening the room.
	CreatorName string `json:"creator_name"`
	// CreatorGroupNumber is the creator's own group (1-based roster index).
	CreatorGroupNumber int `json:"creator_group_number"`
}

// CreateRoomResponse is returned on successful room creation.
type CreateRoomResponse struct {
	RoomCode  string         `json:"room_code"`
	Groups    []domain.Group `json:"groups"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// RoomResponse is the public roster view of a room.
type RoomResponse struct {
	RoomCode  string         `json:"room_code"`
	Groups    []domain.Group `json:"groups"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// JoinRoomRequest is the JSON payload for joining an existing room.
type JoinRoomRequest struct {
	RoomCode    string `json:"room_code"`
	Name        string `json:"name"`
	GroupNumber int    `json:"group_number"`
}

// JoinRoomResponse is returned on successful join.
type JoinRoomResponse struct {
	RoomCode  string         `json:"room_code"`
	Groups    []domain.Group `json:"groups"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

//
// Handlers
//

// CreateRoom handles POST /rooms.
//
// It validates the payload, delegates allocation and credential issuance to
// the room service, and returns 201 with the code, roster, and creator token.
func (h *Handlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.NumGroups != nil && *req.NumGroups != len(req.GroupNames) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "num_groups does not match group_names")
		return
	}

	created, err := h.roomSvc.Create(c.Request.Context(), req.GroupNames, strings.TrimSpace(req.CreatorName), req.CreatorGroupNumber)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, CreateRoomResponse{
		RoomCode:  created.Room.Code,
		Groups:    created.Room.Groups,
		Token:     created.Token,
		ExpiresAt: created.Room.ExpiresAt,
	})
}

// GetRoom handles GET /rooms/{code}.
//
// Public: no credential is needed to look up a roster, so a prospective
// participant can inspect the groups before joining.
func (h *Handlers) GetRoom(c *gin.Context) {
	room, err := h.roomSvc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, RoomResponse{
		RoomCode:  room.Code,
		Groups:    room.Groups,
		ExpiresAt: room.ExpiresAt,
	})
}

// JoinRoom handles POST /rooms/join.
//
// The room code travels in the body rather than the path to mirror the join
// form on the client. A successful join issues a credential bound to the
// supplied name and group; joining never mutates the room.
func (h *Handlers) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	joined, err := h.roomSvc.Join(c.Request.Context(), strings.TrimSpace(req.RoomCode), strings.TrimSpace(req.Name), req.GroupNumber)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, JoinRoomResponse{
		RoomCode:  joined.Room.Code,
		Groups:    joined.Room.Groups,
		Token:     joined.Token,
		ExpiresAt: joined.Room.ExpiresAt,
	})
}
