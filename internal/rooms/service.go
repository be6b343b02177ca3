package rooms

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate rejects non-positive or unparsable nightly rates.
var ErrInvalidRate = errors.New("rooms: rate must be a positive decimal")

// RepositoryPort abstracts persistence for the service layer.
type RepositoryPort interface {
	Create(ctx context.Context, room Room) (*Room, error)
	Get(ctx context.Context, id int64) (*Room, error)
	List(ctx context.Context, req ListRoomsRequest) ([]Room, error)
	UpdateStatus(ctx context.Context, id int64, status RoomStatus) error
}

// Service handles room inventory logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateRoom registers a room. New rooms start AVAILABLE.
func (s *Service) CreateRoom(ctx context.Context, req CreateRoomRequest) (*Room, error) {
	rate, err := decimal.NewFromString(req.RateUSD)
	if err != nil || !rate.IsPositive() {
		return nil, ErrInvalidRate
	}
	return s.repo.Create(ctx, Room{
		Number:   req.Number,
		RoomType: req.RoomType,
		RateUSD:  rate,
		Status:   RoomStatusAvailable,
	})
}

// GetRoom returns a single room.
func (s *Service) GetRoom(ctx context.Context, id int64) (*Room, error) {
	return s.repo.Get(ctx, id)
}

// ListRooms returns rooms matching the filter.
func (s *Service) ListRooms(ctx context.Context, req ListRoomsRequest) ([]Room, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}

// UpdateRoomStatus transitions a room's availability state.
func (s *Service) UpdateRoomStatus(ctx context.Context, id int64, status RoomStatus) error {
	return s.repo.UpdateStatus(ctx, id, status)
}
