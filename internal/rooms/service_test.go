package rooms

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rooms    map[int64]Room
	nextID   int64
	lastList ListRoomsRequest
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rooms: make(map[int64]Room), nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, room Room) (*Room, error) {
	room.ID = f.nextID
	f.nextID++
	f.rooms[room.ID] = room
	return &room, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &room, nil
}

func (f *fakeRepo) List(_ context.Context, req ListRoomsRequest) ([]Room, error) {
	f.lastList = req
	out := make([]Room, 0, len(f.rooms))
	for _, room := range f.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, status RoomStatus) error {
	room, ok := f.rooms[id]
	if !ok {
		return ErrNotFound
	}
	room.Status = status
	f.rooms[id] = room
	return nil
}

func TestCreateRoomParsesRate(t *testing.T) {
	svc := NewService(newFakeRepo())

	room, err := svc.CreateRoom(context.Background(), CreateRoomRequest{
		Number:   "204",
		RoomType: "DOUBLE",
		RateUSD:  "150.00",
	})
	require.NoError(t, err)
	require.True(t, room.RateUSD.Equal(decimal.NewFromInt(150)))
	require.Equal(t, RoomStatusAvailable, room.Status)
}

func TestCreateRoomRejectsBadRates(t *testing.T) {
	svc := NewService(newFakeRepo())

	for _, rate := range []string{"abc", "-5", "0", ""} {
		_, err := svc.CreateRoom(context.Background(), CreateRoomRequest{
			Number:   "101",
			RoomType: "SINGLE",
			RateUSD:  rate,
		})
		require.ErrorIs(t, err, ErrInvalidRate, "rate %q", rate)
	}
}

func TestListRoomsClampsLimit(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.ListRooms(context.Background(), ListRoomsRequest{Limit: 0})
	require.NoError(t, err)
	require.Equal(t, 100, repo.lastList.Limit)

	_, err = svc.ListRooms(context.Background(), ListRoomsRequest{Limit: 9999})
	require.NoError(t, err)
	require.Equal(t, 100, repo.lastList.Limit)

	_, err = svc.ListRooms(context.Background(), ListRoomsRequest{Limit: 25})
	require.NoError(t, err)
	require.Equal(t, 25, repo.lastList.Limit)
}

func TestUpdateRoomStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	room, err := svc.CreateRoom(context.Background(), CreateRoomRequest{
		Number:   "301",
		RoomType: "SUITE",
		RateUSD:  "220.00",
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateRoomStatus(context.Background(), room.ID, RoomStatusOutOfService))
	got, err := svc.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	require.Equal(t, RoomStatusOutOfService, got.Status)

	require.ErrorIs(t, svc.UpdateRoomStatus(context.Background(), 999, RoomStatusOccupied), ErrNotFound)
}
