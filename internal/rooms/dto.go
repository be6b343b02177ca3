package rooms

// CreateRoomRequest registers a room in the inventory. RateUSD is a
// decimal string; monetary values never travel as floats.
type CreateRoomRequest struct {
	Number   string `json:"number" validate:"required,max=10"`
	RoomType string `json:"room_type" validate:"required,max=50"`
	RateUSD  string `json:"rate_usd" validate:"required"`
}

// UpdateRoomStatusRequest transitions a room's availability.
type UpdateRoomStatusRequest struct {
	Status RoomStatus `json:"status" validate:"required,oneof=AVAILABLE OCCUPIED OUT_OF_SERVICE"`
}

// ListRoomsRequest filters room listings.
type ListRoomsRequest struct {
	Status RoomStatus
	Limit  int
	Offset int
}
