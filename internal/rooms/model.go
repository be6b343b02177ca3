package rooms

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoomStatus enumerates room availability states.
type RoomStatus string

const (
	RoomStatusAvailable    RoomStatus = "AVAILABLE"
	RoomStatusOccupied     RoomStatus = "OCCUPIED"
	RoomStatusOutOfService RoomStatus = "OUT_OF_SERVICE"
)

// Room model.
type Room struct {
	ID        int64           `json:"id"`
	Number    string          `json:"number"`
	RoomType  string          `json:"room_type"`
	RateUSD   decimal.Decimal `json:"rate_usd"`
	Status    RoomStatus      `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
