package rooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("rooms: not found")

// Repository provides PostgreSQL backed persistence for rooms.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new room.
func (r *Repository) Create(ctx context.Context, room Room) (*Room, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rooms (number, room_type, rate_usd, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		room.Number, room.RoomType, room.RateUSD.String(), string(room.Status)).
		Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Get retrieves a room by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Room, error) {
	var room Room
	var rate pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, room_type, rate_usd, status, created_at, updated_at
		FROM rooms
		WHERE id = $1`, id).
		Scan(&room.ID, &room.Number, &room.RoomType, &rate, &room.Status, &room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	room.RateUSD = decimal.NewFromBigInt(rate.Int, rate.Exp)
	return &room, nil
}

// List returns rooms with optional status filtering.
func (r *Repository) List(ctx context.Context, req ListRoomsRequest) ([]Room, error) {
	query := `
		SELECT id, number, room_type, rate_usd, status, created_at, updated_at
		FROM rooms
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}

	query += " ORDER BY number"

	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		var room Room
		var rate pgtype.Numeric
		if err := rows.Scan(&room.ID, &room.Number, &room.RoomType, &rate, &room.Status, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		room.RateUSD = decimal.NewFromBigInt(rate.Int, rate.Exp)
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus transitions a room's availability state.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status RoomStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rooms SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
