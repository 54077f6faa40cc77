package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const orderColumns = `id::text, user_id::text, items, payment_method, total_amount::text, address, status,
       COALESCE(gateway_order_id, ''), COALESCE(gateway_payment_id, ''), COALESCE(gateway_signature, ''),
       COALESCE(idempotency_key, ''), created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by the orders table.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if _, err := uuid.Parse(o.UserID); err != nil {
		return nil, domain.ErrNotFound
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	const q = `
INSERT INTO orders (
    user_id, items, payment_method, total_amount, address, status,
    gateway_order_id, gateway_payment_id, gateway_signature, idempotency_key
) VALUES ($1, $2, $3, $4::numeric, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
RETURNING ` + orderColumns
	created, err := scanOrder(r.pool.QueryRow(ctx, q,
		o.UserID,
		items,
		string(o.PaymentMethod),
		o.TotalAmount.String(),
		o.Address,
		o.Status,
		o.GatewayOrderID,
		o.GatewayPaymentID,
		o.GatewaySignature,
		o.IdempotencyKey,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == "23505":
			r.logger.Printf("order repo: create user_id=%s duplicate constraint=%s", o.UserID, pgErr.ConstraintName)
			return nil, domain.ErrAlreadyExists
		case errors.As(err, &pgErr) && pgErr.Code == "23503":
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: create user_id=%s error=%v", o.UserID, err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s user_id=%s total=%s", created.ID, created.UserID, created.TotalAmount)
	return created, nil
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	if _, err := uuid.Parse(userID); err != nil || key == "" {
		return nil, domain.ErrNotFound
	}
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND idempotency_key = $2`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, userID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: get by key user_id=%s error=%v", userID, err)
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	result := make([]domain.Order, 0)
	if _, err := uuid.Parse(userID); err != nil {
		return result, nil
	}
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		r.logger.Printf("order repo: list user_id=%s error=%v", userID, err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("order repo: list rows user_id=%s error=%v", userID, err)
		return nil, err
	}
	r.logger.Printf("order repo: list user_id=%s count=%d", userID, len(result))
	return result, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var items []byte
	var method, total string
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&items,
		&method,
		&total,
		&o.Address,
		&o.Status,
		&o.GatewayOrderID,
		&o.GatewayPaymentID,
		&o.GatewaySignature,
		&o.IdempotencyKey,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items for order %s: %w", o.ID, err)
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("decode total for order %s: %w", o.ID, err)
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	return &o, nil
}
