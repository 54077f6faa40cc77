package user

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

const userColumns = `id::text, name, email, phone, image, city, state, district, pincode, address, password_hash, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (name, email, phone, image, city, state, district, pincode, address, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + userColumns
	created, err := r.scanUser(r.pool.QueryRow(ctx, q,
		u.Name,
		strings.ToLower(u.Email),
		u.Phone,
		u.Image,
		u.City,
		u.State,
		u.District,
		u.Pincode,
		u.Address,
		u.PasswordHash,
	))
	if err != nil {
		r.logger.Printf("user repo: create email=%s error=%v", u.Email, err)
		return nil, err
	}
	r.logger.Printf("user repo: created id=%s", created.ID)
	return created, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, strings.TrimSpace(email)))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	if !isUUID(u.ID) {
		return nil, domain.ErrNotFound
	}
	const q = `
UPDATE users SET
    name = $2, email = $3, phone = $4, image = $5, city = $6, state = $7,
    district = $8, pincode = $9, address = $10, password_hash = $11
WHERE id = $1
RETURNING ` + userColumns
	updated, err := r.scanUser(r.pool.QueryRow(ctx, q,
		u.ID,
		u.Name,
		strings.ToLower(u.Email),
		u.Phone,
		u.Image,
		u.City,
		u.State,
		u.District,
		u.Pincode,
		u.Address,
		u.PasswordHash,
	))
	if err != nil {
		r.logger.Printf("user repo: update id=%s error=%v", u.ID, err)
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		r.logger.Printf("user repo: update password id=%s error=%v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.Image,
		&u.City,
		&u.State,
		&u.District,
		&u.Pincode,
		&u.Address,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("user repo: scan error=%v", err)
		return nil, err
	}
	return &u, nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
