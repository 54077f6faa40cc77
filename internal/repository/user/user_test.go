package user

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func TestPostgres_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	u, err := repo.Create(ctx, sampleUser("Asha@Example.com", "9876543210"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" || u.Email != "asha@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}

	got, err := repo.GetByEmail(ctx, "ASHA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected id %s, got %s", u.ID, got.ID)
	}

	if _, err := repo.GetByID(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestPostgres_UniqueEmailAndPhone(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	if _, err := repo.Create(ctx, sampleUser("a@example.com", "1111111111")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(ctx, sampleUser("A@example.com", "2222222222")); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected duplicate email to conflict, got %v", err)
	}
	if _, err := repo.Create(ctx, sampleUser("b@example.com", "1111111111")); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected duplicate phone to conflict, got %v", err)
	}
}

func TestPostgres_UpdateAndPassword(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	u, err := repo.Create(ctx, sampleUser("c@example.com", "3333333333"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	u.City = "Pune"
	updated, err := repo.Update(ctx, *u)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.City != "Pune" {
		t.Fatalf("expected city updated, got %q", updated.City)
	}
	if err := repo.UpdatePassword(ctx, u.ID, "new-hash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Fatalf("expected password hash replaced")
	}
}

func sampleUser(email, phone string) domain.User {
	return domain.User{
		Name:         "Asha",
		Email:        email,
		Phone:        phone,
		City:         "Mumbai",
		State:        "Maharashtra",
		District:     "Mumbai",
		Pincode:      "400001",
		Address:      "1 Marine Drive",
		PasswordHash: "hash",
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE orders, products, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
