package adapter

import (
	"context"
	"errors"

	repository "spachat/internal/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgIdentityRepository resolves principals and customer profiles from the
// account tables. It implements both identity ports; chat code depends on
// the ports, not on this type.
type PgIdentityRepository struct {
	pool *pgxpool.Pool
}

func NewPgIdentityRepository(pool *pgxpool.Pool) *PgIdentityRepository {
	return &PgIdentityRepository{pool: pool}
}

var (
	_ repository.PrincipalResolver = (*PgIdentityRepository)(nil)
	_ repository.CustomerDirectory = (*PgIdentityRepository)(nil)
)

// Resolve matches the token against staff accounts first, then customers.
// An unknown token is ErrUnauthenticated, never a transport error.
func (r *PgIdentityRepository) Resolve(ctx context.Context, token string) (repository.Principal, error) {
	if r == nil || r.pool == nil {
		return repository.Principal{}, errors.New("PgIdentityRepository: nil pool")
	}
	if token == "" {
		return repository.Principal{}, repository.ErrUnauthenticated
	}

	var id string
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM chat.staff_account WHERE api_token = $1`, token,
	).Scan(&id)
	if err == nil {
		return repository.Principal{ID: id, Kind: repository.KindStaff}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return repository.Principal{}, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT id FROM chat.customer WHERE api_token = $1`, token,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Principal{}, repository.ErrUnauthenticated
	}
	if err != nil {
		return repository.Principal{}, err
	}
	return repository.Principal{ID: id, Kind: repository.KindCustomer}, nil
}

func (r *PgIdentityRepository) Lookup(ctx context.Context, customerID string) (repository.CustomerProfile, error) {
	if r == nil || r.pool == nil {
		return repository.CustomerProfile{}, errors.New("PgIdentityRepository: nil pool")
	}

	var p repository.CustomerProfile
	err := r.pool.QueryRow(ctx,
		`SELECT id, full_name, COALESCE(phone, ''), avatar FROM chat.customer WHERE id = $1`, customerID,
	).Scan(&p.ID, &p.FullName, &p.Phone, &p.Avatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.CustomerProfile{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.CustomerProfile{}, err
	}
	return p, nil
}
