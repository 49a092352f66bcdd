package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/vidstream/vidstream_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires up all pgx-backed repositories.
func NewRepositoryProvider(db *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		UserRepo: newPgxUserRepository(db),
	}
}
