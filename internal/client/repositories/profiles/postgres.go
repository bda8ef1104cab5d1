package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/dmitrijs2005/profilesync/internal/dbx"
)

// PostgresRepository reads and writes public."User" over a direct SQL
// connection.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Fetch(ctx context.Context, id string) (*models.Profile, error) {
	query :=
		`SELECT id, username, coalesce(name, ''), coalesce(email, '') FROM public."User"
		 WHERE id = $1
		 LIMIT 2
		 `

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, Classify(fmt.Errorf("db error: %w", err))
	}
	defer rows.Close()

	var found []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Name, &p.Email); err != nil {
			return nil, Classify(fmt.Errorf("db error: %w", err))
		}
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(fmt.Errorf("db error: %w", err))
	}

	return single(found)
}

func (r *PostgresRepository) Create(ctx context.Context, id, username, defaultEmail, defaultName string) (*models.Profile, error) {
	query :=
		`INSERT INTO public."User" (id, username, email, name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, username, coalesce(name, ''), coalesce(email, '')
		 `

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id, username, defaultEmail, defaultName).
		Scan(&p.ID, &p.Username, &p.Name, &p.Email)
	if err != nil {
		return nil, Classify(fmt.Errorf("db error: %w", err))
	}

	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	query :=
		`UPDATE public."User"
		 SET username = coalesce($2, username),
		     name = coalesce($3, name),
		     email = coalesce($4, email),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING id, username, coalesce(name, ''), coalesce(email, '')
		 `

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id, patch.Username, patch.Name, patch.Email).
		Scan(&p.ID, &p.Username, &p.Name, &p.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, Classify(fmt.Errorf("db error: %w", err))
	}

	return p, nil
}
