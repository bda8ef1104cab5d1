package profiles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// integrityConstraintClass is the SQLSTATE class for constraint violations
// (unique, check, not-null, foreign key).
const integrityConstraintClass = "23"

// StorageError is the structured error body reported by PostgREST.
type StorageError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *StorageError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("storage error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("storage error %s: %s (%s)", e.Code, e.Message, e.Details)
}

// Classify maps a storage failure to one of the repository error kinds.
// Constraint violations become common.ErrUsernameTaken; not-found passes
// through; everything else becomes common.ErrRepository. The original error
// stays in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrUsernameTaken) ||
		errors.Is(err, common.ErrRepository) {
		return err
	}

	if strings.HasPrefix(sqlState(err), integrityConstraintClass) {
		return fmt.Errorf("%w: %w", common.ErrUsernameTaken, err)
	}

	return fmt.Errorf("%w: %w", common.ErrRepository, err)
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
