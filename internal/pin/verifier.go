// Package pin provides the step-up authentication capability consumed by
// gates guarding irreversible financial commitments.
package pin

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrVerification indicates the verifier itself failed (store unreachable,
// missing business record). Distinct from an incorrect PIN, which is the
// boolean result. Callers treat it fail-closed.
var ErrVerification = errors.New("pin: verification unavailable")

// Verifier confirms owner identity for a business.
type Verifier interface {
	Verify(ctx context.Context, businessID, pin string) (bool, error)
}

// BcryptVerifier checks the supplied PIN against the bcrypt hash stored on
// the business record.
type BcryptVerifier struct {
	pool *pgxpool.Pool
}

// NewBcryptVerifier constructs a BcryptVerifier.
func NewBcryptVerifier(pool *pgxpool.Pool) *BcryptVerifier {
	return &BcryptVerifier{pool: pool}
}

// Verify reports whether the PIN matches the business owner PIN.
func (v *BcryptVerifier) Verify(ctx context.Context, businessID, pin string) (bool, error) {
	if v == nil || v.pool == nil {
		return false, ErrVerification
	}
	if pin == "" {
		return false, nil
	}
	var hash string
	err := v.pool.QueryRow(ctx, `SELECT owner_pin_hash FROM businesses WHERE id = $1`, businessID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%w: business %s not found", ErrVerification, businessID)
		}
		return false, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return false, nil
	}
	return true, nil
}

var _ Verifier = (*BcryptVerifier)(nil)
