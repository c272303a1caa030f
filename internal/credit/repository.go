package credit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository defines customer persistence consumed by the enforcement
// engine. Customer records are owned elsewhere; only credit fields mutate
// through this interface.
type Repository interface {
	Find(ctx context.Context, customerID string) (*Customer, error)
	SetBlocked(ctx context.Context, customerID string, blocked bool, reason string) error
	SetCreditLimit(ctx context.Context, customerID string, limit decimal.Decimal) error
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Find fetches a customer by id.
func (r *PGRepository) Find(ctx context.Context, customerID string) (*Customer, error) {
	var (
		c           Customer
		limit       pgtype.Numeric
		dues        pgtype.Numeric
		blockReason pgtype.Text
	)
	err := r.pool.QueryRow(ctx, `SELECT id, name, credit_limit, total_dues, is_blocked, block_reason
FROM customers WHERE id = $1`, customerID).
		Scan(&c.ID, &c.Name, &limit, &dues, &c.IsBlocked, &blockReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if c.CreditLimit, err = numericToDecimal(limit); err != nil {
		return nil, err
	}
	if c.TotalDues, err = numericToDecimal(dues); err != nil {
		return nil, err
	}
	if blockReason.Valid {
		c.BlockReason = blockReason.String
	}
	return &c, nil
}

// SetBlocked flips the customer block flag.
func (r *PGRepository) SetBlocked(ctx context.Context, customerID string, blocked bool, reason string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET is_blocked = $2, block_reason = $3, updated_at = NOW()
WHERE id = $1`, customerID, blocked, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// SetCreditLimit updates the credit ceiling.
func (r *PGRepository) SetCreditLimit(ctx context.Context, customerID string, limit decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET credit_limit = $2, updated_at = NOW()
WHERE id = $1`, customerID, limit)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	value, err := n.Value()
	if err != nil {
		return decimal.Zero, err
	}
	s, ok := value.(string)
	if !ok {
		return decimal.Zero, errors.New("credit: unexpected numeric representation")
	}
	return decimal.NewFromString(s)
}

var _ Repository = (*PGRepository)(nil)
