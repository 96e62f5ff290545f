package approval

import (
	"context"
	"strings"

	"servepoint-pos-service/internal/auth"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// Decision is the outcome of an escalation check. RequiresApproval is a
// non-error control-flow result: the client should re-prompt with a manager
// PIN, nothing has been written or locked.
type Decision struct {
	Approved         bool
	RequiresApproval bool
	MaxPercent       float64
}

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var errInvalidPIN = &Error{Code: "INVALID_MANAGER_PIN", Message: "Invalid manager PIN"}

type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CheckDiscount decides whether an adjustment at effectivePercent may
// proceed. The check is deliberately lock-free: it runs before the order
// row is touched so an approval-required response is side-effect-free.
func CheckDiscount(ctx context.Context, db Querier, tenantID int64, effectivePercent float64, ceiling float64, role auth.UserRole, pin string) (Decision, error) {
	if effectivePercent <= ceiling {
		return Decision{Approved: true, MaxPercent: ceiling}, nil
	}
	if role.Elevated() {
		return Decision{Approved: true, MaxPercent: ceiling}, nil
	}

	pin = strings.TrimSpace(pin)
	if pin == "" {
		return Decision{RequiresApproval: true, MaxPercent: ceiling}, nil
	}

	if err := ValidatePIN(ctx, db, tenantID, pin); err != nil {
		return Decision{MaxPercent: ceiling}, err
	}
	return Decision{Approved: true, MaxPercent: ceiling}, nil
}

// ValidatePIN compares the supplied PIN against every active elevated-role
// credential for the tenant. The failure is opaque on purpose: the caller
// cannot tell a wrong PIN from a missing credential row.
func ValidatePIN(ctx context.Context, db Querier, tenantID int64, pin string) error {
	rows, err := db.Query(ctx, `
		select pin_hash
		from users
		where tenant_id = $1 and role in ('MANAGER', 'OWNER') and is_active = true and pin_hash is not null
	`, tenantID)
	if err != nil {
		return errInvalidPIN
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil {
			return nil
		}
	}
	return errInvalidPIN
}
