package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"servepoint-pos-service/internal/auth"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const tenantContextKey contextKey = "tenantContext"

// TenantContext is the request-scoped acting identity. It is populated once
// at the boundary and passed down; nothing below the middleware reads
// session state from anywhere else.
type TenantContext struct {
	UserID      int64
	TenantID    int64
	BranchID    int64
	Role        auth.UserRole
	Permissions []string
}

func (tc *TenantContext) Elevated() bool {
	return tc.Role.Elevated()
}

func WithTenantContext(ctx context.Context, tc *TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey, tc)
}

func GetTenantContext(ctx context.Context) (*TenantContext, bool) {
	value := ctx.Value(tenantContextKey)
	if value == nil {
		return nil, false
	}
	tc, ok := value.(*TenantContext)
	return tc, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := map[string]any{
		"success": false,
		"error":   "UNAUTHORIZED",
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

// POSAuth verifies the bearer token, confirms the user is active staff for
// the claimed tenant/branch and installs the TenantContext.
func POSAuth(db *pgxpool.Pool, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}

			userID, err := parseInt64(claims.UserID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			tenantID, err := parseInt64(claims.TenantID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			branchID, err := parseInt64(claims.BranchID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			var (
				role         string
				permissions  []string
				userActive   bool
				branchActive bool
			)
			query := `
				select u.role, u.permissions, u.is_active, b.is_active
				from users u
				join branches b on b.id = $3 and b.tenant_id = $2
				where u.id = $1 and u.tenant_id = $2
			`
			err = db.QueryRow(r.Context(), query, userID, tenantID, branchID).Scan(&role, &permissions, &userActive, &branchActive)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Staff access required", err.Error())
				return
			}
			if !userActive {
				writeAuthError(w, http.StatusForbidden, "Staff account is disabled")
				return
			}
			if !branchActive {
				writeAuthError(w, http.StatusForbidden, "Branch is currently disabled")
				return
			}

			userRole := auth.UserRole(role)
			if !userRole.Elevated() {
				perm := auth.GetPermissionForAPI(r.URL.Path, r.Method)
				if perm != nil {
					has := false
					for _, p := range permissions {
						if p == string(*perm) {
							has = true
							break
						}
					}
					if !has {
						writeAuthError(w, http.StatusForbidden, "You do not have permission to perform this operation")
						return
					}
				}
			}

			tc := &TenantContext{
				UserID:      userID,
				TenantID:    tenantID,
				BranchID:    branchID,
				Role:        userRole,
				Permissions: permissions,
			}

			ctx := WithTenantContext(r.Context(), tc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseInt64(value string) (int64, error) {
	var out int64
	_, err := fmt.Sscan(strings.TrimSpace(value), &out)
	return out, err
}
