package middleware

import (
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/entity"
	"github.com/edubrain/answer-backend/internal/pkg/response"
)

const invalidTokenMessage = "无效的访问令牌"

// requestToken reads the client token from the X-Access-Token header or,
// failing that, the token query parameter. The OCS userscript can only
// attach query parameters, browsers and scripts use the header.
func requestToken(r *http.Request) string {
	if token := r.Header.Get("X-Access-Token"); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// Auth guards the management endpoints with a shared access token.
// An empty configured token disables the check entirely.
func Auth(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && requestToken(r) != token {
				ctxzap.Warn(r.Context(), "rejected request with invalid access token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				response.Message(w, http.StatusForbidden, false, invalidTokenMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthOCS is Auth with the failure envelope the OCS client understands.
func AuthOCS(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && requestToken(r) != token {
				ctxzap.Warn(r.Context(), "rejected search request with invalid access token",
					zap.String("remote_addr", r.RemoteAddr),
				)
				response.JSON(w, http.StatusForbidden, entity.FailureResponse{
					Code: 0,
					Msg:  invalidTokenMessage,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
