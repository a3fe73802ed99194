package compat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type contextKey string

// ClientContextKey stores the parsed ClientInfo in the request context.
const ClientContextKey contextKey = "quickorder-client"

// Middleware requires and parses the Quick-Order-Client header on every
// request, rejects scripts older than the supported floor, and stores
// the ClientInfo for handlers. Health endpoints are exempt.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(ClientHeader)
			if header == "" {
				writeClientError(w, http.StatusBadRequest, "client_header_required",
					"Quick-Order-Client header is required")
				return
			}

			info, err := ParseClientHeader(header)
			if err != nil {
				logger.Warn("invalid client header",
					slog.String("header", header),
					slog.String("error", err.Error()))
				writeClientError(w, http.StatusBadRequest, "client_header_invalid",
					"Invalid Quick-Order-Client header: "+err.Error())
				return
			}

			if err := CheckVersion(info.Version); err != nil {
				logger.Warn("unsupported client version",
					slog.String("version", info.Version),
					slog.String("error", err.Error()))
				writeClientError(w, http.StatusUpgradeRequired, "client_version_unsupported",
					err.Error())
				return
			}

			reqCtx := context.WithValue(r.Context(), ClientContextKey, info)
			next.ServeHTTP(w, r.WithContext(reqCtx))
		})
	}
}

// isExemptPath returns true for paths that don't require the client
// header. Health checks are infrastructure, not protocol; the MCP
// endpoint serves agents, not the theme script.
func isExemptPath(path string) bool {
	switch {
	case path == "/mcp":
		return true
	case path == "/health" || path == "/healthz":
		return true
	default:
		return false
	}
}

func writeClientError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = code
	resp.Error.Message = message

	json.NewEncoder(w).Encode(resp)
}

// FromContext retrieves the parsed ClientInfo, or nil when the request
// skipped the middleware (exempt paths).
func FromContext(ctx context.Context) *ClientInfo {
	v := ctx.Value(ClientContextKey)
	if v == nil {
		return nil
	}
	return v.(*ClientInfo)
}
