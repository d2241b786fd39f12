package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyLanguage   = "language"
	KeyRoute      = "route"
	KeyClientID   = "client_id"
	KeyClients    = "clients"
	KeyDurationMS = "duration_ms"
	KeyCategory   = "category"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Language(l string) slog.Attr     { return slog.String(KeyLanguage, l) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func ClientID(id string) slog.Attr    { return slog.String(KeyClientID, id) }
func Clients(n int) slog.Attr         { return slog.Int(KeyClients, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
