package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}

// isDev mirrors config.Config.IsDev for middleware that only gets the env name.
func isDev(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "dev" || env == "local"
}
