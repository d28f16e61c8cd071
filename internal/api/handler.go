package api

import "net/http"

// NewHandler returns an http.Handler exposing the operational endpoints
// of the bot process. There is no functional API: the only chat surface
// is Telegram, so the handler serves liveness checks only.
func NewHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz())
	return mux
}

func handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}
