// internal/api/router.go
package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/keisan-drill/backend/internal/metrics"
)

func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /health", health)

	// Quiz
	mux.HandleFunc("GET /config", h.getConfig)
	mux.HandleFunc("POST /generate_question", h.generateQuestion)
	mux.HandleFunc("POST /submit_session", h.submitSession)

	// Upload outbox
	mux.HandleFunc("GET /uploads", h.listUploads)
	mux.HandleFunc("GET /uploads/{uploadID}", h.getUpload)
	mux.HandleFunc("POST /uploads/retry", h.retryUploads)

	mux.Handle("GET /metrics", metrics.Handler())

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)
}

// health reports liveness.
// @Summary      Health check
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
