package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type healthHandler struct {
	responder Responder
	now       func() time.Time
}

func newHealthHandler(debug bool) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()
	return healthHandler{
		responder: NewResponder(logger, debug),
		now:       time.Now,
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// health answers liveness probes on any method.
func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, healthResponse{
			Status: "ok",
			Time:   h.now().UTC().Format("2006-01-02T15:04:05-07:00"),
		})
	}
}
