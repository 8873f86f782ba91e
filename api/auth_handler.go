package api

import (
	"net/http"

	"github.com/prevozkop/backend/database"
	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errs.NewUnauthorizedError("Invalid credentials")

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	adminRepo *database.AdminRepo
	sessions  *session.Manager
	// compared against for unknown emails so both paths cost one bcrypt run
	dummyHash []byte
}

func newAuthHandler(adminRepo *database.AdminRepo, sessions *session.Manager, bcryptCost int, debug bool) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	dummyHash, err := bcrypt.GenerateFromPassword([]byte("prevozkop-timing-guard"), bcryptCost)
	if err != nil {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("prevozkop-timing-guard"), bcrypt.DefaultCost)
	}

	return authHandler{
		responder: NewResponder(logger, debug),
		logger:    logger,
		adminRepo: adminRepo,
		sessions:  sessions,
		dummyHash: dummyHash,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login checks the credentials and starts a fresh session.
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		email := database.NormalizeEmail(req.Email)
		if email == "" || req.Password == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("Email and password required"))
			return
		}

		admin, err := h.adminRepo.FindByEmail(r.Context(), email)
		if err != nil {
			if !errs.IsNotFound(err) {
				h.responder.WriteError(w, wrapDatabaseError("find", "admin", err))
				return
			}
			bcrypt.CompareHashAndPassword(h.dummyHash, []byte(req.Password))
			h.responder.WriteError(w, errInvalidCredentials)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
			h.logger.Info().Str("email", email).Msg("Failed admin login")
			h.responder.WriteError(w, errInvalidCredentials)
			return
		}

		if err := h.sessions.Start(w, r, session.Data{AdminID: admin.ID}); err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to start session", err))
			return
		}
		h.responder.WriteJSON(w, okResponse{OK: true})
	}
}

func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.sessions.Destroy(w, r); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to destroy session")
		}
		h.responder.WriteJSON(w, okResponse{OK: true})
	}
}
