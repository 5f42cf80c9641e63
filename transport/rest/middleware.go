package rest

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

const participantKeyCtx contextKey = "participantKey"

const participantCookieName = "player_token"

// withParticipant resolves the caller's opaque participant key from the
// identity cookie, minting a fresh token on first contact or when the cookie
// fails verification. The key stays stable across requests for the lifetime
// of the cookie, which is what keeps seats bound to the right human.
func (that *Server) withParticipant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := that.logger.With("method", "withParticipant")

		var participantKey string

		if cookie, err := r.Cookie(participantCookieName); err == nil {
			if key, parseErr := that.identity.ParticipantKey(cookie.Value); parseErr == nil {
				participantKey = key
			}
		}

		if participantKey == "" {
			token, err := that.identity.Issue()
			if err != nil {
				log.Error("failed to issue participant token", "error", err)
				writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "internal error"})
				return
			}

			key, err := that.identity.ParticipantKey(token)
			if err != nil {
				log.Error("failed to parse freshly issued token", "error", err)
				writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "internal error"})
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     participantCookieName,
				Value:    token,
				Path:     "/",
				Expires:  time.Now().Add(24 * time.Hour),
				HttpOnly: true,
			})

			participantKey = key
		}

		ctx := context.WithValue(r.Context(), participantKeyCtx, participantKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func participantFrom(ctx context.Context) string {
	key, _ := ctx.Value(participantKeyCtx).(string)
	return key
}
