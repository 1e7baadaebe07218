package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt"
	"github.com/rs/zerolog"
)

// Session issues display tokens for the dashboard. There is no user store:
// the client declares a name and a role, the server signs what it is told.
// The token scopes nothing server-side; it only survives page reloads.
type Session struct {
	secret []byte
	log    zerolog.Logger
}

func NewSession(secret string, log zerolog.Logger) *Session {
	return &Session{secret: []byte(secret), log: log}
}

func (s *Session) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var body struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}
	if body.Role == "" {
		body.Role = "Agent"
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": body.Username,
		"role": body.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(12 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.log.Error().Err(err).Msg("token signing failed")
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"token": signed,
		"name":  body.Username,
		"role":  body.Role,
	})
}

func (s *Session) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
