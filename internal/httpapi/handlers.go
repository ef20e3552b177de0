package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/hub"
	"github.com/DoyleJ11/couch-lobby/internal/lobby"
	"github.com/DoyleJ11/couch-lobby/internal/types"
)

const replyTimeout = 2 * time.Second

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createResponse struct {
	Code string `json:"code"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeHubDown(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, "server shutting down")
}

// CreateLobby opens a lobby under a fresh code. The optional JSON body
// overrides fields of the hub's default stage config.
func CreateLobby(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := h.Defaults()
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		if err := cfg.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}
			lb, ok := findLobby(h, c)
			if !ok {
				writeHubDown(w)
				return
			}
			if lb == nil {
				code = c
				break
			}
			log.Debug("collision on code, regenerating", zap.String("code", c))
		}

		reply := make(chan *lobby.Lobby, 1)
		lb, ok := hub.Ask(h, hub.CreateLobby{Code: code, Config: &cfg, Reply: reply}, reply)
		if !ok {
			writeHubDown(w)
			return
		}
		if lb == nil {
			writeError(w, http.StatusInternalServerError, "failed to create lobby")
			return
		}
		writeJSON(w, http.StatusCreated, createResponse{Code: code})
	}
}

func ListLobbies(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []string, 1)
		codes, ok := hub.Ask(h, hub.ListLobbies{Reply: reply}, reply)
		if !ok {
			writeHubDown(w)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Codes []string `json:"codes"`
		}{Codes: codes})
	}
}

func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		lb, ok := findLobby(h, code)
		if !ok {
			writeHubDown(w)
			return
		}
		if lb == nil {
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		}
		reply := make(chan lobby.View, 1)
		if !lb.Send(lobby.GetState{Reply: reply}) {
			writeError(w, http.StatusGone, "lobby closed")
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, types.View(code, v))
		case <-time.After(replyTimeout):
			writeError(w, http.StatusGatewayTimeout, "lobby did not answer")
		}
	}
}

func RestartLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := findLobby(h, chi.URLParam(r, "code"))
		if !ok {
			writeHubDown(w)
			return
		}
		if lb == nil {
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		}
		reply := make(chan error, 1)
		if !lb.Send(lobby.Restart{Reply: reply}) {
			writeError(w, http.StatusGone, "lobby closed")
			return
		}
		select {
		case err := <-reply:
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case <-time.After(replyTimeout):
			writeError(w, http.StatusGatewayTimeout, "lobby did not answer")
		}
	}
}

func DeleteLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan bool, 1)
		removed, ok := hub.Ask(h, hub.RemoveLobby{Code: chi.URLParam(r, "code"), Reply: reply}, reply)
		if !ok {
			writeHubDown(w)
			return
		}
		if !removed {
			writeError(w, http.StatusNotFound, "lobby not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// findLobby returns ok=false only when the hub has stopped.
func findLobby(h *hub.Hub, code string) (*lobby.Lobby, bool) {
	reply := make(chan *lobby.Lobby, 1)
	return hub.Ask(h, hub.GetLobby{Code: code, Reply: reply}, reply)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
