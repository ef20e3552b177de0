package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
	"github.com/DoyleJ11/couch-lobby/internal/store"
	"github.com/DoyleJ11/couch-lobby/internal/types"
)

// GetRun serves a finished run from the result store. A run whose map vote
// has not been saved yet comes back without a map.
func GetRun(runs store.Reader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "run")
		ctx := r.Context()

		roster, err := runs.Roster(ctx, runID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error("read roster", zap.String("run", runID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to read run")
			return
		}
		rosterMissing := err != nil

		choice, err := runs.Map(ctx, runID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error("read map", zap.String("run", runID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to read run")
			return
		}
		if err != nil {
			if rosterMissing {
				writeError(w, http.StatusNotFound, "run not found")
				return
			}
			choice = engine.NoChoice
		}
		writeJSON(w, http.StatusOK, types.Run(runID, roster, choice))
	}
}
