// Package endpoints implements one Endpoint per HTTP route the server
// exposes: a thin HTTP handler plus the matching CLI command that calls
// it over the wire, following internal/api's Endpoint contract.
package endpoints

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/alexmercer/bookbrain/internal/apperr"
	"github.com/alexmercer/bookbrain/internal/server/dto"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// appErrStatus maps an apperr.Kind to its HTTP status.
func appErrStatus(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeAppErr writes err using the status its apperr.Kind maps to. Errors
// that aren't an *apperr.Error are treated as KindInternal.
func writeAppErr(w http.ResponseWriter, err error) {
	writeError(w, appErrStatus(apperr.KindOf(err)), err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.UUID{}, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func queryUUIDs(r *http.Request, name string) []uuid.UUID {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var ids []uuid.UUID
	for _, s := range strings.Split(raw, ",") {
		if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
