package api

import (
	"encoding/json"
	"net/http"

	"crypto-dash/internal/domain"
)

// responder writes the JSON envelopes of the public API.
type responder struct {
	anyOrigin bool
}

func (rs responder) writeJSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	if rs.anyOrigin && h.Get("Access-Control-Allow-Origin") == "" {
		h.Set("Access-Control-Allow-Origin", "*")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData writes a 200 {"data":[...]} envelope. A nil slice is sent as [].
func (rs responder) writeData(w http.ResponseWriter, rows []domain.PriceRow) {
	if rows == nil {
		rows = []domain.PriceRow{}
	}
	rs.writeJSON(w, http.StatusOK, domain.PricesResponse{Data: rows})
}

// writeError writes an {"error": "..."} envelope with the status for err.
func (rs responder) writeError(w http.ResponseWriter, err error) {
	rs.writeJSON(w, httpStatusFromDomainError(err), domain.ErrorResponse{Error: publicMessage(err)})
}
