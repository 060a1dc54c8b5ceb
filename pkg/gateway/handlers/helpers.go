// Package handlers implements the gateway's REST surface.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/centaurus-ai/roundtable/pkg/core"
	"github.com/centaurus-ai/roundtable/pkg/gateway/mw"
)

// writeError maps an error onto the JSON error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	mw.WriteError(w, reqID, err)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(r *http.Request, maxBytes int64, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.NewInvalidRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
