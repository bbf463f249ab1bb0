package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Write encodes payload as a JSON response with the given status.
func Write(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// WriteError writes a JSON error body of the form {"message": "..."}.
func WriteError(w http.ResponseWriter, status int, message string) {
	Write(w, status, map[string]string{"message": message})
}
