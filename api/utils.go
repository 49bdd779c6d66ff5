package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"BizBooks/internal/store"
	"BizBooks/internal/validation"
)

// RespondWithError sends the standard JSON error envelope.
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Println("[ERROR]", errMsg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// RespondWithResult sends a bare success/failure envelope.
func RespondWithResult(w http.ResponseWriter, success bool, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	if success {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
		return
	}
	log.Println("[ERROR] RespondWithResult", errMsg)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": errMsg})
}

// RespondWithPayload sends a success envelope with an arbitrary payload
// under the conventional "rows" key.
func RespondWithPayload(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"rows":    payload,
	})
}

// RespondWithDomainError maps engine/store error kinds onto HTTP statuses:
// rejected input is a 400, a missing row or partition a 404, a duplicate
// partition a 409, an exhausted retry budget a 503, anything else a 500.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case validation.IsValidation(err):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrPartitionNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrPartitionExists):
		RespondWithError(w, http.StatusConflict, err.Error())
	case store.IsTransient(err):
		RespondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// LogInfo logs an informational message (wrapper for consistent logging).
func LogInfo(msg string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+msg, args...)
	} else {
		log.Println("[INFO]", msg)
	}
}

// LogError logs an error message (wrapper for consistent logging).
func LogError(msg string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+msg, args...)
	} else {
		log.Println("[ERROR]", msg)
	}
}
