package response

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

// SuccessWithWarning carries a soft warning (e.g. a capped percentage)
// alongside an otherwise successful mutation.
func SuccessWithWarning(w http.ResponseWriter, data any, warning string) {
	if warning == "" {
		Success(w, data)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
		"warning": warning,
	})
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}
