package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every API error:
// {"error": "<status text>", "message": "<detail>"}.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorBody whose error field is the status text of code.
func WriteError(w http.ResponseWriter, code int, message string) {
	text := http.StatusText(code)
	if text == "" {
		text = "Unknown error"
	}
	WriteJSON(w, code, ErrorBody{Error: text, Message: message})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
