package handler

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every endpoint answers with. Success carries
// the payload in data; failure carries a human-readable message. Clients
// branch on the success flag, not the status code.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// respondData sends a successful response with a payload
func respondData(w http.ResponseWriter, statusCode int, data any) {
	respondJSON(w, statusCode, Response{Success: true, Data: data})
}

// respondMessage sends a successful response with only a message
func respondMessage(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, Response{Success: true, Message: message})
}

// respondError sends a failure response
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, Response{Success: false, Message: message})
}

func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
