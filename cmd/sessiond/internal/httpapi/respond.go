package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"go.uber.org/zap"
)

// envelope is the body shape of every response.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func ok(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{StatusCode: status, Data: data, Message: message, Success: true})
}

// fail answers with the engine's status for err. Dependency failures are
// logged here because their detail never reaches the client.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := goSession.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, envelope{StatusCode: status, Message: goSession.PublicMessage(err)})
}

var errBadRequest = errors.New("malformed request body")

func (h *Handlers) badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: message})
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return errBadRequest
	}
	if dec.More() {
		return errBadRequest
	}
	return nil
}
