package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

const (
	headerContentType   = "Content-Type"
	contentTypeJSONUTF8 = "application/json; charset=utf-8"
	contentTypePNG      = "image/png"
)

// HTTPError carries a status code and the message shown to the client.
type HTTPError struct {
	cause   error
	Code    int
	Message string
}

func (he *HTTPError) Error() string {
	return he.Message
}

func (he *HTTPError) Unwrap() error {
	return he.cause
}

func newHTTPError(code int, message string, cause error) *HTTPError {
	if cause == nil {
		cause = errors.New(message)
	}
	return &HTTPError{cause: cause, Code: code, Message: message}
}

func errBadRequest(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusBadRequest, message, cause)
}

func errForbidden(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusForbidden, message, cause)
}

func errNotFound(message string) *HTTPError {
	return newHTTPError(http.StatusNotFound, message, nil)
}

func errConflict(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusConflict, message, cause)
}

func errUnprocessable(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusUnprocessableEntity, message, cause)
}

// appHandler is a handler that reports failures by returning them.
type appHandler func(w http.ResponseWriter, r *http.Request) error

// makeHandler turns returned errors into a JSON {"error": ...} body.
func makeHandler(h appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal Server Error"

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			code, message = httpErr.Code, httpErr.Message
			level := slog.LevelWarn
			if code >= 500 {
				level = slog.LevelError
			}
			slog.Log(r.Context(), level, "Client error response",
				"code", code,
				"msg", message,
				"cause", errors.Unwrap(httpErr),
				"path", r.URL.Path,
				"method", r.Method,
			)
		} else {
			slog.Error("Unhandled internal error", "path", r.URL.Path, "method", r.Method, "error", err)
		}

		respondJSON(w, code, map[string]string{"error": message})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	w.Header().Set(headerContentType, contentTypeJSONUTF8)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
