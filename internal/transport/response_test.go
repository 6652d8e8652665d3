package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/curatehq/curate/model"
)

func TestWriteJSON_setsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"hello": "world"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["hello"] != "world" {
		t.Errorf("body = %v", body)
	}
}

func TestWriteJSON_nilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusNoContent, nil)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestWriteError_statusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad request", model.NewBadRequestError("nope"), 400, model.ErrBadRequest},
		{"unauthorized", model.NewUnauthorizedError("nope"), 401, model.ErrUnauthorized},
		{"not found", model.NewNotFoundError("nope"), 404, model.ErrNotFound},
		{"conflict", model.NewConflictError("nope"), 409, model.ErrConflict},
		{"validation", model.NewValidationError(nil), 422, model.ErrValidationError},
		{"session expired", model.NewSessionExpiredError(), 419, model.ErrSessionExpired},
		{"internal", model.NewInternalError(), 500, model.ErrInternalError},
		{"backend unavailable", model.NewBackendUnavailableError(), 502, model.ErrBackendUnavailable},
		{"backend timeout", model.NewBackendTimeoutError(), 504, model.ErrBackendTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}

			var body struct {
				Error *model.ErrorEnvelope `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error == nil || body.Error.Code != tt.code {
				t.Errorf("error code = %v, want %s", body.Error, tt.code)
			}
		})
	}
}

func TestWriteError_plainErrorBecomes500(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var body struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error.Code != model.ErrInternalError {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Error.Code)
	}
}

func TestWriteError_unknownCodeDefaultsTo500(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, &model.ErrorEnvelope{Code: "SOMETHING_ELSE", Message: "?"})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
