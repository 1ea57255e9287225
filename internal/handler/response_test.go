package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/octobees/portal/internal/repository"
	"github.com/octobees/portal/internal/service"
)

func TestEnvelope(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	if err := Success(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), 0, "hello", map[string]string{"foo": "bar"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "success" || payload.Message != "hello" {
		t.Fatalf("unexpected response: %+v", payload)
	}

	rec = httptest.NewRecorder()
	if err := Error(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), 0, "boom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected default status 500, got %d", rec.Code)
	}
	payload = APIResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "error" || payload.Message != "boom" || payload.Data != nil {
		t.Fatalf("unexpected response: %+v", payload)
	}
}

func TestServiceError(t *testing.T) {
	tests := map[string]struct {
		err    error
		status int
		msg    string
	}{
		"missing credentials": {service.ErrMissingCredentials, http.StatusBadRequest, "email and password are required"},
		"bad credentials":     {service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		"duplicate":           {service.ErrEmailAlreadyExists, http.StatusConflict, "email already exists"},
		"repo duplicate":      {repository.ErrEmailDuplicate, http.StatusConflict, "email already exists"},
		"invalid id":          {service.ErrInvalidUserID, http.StatusBadRequest, service.ErrInvalidUserID.Error()},
		"validation":          {fmt.Errorf("%w: unknown role %q", service.ErrInvalidInput, "root"), http.StatusBadRequest, `unknown role "root"`},
		"not found":           {repository.ErrUserNotFound, http.StatusNotFound, "user not found"},
		"unexpected":          {errors.New("db down"), http.StatusInternalServerError, "fallback"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			if err := serviceError(c, zap.New(core), tc.err, "fallback"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			var payload APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if payload.Message != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, payload.Message)
			}

			logged := logs.FilterMessage("fallback").Len()
			if tc.status == http.StatusInternalServerError && logged != 1 {
				t.Fatalf("expected the failure to be logged, got %d entries", logged)
			}
			if tc.status != http.StatusInternalServerError && logged != 0 {
				t.Fatalf("expected no log entries, got %d", logged)
			}
		})
	}
}
