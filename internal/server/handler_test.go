package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"resumetrack/internal/config"
	resumetrackErrors "resumetrack/internal/errors"
)

func newTestServer() *Server {
	cfg := &config.Config{}
	cfg.Server.DefaultPageSize = 20
	cfg.Server.MaxPageSize = 100

	return &Server{
		AppConfig: cfg,
		Logger:    resumetrackErrors.NewLogger(slog.LevelError),
	}
}

func TestRequireUserID(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name       string
		header     string
		wantOK     bool
		wantUserID string
		wantStatus int
	}{
		{
			name:       "valid user ID",
			header:     "user-123",
			wantOK:     true,
			wantUserID: "user-123",
		},
		{
			name:       "missing header",
			header:     "",
			wantOK:     false,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "whitespace only",
			header:     "   ",
			wantOK:     false,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "surrounding whitespace trimmed",
			header:     "  user-456  ",
			wantOK:     true,
			wantUserID: "user-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
			if tt.header != "" {
				r.Header.Set("X-User-ID", tt.header)
			}
			w := httptest.NewRecorder()

			userID, ok := s.requireUserID(w, r)

			if ok != tt.wantOK {
				t.Errorf("requireUserID() ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK && userID != tt.wantUserID {
				t.Errorf("requireUserID() userID = %q, want %q", userID, tt.wantUserID)
			}
			if !tt.wantOK && w.Code != tt.wantStatus {
				t.Errorf("requireUserID() status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestWriteAppError(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation error maps to 400",
			err:        resumetrackErrors.NewValidationError(resumetrackErrors.ErrCodeInvalidRequest, "Bad input", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   resumetrackErrors.ErrCodeInvalidRequest,
		},
		{
			name:       "not found maps to 404",
			err:        resumetrackErrors.NewNotFoundError(resumetrackErrors.ErrCodeAnalysisNotFound, "Analysis not found", nil),
			wantStatus: http.StatusNotFound,
			wantCode:   resumetrackErrors.ErrCodeAnalysisNotFound,
		},
		{
			name:       "quota error maps to 429",
			err:        resumetrackErrors.NewQuotaError(resumetrackErrors.ErrCodeQuotaExceeded, "Weekly analysis limit reached", nil),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   resumetrackErrors.ErrCodeQuotaExceeded,
		},
		{
			name:       "conflict maps to 409",
			err:        resumetrackErrors.NewConflictError(resumetrackErrors.ErrCodeAlreadyCompleted, "Analysis already completed", nil),
			wantStatus: http.StatusConflict,
			wantCode:   resumetrackErrors.ErrCodeAlreadyCompleted,
		},
		{
			name:       "AI error maps to 502",
			err:        resumetrackErrors.NewAIError(resumetrackErrors.ErrCodeAIServiceFailed, "Scoring failed", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   resumetrackErrors.ErrCodeAIServiceFailed,
		},
		{
			name:       "plain error maps to 500",
			err:        fmt.Errorf("database exploded"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			s.writeAppError(w, tt.err, "Request failed")

			if w.Code != tt.wantStatus {
				t.Errorf("writeAppError() status = %d, want %d", w.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != "Request failed" {
				t.Errorf("writeAppError() error = %q, want %q", resp.Error, "Request failed")
			}
			if resp.Code != tt.wantCode {
				t.Errorf("writeAppError() code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestParsePagination(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantErr      bool
	}{
		{
			name:         "defaults applied",
			query:        "",
			wantPage:     1,
			wantPageSize: 20,
		},
		{
			name:         "explicit page and size",
			query:        "page=3&pageSize=50",
			wantPage:     3,
			wantPageSize: 50,
		},
		{
			name:         "pageSize capped at max",
			query:        "pageSize=500",
			wantPage:     1,
			wantPageSize: 100,
		},
		{
			name:    "zero page rejected",
			query:   "page=0",
			wantErr: true,
		},
		{
			name:    "negative pageSize rejected",
			query:   "pageSize=-5",
			wantErr: true,
		},
		{
			name:    "non-numeric page rejected",
			query:   "page=abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/analyses?"+tt.query, nil)

			page, pageSize, err := s.parsePagination(r)

			if tt.wantErr {
				if err == nil {
					t.Error("parsePagination() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePagination() unexpected error: %v", err)
			}
			if page != tt.wantPage {
				t.Errorf("parsePagination() page = %d, want %d", page, tt.wantPage)
			}
			if pageSize != tt.wantPageSize {
				t.Errorf("parsePagination() pageSize = %d, want %d", pageSize, tt.wantPageSize)
			}
		})
	}
}

func TestResponseWrapperCapturesStatus(t *testing.T) {
	w := httptest.NewRecorder()
	wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

	wrapper.WriteHeader(http.StatusTooManyRequests)

	if wrapper.statusCode != http.StatusTooManyRequests {
		t.Errorf("responseWrapper statusCode = %d, want %d", wrapper.statusCode, http.StatusTooManyRequests)
	}
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("underlying recorder code = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}
