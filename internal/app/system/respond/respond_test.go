package respond_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/bloodhub/internal/app/system/respond"
	"github.com/dalemusser/bloodhub/internal/domain/faults"
	"github.com/dalemusser/bloodhub/internal/testutil"
	"go.uber.org/zap"
)

func TestError_StatusByKind(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		retriable bool
	}{
		{"validation", faults.Validation("bad"), http.StatusBadRequest, "validation", false},
		{"not found", faults.NotFound("request"), http.StatusNotFound, "not_found", false},
		{"conflict", faults.ErrDonorBusy, http.StatusConflict, "donor_busy", false},
		{"race", faults.ErrRaceLost, http.StatusConflict, "race_lost", true},
		{"forbidden", faults.ErrNotProcessor, http.StatusForbidden, "not_processor", false},
		{"signed out", faults.ErrSignInRequired, http.StatusUnauthorized, "unauthorized", false},
		{"throttled", faults.ErrTooManyRequests, http.StatusTooManyRequests, "rate_limited", true},
		{"wrapped", fmt.Errorf("claim: %w", faults.ErrSelfFulfillment), http.StatusConflict, "self_fulfillment", false},
		{"exhausted", faults.ErrIDSpaceExhausted, http.StatusInternalServerError, "id_space_exhausted", false},
		{"plain", errors.New("socket closed"), http.StatusInternalServerError, "internal", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &testutil.ResponseRecorder{ResponseRecorder: httptest.NewRecorder()}
			respond.Error(rec, zap.NewNop(), tc.err)

			rec.AssertStatus(t, tc.status)
			env := rec.DecodeEnvelope(t)
			if env.Success {
				t.Error("expected success=false")
			}
			if env.Error == nil || env.Error.Code != tc.code {
				t.Fatalf("error = %+v, want code %q", env.Error, tc.code)
			}
			if env.Error.Retriable != tc.retriable {
				t.Errorf("retriable = %v, want %v", env.Error.Retriable, tc.retriable)
			}
		})
	}
}

func TestError_HidesInternalDetail(t *testing.T) {
	rec := testutil.NewRecorder()
	respond.Error(rec, zap.NewNop(), errors.New("connection refused 10.0.0.5"))
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Errorf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestError_CarriesRef(t *testing.T) {
	rec := testutil.NewRecorder()
	respond.Error(rec, nil, faults.ErrAlreadyAssigned.WithRef("Team A"))
	env := rec.DecodeEnvelope(t)
	if env.Error == nil || env.Error.Ref != "Team A" {
		t.Errorf("ref = %+v, want Team A", env.Error)
	}
}

func TestOK_Envelope(t *testing.T) {
	rec := testutil.NewRecorder()
	respond.OK(rec, map[string]string{"status": "pending"})
	rec.AssertStatus(t, http.StatusOK)
	env := rec.DecodeEnvelope(t)
	if !env.Success || !strings.Contains(string(env.Data), "pending") {
		t.Errorf("envelope = %+v", env)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		DonorID string `json:"donor_id"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"donor_id":"abc"}`))
	if err := respond.Decode(r, &dst); err != nil || dst.DonorID != "abc" {
		t.Fatalf("Decode = %v, %+v", err, dst)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"donor":1}`))
	if err := respond.Decode(r, &dst); faults.KindOf(err) != faults.KindValidation {
		t.Errorf("unknown field: expected validation error, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := respond.Decode(r, &dst); err != nil {
		t.Errorf("empty body: %v", err)
	}
}
