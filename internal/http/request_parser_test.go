package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"greekledger/internal/billing"
	"greekledger/internal/core"
)

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"absent uses default", "", 12, false},
		{"blank uses default", "months=", 12, false},
		{"valid", "months=6", 6, false},
		{"padded", "months=%206", 6, false},
		{"zero", "months=0", 0, true},
		{"negative", "months=-3", 0, true},
		{"not a number", "months=six", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			got, err := QueryInt(r, "months", 12)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrValidation) {
				t.Errorf("err %v is not a validation error", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDateUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"date only", `"2025-03-14"`, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339 with offset", `"2025-03-14T10:00:00-05:00"`, time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC), false},
		{"datetime-local", `"2025-03-14T09:30"`, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), false},
		{"empty", `""`, time.Time{}, false},
		{"garbage", `"next tuesday"`, time.Time{}, true},
		{"number", `20250314`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := d.UnmarshalJSON([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, core.ErrValidation) {
					t.Errorf("err %v is not a validation error", err)
				}
				return
			}
			if !d.Time.Equal(tt.want) {
				t.Errorf("got %v, want %v", d.Time, tt.want)
			}
		})
	}
}

func TestDatePtr(t *testing.T) {
	var nilDate *Date
	if nilDate.Ptr() != nil {
		t.Error("nil date should give nil pointer")
	}
	if (&Date{}).Ptr() != nil {
		t.Error("zero date should give nil pointer")
	}
	d := &Date{Time: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}
	if p := d.Ptr(); p == nil || !p.Equal(d.Time) {
		t.Errorf("Ptr() = %v", p)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Amount core.Money `json:"amount"`
		When   *Date      `json:"when"`
	}

	tests := []struct {
		name     string
		body     string
		wantErr  error
		wantText string
		want     int64
	}{
		{name: "number amount", body: `{"amount": 12.5}`, want: 1250},
		{name: "string amount", body: `{"amount": "7.25", "when": "2025-01-01"}`, want: 725},
		{name: "empty body", body: "", wantErr: core.ErrValidation, wantText: "request body is required"},
		{name: "truncated", body: `{"amount": 1`, wantErr: core.ErrValidation, wantText: "malformed JSON"},
		{name: "bad amount", body: `{"amount": "lots"}`, wantErr: core.ErrInvalidAmount},
		{name: "bad date", body: `{"amount": 1, "when": "soon"}`, wantErr: core.ErrValidation, wantText: "invalid date"},
		{name: "oversized", body: `{"amount": "` + strings.Repeat("9", maxJSONBody) + `"}`, wantErr: core.ErrValidation, wantText: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tt.body))
			var got payload
			err := DecodeJSON(httptest.NewRecorder(), r, &got)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Amount.Cents != tt.want {
					t.Errorf("amount = %d cents, want %d", got.Amount.Cents, tt.want)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("err %q does not mention %q", err, tt.wantText)
			}
		})
	}
}

func TestDecodeOptionalJSON(t *testing.T) {
	var dst struct {
		PaymentLink string `json:"paymentLink"`
	}

	r := httptest.NewRequest(http.MethodPost, "/x", nil)
	if err := DecodeOptionalJSON(httptest.NewRecorder(), r, &dst); err != nil {
		t.Fatalf("no body: %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"paymentLink":"https://pay.example/abc"}`))
	if err := DecodeOptionalJSON(httptest.NewRecorder(), r, &dst); err != nil {
		t.Fatalf("with body: %v", err)
	}
	if dst.PaymentLink != "https://pay.example/abc" {
		t.Errorf("paymentLink = %q", dst.PaymentLink)
	}

	r = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{`))
	if err := DecodeOptionalJSON(httptest.NewRecorder(), r, &dst); !errors.Is(err, core.ErrValidation) {
		t.Errorf("malformed body err = %v", err)
	}
}

func TestStatusAndClientMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", fmt.Errorf("member abc: %w", core.ErrNotFound), http.StatusNotFound, "member abc: not found"},
		{"validation", fmt.Errorf("create member: %w", core.Invalid("email %s already exists", "a@b.c")), http.StatusBadRequest, "email a@b.c already exists"},
		{"invalid amount", core.ErrInvalidAmount, http.StatusBadRequest, "invalid amount"},
		{"transition", fmt.Errorf("%w: PAID to PENDING", core.ErrInvalidTransition), http.StatusBadRequest, "invalid status transition: PAID to PENDING"},
		{"no balance", core.ErrNoOutstandingBalance, http.StatusBadRequest, "member has no outstanding balance"},
		{"stripe disabled", fmt.Errorf("link: %w", billing.ErrDisabled), http.StatusBadRequest, billing.ErrDisabled.Error()},
		{"bad signature", billing.ErrInvalidSignature, http.StatusBadRequest, billing.ErrInvalidSignature.Error()},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "disk on fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.wantStatus {
				t.Errorf("StatusFor = %d, want %d", got, tt.wantStatus)
			}
			if got := ClientMessage(tt.err); got != tt.wantMsg {
				t.Errorf("ClientMessage = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	writeError(rr, r, errors.New("sqlite: database is locked"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "sqlite") {
		t.Errorf("internal detail leaked: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), internalErrorMessage) {
		t.Errorf("body = %s", rr.Body.String())
	}
}
