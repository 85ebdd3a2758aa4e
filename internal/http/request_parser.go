// Package http provides the JSON API server and its handlers.
//
// This file holds the request decoding helpers shared by the handlers:
// bounded JSON bodies, query integers and multipart receipt uploads.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"greekledger/internal/core"
)

const (
	maxJSONBody    = 1 << 20
	maxUploadBytes = 10 << 20
	receiptField   = "receipt"
)

var errEmptyBody = fmt.Errorf("%w: request body is required", core.ErrValidation)

// DecodeJSON reads a bounded JSON body into dst. Malformed bodies are
// reported as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case errors.As(err, &maxErr):
			return core.Invalid("request body too large")
		case errors.Is(err, core.ErrValidation):
			return err
		default:
			return core.Invalid("malformed JSON: %v", err)
		}
	}
	return nil
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted.
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	err := DecodeJSON(w, r, dst)
	if errors.Is(err, errEmptyBody) {
		return nil
	}
	return err
}

// QueryInt returns the positive integer query parameter key, or def when it
// is absent. Non-numeric and non-positive values are rejected.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, core.Invalid("%s must be a positive integer", key)
	}
	return n, nil
}

// Date accepts either RFC 3339 timestamps or bare YYYY-MM-DD dates, which
// is what HTML date inputs submit.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return core.Invalid("dates must be strings")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return core.Invalid("invalid date %q", s)
}

// Ptr returns nil for a nil d so optional dates stay optional.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// ReceiptUpload is an optional file attached to a reimbursement claim.
type ReceiptUpload struct {
	File     multipart.File
	Filename string
}

func (u *ReceiptUpload) Close() error {
	if u == nil || u.File == nil {
		return nil
	}
	return u.File.Close()
}

// ParseReimbursementForm reads a multipart claim. The receipt part is
// optional; the returned upload is nil when none was sent.
func ParseReimbursementForm(w http.ResponseWriter, r *http.Request) (core.Reimbursement, *ReceiptUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return core.Reimbursement{}, nil, core.Invalid("upload exceeds %d MB", maxUploadBytes>>20)
		}
		return core.Reimbursement{}, nil, core.Invalid("malformed multipart form: %v", err)
	}

	amount, err := core.ParseMoney(r.FormValue("amount"))
	if err != nil {
		return core.Reimbursement{}, nil, err
	}
	rb := core.Reimbursement{
		MemberID:    strings.TrimSpace(r.FormValue("memberId")),
		Amount:      amount,
		Description: strings.TrimSpace(r.FormValue("description")),
		Category:    core.Category(strings.ToUpper(strings.TrimSpace(r.FormValue("category")))),
		Event:       strings.TrimSpace(r.FormValue("event")),
	}

	file, header, err := r.FormFile(receiptField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return rb, nil, nil
	case err != nil:
		return rb, nil, fmt.Errorf("read receipt: %w", err)
	}
	return rb, &ReceiptUpload{File: file, Filename: header.Filename}, nil
}

// isMultipart reports whether the request carries a multipart body.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
