// Package respond writes the JSON result envelope shared by every API route:
//
//	{ "success": true,  "data": ... }
//	{ "success": false, "error": { "code", "message", "ref", "retriable" } }
//
// Business errors (*faults.Error) map to a status by kind. Anything else is
// logged and reported as a generic internal error.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/bloodhub/internal/domain/faults"
	"go.uber.org/zap"
)

// maxBody caps request bodies read by Decode.
const maxBody = 1 << 20

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *errorOut `json:"error,omitempty"`
}

type errorOut struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Ref       string `json:"ref,omitempty"`
	Retriable bool   `json:"retriable"`
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, envelope{Success: true, Data: data})
}

// Error writes the failure envelope for err.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	var fe *faults.Error
	if !errors.As(err, &fe) {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		write(w, http.StatusInternalServerError, envelope{Error: &errorOut{
			Code:    "internal",
			Message: "something went wrong, please try again later",
		}})
		return
	}
	if fe.Kind == faults.KindInternal && log != nil {
		log.Error("request failed", zap.String("code", fe.Code), zap.Error(err))
	}
	write(w, Status(fe.Kind), envelope{Error: &errorOut{
		Code:      fe.Code,
		Message:   fe.Message,
		Ref:       fe.Ref,
		Retriable: fe.Retriable(),
	}})
}

// Status maps an error kind to its HTTP status.
func Status(k faults.Kind) int {
	switch k {
	case faults.KindValidation:
		return http.StatusBadRequest
	case faults.KindNotFound:
		return http.StatusNotFound
	case faults.KindConflict, faults.KindRaceLoss:
		return http.StatusConflict
	case faults.KindForbidden:
		return http.StatusForbidden
	case faults.KindUnauthenticated:
		return http.StatusUnauthorized
	case faults.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON body into dst. An empty body leaves dst unchanged.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return faults.Validation("request body is not valid JSON: " + err.Error())
	}
	return nil
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
