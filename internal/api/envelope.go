package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/readlist/internal/errors"
)

// envelopeVersion is bumped on breaking changes to the envelope shape.
const envelopeVersion = 1

// SuccessEnvelope wraps every 2xx body.
type SuccessEnvelope struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorEnvelope wraps every error body. Error always carries the message;
// Code, Message and Details are set when the error is a coded one.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps response bodies in the client envelope.
// Registered as a huma transformer so handlers return plain bodies.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if strings.HasPrefix(status, "2") || strings.HasPrefix(status, "3") {
		return SuccessEnvelope{Version: envelopeVersion, Success: true, Data: v}, nil
	}

	env := ErrorEnvelope{Version: envelopeVersion}
	switch e := v.(type) {
	case *APIError:
		env.Error = e.Message
		env.Code = e.Code
		if e.Code != "" {
			env.Message = e.Message
		}
		env.Details = e.Details
	case *domainerrors.Error:
		env.Error = e.Message
		env.Code = string(e.Code)
		env.Message = e.Message
		env.Details = e.Details
	case *huma.ErrorModel:
		env.Error = e.Detail
		if env.Error == "" {
			env.Error = e.Title
		}
	case error:
		env.Error = e.Error()
	default:
		env.Error = "request failed"
	}
	return env, nil
}
