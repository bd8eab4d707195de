package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the wire format version clients check before parsing.
const EnvelopeVersion = 1

// APIEnvelope wraps every JSON response body.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v" doc:"Envelope format version"`
	Success bool   `json:"success" doc:"Whether the request succeeded"`
	Data    any    `json:"data,omitempty" doc:"Response payload"`
	Error   string `json:"error,omitempty" doc:"Error message"`
	Code    string `json:"code,omitempty" doc:"Machine-readable error code"`
}

// APIErrorEnvelope is the error shape used when an error carries details,
// such as per-field validation failures.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// EnvelopeTransformer wraps handler output in the response envelope.
// Registered as a huma transformer so handlers return plain bodies.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case *APIEnvelope, *APIErrorEnvelope:
		return v, nil
	case *APIError:
		if body.Details != nil {
			return &APIErrorEnvelope{
				Version: EnvelopeVersion,
				Code:    body.Code,
				Message: body.Message,
				Details: body.Details,
			}, nil
		}
		return &APIEnvelope{
			Version: EnvelopeVersion,
			Error:   body.Message,
			Code:    body.Code,
		}, nil
	case *huma.ErrorModel:
		return &APIEnvelope{
			Version: EnvelopeVersion,
			Error:   body.Detail,
			Code:    statusToCode(body.Status),
		}, nil
	}

	code, _ := strconv.Atoi(status)
	return &APIEnvelope{
		Version: EnvelopeVersion,
		Success: code < 400,
		Data:    v,
	}, nil
}
