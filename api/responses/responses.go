package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/aweme-labs/aweme-backend/pkg/logger"
	"github.com/aweme-labs/aweme-backend/pkg/types"
)

// WriteSuccess emits the standard envelope with code 0.
func WriteSuccess(w http.ResponseWriter, message string, data any) {
	WriteSuccessStatus(w, http.StatusOK, message, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, message string, data any) {
	if message == "" {
		message = "success"
	}
	writeJSON(w, status, types.Envelope{
		Code:    types.CodeOK,
		Message: message,
		Data:    data,
	})
}

// WriteError maps a typed error to its HTTP status and a nonzero
// envelope code. Internal and upstream failures never leak their message.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed, envelope := buildErrorEnvelope(err)
	logError(ctx, logg, err, typed)
	writeJSON(w, pkgerrors.MetadataFor(typed.Code()).HTTPStatus, envelope)
}

// WriteWebhookFailure acknowledges a webhook delivery with HTTP 200 while
// reporting the failure through the envelope code. A non-2xx status would
// make the provider retry an event that will fail the same way again;
// retryable failures release the idempotency claim instead.
func WriteWebhookFailure(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	_, envelope := buildErrorEnvelope(err)
	typed := pkgerrors.As(err)
	logError(ctx, logg, err, typed)
	writeJSON(w, http.StatusOK, envelope)
}

func buildErrorEnvelope(err error) (*pkgerrors.Error, types.Envelope) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeRateLimit:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	envelope := types.Envelope{
		Code:    typed.EnvelopeCode(),
		Message: msg,
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			envelope.Data = details
		}
	}
	return typed, envelope
}

func logError(ctx context.Context, logg *logger.Logger, err error, typed *pkgerrors.Error) {
	if logg == nil {
		return
	}
	dump := pkgerrors.Dump(err)

	code := pkgerrors.CodeInternal
	if typed != nil {
		code = typed.Code()
	}

	fields := map[string]any{
		"error":           dump.TopMessage,
		"error_code":      dump.Code,
		"error_retryable": pkgerrors.MetadataFor(code).Retryable,
		"error_chain":     dump.Chain,
		"pg_code":         dump.PGCode,
		"pg_detail":       dump.PGDetail,
		"pg_message":      dump.PGMessage,
		"pg_table":        dump.PGTable,
		"pg_column":       dump.PGColumn,
		"pg_constraint":   dump.PGConstraint,
	}

	if typed != nil {
		if d := typed.Details(); d != nil {
			if dm, ok := d.(map[string]any); ok {
				if step, ok := dm["step"]; ok {
					fields["step"] = step
				}
			}
		}
	}

	ctx = logg.WithFields(ctx, fields)
	logg.Error(ctx, "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
