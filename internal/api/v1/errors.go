package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/crewhub/internal/domain"
	"github.com/gosuda/crewhub/internal/server/middleware"
)

// statusFor maps a domain error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrAlreadyRemoved):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// toHumaError converts an allocation error into a problem response. Internal
// errors are logged and never echoed to the client.
func toHumaError(op string, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("op", op).Msg("v1: internal error")
		return huma.Error500InternalServerError(op + " failed")
	}

	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		details := make([]error, 0, len(ce.Conflicts))
		for _, c := range ce.Conflicts {
			details = append(details, &huma.ErrorDetail{
				Message:  c.String(),
				Location: string(c.Kind),
				Value:    c.ID.String(),
			})
		}
		return huma.NewError(status, err.Error(), details...)
	}

	return huma.NewError(status, err.Error())
}

// errorMessage renders a per-item failure for bulk responses.
func errorMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

// actorID returns the authenticated actor behind the request.
func actorID(ctx context.Context) (uuid.UUID, error) {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok || actor.ID == uuid.Nil {
		return uuid.Nil, huma.Error401Unauthorized("missing actor")
	}
	return actor.ID, nil
}
