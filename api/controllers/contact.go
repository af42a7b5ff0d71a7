package controllers

import (
	"net/http"

	"github.com/brieflyhq/briefly-backend/api/middleware"
	"github.com/brieflyhq/briefly-backend/api/responses"
	"github.com/brieflyhq/briefly-backend/api/validators"
	"github.com/brieflyhq/briefly-backend/internal/contact"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
)

// ContactSubmit relays a contact-form submission to the support inbox.
func ContactSubmit(svc contact.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contact service unavailable"))
			return
		}

		var body contact.SubmitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Priority = middleware.IsSubscriberFromContext(r.Context())

		if err := svc.Submit(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "sent"})
	}
}
