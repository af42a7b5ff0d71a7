package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/brieflyhq/briefly-backend/api/middleware"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
)

// authenticatedUserID pulls the user id seeded by the auth middleware.
func authenticatedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// optionalUserID is authenticatedUserID for endpoints that also serve
// anonymous traffic; missing identity maps to uuid.Nil instead of an error.
func optionalUserID(r *http.Request) uuid.UUID {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
