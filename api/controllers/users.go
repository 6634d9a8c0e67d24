package controllers

import (
	"net/http"

	"github.com/aweme-labs/aweme-backend/api/middleware"
	"github.com/aweme-labs/aweme-backend/api/responses"
	"github.com/aweme-labs/aweme-backend/internal/users"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/aweme-labs/aweme-backend/pkg/logger"
	"github.com/google/uuid"
)

// UserProfile returns the authenticated user's profile.
func UserProfile(repo users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user repository unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid subject"))
			return
		}

		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, "profile", users.FromModel(user))
	}
}
