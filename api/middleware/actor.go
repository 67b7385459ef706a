package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/arjundesai/medikart-backend/api/responses"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	pkgerrors "github.com/arjundesai/medikart-backend/pkg/errors"
	"github.com/arjundesai/medikart-backend/pkg/logger"
)

// Identity headers are stamped by the gateway in front of this service.
const (
	customerIDHeader = "X-Customer-Id"
	pharmacyIDHeader = "X-Pharmacy-Id"
)

// RequireCustomer admits only requests that carry a customer identity.
func RequireCustomer(logg *logger.Logger) func(http.Handler) http.Handler {
	return requireActor(logg, enums.ActorRoleCustomer, customerIDHeader)
}

// RequirePharmacy admits only requests that carry a pharmacy identity.
func RequirePharmacy(logg *logger.Logger) func(http.Handler) http.Handler {
	return requireActor(logg, enums.ActorRolePharmacy, pharmacyIDHeader)
}

func requireActor(logg *logger.Logger, role enums.ActorRole, header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "actor identity missing"))
				return
			}
			actorID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid actor identity"))
				return
			}

			ctx := WithActor(r.Context(), role, actorID)
			if logg != nil {
				ctx = logg.WithActorRole(ctx, role.String())
				switch role {
				case enums.ActorRoleCustomer:
					ctx = logg.WithCustomerID(ctx, actorID.String())
				case enums.ActorRolePharmacy:
					ctx = logg.WithPharmacyID(ctx, actorID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
