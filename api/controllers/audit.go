package controllers

import (
	"net/http"
	"strings"

	"github.com/shopward/shopward-backend/api/responses"
	"github.com/shopward/shopward-backend/api/validators"
	"github.com/shopward/shopward-backend/internal/audit"
	"github.com/shopward/shopward-backend/pkg/logger"
	"github.com/shopward/shopward-backend/pkg/pagination"
)

// ListAuditLogs returns the store's audit trail, newest first.
func ListAuditLogs(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := parseStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters := audit.Filters{
			Action:     strings.TrimSpace(r.URL.Query().Get("action")),
			EntityType: strings.TrimSpace(r.URL.Query().Get("entity_type")),
		}
		if filters.ActorID, err = validators.ParseQueryUUID(r, "actor_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.DateFrom, err = validators.ParseQueryTime(r, "date_from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.DateTo, err = validators.ParseQueryTime(r, "date_to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), storeID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
