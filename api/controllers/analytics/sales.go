package analytics

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/restaurant-backend/api/responses"
	"github.com/angelmondragon/restaurant-backend/internal/analytics"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

// Sales reports one store-local day from ?date=YYYY-MM-DD.
func Sales(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "analytics unavailable"))
			return
		}
		summary, err := svc.Sales(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
