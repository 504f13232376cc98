package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/angelmondragon/restaurant-backend/api/middleware"
	"github.com/angelmondragon/restaurant-backend/api/responses"
	"github.com/angelmondragon/restaurant-backend/api/validators"
	"github.com/angelmondragon/restaurant-backend/internal/ordersessions"
	"github.com/angelmondragon/restaurant-backend/internal/purchasedorders"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

// KitchenSession streams every purchased order and progress change to a staff
// screen. Reconnecting with the same session id replaces the old stream.
func KitchenSession(hub *ordersessions.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order sessions unavailable"))
			return
		}
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id required"))
			return
		}
		if err := ordersessions.Serve(r.Context(), hub, logg, w, r, ordersessions.KitchenTopic, sessionID); err != nil {
			logSessionFailure(w, r, logg, err)
		}
	}
}

// PurchasedOrderSession streams progress updates for one order the caller may read.
func PurchasedOrderSession(hub *ordersessions.Hub, orders purchasedorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil || orders == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order sessions unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(r, "purchasedOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := orders.Get(r.Context(), middleware.UserFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ordersessions.Serve(r.Context(), hub, logg, w, r, ordersessions.OrderTopic(id), uuid.NewString()); err != nil {
			logSessionFailure(w, r, logg, err)
		}
	}
}

// Handshake failures have already written their own response.
func logSessionFailure(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	var handshake websocket.HandshakeError
	if !errors.As(err, &handshake) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to order session"))
		return
	}
	if logg != nil {
		logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "order_session.handshake_failed")
	}
}
