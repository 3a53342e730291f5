package handlers

import (
	"net/http"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/repo"
	"github.com/ivankudzin/automarket/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/automarket/backend/internal/transport/http/errors"
)

const maxInboxPage = 100

// NotificationsHandler serves the in-app inbox filled by the inbox sink.
type NotificationsHandler struct {
	store repo.NotificationStore
}

func NewNotificationsHandler(store repo.NotificationStore) *NotificationsHandler {
	return &NotificationsHandler{store: store}
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.store == nil {
		writeInternal(w, "NOTIFICATIONS_UNAVAILABLE", "notifications are unavailable")
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 50)
	if limit > maxInboxPage {
		limit = maxInboxPage
	}
	items, err := h.store.ListByRecipient(r.Context(), identity.UserID, limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load notifications")
		return
	}
	if items == nil {
		items = []model.StoredNotification{}
	}
	httperrors.Write(w, http.StatusOK, dto.NotificationsResponse{Items: items})
}
