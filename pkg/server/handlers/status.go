package handlers

import (
	"net/http"

	"mercator-hq/callisto/pkg/activity"
	"mercator-hq/callisto/pkg/registry"
	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// StatusHandler serves the per-user activity status document.
type StatusHandler struct {
	source   ActivitySource
	resolver registry.Resolver
	logger   *logging.Logger
}

// NewStatusHandler creates a status handler that reads activity from
// source and resolves display names through resolver.
func NewStatusHandler(source ActivitySource, resolver registry.Resolver, logger *logging.Logger) *StatusHandler {
	if logger == nil {
		logger = logging.Discard()
	}

	return &StatusHandler{
		source:   source,
		resolver: resolver,
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler for the activity status endpoint.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := h.source.Snapshot()

	// The slice is allocated even when empty so the response renders
	// "users": [] rather than "users": null.
	users := make([]types.UserActivity, 0, len(snapshot))
	for _, status := range snapshot {
		users = append(users, h.toUserActivity(status))
	}

	if err := types.WriteJSON(w, http.StatusOK, types.StatusResponse{Users: users}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write status response",
			"error", err,
			"path", r.URL.Path,
		)
	}
}

// toUserActivity converts one tracker snapshot entry to its wire form.
func (h *StatusHandler) toUserActivity(status activity.UserStatus) types.UserActivity {
	user, _ := h.resolver.Lookup(status.UserID)

	active := make([]types.ActiveRequest, 0, len(status.ActiveRequests))
	for _, req := range status.ActiveRequests {
		active = append(active, types.ActiveRequest{
			RequestID: req.RequestID,
			Method:    req.Metadata.Method,
			Path:      req.Metadata.Path,
			Client:    req.Metadata.Client,
			StartedAt: req.StartedAt,
		})
	}

	ua := types.UserActivity{
		UserID:         status.UserID,
		UserName:       user.Name,
		ActiveCount:    status.ActiveCount,
		ActiveRequests: active,
	}

	if status.LastRequest != nil {
		ua.LastRequest = &types.LastRequest{
			RequestID:   status.LastRequest.RequestID,
			Outcome:     string(status.LastRequest.Outcome),
			CompletedAt: status.LastRequest.CompletedAt,
		}
	}

	return ua
}
