package handlers

import "mercator-hq/callisto/pkg/activity"

// ActivitySource is the view of the activity tracker the status handler
// needs.
type ActivitySource interface {
	Snapshot() []activity.UserStatus
}
