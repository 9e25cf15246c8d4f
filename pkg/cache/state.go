package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// State represents the connection lifecycle state of the Manager.
//
// The state machine is explicit and one-way past its terminal states:
//
//	StateDisconnected -> StateConnecting -> StateConnected
//	                                     -> StateFailed (permanent)
//
// StateDisabled is assigned at construction when the feature flag is off or
// no endpoint is configured; a disabled manager never attempts a connection.
type State int32

const (
	// StateDisabled means the shared cache feature is off or unconfigured.
	StateDisabled State = iota

	// StateDisconnected means no connection attempt has started yet.
	StateDisconnected

	// StateConnecting means a dial sequence is in flight.
	StateConnecting

	// StateConnected means the client is usable.
	StateConnected

	// StateFailed means the retry budget is exhausted. The manager stays
	// failed until process restart.
	StateFailed
)

// String returns the state name used in logs and metric labels.
func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time snapshot of the manager for observability.
type Stats struct {
	// State is the current connection state.
	State State `json:"state"`

	// Attempts is the total number of dial attempts made.
	Attempts int `json:"attempts"`

	// LastError is the message of the most recent dial failure, if any.
	LastError string `json:"last_error,omitempty"`

	// ConnectedAt is when the connection was established (zero if never).
	ConnectedAt time.Time `json:"connected_at,omitempty"`

	// Pool holds client pool statistics when connected.
	Pool *redis.PoolStats `json:"pool,omitempty"`
}
