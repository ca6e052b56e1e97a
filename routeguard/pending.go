package routeguard

import "time"

// PendingDestination is the view a user asked for before being sent to sign in.
type PendingDestination struct {
	Path       string
	Payload    map[string]any
	Epoch      uint64
	RecordedAt time.Time
}

// validAt reports whether the destination may still be replayed given the
// store epoch and the clock. Anything older than one authentication or past
// ttl is stale.
func (p PendingDestination) validAt(epoch uint64, now time.Time, ttl time.Duration) bool {
	if p.Path == "" {
		return false
	}

	if epoch < p.Epoch || epoch-p.Epoch > 1 {
		return false
	}

	if ttl > 0 && now.Sub(p.RecordedAt) > ttl {
		return false
	}

	return true
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
