package domain

// Participant is a registered chat member. LastStatus holds the time of the
// last registration or heartbeat in milliseconds since the epoch.
type Participant struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

// IsStale reports whether the participant's last heartbeat is older than cutoff.
func (p Participant) IsStale(cutoff int64) bool {
	return p.LastStatus < cutoff
}
