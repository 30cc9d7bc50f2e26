// Package event holds the wire format of the events wauth publishes.
package event

// SiteDestination is the default topic for site change events; events.topic overrides it.
const SiteDestination string = "wauth.sites"

// SiteMessage is published after a site was added or deleted. It never
// carries the secret.
type SiteMessage struct {
	ID         int64  `json:"id,string"`
	Type       string `json:"type"`
	SiteName   string `json:"site_name"`
	OccurredAt int64  `json:"occurred_at"`
}
