package entity

// EventType names a change to the set of stored sites.
type EventType string

const (
	EventSiteAdded   EventType = "site.added"
	EventSiteDeleted EventType = "site.deleted"
)

// SiteEvent is emitted after a site was added or deleted. It never carries the secret.
type SiteEvent struct {
	ID         int64
	Type       EventType
	SiteName   string
	OccurredAt int64
}
