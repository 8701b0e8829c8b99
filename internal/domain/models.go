package domain

import "time"

// Game identifies which of the two covered games a video belongs to
type Game string

const (
	GameUndertale Game = "undertale"
	GameDeltarune Game = "deltarune"
)

// ParseGame returns the game for a raw value and whether it is known
func ParseGame(raw string) (Game, bool) {
	switch Game(raw) {
	case GameUndertale, GameDeltarune:
		return Game(raw), true
	default:
		return "", false
	}
}

// HasChapters reports whether videos of the game are grouped by chapter
func (g Game) HasChapters() bool {
	return g == GameDeltarune
}

// VideoStatus is the health of a catalog entry
type VideoStatus string

const (
	StatusNormal    VideoStatus = "normal"
	StatusAnomalous VideoStatus = "anomalous"
)

// Video represents a single catalog entry
type Video struct {
	Game        Game
	Chapter     string // Only meaningful for games with chapters
	Title       string
	Thumbnail   string
	Duration    string // Display string, e.g. "12:34"
	PublishedAt string // Display string as delivered by the source
	Status      VideoStatus
	Spoiler     bool
	Tags        []string
	VideoID     string // Opaque id used for deep-linking into the player
}

// Playable reports whether the video may ever navigate to the player.
// Anomalous entries and entries without an id render but never play.
func (v *Video) Playable() bool {
	return v.Status != StatusAnomalous && v.VideoID != ""
}

// Badge returns the first tag, shown on the thumbnail
func (v *Video) Badge() string {
	if len(v.Tags) == 0 {
		return ""
	}
	return v.Tags[0]
}

// NotificationType drives the styling of a notice card
type NotificationType string

const (
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is a site notice shown on the home page
type Notification struct {
	Title string
	Body  string
	Type  NotificationType
	Date  string // Optional effective date
}

// IsWarning reports whether the notification is warning-typed
func (n *Notification) IsWarning() bool {
	return n.Type == NotificationWarning
}

// PreviewStatus is the scheduling state of the next update
type PreviewStatus string

const (
	PreviewScheduled PreviewStatus = "scheduled"
	PreviewPending   PreviewStatus = "pending"
)

// UpdatePreview describes the upcoming site update shown with a countdown
type UpdatePreview struct {
	Title  string
	Status PreviewStatus
	At     time.Time // Zero unless Status is PreviewScheduled
}

// Scheduled reports whether the countdown has a valid target instant
func (p *UpdatePreview) Scheduled() bool {
	return p != nil && p.Status == PreviewScheduled && !p.At.IsZero()
}

// Catalog is the combined set of videos, notifications and update preview
type Catalog struct {
	Videos        []*Video
	Notifications []*Notification
	Preview       *UpdatePreview
}

// HasWarning reports whether at least one notification is warning-typed
func (c *Catalog) HasWarning() bool {
	for _, n := range c.Notifications {
		if n.IsWarning() {
			return true
		}
	}
	return false
}

// CacheEnvelope is a cached catalog snapshot plus its capture time
type CacheEnvelope struct {
	Catalog    *Catalog
	CapturedAt time.Time
}

// Origin names the tier a catalog snapshot was obtained from
type Origin string

const (
	OriginPrimary  Origin = "primary"
	OriginUpstream Origin = "upstream-fallback"
	OriginCache    Origin = "cache"
	OriginBundle   Origin = "bundle"
	OriginEmpty    Origin = "empty"
)

// Notice is a message the catalog loader wants shown to the visitor
type Notice struct {
	Title    string
	Message  string
	Blocking bool
}

// LoadResult is what a catalog load hands back to the caller
type LoadResult struct {
	Catalog *Catalog
	Origin  Origin
	Source  string  // Upstream source indicator, if any
	Notice  *Notice // At most one per load
}

// Resource is a downloadable item listed on the resources page
type Resource struct {
	ID          string
	Title       string
	Description string
	Category    string
	URL         string
	Size        string
	Downloads   int
}
