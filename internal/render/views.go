package render

import (
	"fmt"
	"strconv"
	"time"

	"utdr-guide/internal/domain"
	"utdr-guide/internal/player"
)

const (
	// SpoilerTag marks cards that need a confirmation before playing
	SpoilerTag = "剧透"

	// UpdatedText replaces the countdown once the preview time has passed
	UpdatedText = "已更新"

	// PendingText is shown while the next update has no date
	PendingText = "更新时间待定"
)

// VideoCard is the view model of a video in a grid
type VideoCard struct {
	Index       int // Position in the catalog, used by the watch links
	Title       string
	Thumbnail   string
	Duration    string
	PublishedAt string
	Game        domain.Game
	Chapter     string
	Badge       string
	Tags        []string
	Spoiler     bool
	SpoilerTag  string
	Anomalous   bool
	StatusClass string
	PlayerURL   string // Empty unless the video can be played
	CardLink    string
	PlayLink    string
}

// NewVideoCard builds the card of the video at index in the catalog
func NewVideoCard(index int, v *domain.Video) VideoCard {
	card := VideoCard{
		Index:       index,
		Title:       v.Title,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		PublishedAt: v.PublishedAt,
		Game:        v.Game,
		Chapter:     v.Chapter,
		Badge:       v.Badge(),
		Tags:        v.Tags,
		Spoiler:     v.Spoiler,
		Anomalous:   v.Status == domain.StatusAnomalous,
		CardLink:    WatchLink(index, player.ViaCard),
		PlayLink:    WatchLink(index, player.ViaPlay),
	}
	if v.Spoiler {
		card.SpoilerTag = SpoilerTag
	}
	if card.Anomalous {
		card.StatusClass = "status-warning"
	}
	if v.Playable() {
		card.PlayerURL = "/" + player.URL(v)
	}
	return card
}

// WatchLink is the server route that runs player navigation for a video
func WatchLink(index int, via player.Via) string {
	return "/watch?n=" + strconv.Itoa(index) + "&via=" + string(via)
}

// NewVideoCards builds cards for videos, looking up each one's catalog position
func NewVideoCards(catalog *domain.Catalog, videos []*domain.Video) []VideoCard {
	positions := make(map[*domain.Video]int, len(catalog.Videos))
	for i, v := range catalog.Videos {
		positions[v] = i
	}

	cards := make([]VideoCard, 0, len(videos))
	for _, v := range videos {
		index, ok := positions[v]
		if !ok {
			continue
		}
		cards = append(cards, NewVideoCard(index, v))
	}
	return cards
}

// NotificationCard is the view model of a site notice
type NotificationCard struct {
	Title string
	Body  string
	Date  string
	Class string
}

// NewNotificationCards builds the notice list
func NewNotificationCards(notifications []*domain.Notification) []NotificationCard {
	cards := make([]NotificationCard, 0, len(notifications))
	for _, n := range notifications {
		class := "notification-info"
		if n.IsWarning() {
			class = "notification-warning"
		}
		cards = append(cards, NotificationCard{
			Title: n.Title,
			Body:  n.Body,
			Date:  n.Date,
			Class: class,
		})
	}
	return cards
}

// PreviewState is what the update preview widget displays
type PreviewState string

const (
	PreviewCountdown PreviewState = "countdown"
	PreviewUpdated   PreviewState = "updated"
	PreviewPending   PreviewState = "pending"
)

// Span is a duration split into display units
type Span struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// NewSpan splits d; negative durations are zero
func NewSpan(d time.Duration) Span {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return Span{
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

// PreviewWidget is the view model of the upcoming update widget
type PreviewWidget struct {
	Title     string
	Glow      bool
	State     PreviewState
	Target    time.Time
	Remaining Span
	Text      string
}

// Counting reports whether the countdown is ticking
func (p *PreviewWidget) Counting() bool {
	return p.State == PreviewCountdown
}

// TargetUnixMilli is the countdown target for the client-side ticker
func (p *PreviewWidget) TargetUnixMilli() int64 {
	return p.Target.UnixMilli()
}

// NewPreviewWidget builds the widget, or nil when there is no preview.
// The countdown only runs while the preview is scheduled for a future instant.
func NewPreviewWidget(catalog *domain.Catalog, now time.Time) *PreviewWidget {
	if catalog == nil || catalog.Preview == nil {
		return nil
	}
	preview := catalog.Preview

	widget := &PreviewWidget{
		Title: preview.Title,
		Glow:  catalog.HasWarning(),
	}

	switch {
	case preview.Scheduled() && preview.At.After(now):
		widget.State = PreviewCountdown
		widget.Target = preview.At
		widget.Remaining = NewSpan(preview.At.Sub(now))
		widget.Text = CountdownText(widget.Remaining)
	case preview.Scheduled():
		widget.State = PreviewUpdated
		widget.Target = preview.At
		widget.Text = UpdatedText
	default:
		widget.State = PreviewPending
		widget.Text = PendingText
	}
	return widget
}

// CountdownText formats the time left until an update
func CountdownText(s Span) string {
	return fmt.Sprintf("%d天 %02d:%02d:%02d", s.Days, s.Hours, s.Minutes, s.Seconds)
}

// Uptime is the footer counter of how long the site has been running
type Uptime struct {
	Since   time.Time
	Elapsed Span
}

// NewUptime measures the time since start
func NewUptime(start, now time.Time) Uptime {
	return Uptime{Since: start, Elapsed: NewSpan(now.Sub(start))}
}

// Text renders the counter sentence
func (u Uptime) Text() string {
	return fmt.Sprintf("本站已快乐运行 %d天 %d时 %d分 %d秒", u.Elapsed.Days, u.Elapsed.Hours, u.Elapsed.Minutes, u.Elapsed.Seconds)
}

// SinceUnixMilli is the start instant for the client-side ticker
func (u Uptime) SinceUnixMilli() int64 {
	return u.Since.UnixMilli()
}
