package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// CatalogDocument is the wire shape of a catalog, shared by the upstream API,
// the bundled fallback file, the cache envelope and this site's own API.
type CatalogDocument struct {
	Videos        []VideoDocument        `json:"videos"`
	Notifications []NotificationDocument `json:"notifications"`
	UpdatePreview *PreviewDocument       `json:"update_preview,omitempty"`
	LastUpdated   string                 `json:"last_updated,omitempty"`
}

// VideoDocument is the wire shape of a video
type VideoDocument struct {
	Game        string   `json:"game"`
	Chapter     string   `json:"chapter,omitempty"`
	Title       string   `json:"title"`
	Thumbnail   string   `json:"thumbnail"`
	Duration    string   `json:"duration"`
	PublishTime string   `json:"publish_time"`
	Status      string   `json:"status"`
	Spoiler     FlexBool `json:"spoiler"`
	Tags        []string `json:"tags,omitempty"`
	VideoID     string   `json:"video_id"`
}

// NotificationDocument is the wire shape of a notification
type NotificationDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Date    string `json:"date,omitempty"`
}

// PreviewDocument is the wire shape of the update preview
type PreviewDocument struct {
	Title      string `json:"title"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time,omitempty"`
}

// UpstreamResponse is the envelope returned by a catalog aggregation endpoint
type UpstreamResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"msg,omitempty"`
	Data    json.RawMessage `json:"data"`
	Source  string          `json:"_source,omitempty"`
}

// FlexBool decodes JSON booleans, "true"/"false" strings and 0/1.
// Any other value decodes as false and is kept in Invalid.
type FlexBool struct {
	Value   bool
	Invalid string
}

// UnmarshalJSON implements json.Unmarshaler
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	*b = FlexBool{}
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		b.Invalid = raw
		return nil
	}
	b.Value = v
	return nil
}

// MarshalJSON implements json.Marshaler
func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Value)
}

// previewTimeLayouts are the accepted formats for update_time
var previewTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParsePreviewTime parses an update timestamp in any accepted layout.
// Layouts without a zone are read in loc.
func ParsePreviewTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range previewTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DecodeStats counts what ToCatalog dropped or coerced
type DecodeStats struct {
	// SkippedVideos had an unknown game
	SkippedVideos int
	// InvalidSpoilers had an unreadable spoiler flag, read as false
	InvalidSpoilers int
}

// ToCatalog converts the wire document into the domain model.
// Videos with an unknown game are dropped; both cases are counted in stats.
func (d *CatalogDocument) ToCatalog(loc *time.Location) (catalog *Catalog, stats DecodeStats) {
	catalog = &Catalog{
		Videos:        make([]*Video, 0, len(d.Videos)),
		Notifications: make([]*Notification, 0, len(d.Notifications)),
	}

	for _, vd := range d.Videos {
		game, ok := ParseGame(strings.ToLower(strings.TrimSpace(vd.Game)))
		if !ok {
			stats.SkippedVideos++
			continue
		}
		if vd.Spoiler.Invalid != "" {
			stats.InvalidSpoilers++
		}
		status := StatusNormal
		if s := strings.ToLower(strings.TrimSpace(vd.Status)); s != "" && s != string(StatusNormal) {
			status = StatusAnomalous
		}
		chapter := ""
		if game.HasChapters() {
			chapter = strings.TrimSpace(vd.Chapter)
		}
		catalog.Videos = append(catalog.Videos, &Video{
			Game:        game,
			Chapter:     chapter,
			Title:       vd.Title,
			Thumbnail:   vd.Thumbnail,
			Duration:    vd.Duration,
			PublishedAt: vd.PublishTime,
			Status:      status,
			Spoiler:     vd.Spoiler.Value,
			Tags:        append([]string(nil), vd.Tags...),
			VideoID:     strings.TrimSpace(vd.VideoID),
		})
	}

	for _, nd := range d.Notifications {
		typ := NotificationInfo
		if strings.EqualFold(nd.Type, string(NotificationWarning)) {
			typ = NotificationWarning
		} else if nd.Type != "" {
			typ = NotificationType(strings.ToLower(nd.Type))
		}
		catalog.Notifications = append(catalog.Notifications, &Notification{
			Title: nd.Title,
			Body:  nd.Content,
			Type:  typ,
			Date:  nd.Date,
		})
	}

	if d.UpdatePreview != nil {
		preview := &UpdatePreview{Title: d.UpdatePreview.Title, Status: PreviewPending}
		if strings.EqualFold(d.UpdatePreview.Status, string(PreviewScheduled)) {
			if at, ok := ParsePreviewTime(d.UpdatePreview.UpdateTime, loc); ok {
				preview.Status = PreviewScheduled
				preview.At = at
			}
		}
		catalog.Preview = preview
	}

	return catalog, stats
}

// NewCatalogDocument converts a domain catalog back into its wire shape
func NewCatalogDocument(c *Catalog) *CatalogDocument {
	doc := &CatalogDocument{
		Videos:        make([]VideoDocument, 0),
		Notifications: make([]NotificationDocument, 0),
	}
	if c == nil {
		return doc
	}
	for _, v := range c.Videos {
		doc.Videos = append(doc.Videos, VideoDocument{
			Game:        string(v.Game),
			Chapter:     v.Chapter,
			Title:       v.Title,
			Thumbnail:   v.Thumbnail,
			Duration:    v.Duration,
			PublishTime: v.PublishedAt,
			Status:      string(v.Status),
			Spoiler:     FlexBool{Value: v.Spoiler},
			Tags:        append([]string(nil), v.Tags...),
			VideoID:     v.VideoID,
		})
	}
	for _, n := range c.Notifications {
		doc.Notifications = append(doc.Notifications, NotificationDocument{
			Title:   n.Title,
			Content: n.Body,
			Type:    string(n.Type),
			Date:    n.Date,
		})
	}
	if c.Preview != nil {
		pd := &PreviewDocument{Title: c.Preview.Title, Status: string(c.Preview.Status)}
		if c.Preview.Scheduled() {
			pd.UpdateTime = c.Preview.At.Format(time.RFC3339)
		}
		doc.UpdatePreview = pd
	}
	return doc
}
