// Package player decides what happens when a visitor opens a video and
// builds the player deep link.
package player

import (
	"net/url"
	"strings"

	"utdr-guide/internal/dialog"
	"utdr-guide/internal/domain"
)

// Path is the player page the deep link points at
const Path = "player.html"

const (
	SpoilerWarning = "警告：此视频包含剧透内容！\n\n确定要继续观看吗？"

	cardBlockedMessage = "此视频状态异常，不可播放"
	cardBlockedTitle   = "错误"
	playBlockedMessage = "此视频不可跳转"
	playBlockedTitle   = "提示"
	blockedLabel       = "知道了"
)

// Via is the control a visitor used to open a video
type Via string

const (
	ViaCard Via = "card"
	ViaPlay Via = "play"
)

// ParseVia maps a query value to a Via, defaulting to the card
func ParseVia(raw string) Via {
	if Via(raw) == ViaPlay {
		return ViaPlay
	}
	return ViaCard
}

// Action is the outcome of planning a navigation
type Action int

const (
	// Navigate goes straight to the player
	Navigate Action = iota
	// Block shows a single-button message and never navigates
	Block
	// ConfirmSpoiler asks first and navigates only on accept
	ConfirmSpoiler
)

// Step is the planned reaction to opening a video
type Step struct {
	Action Action
	URL    string
	Prompt dialog.Request
}

// URL builds the player deep link. All five parameters are always present
// and percent-encoded, in a fixed order.
func URL(v *domain.Video) string {
	params := [][2]string{
		{"title", v.Title},
		{"date", v.PublishedAt},
		{"game", string(v.Game)},
		{"chapter", v.Chapter},
		{"video_id", v.VideoID},
	}

	var b strings.Builder
	b.WriteString(Path)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(escape(p[1]))
	}
	return b.String()
}

// escape percent-encodes a query value, spaces included
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Plan decides how to react to opening v through via.
// The blocked check runs before the spoiler check.
func Plan(v *domain.Video, via Via) Step {
	if !v.Playable() {
		req := dialog.NewAlert(cardBlockedMessage, cardBlockedTitle, blockedLabel)
		if via == ViaPlay {
			req = dialog.NewAlert(playBlockedMessage, playBlockedTitle, blockedLabel)
		}
		req.Warning = true
		return Step{Action: Block, Prompt: req}
	}

	target := URL(v)
	if v.Spoiler {
		req := dialog.NewConfirm(SpoilerWarning)
		req.AcceptTarget = target
		req.Warning = true
		return Step{Action: ConfirmSpoiler, URL: target, Prompt: req}
	}

	return Step{Action: Navigate, URL: target}
}
