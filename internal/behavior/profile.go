// internal/behavior/profile.go

// Package behavior drives a page the way a person skimming job listings
// would: uneven scrolling, pauses sized to reading speed, idle mouse drift
// and the occasional distraction. All randomness and sleeping go through
// injectable sources so the emitted action sequence is reproducible.
package behavior

import (
	"time"

	"github.com/valpere/jobharvest/internal/utils"
)

// ScrollStyle describes how a simulated user prefers to scroll.
type ScrollStyle string

const (
	ScrollGradual ScrollStyle = "gradual"
	ScrollQuick   ScrollStyle = "quick"
	ScrollMixed   ScrollStyle = "mixed"
)

// MouseStyle describes idle mouse habits.
type MouseStyle string

const (
	MousePrecise   MouseStyle = "precise"
	MouseWandering MouseStyle = "wandering"
	MouseNormal    MouseStyle = "normal"
)

// Profile is the per-session persona. It is fixed for the life of a session.
type Profile struct {
	ReadingSpeedWPM float64       `json:"reading_speed_wpm"`
	ScrollStyle     ScrollStyle   `json:"scroll_style"`
	MouseStyle      MouseStyle    `json:"mouse_style"`
	AttentionSpan   time.Duration `json:"attention_span"`
}

var (
	scrollStyles = []ScrollStyle{ScrollGradual, ScrollQuick, ScrollMixed}
	mouseStyles  = []MouseStyle{MousePrecise, MouseWandering, MouseNormal}
)

// NewProfile draws a random persona from src.
func NewProfile(src utils.RandSource) Profile {
	return Profile{
		ReadingSpeedWPM: readingSpeedWPM.draw(src),
		ScrollStyle:     scrollStyles[src.Intn(len(scrollStyles))],
		MouseStyle:      mouseStyles[src.Intn(len(mouseStyles))],
		AttentionSpan:   attentionSpanSec.duration(src),
	}
}
