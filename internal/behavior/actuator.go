// internal/behavior/actuator.go
package behavior

import (
	"context"
	"fmt"
	"time"
)

// Key names understood by Actuator.PressKey.
const (
	KeySpace     = "Space"
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyTab       = "Tab"

	ModifierControl = "Control"
)

// Actuator is the page surface the engine drives. Implementations live at
// the browser boundary; every error returned here is treated as non-fatal.
type Actuator interface {
	ScrollBy(ctx context.Context, dx, dy int) error
	ScrollTo(ctx context.Context, x, y int) error
	MouseMove(ctx context.Context, x, y float64) error
	Click(ctx context.Context, x, y float64) error
	PressKey(ctx context.Context, key string, modifiers ...string) error
	HistoryBack(ctx context.Context) error
	HistoryForward(ctx context.Context) error
	Viewport(ctx context.Context) (width, height int, err error)
	WindowSize(ctx context.Context) (width, height int, err error)
	SetWindowSize(ctx context.Context, width, height int) error
	MinimizeWindow(ctx context.Context) error
	MaximizeWindow(ctx context.Context) error
}

// ActionKind identifies an emitted action.
type ActionKind string

const (
	ActionWait           ActionKind = "wait"
	ActionScrollBy       ActionKind = "scroll_by"
	ActionScrollTo       ActionKind = "scroll_to"
	ActionMouseMove      ActionKind = "mouse_move"
	ActionClick          ActionKind = "click"
	ActionKey            ActionKind = "key"
	ActionHistoryBack    ActionKind = "history_back"
	ActionHistoryForward ActionKind = "history_forward"
	ActionResize         ActionKind = "resize"
	ActionMinimize       ActionKind = "minimize"
	ActionMaximize       ActionKind = "maximize"
	ActionPattern        ActionKind = "pattern"
	ActionDistraction    ActionKind = "distraction"
	ActionMistake        ActionKind = "mistake"
)

// Action is one step the engine performed. Markers (pattern, distraction,
// mistake) carry the chosen variant in Label.
type Action struct {
	Kind     ActionKind
	X, Y     float64
	Key      string
	Label    string
	Duration time.Duration
	Err      error
}

func (a Action) String() string {
	switch a.Kind {
	case ActionWait:
		return fmt.Sprintf("wait %v", a.Duration)
	case ActionScrollBy, ActionScrollTo, ActionMouseMove, ActionClick, ActionResize:
		return fmt.Sprintf("%s(%.0f,%.0f)", a.Kind, a.X, a.Y)
	case ActionKey:
		return fmt.Sprintf("key %s", a.Key)
	case ActionPattern, ActionDistraction, ActionMistake:
		return fmt.Sprintf("%s=%s", a.Kind, a.Label)
	default:
		return string(a.Kind)
	}
}
