// Package controller presents notices to the user and collects answers.
package controller

import (
	"context"
	"os"

	"golang.org/x/term"
)

// Level is the severity of a notice.
type Level int

// Available notice levels.
const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Button is an action attached to a notice. Hint is shown when the sink cannot
// ask the user, typically the equivalent command line.
type Button struct {
	Text    string
	Hint    string
	OnClick func(ctx context.Context) error
}

// Notice is a single user-facing message.
type Notice struct {
	Level       Level
	Message     string
	Detail      string
	Dismissable bool
	Buttons     []Button
}

// NoticeOption is a functional option for notices.
type NoticeOption func(*Notice)

// WithDetail attaches a longer explanation.
func WithDetail(detail string) NoticeOption {
	return func(n *Notice) {
		n.Detail = detail
	}
}

// WithDismissable marks the notice as staying until dismissed.
func WithDismissable() NoticeOption {
	return func(n *Notice) {
		n.Dismissable = true
	}
}

// WithButtons attaches actions.
func WithButtons(buttons ...Button) NoticeOption {
	return func(n *Notice) {
		n.Buttons = append(n.Buttons, buttons...)
	}
}

// NewNotice applies options to a notice of the given level.
func NewNotice(level Level, message string, options ...NoticeOption) Notice {
	notice := Notice{Level: level, Message: message}
	for _, option := range options {
		option(&notice)
	}

	return notice
}

// Notification is a handle on a displayed notice.
type Notification interface {
	Dismiss()
}

// NotificationSink displays notices. Implementations must be safe for
// concurrent use.
type NotificationSink interface {
	Info(ctx context.Context, message string, options ...NoticeOption) Notification
	Success(ctx context.Context, message string, options ...NoticeOption) Notification
	Warning(ctx context.Context, message string, options ...NoticeOption) Notification
	Error(ctx context.Context, message string, options ...NoticeOption) Notification
}

// Prompter asks the user questions.
type Prompter interface {
	// Choose returns the index of the selected option, or -1 when the user
	// declined to pick one.
	Choose(ctx context.Context, message string, options []string) (int, error)

	// Input reads a single line of text.
	Input(ctx context.Context, prompt string) (string, error)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
