package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleSink prints notices to a writer. When a Prompter is set, notices
// with buttons ask the user which action to run.
type ConsoleSink struct {
	out      io.Writer
	prompter Prompter
	styles   map[Level]lipgloss.Style
	hint     lipgloss.Style
	mu       sync.Mutex
}

// NewConsoleSink creates a ConsoleSink writing to out. prompter may be nil.
func NewConsoleSink(out io.Writer, prompter Prompter) *ConsoleSink {
	renderer := lipgloss.NewRenderer(out)

	return &ConsoleSink{
		out:      out,
		prompter: prompter,
		styles: map[Level]lipgloss.Style{
			LevelInfo:    renderer.NewStyle().Foreground(lipgloss.Color("12")),
			LevelSuccess: renderer.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
			LevelWarning: renderer.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
			LevelError:   renderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		},
		hint: renderer.NewStyle().Faint(true),
	}
}

type consoleNotification struct{}

// Dismiss is a no-op; printed lines cannot be withdrawn.
func (consoleNotification) Dismiss() {}

// Info implements NotificationSink.
func (s *ConsoleSink) Info(ctx context.Context, message string, options ...NoticeOption) Notification {
	return s.Notify(ctx, NewNotice(LevelInfo, message, options...))
}

// Success implements NotificationSink.
func (s *ConsoleSink) Success(ctx context.Context, message string, options ...NoticeOption) Notification {
	return s.Notify(ctx, NewNotice(LevelSuccess, message, options...))
}

// Warning implements NotificationSink.
func (s *ConsoleSink) Warning(ctx context.Context, message string, options ...NoticeOption) Notification {
	return s.Notify(ctx, NewNotice(LevelWarning, message, options...))
}

// Error implements NotificationSink.
func (s *ConsoleSink) Error(ctx context.Context, message string, options ...NoticeOption) Notification {
	return s.Notify(ctx, NewNotice(LevelError, message, options...))
}

// Notify prints notice and, if it carries buttons, either asks for an action
// or lists the hints.
func (s *ConsoleSink) Notify(ctx context.Context, notice Notice) Notification {
	s.print(notice)

	if len(notice.Buttons) == 0 {
		return consoleNotification{}
	}

	if s.prompter == nil {
		s.printHints(notice.Buttons)
		return consoleNotification{}
	}

	s.runAction(ctx, notice.Buttons)

	return consoleNotification{}
}

func (s *ConsoleSink) print(notice Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	label := s.styles[notice.Level].Render(notice.Level.String() + ":")
	s.printf("%s %s\n", label, notice.Message)

	if notice.Detail != "" {
		for _, line := range strings.Split(notice.Detail, "\n") {
			s.printf("  %s\n", line)
		}
	}
}

func (s *ConsoleSink) printHints(buttons []Button) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, button := range buttons {
		if button.Hint == "" {
			continue
		}

		s.printf("  %s\n", s.hint.Render(fmt.Sprintf("%s: %s", button.Text, button.Hint)))
	}
}

func (s *ConsoleSink) runAction(ctx context.Context, buttons []Button) {
	labels := make([]string, 0, len(buttons))
	for _, button := range buttons {
		labels = append(labels, button.Text)
	}

	choice, err := s.prompter.Choose(ctx, "Choose an action", labels)
	if err != nil {
		slog.Error("failed to prompt for action", "error", err)
		return
	}

	if choice < 0 || choice >= len(buttons) || buttons[choice].OnClick == nil {
		return
	}

	if err := buttons[choice].OnClick(ctx); err != nil {
		slog.Error("notice action failed", "action", buttons[choice].Text, "error", err)
	}
}

func (s *ConsoleSink) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
