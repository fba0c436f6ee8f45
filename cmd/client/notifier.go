package main

import (
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"

	"github.com/vovakirdan/locshare/internal/client"
)

// consoleNotifier prints session notices as timestamped lines.
type consoleNotifier struct {
	out    io.Writer
	colors bool
	now    func() time.Time
}

func newConsoleNotifier(out io.Writer, colors bool) *consoleNotifier {
	return &consoleNotifier{out: out, colors: colors, now: time.Now}
}

func (n *consoleNotifier) Notify(message string, level client.Level) {
	var style color.Style
	switch level {
	case client.LevelSuccess:
		style = color.New(color.FgGreen)
	case client.LevelError:
		style = color.New(color.FgRed, color.OpBold)
	default:
		style = color.New(color.FgCyan)
	}
	n.println(style, message)
}

func (n *consoleNotifier) Status(text string, kind client.StatusKind) {
	var style color.Style
	switch kind {
	case client.StatusConnected:
		style = color.New(color.BgGreen, color.FgBlack)
	case client.StatusDisconnected:
		style = color.New(color.BgRed, color.FgWhite)
	default:
		style = color.New(color.BgYellow, color.FgBlack)
	}
	n.println(style, "status: "+text)
}

func (n *consoleNotifier) Count(participants int) {
	n.println(color.New(color.FgMagenta), fmt.Sprintf("participants: %d", participants))
}

func (n *consoleNotifier) println(style color.Style, text string) {
	if n.colors {
		text = style.Render(text)
	}
	fmt.Fprintf(n.out, "[%s] %s\n", n.now().Format(time.TimeOnly), text)
}
