package chatops

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// maxLogChars is the maximum number of characters of log output included
// in a single message. Telegram caps message text at 4096 characters, so
// the tail is cut well below that to leave room for markup.
const maxLogChars = 3000

const truncationNotice = "\n\n... (last 20 lines shown)"

// Button is a single inline keyboard button bound to a callback token.
type Button struct {
	// Label is the text displayed on the button.
	Label string

	// Data is the encoded callback token echoed back when the button
	// is pressed.
	Data string
}

// Page is a fully rendered chat view: the message text (HTML markup) and
// the rows of inline keyboard buttons attached to it. A Page is a pure
// function of the view parameters and carries no hidden state.
type Page struct {
	Text     string
	Keyboard [][]Button
}

// RenderMenu renders the main menu shown on /start and on "back".
func RenderMenu() Page {
	return Page{
		Text: "🐳 <b>Docker Bot</b>\n\nChoose an action:",
		Keyboard: [][]Button{
			{{Label: "📋 Containers", Data: Callback{View: ViewList}.Encode()}},
			{{Label: "📊 Stats", Data: Callback{View: ViewStats}.Encode()}},
		},
	}
}

// RenderList renders the container listing with one action button per
// container. An empty listing renders an empty-state message with no
// action buttons.
func RenderList(containers []Container) Page {
	if len(containers) == 0 {
		return Page{
			Text:     "📋 No containers found",
			Keyboard: [][]Button{backRow(Callback{View: ViewMenu})},
		}
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Containers:</b>\n\n")

	keyboard := make([][]Button, 0, len(containers)+1)
	for _, ctr := range containers {
		fmt.Fprintf(&sb, "%s <code>%s</code>\n", statusIndicator(ctr.Running), html.EscapeString(ctr.Name))
		fmt.Fprintf(&sb, "   Status: %s\n", html.EscapeString(ctr.Status))
		fmt.Fprintf(&sb, "   Image: %s\n\n", html.EscapeString(ctr.Image))

		keyboard = append(keyboard, []Button{{
			Label: fmt.Sprintf("%s %s", actionIndicator(ctr.Running), ctr.Name),
			Data:  Callback{View: ViewContainer, Container: ctr.Name}.Encode(),
		}})
	}
	keyboard = append(keyboard, backRow(Callback{View: ViewMenu}))

	return Page{Text: sb.String(), Keyboard: keyboard}
}

// RenderContainer renders the detail/action menu of a single container.
// The action buttons offered depend on whether the container is running.
func RenderContainer(ctr Container) Page {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🐳 <b>%s</b>\n\n", html.EscapeString(ctr.Name))
	fmt.Fprintf(&sb, "Status: %s\n", html.EscapeString(ctr.Status))
	fmt.Fprintf(&sb, "Image: %s\n", html.EscapeString(ctr.Image))

	var keyboard [][]Button
	if ctr.Running {
		keyboard = append(keyboard,
			[]Button{{Label: "⏹️ Stop", Data: actionToken(ActionStop, ctr.Name)}},
			[]Button{{Label: "🔄 Restart", Data: actionToken(ActionRestart, ctr.Name)}},
		)
	} else {
		keyboard = append(keyboard,
			[]Button{{Label: "▶️ Start", Data: actionToken(ActionStart, ctr.Name)}},
		)
	}
	keyboard = append(keyboard,
		[]Button{{Label: "📝 Logs", Data: actionToken(ActionLogs, ctr.Name)}},
		backRow(Callback{View: ViewList}),
	)

	return Page{Text: sb.String(), Keyboard: keyboard}
}

// RenderStats renders the aggregate resource usage view: running/total
// container counts followed by one CPU/memory block per running container.
func RenderStats(stats Stats) Page {
	var sb strings.Builder
	sb.WriteString("📊 <b>Server stats:</b>\n\n")
	fmt.Fprintf(&sb, "🌐 Containers: %d/%d\n\n", stats.Running, stats.Total)

	for _, entry := range stats.Entries {
		fmt.Fprintf(&sb, "🟢 %s\n", html.EscapeString(entry.Name))
		fmt.Fprintf(&sb, "   CPU: %s\n", html.EscapeString(entry.CPU))
		fmt.Fprintf(&sb, "   Memory: %s\n\n", html.EscapeString(entry.Memory))
	}

	return Page{
		Text:     sb.String(),
		Keyboard: [][]Button{backRow(Callback{View: ViewMenu})},
	}
}

// RenderLogs renders the log tail of a container. Output longer than
// maxLogChars characters is cut down to at most its trailing maxLogChars
// and a fixed truncation notice is appended; shorter output passes
// through unchanged.
func RenderLogs(containerName, logs string) Page {
	if len(logs) > maxLogChars {
		cut := len(logs) - maxLogChars
		// Never cut in the middle of a multi-byte rune: Telegram
		// rejects message text that is not valid UTF-8.
		for cut < len(logs) && !utf8.RuneStart(logs[cut]) {
			cut++
		}
		logs = logs[cut:] + truncationNotice
	}

	text := fmt.Sprintf(
		"📝 <b>Logs for %s:</b>\n\n<pre>%s</pre>",
		html.EscapeString(containerName),
		html.EscapeString(logs),
	)

	return Page{
		Text:     text,
		Keyboard: [][]Button{backRow(Callback{View: ViewContainer, Container: containerName})},
	}
}

// RenderActionResult renders the confirmation shown after a lifecycle
// action completed, naming the affected container.
func RenderActionResult(action Action, containerName string) Page {
	name := html.EscapeString(containerName)

	var text string
	switch action {
	case ActionStart:
		text = fmt.Sprintf("✅ Container <code>%s</code> started", name)
	case ActionStop:
		text = fmt.Sprintf("⏹️ Container <code>%s</code> stopped", name)
	case ActionRestart:
		text = fmt.Sprintf("🔄 Container <code>%s</code> restarted", name)
	}

	return Page{
		Text:     text,
		Keyboard: [][]Button{backRow(Callback{View: ViewContainer, Container: containerName})},
	}
}

// RenderFailure renders any backend or decoding failure as an ordinary
// message. There is no error taxonomy: the raw text is shown to the user
// in the same shape as a successful reply.
func RenderFailure(err error) Page {
	return Page{
		Text:     "❌ " + html.EscapeString(err.Error()),
		Keyboard: [][]Button{backRow(Callback{View: ViewMenu})},
	}
}

// RenderDenied renders the fixed reply for chat users missing from the
// allow-list.
func RenderDenied() Page {
	return Page{Text: "⛔ You are not allowed to use this bot."}
}

func statusIndicator(running bool) string {
	if running {
		return "🟢"
	}
	return "🔴"
}

func actionIndicator(running bool) string {
	if running {
		return "⏹️"
	}
	return "▶️"
}

func actionToken(action Action, containerName string) string {
	return Callback{View: ViewAction, Action: action, Container: containerName}.Encode()
}

func backRow(target Callback) []Button {
	return []Button{{Label: "🔙 Back", Data: target.Encode()}}
}
