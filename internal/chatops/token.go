package chatops

import (
	"fmt"
	"strings"
)

// View identifies which screen of the bot a callback token refers to.
type View string

const (
	// ViewMenu is the main menu.
	ViewMenu View = "menu"

	// ViewList is the container listing.
	ViewList View = "list"

	// ViewStats is the aggregate resource usage view.
	ViewStats View = "stats"

	// ViewContainer is the detail/action menu of a single container.
	ViewContainer View = "container"

	// ViewAction executes an action against a single container.
	ViewAction View = "action"
)

// Action identifies an operation to perform on a container.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionLogs    Action = "logs"
)

// Callback is the decoded form of a callback token. The token travels over
// the wire as an opaque string attached to an inline keyboard button and is
// echoed back verbatim when the button is pressed.
type Callback struct {
	// View selects the screen to render next.
	View View

	// Action is the operation to run. Only set when View is ViewAction.
	Action Action

	// Container is the target container name. Only set when View is
	// ViewContainer or ViewAction.
	Container string
}

// Encode serializes the callback into its wire representation:
//
//	back, list, stats, container_<name>, action_<verb>_<name>
func (c Callback) Encode() string {
	switch c.View {
	case ViewList:
		return "list"
	case ViewStats:
		return "stats"
	case ViewContainer:
		return "container_" + c.Container
	case ViewAction:
		return fmt.Sprintf("action_%s_%s", c.Action, c.Container)
	default:
		return "back"
	}
}

// ParseCallback decodes a wire token into a [Callback].
//
// The wire format is underscore-delimited and therefore ambiguous for
// container names that themselves contain underscores: container_<name>
// truncates the name at its first underscore, while action_<verb>_<name>
// keeps the remainder of the token intact. This asymmetry is a long-standing
// property of the token convention and is preserved as-is.
func ParseCallback(data string) (Callback, error) {
	switch data {
	case "back":
		return Callback{View: ViewMenu}, nil
	case "list":
		return Callback{View: ViewList}, nil
	case "stats":
		return Callback{View: ViewStats}, nil
	}

	switch {
	case strings.HasPrefix(data, "container_"):
		parts := strings.Split(data, "_")
		if len(parts) < 2 || parts[1] == "" {
			return Callback{}, &Error{
				Code:    ErrorCodeBadCallback,
				Message: fmt.Sprintf("callback token %q has no container name", data),
			}
		}
		return Callback{View: ViewContainer, Container: parts[1]}, nil

	case strings.HasPrefix(data, "action_"):
		parts := strings.SplitN(data, "_", 3)
		if len(parts) != 3 || parts[2] == "" {
			return Callback{}, &Error{
				Code:    ErrorCodeBadCallback,
				Message: fmt.Sprintf("callback token %q has no container name", data),
			}
		}

		action := Action(parts[1])
		switch action {
		case ActionStart, ActionStop, ActionRestart, ActionLogs:
		default:
			return Callback{}, &Error{
				Code:    ErrorCodeBadCallback,
				Message: fmt.Sprintf("unknown action %q in callback token %q", parts[1], data),
			}
		}

		return Callback{View: ViewAction, Action: action, Container: parts[2]}, nil
	}

	return Callback{}, &Error{
		Code:    ErrorCodeBadCallback,
		Message: fmt.Sprintf("unknown callback token %q", data),
	}
}
