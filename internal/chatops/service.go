package chatops

import (
	"context"
	"fmt"
	"log/slog"
)

// Engine provides the container operations behind the chat views. It is
// implemented both by the SSH backend shelling out to the docker CLI and
// by the local Docker Engine API backend.
type Engine interface {
	// ListContainers returns a slice representing all containers on the
	// host, including stopped ones.
	ListContainers(ctx context.Context) ([]Container, error)

	// InspectContainer returns the current state of a single container
	// looked up by name.
	InspectContainer(ctx context.Context, name string) (Container, error)

	// StartContainer starts the named container.
	StartContainer(ctx context.Context, name string) error

	// StopContainer stops the named container.
	StopContainer(ctx context.Context, name string) error

	// RestartContainer restarts the named container.
	RestartContainer(ctx context.Context, name string) error

	// ContainerLogs returns the tail of the named container's log output
	// as plain text.
	ContainerLogs(ctx context.Context, name string) (string, error)

	// Stats returns a freshly computed resource usage snapshot of the host.
	Stats(ctx context.Context) (Stats, error)
}

// Service routes decoded callback tokens to container operations and
// renders the resulting view. Every view is rebuilt from a fresh backend
// query: nothing is cached, diffed or retried.
type Service struct {
	engine Engine
	logger *slog.Logger
}

// NewService creates a new [Service] backed by the given container engine.
func NewService(engine Engine, logger *slog.Logger) *Service {
	return &Service{
		engine: engine,
		logger: logger,
	}
}

// Respond handles one decoded callback and returns the next page to
// display. The call blocks until the backend operation completes; there
// is no timeout beyond what the backend itself applies.
func (s *Service) Respond(ctx context.Context, cb Callback) (Page, error) {
	s.logger.Debug(
		"Handling callback",
		slog.String("view", string(cb.View)),
		slog.String("action", string(cb.Action)),
		slog.String("container", cb.Container),
	)

	switch cb.View {
	case ViewMenu:
		return RenderMenu(), nil

	case ViewList:
		containers, err := s.engine.ListContainers(ctx)
		if err != nil {
			return Page{}, fmt.Errorf("list containers: %w", err)
		}
		return RenderList(containers), nil

	case ViewStats:
		stats, err := s.engine.Stats(ctx)
		if err != nil {
			return Page{}, fmt.Errorf("collect stats: %w", err)
		}
		return RenderStats(stats), nil

	case ViewContainer:
		ctr, err := s.engine.InspectContainer(ctx, cb.Container)
		if err != nil {
			return Page{}, fmt.Errorf("inspect container %s: %w", cb.Container, err)
		}
		return RenderContainer(ctr), nil

	case ViewAction:
		return s.respondAction(ctx, cb)

	default:
		return Page{}, &Error{
			Code:    ErrorCodeBadCallback,
			Message: fmt.Sprintf("unknown view %q", cb.View),
		}
	}
}

func (s *Service) respondAction(ctx context.Context, cb Callback) (Page, error) {
	switch cb.Action {
	case ActionStart:
		if err := s.engine.StartContainer(ctx, cb.Container); err != nil {
			return Page{}, fmt.Errorf("start container %s: %w", cb.Container, err)
		}
	case ActionStop:
		if err := s.engine.StopContainer(ctx, cb.Container); err != nil {
			return Page{}, fmt.Errorf("stop container %s: %w", cb.Container, err)
		}
	case ActionRestart:
		if err := s.engine.RestartContainer(ctx, cb.Container); err != nil {
			return Page{}, fmt.Errorf("restart container %s: %w", cb.Container, err)
		}
	case ActionLogs:
		logs, err := s.engine.ContainerLogs(ctx, cb.Container)
		if err != nil {
			return Page{}, fmt.Errorf("get container logs %s: %w", cb.Container, err)
		}
		return RenderLogs(cb.Container, logs), nil

	default:
		return Page{}, &Error{
			Code:    ErrorCodeBadCallback,
			Message: fmt.Sprintf("unknown action %q", cb.Action),
		}
	}

	return RenderActionResult(cb.Action, cb.Container), nil
}
