package chatops_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/matthieugusmini/docker-chatops/internal/chatops"
)

func TestService_Respond(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("restart action issues exactly one restart", func(t *testing.T) {
		engine := newFakeEngine()
		service := chatops.NewService(engine, logger)

		cb, err := chatops.ParseCallback("action_restart_web")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		page, err := service.Respond(context.Background(), cb)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(engine.restartCalls) != 1 || engine.restartCalls[0] != "web" {
			t.Errorf("restart calls = %v, want exactly one for web", engine.restartCalls)
		}
		if !strings.Contains(page.Text, "web") {
			t.Errorf("confirmation does not name the container:\n%s", page.Text)
		}
	})

	t.Run("list view queries the engine afresh", func(t *testing.T) {
		engine := newFakeEngine()
		engine.containers = []chatops.Container{
			{Name: "web", Status: "Up 2 hours", Image: "nginx:latest", Running: true},
		}
		service := chatops.NewService(engine, logger)

		page, err := service.Respond(context.Background(), chatops.Callback{View: chatops.ViewList})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if engine.listCalls != 1 {
			t.Errorf("list calls = %d, want 1", engine.listCalls)
		}
		if !strings.Contains(page.Text, "web") {
			t.Errorf("listing does not show the container:\n%s", page.Text)
		}
	})

	t.Run("stats view renders the snapshot", func(t *testing.T) {
		engine := newFakeEngine()
		engine.stats = chatops.Stats{
			Running: 1,
			Total:   2,
			Entries: []chatops.StatsEntry{{Name: "web", CPU: "0.07%", Memory: "1.24%"}},
		}
		service := chatops.NewService(engine, logger)

		page, err := service.Respond(context.Background(), chatops.Callback{View: chatops.ViewStats})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(page.Text, "1/2") {
			t.Errorf("stats page missing counts:\n%s", page.Text)
		}
	})

	t.Run("logs action renders the tail", func(t *testing.T) {
		engine := newFakeEngine()
		engine.logs["web"] = "line 1\nline 2"
		service := chatops.NewService(engine, logger)

		page, err := service.Respond(context.Background(), chatops.Callback{
			View:      chatops.ViewAction,
			Action:    chatops.ActionLogs,
			Container: "web",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(page.Text, "line 1\nline 2") {
			t.Errorf("logs page missing output:\n%s", page.Text)
		}
	})

	t.Run("container view inspects by name", func(t *testing.T) {
		engine := newFakeEngine()
		engine.containers = []chatops.Container{
			{Name: "web", Status: "Up 2 hours", Image: "nginx:latest", Running: true},
		}
		service := chatops.NewService(engine, logger)

		page, err := service.Respond(context.Background(), chatops.Callback{
			View:      chatops.ViewContainer,
			Container: "web",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(page.Text, "nginx:latest") {
			t.Errorf("detail page missing image:\n%s", page.Text)
		}
	})

	t.Run("engine failures propagate", func(t *testing.T) {
		engine := newFakeEngine()
		engine.err = errors.New("host unreachable")
		service := chatops.NewService(engine, logger)

		_, err := service.Respond(context.Background(), chatops.Callback{View: chatops.ViewList})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "host unreachable") {
			t.Errorf("error = %v, want the engine failure text", err)
		}
	})
}

type fakeEngine struct {
	containers []chatops.Container
	stats      chatops.Stats
	logs       map[string]string
	err        error

	listCalls    int
	startCalls   []string
	stopCalls    []string
	restartCalls []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{logs: make(map[string]string)}
}

func (f *fakeEngine) ListContainers(ctx context.Context) ([]chatops.Container, error) {
	f.listCalls++
	return f.containers, f.err
}

func (f *fakeEngine) InspectContainer(ctx context.Context, name string) (chatops.Container, error) {
	if f.err != nil {
		return chatops.Container{}, f.err
	}
	for _, ctr := range f.containers {
		if ctr.Name == name {
			return ctr, nil
		}
	}
	return chatops.Container{}, &chatops.Error{
		Code:    chatops.ErrorCodeContainerNotFound,
		Message: "no such container: " + name,
	}
}

func (f *fakeEngine) StartContainer(ctx context.Context, name string) error {
	f.startCalls = append(f.startCalls, name)
	return f.err
}

func (f *fakeEngine) StopContainer(ctx context.Context, name string) error {
	f.stopCalls = append(f.stopCalls, name)
	return f.err
}

func (f *fakeEngine) RestartContainer(ctx context.Context, name string) error {
	f.restartCalls = append(f.restartCalls, name)
	return f.err
}

func (f *fakeEngine) ContainerLogs(ctx context.Context, name string) (string, error) {
	return f.logs[name], f.err
}

func (f *fakeEngine) Stats(ctx context.Context) (chatops.Stats, error) {
	return f.stats, f.err
}
