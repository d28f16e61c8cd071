package sshexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/matthieugusmini/docker-chatops/internal/chatops"
)

// CommandRunner executes a shell command on the managed host and returns
// its captured text output.
type CommandRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Commands are passed verbatim to the remote shell. The formats emit
// tab-separated rows so the output can be split without further quoting.
const (
	listCommand  = `docker ps -a --format '{{.Names}}\t{{.Status}}\t{{.Image}}'`
	statsCommand = `docker stats --no-stream --format '{{.Name}}\t{{.CPUPerc}}\t{{.MemPerc}}'`
)

// Engine implements [chatops.Engine] by invoking the docker CLI on the
// managed host through a [CommandRunner] and parsing its plain-text
// output. Every operation issues at most two sequential remote commands.
type Engine struct {
	runner CommandRunner
}

// NewEngine creates a new SSH-backed [Engine] on top of the given runner.
func NewEngine(runner CommandRunner) *Engine {
	return &Engine{runner: runner}
}

// ListContainers fetches all containers on the host (docker ps -a).
func (e *Engine) ListContainers(ctx context.Context) ([]chatops.Container, error) {
	out, err := e.runner.Run(ctx, listCommand)
	if err != nil {
		return nil, err
	}
	return parseContainers(out), nil
}

// InspectContainer fetches the current status and image of one container.
// A container unknown to the host is reported with status "unknown"
// rather than as an error, mirroring what the CLI output lets us know.
func (e *Engine) InspectContainer(ctx context.Context, name string) (chatops.Container, error) {
	command := fmt.Sprintf(`docker ps -a --filter name=^/%s$ --format '{{.Status}}\t{{.Image}}'`, name)
	out, err := e.runner.Run(ctx, command)
	if err != nil {
		return chatops.Container{}, err
	}

	ctr := chatops.Container{Name: name, Status: "unknown"}

	line, _, _ := strings.Cut(out, "\n")
	if status, image, ok := strings.Cut(strings.TrimSpace(line), "\t"); ok {
		ctr.Status = status
		ctr.Image = image
		ctr.Running = isUp(status)
	}

	return ctr, nil
}

// StartContainer starts the named container.
func (e *Engine) StartContainer(ctx context.Context, name string) error {
	return e.runContainerAction(ctx, "start", name)
}

// StopContainer stops the named container.
func (e *Engine) StopContainer(ctx context.Context, name string) error {
	return e.runContainerAction(ctx, "stop", name)
}

// RestartContainer restarts the named container.
func (e *Engine) RestartContainer(ctx context.Context, name string) error {
	return e.runContainerAction(ctx, "restart", name)
}

func (e *Engine) runContainerAction(ctx context.Context, verb, name string) error {
	// A nonzero docker exit status already came back as stderr text from
	// the runner, indistinguishable from ordinary output, so the result is
	// discarded either way.
	_, err := e.runner.Run(ctx, fmt.Sprintf("docker %s %s", verb, name))
	return err
}

// ContainerLogs returns the last 20 lines of the named container's logs.
func (e *Engine) ContainerLogs(ctx context.Context, name string) (string, error) {
	return e.runner.Run(ctx, fmt.Sprintf("docker logs --tail 20 %s", name))
}

// Stats returns a snapshot of the host: running/total container counts
// derived from the full listing, plus per-container CPU and memory
// percentages from docker stats. Both commands run sequentially against
// the same host, so the counts and the entries describe the same moment
// up to the latency between the two invocations.
func (e *Engine) Stats(ctx context.Context) (chatops.Stats, error) {
	listOut, err := e.runner.Run(ctx, listCommand)
	if err != nil {
		return chatops.Stats{}, err
	}

	var stats chatops.Stats
	for _, ctr := range parseContainers(listOut) {
		stats.Total++
		if ctr.Running {
			stats.Running++
		}
	}

	statsOut, err := e.runner.Run(ctx, statsCommand)
	if err != nil {
		return chatops.Stats{}, err
	}
	stats.Entries = parseStats(statsOut)

	return stats, nil
}

// parseContainers splits tab-delimited docker ps output rows into
// containers. Malformed rows are skipped.
func parseContainers(out string) []chatops.Container {
	var containers []chatops.Container
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		containers = append(containers, chatops.Container{
			Name:    parts[0],
			Status:  parts[1],
			Image:   parts[2],
			Running: isUp(parts[1]),
		})
	}
	return containers
}

func parseStats(out string) []chatops.StatsEntry {
	var entries []chatops.StatsEntry
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		entries = append(entries, chatops.StatsEntry{
			Name:   parts[0],
			CPU:    parts[1],
			Memory: parts[2],
		})
	}
	return entries
}

// isUp applies the status heuristic used throughout the views: a
// container is considered running when its status text starts with "Up".
func isUp(status string) bool {
	return strings.HasPrefix(status, "Up")
}
