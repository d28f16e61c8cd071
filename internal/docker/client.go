package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/filters"
	"github.com/moby/moby/client"

	"github.com/matthieugusmini/docker-chatops/internal/chatops"
)

const logTail = "20"

// Client is an adapter for the Docker Engine API client to our domain.
// It serves the same operations as the SSH backend when the bot runs
// directly on the managed host.
type Client struct {
	dockerClient *client.Client
}

// NewClient returns a new [Client] wrapping the given Docker Engine API client.
func NewClient(dockerClient *client.Client) *Client {
	return &Client{dockerClient}
}

// ListContainers fetches the list of all containers in Docker (docker ps -a).
func (c *Client) ListContainers(ctx context.Context) ([]chatops.Container, error) {
	containers, err := c.dockerClient.ContainerList(ctx, client.ContainerListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("list Docker containers: %w", err)
	}

	res := make([]chatops.Container, len(containers))
	for i, ctr := range containers {
		res[i] = toDomainContainer(ctr)
	}

	return res, nil
}

// InspectContainer looks up a single container by exact name.
func (c *Client) InspectContainer(ctx context.Context, name string) (chatops.Container, error) {
	containers, err := c.dockerClient.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", "^/"+name+"$")),
	})
	if err != nil {
		return chatops.Container{}, fmt.Errorf("list Docker containers: %w", err)
	}
	if len(containers) == 0 {
		return chatops.Container{}, &chatops.Error{
			Code:    chatops.ErrorCodeContainerNotFound,
			Message: fmt.Sprintf("no such container: %s", name),
		}
	}

	return toDomainContainer(containers[0]), nil
}

// StartContainer starts the named container.
func (c *Client) StartContainer(ctx context.Context, name string) error {
	err := c.dockerClient.ContainerStart(ctx, name, client.ContainerStartOptions{})
	if err != nil {
		return wrapNotFound(name, fmt.Errorf("start Docker container: %w", err))
	}
	return nil
}

// StopContainer stops the named container using the engine's default
// stop timeout.
func (c *Client) StopContainer(ctx context.Context, name string) error {
	err := c.dockerClient.ContainerStop(ctx, name, client.ContainerStopOptions{})
	if err != nil {
		return wrapNotFound(name, fmt.Errorf("stop Docker container: %w", err))
	}
	return nil
}

// RestartContainer restarts the named container.
func (c *Client) RestartContainer(ctx context.Context, name string) error {
	err := c.dockerClient.ContainerRestart(ctx, name, client.ContainerStopOptions{})
	if err != nil {
		return wrapNotFound(name, fmt.Errorf("restart Docker container: %w", err))
	}
	return nil
}

// ContainerLogs returns the last lines of the named container's logs with
// stdout and stderr interleaved, the same way docker logs prints them.
func (c *Client) ContainerLogs(ctx context.Context, name string) (string, error) {
	r, err := c.dockerClient.ContainerLogs(ctx, name, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       logTail,
	})
	if err != nil {
		return "", wrapNotFound(name, fmt.Errorf("get Docker container logs: %w", err))
	}
	defer r.Close()

	// If it is a TTY container, the log stream doesn't need to be demultiplexed.
	isTTY, err := c.isTTY(ctx, name)
	if err != nil {
		return "", fmt.Errorf("check if tty container: %w", err)
	}

	var buf bytes.Buffer
	if isTTY {
		if _, err := buf.ReadFrom(r); err != nil {
			return "", fmt.Errorf("read container logs: %w", err)
		}
	} else {
		if _, err := stdcopy.StdCopy(&buf, &buf, r); err != nil {
			return "", fmt.Errorf("demultiplex container logs: %w", err)
		}
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

// Stats computes a fresh usage snapshot: running/total counts from the
// full container listing plus one-shot CPU and memory percentages for
// every running container.
func (c *Client) Stats(ctx context.Context) (chatops.Stats, error) {
	containers, err := c.dockerClient.ContainerList(ctx, client.ContainerListOptions{All: true})
	if err != nil {
		return chatops.Stats{}, fmt.Errorf("list Docker containers: %w", err)
	}

	var stats chatops.Stats
	for _, ctr := range containers {
		domainCtr := toDomainContainer(ctr)

		stats.Total++
		if !domainCtr.Running {
			continue
		}
		stats.Running++

		resp, err := c.dockerClient.ContainerStats(ctx, domainCtr.Name, false)
		if err != nil {
			return chatops.Stats{}, fmt.Errorf("get Docker container stats: %w", err)
		}

		var raw container.StatsResponse
		err = json.NewDecoder(resp.Body).Decode(&raw)
		resp.Body.Close()
		if err != nil {
			return chatops.Stats{}, fmt.Errorf("decode Docker container stats: %w", err)
		}

		stats.Entries = append(stats.Entries, chatops.StatsEntry{
			Name:   domainCtr.Name,
			CPU:    fmt.Sprintf("%.1f%%", cpuPercent(raw)),
			Memory: fmt.Sprintf("%.1f%%", memoryPercent(raw)),
		})
	}

	return stats, nil
}

func (c *Client) isTTY(ctx context.Context, containerName string) (bool, error) {
	containerInfo, err := c.dockerClient.ContainerInspect(ctx, containerName)
	if err != nil {
		return false, fmt.Errorf("inspect Docker container: %w", err)
	}

	if containerInfo.Config == nil {
		return false, fmt.Errorf("container %s has no config", containerName)
	}

	return containerInfo.Config.Tty, nil
}

func toDomainContainer(ctr container.Summary) chatops.Container {
	var name string
	if len(ctr.Names) > 0 {
		// For historical reasons, container names are stored as paths.
		name = strings.TrimPrefix(ctr.Names[0], "/")
	}

	return chatops.Container{
		Name:   name,
		Status: ctr.Status,
		Image:  ctr.Image,
		// ContainerList reports the same human status text as docker ps,
		// so the "Up" prefix heuristic applies here too.
		Running: strings.HasPrefix(ctr.Status, "Up"),
	}
}

// cpuPercent derives a CPU usage percentage from the deltas between the
// current and previous readings included in a one-shot stats response.
func cpuPercent(s container.StatsResponse) float64 {
	cpuDelta := float64(s.CPUStats.CPUUsage.TotalUsage) - float64(s.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(s.CPUStats.SystemUsage) - float64(s.PreCPUStats.SystemUsage)
	if cpuDelta <= 0 || systemDelta <= 0 {
		return 0
	}

	cpus := float64(s.CPUStats.OnlineCPUs)
	if cpus == 0 {
		cpus = float64(len(s.CPUStats.CPUUsage.PercpuUsage))
	}

	return cpuDelta / systemDelta * cpus * 100
}

func memoryPercent(s container.StatsResponse) float64 {
	if s.MemoryStats.Limit == 0 {
		return 0
	}
	return float64(s.MemoryStats.Usage) / float64(s.MemoryStats.Limit) * 100
}

func wrapNotFound(name string, err error) error {
	if errdefs.IsNotFound(err) {
		return &chatops.Error{
			Code:    chatops.ErrorCodeContainerNotFound,
			Message: fmt.Sprintf("no such container: %s", name),
		}
	}
	return err
}
