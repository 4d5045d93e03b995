// Package imagebackend runs the local Stable Diffusion image backend in a
// Docker container for users who do not manage it themselves.
package imagebackend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const (
	DefaultImage         = "ebookstudio/image-backend:latest"
	DefaultContainerName = "ebookstudio-image-backend"
	DefaultPort          = "8000"
	ContainerPort        = "8000/tcp"
	ModelCacheDir        = "/root/.cache/huggingface"
	Label                = "ebookstudio-image-backend"

	// GeneratePath is the backend route that renders one image.
	GeneratePath = "/generate-image/"

	// DefaultReadyTimeout covers the first model load, which can take minutes.
	DefaultReadyTimeout = 5 * time.Minute
	readyPollInterval   = 2 * time.Second
)

// ContainerStatus represents the state of the backend container.
type ContainerStatus string

const (
	StatusRunning  ContainerStatus = "running"
	StatusStopped  ContainerStatus = "stopped"
	StatusNotFound ContainerStatus = "not_found"
	StatusStarting ContainerStatus = "starting"
)

// Config holds configuration for the Manager.
type Config struct {
	ContainerName string
	Image         string
	HostPort      string
	// CachePath is a host directory for downloaded model weights.
	CachePath    string
	GPU          bool
	ReadyTimeout time.Duration
	Labels       map[string]string
	Logger       *slog.Logger
}

// Manager manages the image backend container lifecycle.
type Manager struct {
	cli           *client.Client
	containerName string
	imageName     string
	hostPort      string
	cachePath     string
	gpu           bool
	readyTimeout  time.Duration
	labels        map[string]string
	logger        *slog.Logger
}

func applyDefaults(cfg *Config) {
	if cfg.ContainerName == "" {
		cfg.ContainerName = DefaultContainerName
	}
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.HostPort == "" {
		cfg.HostPort = DefaultPort
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}

func newManager(cli *client.Client, cfg Config) *Manager {
	applyDefaults(&cfg)

	labels := map[string]string{Label: "true"}
	for k, v := range cfg.Labels {
		labels[k] = v
	}

	return &Manager{
		cli:           cli,
		containerName: cfg.ContainerName,
		imageName:     cfg.Image,
		hostPort:      cfg.HostPort,
		cachePath:     cfg.CachePath,
		gpu:           cfg.GPU,
		readyTimeout:  cfg.ReadyTimeout,
		labels:        labels,
		logger:        cfg.Logger,
	}
}

// NewManager creates a Manager using the Docker environment settings.
func NewManager(cfg Config) (*Manager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return newManager(cli, cfg), nil
}

// Close closes the Docker client.
func (m *Manager) Close() error {
	if m.cli == nil {
		return nil
	}
	return m.cli.Close()
}

// BaseURL returns the backend root URL.
func (m *Manager) BaseURL() string {
	return fmt.Sprintf("http://localhost:%s", m.hostPort)
}

// GenerateURL returns the URL the image provider should post to.
func (m *Manager) GenerateURL() string {
	return m.BaseURL() + GeneratePath
}

// Start starts the backend container and waits until it answers.
// A running container is left as is.
func (m *Manager) Start(ctx context.Context) error {
	if _, err := m.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker is not running: %w", err)
	}

	status, containerID, err := m.containerStatus(ctx)
	if err != nil {
		return err
	}

	switch status {
	case StatusRunning:
		m.logger.Info("image backend already running", "container", m.containerName)
		return nil
	case StatusStopped:
		if err := m.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
			return fmt.Errorf("failed to start existing container: %w", err)
		}
		return m.WaitReady(ctx)
	case StatusNotFound:
		return m.createAndStart(ctx)
	case StatusStarting:
		return m.WaitReady(ctx)
	default:
		return fmt.Errorf("container in unexpected state: %s", status)
	}
}

// Stop stops the backend container.
func (m *Manager) Stop(ctx context.Context) error {
	status, containerID, err := m.containerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}

	timeout := 10
	if err := m.cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	m.logger.Info("image backend stopped", "container", m.containerName)
	return nil
}

// Remove stops and removes the backend container.
func (m *Manager) Remove(ctx context.Context) error {
	status, containerID, err := m.containerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}
	if status == StatusRunning {
		if err := m.Stop(ctx); err != nil {
			return err
		}
	}
	if err := m.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// Status returns the current status of the backend container.
func (m *Manager) Status(ctx context.Context) (ContainerStatus, error) {
	status, _, err := m.containerStatus(ctx)
	return status, err
}

// Logs returns the last lines of the container log.
func (m *Manager) Logs(ctx context.Context, tail string) (string, error) {
	status, containerID, err := m.containerStatus(ctx)
	if err != nil {
		return "", err
	}
	if status == StatusNotFound {
		return "", fmt.Errorf("container not found")
	}

	logs, err := m.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       tail,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get logs: %w", err)
	}
	defer logs.Close()

	data, err := io.ReadAll(logs)
	if err != nil {
		return "", fmt.Errorf("failed to read logs: %w", err)
	}
	return string(data), nil
}

// WaitReady polls GET / until the backend answers 200 or the ready timeout
// passes.
func (m *Manager) WaitReady(ctx context.Context) error {
	return waitForReady(ctx, m.BaseURL()+"/", m.readyTimeout, readyPollInterval)
}

func (m *Manager) createAndStart(ctx context.Context) error {
	if err := m.ensureImage(ctx); err != nil {
		return err
	}

	containerConfig := &container.Config{
		Image:  m.imageName,
		Labels: m.labels,
		ExposedPorts: nat.PortSet{
			ContainerPort: struct{}{},
		},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			ContainerPort: []nat.PortBinding{
				{HostIP: "127.0.0.1", HostPort: m.hostPort},
			},
		},
	}
	if m.cachePath != "" {
		hostConfig.Mounts = []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: m.cachePath,
				Target: ModelCacheDir,
			},
		}
	}
	if m.gpu {
		hostConfig.DeviceRequests = []container.DeviceRequest{
			{Count: -1, Capabilities: [][]string{{"gpu"}}},
		}
	}

	resp, err := m.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, m.containerName)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = m.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return fmt.Errorf("failed to start container: %w", err)
	}
	m.logger.Info("image backend container created", "container", m.containerName, "image", m.imageName, "port", m.hostPort)

	return m.WaitReady(ctx)
}

func (m *Manager) containerStatus(ctx context.Context) (ContainerStatus, string, error) {
	filterArgs := filters.NewArgs()
	filterArgs.Add("name", m.containerName)

	containers, err := m.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to list containers: %w", err)
	}
	if len(containers) == 0 {
		return StatusNotFound, "", nil
	}

	c := containers[0]
	switch c.State {
	case "running":
		return StatusRunning, c.ID, nil
	case "exited", "dead":
		return StatusStopped, c.ID, nil
	case "created", "restarting":
		return StatusStarting, c.ID, nil
	default:
		return ContainerStatus(c.State), c.ID, nil
	}
}

func (m *Manager) ensureImage(ctx context.Context) error {
	if _, err := m.cli.ImageInspect(ctx, m.imageName); err == nil {
		return nil
	}

	m.logger.Info("pulling image backend image", "image", m.imageName)
	reader, err := m.cli.ImagePull(ctx, m.imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

func waitForReady(ctx context.Context, url string, timeout, interval time.Duration) error {
	httpClient := &http.Client{Timeout: 2 * time.Second}
	attempts := uint(timeout / interval)
	if attempts == 0 {
		attempts = 1
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}
