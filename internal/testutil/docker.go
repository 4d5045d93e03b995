package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

const (
	// CleanupLabel marks containers created by tests.
	CleanupLabel = "ebookstudio-test"
	// DockerTestsEnv must be set for tests that talk to a docker daemon.
	DockerTestsEnv = "STUDIO_DOCKER_TESTS"
)

// TestingT is the subset of testing.T used for Docker setup.
type TestingT interface {
	Name() string
	Cleanup(func())
	Logf(format string, args ...any)
	Skipf(format string, args ...any)
	Helper()
}

// RequireDocker returns a Docker client, or skips the test when docker tests
// are not enabled or the daemon is unreachable. Containers labelled for this
// test are removed on cleanup.
func RequireDocker(t TestingT) *client.Client {
	t.Helper()
	if os.Getenv(DockerTestsEnv) == "" {
		t.Skipf("set %s=1 to run against a local docker daemon", DockerTestsEnv)
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("docker client unavailable: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		t.Skipf("docker is not running: %v", err)
	}

	t.Cleanup(func() {
		removeTestContainers(t, cli)
		cli.Close()
	})
	return cli
}

// UniqueContainerName generates a container name unique to this test run.
// Format: ebookstudio-test-<prefix>-<testname>-<random>
func UniqueContainerName(t TestingT, prefix string) string {
	t.Helper()
	return fmt.Sprintf("%s-%s-%s-%s", CleanupLabel, prefix, sanitizeName(t.Name()), randString(4))
}

// ContainerLabels returns the labels RequireDocker cleans up by.
func ContainerLabels(t TestingT) map[string]string {
	return map[string]string{CleanupLabel: sanitizeName(t.Name())}
}

func removeTestContainers(t TestingT, cli *client.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	filterArgs := filters.NewArgs()
	filterArgs.Add("label", fmt.Sprintf("%s=%s", CleanupLabel, sanitizeName(t.Name())))
	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: filterArgs})
	if err != nil {
		t.Logf("failed to list containers for cleanup: %v", err)
		return
	}

	for _, c := range containers {
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			t.Logf("failed to remove container %s: %v", c.Names[0], err)
			continue
		}
		t.Logf("removed container %s", strings.TrimPrefix(c.Names[0], "/"))
	}
}

func randString(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// sanitizeName keeps a test name usable in container names and label values.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '/' || c == '_' || c == '-':
			b.WriteByte('-')
		}
		if b.Len() >= 30 {
			break
		}
	}
	return b.String()
}
