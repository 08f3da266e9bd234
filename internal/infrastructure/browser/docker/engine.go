// Package docker runs each bot's browser in its own browserless/chrome container.
package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const (
	DefaultImage = "browserless/chrome:latest"
	browserPort  = nat.Port("3000/tcp")
	stopTimeout  = 10
)

// Container is a started browser container and the host port its CDP endpoint is bound to.
type Container struct {
	ID   string
	Port string
}

type Engine struct {
	client *client.Client
	image  string
}

func NewEngine(img string) (*Engine, error) {
	if img == "" {
		img = DefaultImage
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Engine{client: cli, image: img}, nil
}

// EnsureImage pulls the browser image unless it is already present.
func (e *Engine) EnsureImage(ctx context.Context) error {
	images, err := e.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == e.image {
				return nil
			}
		}
	}

	reader, err := e.client.ImagePull(ctx, e.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

// Launch creates and starts a container publishing the CDP port on a random host port.
func (e *Engine) Launch(ctx context.Context, name string, labels map[string]string) (Container, error) {
	containerConfig := &container.Config{
		Image:  e.image,
		Labels: labels,
		Env: []string{
			"CONNECTION_TIMEOUT=-1",
			"MAX_CONCURRENT_SESSIONS=1",
			"PREBOOT_CHROME=true",
			"EXIT_ON_HEALTH_FAILURE=false",
		},
		ExposedPorts: nat.PortSet{
			browserPort: struct{}{},
		},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			browserPort: []nat.PortBinding{
				{HostIP: "127.0.0.1", HostPort: "0"},
			},
		},
	}

	resp, err := e.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name)
	if err != nil {
		return Container{}, fmt.Errorf("failed to create container: %w", err)
	}

	if err := e.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = e.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return Container{}, fmt.Errorf("failed to start container: %w", err)
	}

	inspect, err := e.client.ContainerInspect(ctx, resp.ID)
	if err != nil {
		_ = e.Stop(ctx, resp.ID)
		return Container{}, fmt.Errorf("failed to inspect container: %w", err)
	}

	var bindings []nat.PortBinding
	if inspect.NetworkSettings != nil {
		bindings = inspect.NetworkSettings.Ports[browserPort]
	}
	if len(bindings) == 0 {
		_ = e.Stop(ctx, resp.ID)
		return Container{}, fmt.Errorf("container %s has no binding for %s", resp.ID, browserPort)
	}

	return Container{ID: resp.ID, Port: bindings[0].HostPort}, nil
}

func (e *Engine) Stop(ctx context.Context, id string) error {
	timeout := stopTimeout
	if err := e.client.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	if err := e.client.ContainerRemove(ctx, id, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}
