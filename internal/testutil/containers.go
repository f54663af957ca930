//go:build integration

// Package testutil starts disposable catalog containers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// CatalogContainer is a running catalog server.
type CatalogContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

// NewElasticsearchContainer starts a single-node Elasticsearch without security.
func NewElasticsearchContainer(ctx context.Context, t *testing.T) *CatalogContainer {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "docker.elastic.co/elasticsearch/elasticsearch:8.17.1",
		ExposedPorts: []string{"9200/tcp"},
		Env: map[string]string{
			"discovery.type":         "single-node",
			"xpack.security.enabled": "false",
			"ES_JAVA_OPTS":           "-Xms512m -Xmx512m",
		},
		WaitingFor: wait.ForHTTP("/_cluster/health").
			WithPort("9200/tcp").
			WithStartupTimeout(120 * time.Second),
	}
	return start(ctx, t, req, "9200/tcp")
}

// NewRedisContainer starts Redis with the search module.
func NewRedisContainer(ctx context.Context, t *testing.T) *CatalogContainer {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "redis:8.0",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}
	return start(ctx, t, req, "6379/tcp")
}

func start(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port nat.Port) *CatalogContainer {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to create %s container: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}
	return &CatalogContainer{Container: container, Host: host, Port: mapped.Port()}
}

// URL returns the HTTP endpoint.
func (c *CatalogContainer) URL() string {
	return fmt.Sprintf("http://%s:%s", c.Host, c.Port)
}

// Addr returns host:port.
func (c *CatalogContainer) Addr() string {
	return c.Host + ":" + c.Port
}
