// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultNATSImage is a JetStream-capable NATS server image.
	// STAYNAV_TEST_NATS_IMAGE overrides it.
	DefaultNATSImage = "nats:2.12-alpine"

	natsClientPort = "4222/tcp"
)

// NATSContainer is a running NATS server with JetStream enabled.
type NATSContainer struct {
	testcontainers.Container
	URL string
}

// StartNATS starts a JetStream server for t and terminates it when t ends.
// Without Docker the test is skipped.
func StartNATS(ctx context.Context, t testing.TB) *NATSContainer {
	t.Helper()
	SkipIfNoDocker(t)

	image := DefaultNATSImage
	if v := os.Getenv("STAYNAV_TEST_NATS_IMAGE"); v != "" {
		image = v
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{natsClientPort},
			Cmd:          []string{"-js", "-sd", "/data"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(natsClientPort),
				wait.ForLog("Server is ready"),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start nats container: %v", err)
	}
	terminateOnCleanup(t, c)

	url, err := clientURL(ctx, c)
	if err != nil {
		t.Fatalf("nats container address: %v", err)
	}
	return &NATSContainer{Container: c, URL: url}
}

func clientURL(ctx context.Context, c testcontainers.Container) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("host: %w", err)
	}
	port, err := c.MappedPort(ctx, natsClientPort)
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}
	return fmt.Sprintf("nats://%s:%s", host, port.Port()), nil
}
