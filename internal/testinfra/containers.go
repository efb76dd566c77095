// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

//go:build integration

package testinfra

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

var docker struct {
	once sync.Once
	ok   bool
}

// IsDockerAvailable reports whether a Docker daemon answers. The answer is
// computed once per test binary.
func IsDockerAvailable() bool {
	docker.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		docker.ok = exec.CommandContext(ctx, "docker", "info").Run() == nil
	})
	return docker.ok
}

// SkipIfNoDocker skips t on machines without a Docker daemon.
func SkipIfNoDocker(t testing.TB) {
	t.Helper()
	if !IsDockerAvailable() {
		t.Skip("docker not available")
	}
}

// terminateOnCleanup stops c when t finishes. It uses its own deadline so a
// test context that already expired does not leak the container.
func terminateOnCleanup(t testing.TB, c testcontainers.Container) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Terminate(ctx); err != nil {
			t.Logf("terminate container %s: %v", c.GetContainerID(), err)
		}
	})
}
