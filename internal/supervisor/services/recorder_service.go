// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package services

import (
	"context"
	"errors"
)

// Runner blocks until ctx is canceled. *eventprocessor.Recorder
// satisfies it.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService adapts a Runner to suture. A Runner that returns nil
// before cancellation is treated as a crash and restarted.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (r *RunnerService) Serve(ctx context.Context) error {
	err := r.runner.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		return errors.New(r.name + " stopped unexpectedly")
	}
	return err
}

// String names the service in supervisor logs.
func (r *RunnerService) String() string {
	return r.name
}
