// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package buildenv provisions isolated, disposable build environments for
// the package target builders. It detects a container runtime (docker first,
// podman fallback) and exposes the operations a builder needs: start an
// environment with the source tree mounted, run commands inside it as a
// chosen user, move files across the boundary, and dispose of it.
package buildenv

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

const (
	binDocker = "docker"
	binPodman = "podman"

	// RootUser runs privileged provisioning (toolchain installation).
	RootUser = "root"
)

// Runtime provides build-environment operations. The privileged/unprivileged
// split is explicit: Exec takes the user to run as, so provisioning runs as
// RootUser and compile/package steps run as the unprivileged build user.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// Start launches a detached environment from image with srcDir mounted
	// read-only at /src. The environment idles until removed.
	Start(ctx context.Context, name, image, srcDir string) error

	// Exec runs a shell command inside the environment as user, streaming
	// combined output to out.
	Exec(ctx context.Context, name, user, command string, out io.Writer) error

	// CopyIn copies a host file into the environment.
	CopyIn(ctx context.Context, name, hostPath, envPath string) error

	// CopyOut copies a file out of the environment to the host.
	CopyOut(ctx context.Context, name, envPath, hostPath string) error

	// Remove disposes of the environment. Safe to call on an environment
	// that never started.
	Remove(ctx context.Context, name string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	RunStreamed(ctx context.Context, name string, args []string, out io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) RunStreamed(ctx context.Context, name string, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

// runtime implements Runtime for a specific container binary. Docker and
// podman accept the same arguments for everything this package uses.
type runtime struct {
	bin  string
	exec executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(context.Background(), r.bin, "info") == nil
}

func (r *runtime) Start(ctx context.Context, name, image, srcDir string) error {
	args := []string{
		"run", "--detach", "--name", name,
		"--volume", srcDir + ":/src:ro",
		image, "sleep", "infinity",
	}
	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("starting %s environment from %s: %w", r.bin, image, err)
	}
	return nil
}

func (r *runtime) Exec(ctx context.Context, name, user, command string, out io.Writer) error {
	args := []string{"exec", "--user", user, name, "sh", "-c", command}
	if err := r.exec.RunStreamed(ctx, r.bin, args, out); err != nil {
		return fmt.Errorf("running %q as %s in %s: %w", command, user, name, err)
	}
	return nil
}

func (r *runtime) CopyIn(ctx context.Context, name, hostPath, envPath string) error {
	if err := r.exec.RunSilent(ctx, r.bin, "cp", hostPath, name+":"+envPath); err != nil {
		return fmt.Errorf("copying %s into %s: %w", hostPath, name, err)
	}
	return nil
}

func (r *runtime) CopyOut(ctx context.Context, name, envPath, hostPath string) error {
	if err := r.exec.RunSilent(ctx, r.bin, "cp", name+":"+envPath, hostPath); err != nil {
		return fmt.Errorf("copying %s out of %s: %w", envPath, name, err)
	}
	return nil
}

func (r *runtime) Remove(ctx context.Context, name string) error {
	if err := r.exec.RunSilent(ctx, r.bin, "rm", "--force", name); err != nil {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{bin: binDocker, exec: exec}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{bin: binPodman, exec: exec}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
