/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package sandbox

import (
	"context"
	"github.com/cenkalti/backoff/v4"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/near_client"
	"io"
	"os"
	"os/exec"
	"time"
)

const (
	stopTimeout = 10 * time.Second
)

// SandboxService is a running near-sandbox node process
type SandboxService struct {
	initializer *SandboxProcessInitializer
	cmd         *exec.Cmd
	output      *io.PipeWriter
	exited      chan error
}

// LaunchSandboxService initializes the home directory and starts the node, without waiting for it to come up
func LaunchSandboxService(ctx context.Context, initializer *SandboxProcessInitializer) (*SandboxService, error) {
	initCmd := exec.CommandContext(ctx, initializer.GetBinaryPath(), initializer.GetInitCommand()...)
	if initOutput, err := initCmd.CombinedOutput(); err != nil {
		return nil, stacktrace.Propagate(
			err,
			"An error occurred initializing sandbox home directory '%v'; output was:\n%v",
			initializer.GetHomeDir(),
			string(initOutput))
	}
	if err := initializer.InitializeGeneratedFiles(); err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred initializing the sandbox's generated files")
	}

	output := logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
	// The node outlives ctx, which only bounds setup, so it's started with a plain Command
	cmd := exec.Command(initializer.GetBinaryPath(), initializer.GetStartCommand()...)
	cmd.Stdout = output
	cmd.Stderr = output
	if err := cmd.Start(); err != nil {
		output.Close()
		return nil, stacktrace.Propagate(err, "An error occurred starting the sandbox node with binary '%v'", initializer.GetBinaryPath())
	}
	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()
	logrus.Debugf("Sandbox node started with PID %v, listening on %v", cmd.Process.Pid, initializer.GetRpcUrl())

	return &SandboxService{
		initializer: initializer,
		cmd:         cmd,
		output:      output,
		exited:      exited,
	}, nil
}

func (service *SandboxService) GetRpcUrl() string {
	return service.initializer.GetRpcUrl()
}

func (service *SandboxService) GetValidatorKeyFilepath() string {
	return service.initializer.GetValidatorKeyFilepath()
}

// WaitForStartup polls the node's status endpoint until it has produced a block
func (service *SandboxService) WaitForStartup(ctx context.Context, client *near_client.RpcClient, timeBetweenPolls time.Duration, maxNumPolls int) error {
	checker := NewSandboxAvailabilityChecker(client, service.exited)
	return checker.WaitForStartup(ctx, timeBetweenPolls, maxNumPolls)
}

// Stop kills the node and removes its home directory
func (service *SandboxService) Stop() error {
	defer service.output.Close()

	if err := service.cmd.Process.Signal(os.Interrupt); err != nil {
		logrus.Debugf("Couldn't interrupt the sandbox node, it's likely already exited: %v", err)
	}
	select {
	case <-service.exited:
	case <-time.After(stopTimeout):
		logrus.Warnf("Sandbox node didn't exit within %v of being interrupted; killing it", stopTimeout)
		if err := service.cmd.Process.Kill(); err != nil {
			return stacktrace.Propagate(err, "An error occurred killing the sandbox node with PID %v", service.cmd.Process.Pid)
		}
		<-service.exited
	}

	if err := os.RemoveAll(service.initializer.GetHomeDir()); err != nil {
		return stacktrace.Propagate(err, "An error occurred removing sandbox home directory '%v'", service.initializer.GetHomeDir())
	}
	return nil
}

type SandboxAvailabilityChecker struct {
	client *near_client.RpcClient

	// Receives once the node process exits; nil when the node isn't ours to watch
	exited <-chan error
}

func NewSandboxAvailabilityChecker(client *near_client.RpcClient, exited <-chan error) *SandboxAvailabilityChecker {
	return &SandboxAvailabilityChecker{client: client, exited: exited}
}

func (checker *SandboxAvailabilityChecker) WaitForStartup(ctx context.Context, timeBetweenPolls time.Duration, maxNumPolls int) error {
	numPolls := 0
	poll := func() error {
		numPolls++
		select {
		case err := <-checker.exited:
			// err is nil on a clean exit, which is still a failure to start
			return backoff.Permanent(stacktrace.NewError("The sandbox node exited before becoming available: %v", err))
		default:
		}
		status, err := checker.client.Status(ctx)
		if err != nil {
			logrus.Debugf("Sandbox node isn't available yet (poll %v of %v): %v", numPolls, maxNumPolls, err)
			return err
		}
		if status.SyncInfo.LatestBlockHeight == 0 {
			return stacktrace.NewError("Sandbox node is up but hasn't produced a block yet")
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(timeBetweenPolls), uint64(maxNumPolls-1)),
		ctx)
	if err := backoff.Retry(poll, policy); err != nil {
		return stacktrace.Propagate(
			err,
			"The sandbox node at '%v' didn't become available even after polling %v times with %v between polls",
			checker.client.Url(),
			numPolls,
			timeBetweenPolls)
	}
	return nil
}
