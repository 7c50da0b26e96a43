package driver

import (
	"context"
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/log"
)

// Process is a launched server subprocess speaking the protocol over its
// stdio.
type Process struct {
	logger *log.Logger
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
}

// launchProcess starts path with args and returns the process together
// with a pipe transport bound to its stdio.
func launchProcess(ctx context.Context, logger *log.Logger, path string, args, env []string) (*Process, *channel.PipeTransport, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, path, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, nil, errors.Wrap(err, "opening stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, nil, errors.Wrap(err, "opening stdout pipe")
	}

	// Start before Wait, otherwise the two race.
	if err := cmd.Start(); err != nil {
		cancel()
		if os.IsNotExist(err) {
			return nil, nil, errors.Errorf("file does not exist: %s", path)
		}
		return nil, nil, errors.Wrap(err, "starting server process")
	}
	if ctx.Err() != nil {
		cancel()
		return nil, nil, ctx.Err()
	}

	register(ctx, logger, cmd.Process.Pid)

	p := &Process{
		logger: logger,
		cmd:    cmd,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			logger.Errorf("Driver:process",
				"server process with PID %d unexpectedly ended: %v",
				cmd.Process.Pid, err)
		}
		unregister(ctx, cmd.Process.Pid)
	}()

	return p, channel.NewPipeTransport(logger, stdout, stdin), nil
}

// Pid returns the server process ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed once the server process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Terminate kills the server process if it is still running.
func (p *Process) Terminate() {
	p.logger.Debugf("Driver:process", "terminating server process pid %d", p.cmd.Process.Pid)
	p.cancel()
}
