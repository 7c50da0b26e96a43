package driver

import (
	"context"
	"os"
	"strconv"
	"sync"

	"github.com/understudy-dev/understudy/log"
)

type processState struct {
	pid   int
	runID string
}

var (
	processRegister   = map[string]*processState{} //nolint:gochecknoglobals
	processRegisterMu = sync.Mutex{}               //nolint:gochecknoglobals
)

func register(ctx context.Context, logger *log.Logger, pid int) {
	processRegisterMu.Lock()
	defer processRegisterMu.Unlock()

	runID := GetRunID(ctx)
	key := strconv.Itoa(pid) + runID

	logger.Debugf("Driver:register", "registered server process pid %d", pid)

	processRegister[key] = &processState{pid: pid, runID: runID}
}

func unregister(ctx context.Context, pid int) {
	processRegisterMu.Lock()
	defer processRegisterMu.Unlock()

	delete(processRegister, strconv.Itoa(pid)+GetRunID(ctx))
}

// ForceProcessShutdown kills every server process launched under the
// context's run ID, or every registered process when the context carries
// none. It is meant for shutdown paths where a graceful close is no
// longer possible.
func ForceProcessShutdown(ctx context.Context) {
	processRegisterMu.Lock()
	defer processRegisterMu.Unlock()

	runID := GetRunID(ctx)

	for key, state := range processRegister {
		if runID != "" && state.runID != runID {
			continue
		}

		p, err := os.FindProcess(state.pid)
		if err != nil {
			// optimistically continue and don't kill the process
			continue
		}
		// Kill first; Release invalidates the handle.
		_ = p.Kill()
		_ = p.Release()
		delete(processRegister, key)
	}
}
