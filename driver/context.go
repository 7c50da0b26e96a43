package driver

import "context"

type ctxKey int

const ctxKeyRunID ctxKey = iota

// WithRunID saves the current run ID to the context. Launched processes
// registered under a run ID can be shut down as a group.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ctxKeyRunID, runID)
}

// GetRunID returns the current run ID from the context.
func GetRunID(ctx context.Context) string {
	runID, _ := ctx.Value(ctxKeyRunID).(string)
	return runID
}
