package api

import "context"

// Artifact is the public interface of a file produced on the server side
// (screenshot, download, trace) that can be saved locally.
type Artifact interface {
	SaveAs(ctx context.Context, path string) error
}
