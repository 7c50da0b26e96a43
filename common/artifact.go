package common

import (
	"context"
	"fmt"

	"github.com/understudy-dev/understudy/api"
	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/log"
	"github.com/understudy-dev/understudy/storage"
)

var _ api.Artifact = &Artifact{}

// Artifact is the proxy of a file produced on the server side, such as a
// screenshot. Its bytes stay remote until saved.
type Artifact struct {
	obj       *channel.Object
	logger    *log.Logger
	persister storage.FilePersister
}

type artifactInitializer struct {
	AbsolutePath string `json:"absolutePath"`
}

// NewArtifact builds the proxy for an "Artifact" object, saving through
// persister.
func NewArtifact(obj *channel.Object, logger *log.Logger, persister storage.FilePersister) (*Artifact, error) {
	var init artifactInitializer
	if err := obj.DecodeInitializer(&init); err != nil {
		return nil, fmt.Errorf("decoding artifact initializer: %w", err)
	}
	return &Artifact{
		obj:       obj,
		logger:    logger,
		persister: persister,
	}, nil
}

// SaveAs streams the artifact's bytes from the peer and persists them at
// path.
func (a *Artifact) SaveAs(ctx context.Context, path string) (err error) {
	var result struct {
		Stream guidRef `json:"stream"`
	}
	if err := a.obj.CallInto(ctx, "saveAsStream", nil, &result); err != nil {
		return err
	}
	proxy, err := proxyByGUID(a.obj.Connection(), result.Stream.GUID)
	if err != nil {
		return fmt.Errorf("resolving artifact stream: %w", err)
	}
	stream, ok := proxy.(*Stream)
	if !ok {
		return fmt.Errorf("object %q is not a stream", result.Stream.GUID)
	}
	defer func() {
		cerr := stream.Close(ctx)
		if cerr != nil && err == nil {
			err = fmt.Errorf("closing artifact stream: %w", cerr)
		}
	}()

	if err := a.persister.Persist(ctx, path, stream.Reader(ctx)); err != nil {
		return fmt.Errorf("persisting artifact to %q: %w", path, err)
	}
	a.logger.Debugf("Artifact:saveAs", "saved %s to %s", a.obj.GUID(), path)
	return nil
}

// Delete releases the artifact's backing file on the server side.
func (a *Artifact) Delete(ctx context.Context) error {
	_, err := a.obj.Call(ctx, "delete", nil)
	a.obj.Dispose()
	return err
}
