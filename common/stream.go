package common

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/log"
)

// streamChunkSize is how many bytes each read request asks the peer for.
const streamChunkSize = 1 << 16

// Stream is the proxy of a server-side byte stream, read in base64 chunks
// over the connection.
type Stream struct {
	obj    *channel.Object
	logger *log.Logger
}

// NewStream builds the proxy for a "Stream" object.
func NewStream(obj *channel.Object, logger *log.Logger) (*Stream, error) {
	return &Stream{obj: obj, logger: logger}, nil
}

// Read fetches the next chunk from the peer. It returns io.EOF once the
// stream is drained.
func (s *Stream) Read(ctx context.Context) ([]byte, error) {
	params := struct {
		Size int `json:"size"`
	}{streamChunkSize}
	var result struct {
		Binary string `json:"binary"`
	}
	if err := s.obj.CallInto(ctx, "read", params, &result); err != nil {
		return nil, err
	}
	if result.Binary == "" {
		return nil, io.EOF
	}
	chunk, err := base64.StdEncoding.DecodeString(result.Binary)
	if err != nil {
		return nil, fmt.Errorf("decoding stream chunk: %w", err)
	}
	return chunk, nil
}

// Close tells the peer to release the stream and drops the local proxy.
func (s *Stream) Close(ctx context.Context) error {
	_, err := s.obj.Call(ctx, "close", nil)
	s.obj.Dispose()
	return err
}

// Reader adapts the stream to io.Reader for the given context.
func (s *Stream) Reader(ctx context.Context) io.Reader {
	return &streamReader{ctx: ctx, stream: s}
}

type streamReader struct {
	ctx    context.Context
	stream *Stream
	buf    []byte
	err    error
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 && r.err == nil {
		r.buf, r.err = r.stream.Read(r.ctx)
	}
	if len(r.buf) == 0 {
		return 0, r.err
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
