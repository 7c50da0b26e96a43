package common

import (
	"fmt"

	"github.com/understudy-dev/understudy/channel"
	"github.com/understudy-dev/understudy/log"
	"github.com/understudy-dev/understudy/storage"
)

// guidRef is how request results reference other objects on the wire.
type guidRef struct {
	GUID string `json:"guid"`
}

// NewObjectFactory returns the factory that turns objects announced by the
// server into their typed proxies. Unknown types stay plain channel
// objects so newer servers remain routable.
func NewObjectFactory(logger *log.Logger, persister storage.FilePersister) channel.ObjectFactory {
	if persister == nil {
		persister = &storage.LocalFilePersister{}
	}
	return func(obj *channel.Object) (any, error) {
		switch obj.Type() {
		case "Browser":
			return NewBrowser(obj, logger)
		case "BrowserContext":
			return NewBrowserContext(obj, logger)
		case "Page":
			return NewPage(obj, logger)
		case "Frame":
			return NewFrame(obj, logger)
		case "ElementHandle":
			return NewElementHandle(obj, logger)
		case "Artifact":
			return NewArtifact(obj, logger, persister)
		case "Stream":
			return NewStream(obj, logger)
		default:
			logger.Debugf("ObjectFactory", "no typed proxy for object type %q", obj.Type())
			return nil, nil
		}
	}
}

// proxyByGUID resolves a wire guid reference to its typed proxy.
func proxyByGUID(conn *channel.Connection, guid string) (any, error) {
	obj := conn.LookupObject(guid)
	if obj == nil {
		return nil, fmt.Errorf("no object with guid %q", guid)
	}
	if obj.Proxy() == nil {
		return nil, fmt.Errorf("object %q (%s) has no typed proxy", guid, obj.Type())
	}
	return obj.Proxy(), nil
}
