// Package filestore persists a Platform to flat files: JSON (read and write)
// and XML (write only). FileManager wraps the codecs with the reporting
// contract of the platform: saves return false and loads return nil on any
// failure, and nothing propagates to the caller.
package filestore

import (
	"io"

	"github.com/onlinelearn/learning-platform/internal/domain/platform"
	"github.com/onlinelearn/learning-platform/internal/infrastructure/persistence/snapshot"
	"github.com/onlinelearn/learning-platform/pkg/logger"
)

// WriteJSON writes the platform as indented UTF-8 JSON.
func WriteJSON(w io.Writer, p *platform.Platform) error {
	return snapshot.Encode(w, snapshot.FromPlatform(p))
}

// ReadJSON decodes a JSON document and rebuilds a fresh platform from it.
func ReadJSON(r io.Reader, log *logger.Logger, opts ...platform.Option) (*snapshot.RestoreResult, error) {
	doc, err := snapshot.Decode(r)
	if err != nil {
		return nil, err
	}
	return doc.Restore(log, opts...)
}
