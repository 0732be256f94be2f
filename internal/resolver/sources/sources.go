// Package sources contains the provider adapters. Each adapter implements
// resolver.Adapter for one external service and differs only in URL
// grammar and network call shape:
//
//	youtube.go — YouTube Data API v3 (watch/shorts/embed/playlist/channel)
//	vimeo.go   — Vimeo REST API (numeric ids, showcases, channels)
package sources

import (
	"encoding/json"
	"io"
)

// decodeJSON decodes a response body, draining the remainder so the
// connection can be reused.
func decodeJSON(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, r)
	return nil
}
