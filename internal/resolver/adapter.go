package resolver

import "context"

// Adapter is the capability contract every provider implements. Adapters
// are stateless per call and hold only construction-time configuration
// (API credentials, HTTP client, rate limiter). The engine never branches
// on a concrete adapter type — only on ServiceID and CanHandleLink.
type Adapter interface {
	// ServiceID is the unique, stable provider identifier ("youtube").
	ServiceID() string

	// CanHandleLink reports whether rawURL matches this provider's URL
	// grammar.
	CanHandleLink(rawURL string) bool

	// IsCollectionURL reports whether rawURL refers to a playlist or
	// channel rather than a single video. Only meaningful when
	// CanHandleLink is true.
	IsCollectionURL(rawURL string) bool

	// VideoIDFromURL extracts the provider-scoped video id from a
	// single-item URL. Precondition: CanHandleLink && !IsCollectionURL.
	VideoIDFromURL(rawURL string) (string, error)

	// ResolveURL fetches every item referenced by a collection URL. May
	// perform multiple network calls; errors propagate, partial results
	// are not returned.
	ResolveURL(ctx context.Context, rawURL string) ([]Video, error)

	// FetchVideoInfo fetches only the requested field subset for id.
	// Over-fetching quota-limited APIs is a contract violation. Fails
	// with ErrQuotaExceeded when the provider limit is hit and with
	// ErrUnsupportedMime when the content cannot be represented.
	FetchVideoInfo(ctx context.Context, id string, fields []string) (Video, error)

	// SearchVideos runs a free-text search. Used only when the user
	// input is not a URL.
	SearchVideos(ctx context.Context, query string) ([]Video, error)
}
