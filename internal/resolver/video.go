package resolver

// Video is the canonical normalized metadata record for a single video.
// A record is identified by (Service, ID); every other field is optional —
// the zero value means "not known". Per provider only a subset of fields is
// guaranteed populated; the store declares which fields a provider's schema
// requires (see Store.Fields).
type Video struct {
	Service     string `json:"service"`
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Duration    int    `json:"duration,omitempty"` // seconds
	Thumbnail   string `json:"thumbnail,omitempty"`
	Mime        string `json:"mime,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Description string `json:"description,omitempty"`
}

// Metadata field names, used for schema declarations and partial fetches.
const (
	FieldTitle       = "title"
	FieldDuration    = "duration"
	FieldThumbnail   = "thumbnail"
	FieldMime        = "mime"
	FieldChannel     = "channel"
	FieldDescription = "description"
)

// Has reports whether the named field is populated on v.
// Unknown field names report false.
func (v Video) Has(field string) bool {
	switch field {
	case FieldTitle:
		return v.Title != ""
	case FieldDuration:
		return v.Duration != 0
	case FieldThumbnail:
		return v.Thumbnail != ""
	case FieldMime:
		return v.Mime != ""
	case FieldChannel:
		return v.Channel != ""
	case FieldDescription:
		return v.Description != ""
	}
	return false
}

// Missing returns the subset of schema not populated on v, preserving
// schema order.
func (v Video) Missing(schema []string) []string {
	var missing []string
	for _, f := range schema {
		if !v.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// HasAny reports whether at least one schema field is populated on v.
// This is the degradation condition for quota failures: a record with no
// usable fields cannot stand in for a fetch.
func (v Video) HasAny(schema []string) bool {
	for _, f := range schema {
		if v.Has(f) {
			return true
		}
	}
	return false
}

// Merge overlays newer on top of v and returns the result. Fields populated
// on newer win; fields absent on newer fall back to v. Identity fields are
// taken from v when set, so merging a fetch result into a cache stub keeps
// the original key.
func (v Video) Merge(newer Video) Video {
	out := v
	if out.Service == "" {
		out.Service = newer.Service
	}
	if out.ID == "" {
		out.ID = newer.ID
	}
	if newer.Title != "" {
		out.Title = newer.Title
	}
	if newer.Duration != 0 {
		out.Duration = newer.Duration
	}
	if newer.Thumbnail != "" {
		out.Thumbnail = newer.Thumbnail
	}
	if newer.Mime != "" {
		out.Mime = newer.Mime
	}
	if newer.Channel != "" {
		out.Channel = newer.Channel
	}
	if newer.Description != "" {
		out.Description = newer.Description
	}
	return out
}

// supportedMimes is the set of content types the player stack can handle.
// A cached record declaring anything else is rejected during resolution.
var supportedMimes = map[string]bool{
	"video/mp4":             true,
	"video/webm":            true,
	"video/ogg":             true,
	"application/x-mpegURL": true,
	"application/dash+xml":  true,
}

// MimeSupported reports whether mime is playable. The empty string is not
// supported — callers must check presence first.
func MimeSupported(mime string) bool {
	return supportedMimes[mime]
}
