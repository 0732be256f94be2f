package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/videograph/videograph/internal/resolver"
)

// Vimeo adapter — REST API with bearer auth. The API supports response
// projection via the fields parameter, which maps directly onto the
// resolver's partial-fetch contract.

const (
	vimeoServiceID = "vimeo"
	vimeoAPIBase   = "https://api.vimeo.com"
	vimeoPageSize  = 50
	vimeoMaxPages  = 20
)

var (
	vimeoVideoIDRE = regexp.MustCompile(`vimeo\.com/(?:video/)?(\d+)`)
)

var vimeoHosts = map[string]bool{
	"vimeo.com":        true,
	"www.vimeo.com":    true,
	"player.vimeo.com": true,
}

// VimeoConfig holds construction-time configuration for the adapter.
type VimeoConfig struct {
	Token      string // personal access token, sent as bearer auth
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Retry      resolver.RetryConfig
}

// Vimeo implements resolver.Adapter for vimeo.com.
type Vimeo struct {
	cfg     VimeoConfig
	apiBase string // overridden in tests
}

func NewVimeo(cfg VimeoConfig) *Vimeo {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialWait == 0 {
		cfg.Retry = resolver.DefaultRetryConfig
	}
	return &Vimeo{cfg: cfg, apiBase: vimeoAPIBase}
}

func (v *Vimeo) ServiceID() string { return vimeoServiceID }

func (v *Vimeo) CanHandleLink(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return vimeoHosts[strings.ToLower(u.Host)]
}

func (v *Vimeo) IsCollectionURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := u.Path
	return strings.HasPrefix(p, "/showcase/") ||
		strings.HasPrefix(p, "/channels/") ||
		strings.HasPrefix(p, "/album/")
}

func (v *Vimeo) VideoIDFromURL(rawURL string) (string, error) {
	if m := vimeoVideoIDRE.FindStringSubmatch(rawURL); len(m) >= 2 {
		return m[1], nil
	}
	return "", fmt.Errorf("no video id in %q", rawURL)
}

// --- API types ---

type vimeoVideo struct {
	URI         string `json:"uri"` // /videos/123456
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Pictures    struct {
		BaseLink string `json:"base_link"`
	} `json:"pictures"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

type vimeoVideoList struct {
	Data   []vimeoVideo `json:"data"`
	Paging struct {
		Next string `json:"next"` // relative URL or empty
	} `json:"paging"`
}

// id extracts the numeric video id from the API uri.
func (vv vimeoVideo) id() string {
	return vv.URI[strings.LastIndexByte(vv.URI, '/')+1:]
}

func (vv vimeoVideo) toRecord(fields []string) resolver.Video {
	out := resolver.Video{Service: vimeoServiceID, ID: vv.id()}
	for _, f := range fields {
		switch f {
		case resolver.FieldTitle:
			out.Title = vv.Name
		case resolver.FieldDuration:
			out.Duration = vv.Duration
		case resolver.FieldThumbnail:
			out.Thumbnail = vv.Pictures.BaseLink
		case resolver.FieldChannel:
			out.Channel = vv.User.Name
		case resolver.FieldDescription:
			out.Description = vv.Description
		case resolver.FieldMime:
			// Vimeo progressive playback is MP4; the API exposes no
			// container type on the metadata surface.
			out.Mime = "video/mp4"
		}
	}
	return out
}

// vimeoFieldsParam maps resolver fields to the API's fields projection.
// uri is always included to recover the id.
func vimeoFieldsParam(fields []string) string {
	parts := []string{"uri"}
	for _, f := range fields {
		switch f {
		case resolver.FieldTitle:
			parts = append(parts, "name")
		case resolver.FieldDuration:
			parts = append(parts, "duration")
		case resolver.FieldThumbnail:
			parts = append(parts, "pictures.base_link")
		case resolver.FieldChannel:
			parts = append(parts, "user.name")
		case resolver.FieldDescription:
			parts = append(parts, "description")
		}
	}
	return strings.Join(parts, ",")
}

var allVimeoFields = []string{
	resolver.FieldTitle, resolver.FieldDuration, resolver.FieldThumbnail,
	resolver.FieldMime, resolver.FieldChannel, resolver.FieldDescription,
}

// FetchVideoInfo fetches the requested fields using the API's projection
// parameter, so quota cost tracks the resolver's actual gap.
func (v *Vimeo) FetchVideoInfo(ctx context.Context, id string, fields []string) (resolver.Video, error) {
	params := url.Values{}
	params.Set("fields", vimeoFieldsParam(fields))

	var vv vimeoVideo
	if err := v.apiGet(ctx, "/videos/"+id, params, &vv); err != nil {
		return resolver.Video{}, err
	}
	out := vv.toRecord(fields)
	out.ID = id // projection may omit uri on some plans
	return out, nil
}

// ResolveURL expands a showcase or channel URL into its video records.
func (v *Vimeo) ResolveURL(ctx context.Context, rawURL string) ([]resolver.Video, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}

	var endpoint string
	switch {
	case strings.HasPrefix(u.Path, "/showcase/"):
		endpoint = "/albums/" + pathSegment(u.Path, 2) + "/videos"
	case strings.HasPrefix(u.Path, "/album/"):
		endpoint = "/albums/" + pathSegment(u.Path, 2) + "/videos"
	case strings.HasPrefix(u.Path, "/channels/"):
		endpoint = "/channels/" + pathSegment(u.Path, 2) + "/videos"
	default:
		return nil, fmt.Errorf("not a vimeo collection: %q", rawURL)
	}

	var videos []resolver.Video
	params := url.Values{}
	params.Set("fields", vimeoFieldsParam(allVimeoFields)+",paging")
	params.Set("per_page", strconv.Itoa(vimeoPageSize))

	for page := 1; page <= vimeoMaxPages; page++ {
		params.Set("page", strconv.Itoa(page))
		var list vimeoVideoList
		if err := v.apiGet(ctx, endpoint, params, &list); err != nil {
			return nil, err
		}
		for _, vv := range list.Data {
			videos = append(videos, vv.toRecord(allVimeoFields))
		}
		if list.Paging.Next == "" {
			break
		}
	}
	slog.Debug("vimeo collection resolved", slog.String("endpoint", endpoint), slog.Int("videos", len(videos)))
	return videos, nil
}

// SearchVideos runs a free-text search over the public catalog.
func (v *Vimeo) SearchVideos(ctx context.Context, query string) ([]resolver.Video, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("fields", vimeoFieldsParam(allVimeoFields))
	params.Set("per_page", "10")

	var list vimeoVideoList
	if err := v.apiGet(ctx, "/videos", params, &list); err != nil {
		return nil, err
	}
	videos := make([]resolver.Video, 0, len(list.Data))
	for _, vv := range list.Data {
		videos = append(videos, vv.toRecord(allVimeoFields))
	}
	return videos, nil
}

func (v *Vimeo) apiGet(ctx context.Context, endpoint string, params url.Values, out any) error {
	if v.cfg.Limiter != nil {
		if err := v.cfg.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	apiURL := v.apiBase + endpoint + "?" + params.Encode()
	resp, err := resolver.RetryHTTP(ctx, v.cfg.Retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "bearer "+v.cfg.Token)
		req.Header.Set("Accept", "application/vnd.vimeo.*+json;version=3.4")
		return v.cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return fmt.Errorf("vimeo API: %w", err)
	}
	defer resp.Body.Close()

	// Vimeo signals rate limiting with 429 once the per-token budget is
	// spent.
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("vimeo API 429: %w", resolver.ErrQuotaExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vimeo API %d: %s", resp.StatusCode, string(body))
	}

	if err := decodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("decode vimeo API: %w", err)
	}
	return nil
}

// pathSegment returns the n-th slash-separated segment of p (1-based).
func pathSegment(p string, n int) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	if n-1 < len(segs) {
		return segs[n-1]
	}
	return ""
}
