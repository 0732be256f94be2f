package sources

import (
	"context"
	"errors"
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

// YouTube adapter — Data API v3. Field subsets map onto API parts so that
// quota-limited calls never fetch more parts than the resolver asked for.

const (
	ytServiceID   = "youtube"
	ytDataAPIBase = "https://www.googleapis.com/youtube/v3"
	ytPageSize    = 50
	ytMaxPages    = 20 // hard cap on playlist pagination
	ytSearchLimit = 10
)

var (
	ytVideoIDRE = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|embed/|live/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)
	ytISODurRE  = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
)

// ytHosts are the hostnames this adapter claims.
var ytHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	"youtu.be":        true,
}

// YouTubeConfig holds construction-time configuration for the adapter.
type YouTubeConfig struct {
	APIKey         string
	APIKeyFallback string // tried when the primary key's quota is exhausted
	HTTPClient     *http.Client
	Limiter        *rate.Limiter // optional client-side pacing
	Retry          resolver.RetryConfig
}

// YouTube implements resolver.Adapter for youtube.com / youtu.be.
type YouTube struct {
	cfg     YouTubeConfig
	apiBase string // overridden in tests
}

// NewYouTube builds the adapter. The config is copied; adapters hold no
// per-call state.
func NewYouTube(cfg YouTubeConfig) *YouTube {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialWait == 0 {
		cfg.Retry = resolver.DefaultRetryConfig
	}
	return &YouTube{cfg: cfg, apiBase: ytDataAPIBase}
}

func (y *YouTube) ServiceID() string { return ytServiceID }

func (y *YouTube) CanHandleLink(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return ytHosts[strings.ToLower(u.Host)]
}

// IsCollectionURL treats playlist and channel pages as collections. A
// watch URL carrying a list= parameter still refers to one video, so it
// stays on the single-item path.
func (y *YouTube) IsCollectionURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Query().Get("v") != "" {
		return false
	}
	if u.Path == "/playlist" && u.Query().Get("list") != "" {
		return true
	}
	p := u.Path
	return strings.HasPrefix(p, "/channel/") ||
		strings.HasPrefix(p, "/user/") ||
		strings.HasPrefix(p, "/c/") ||
		strings.HasPrefix(p, "/@")
}

func (y *YouTube) VideoIDFromURL(rawURL string) (string, error) {
	if m := ytVideoIDRE.FindStringSubmatch(rawURL); len(m) >= 2 {
		return m[1], nil
	}
	return "", fmt.Errorf("no video id in %q", rawURL)
}

// --- Data API v3 types ---

type ytVideoListResp struct {
	Items []struct {
		ID      string     `json:"id"`
		Snippet *ytSnippet `json:"snippet"`
		Content *struct {
			Duration string `json:"duration"` // ISO 8601, e.g. PT4M13S
		} `json:"contentDetails"`
	} `json:"items"`
}

type ytSnippet struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	ChannelTitle string       `json:"channelTitle"`
	Thumbnails   ytThumbnails `json:"thumbnails"`
}

type ytThumbnails struct {
	Medium  struct{ URL string } `json:"medium"`
	Default struct{ URL string } `json:"default"`
}

func (t ytThumbnails) best() string {
	if t.Medium.URL != "" {
		return t.Medium.URL
	}
	return t.Default.URL
}

type ytPlaylistItemsResp struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet *struct {
			Title                  string       `json:"title"`
			VideoOwnerChannelTitle string       `json:"videoOwnerChannelTitle"`
			Thumbnails             ytThumbnails `json:"thumbnails"`
		} `json:"snippet"`
		Content *struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type ytChannelListResp struct {
	Items []struct {
		Content struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type ytSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet *ytSnippet `json:"snippet"`
	} `json:"items"`
}

// FetchVideoInfo fetches only the API parts needed for the requested
// fields. The mime field costs nothing: the Data API does not expose a
// container type and YouTube playback is MP4/HLS, so it is filled as
// video/mp4.
func (y *YouTube) FetchVideoInfo(ctx context.Context, id string, fields []string) (resolver.Video, error) {
	v := resolver.Video{Service: ytServiceID, ID: id}

	wantMime := false
	parts := []string{"id"}
	needSnippet, needContent := false, false
	for _, f := range fields {
		switch f {
		case resolver.FieldTitle, resolver.FieldChannel, resolver.FieldThumbnail, resolver.FieldDescription:
			needSnippet = true
		case resolver.FieldDuration:
			needContent = true
		case resolver.FieldMime:
			wantMime = true
		}
	}
	if needSnippet {
		parts = append(parts, "snippet")
	}
	if needContent {
		parts = append(parts, "contentDetails")
	}
	if wantMime {
		v.Mime = "video/mp4"
	}
	if !needSnippet && !needContent {
		return v, nil
	}

	params := url.Values{}
	params.Set("id", id)
	params.Set("part", strings.Join(parts, ","))

	var result ytVideoListResp
	if err := y.apiGet(ctx, "/videos", params, &result); err != nil {
		return resolver.Video{}, err
	}
	if len(result.Items) == 0 {
		return resolver.Video{}, fmt.Errorf("youtube video %s not found", id)
	}

	item := result.Items[0]
	if item.Snippet != nil {
		v.Title = item.Snippet.Title
		v.Channel = item.Snippet.ChannelTitle
		v.Description = item.Snippet.Description
		v.Thumbnail = item.Snippet.Thumbnails.best()
	}
	if item.Content != nil {
		secs, err := parseISODuration(item.Content.Duration)
		if err != nil {
			return resolver.Video{}, fmt.Errorf("youtube video %s: %w", id, err)
		}
		v.Duration = secs
	}
	return v, nil
}

// ResolveURL expands a playlist or channel URL into its video records.
// Channel URLs resolve through the channel's uploads playlist.
func (y *YouTube) ResolveURL(ctx context.Context, rawURL string) ([]resolver.Video, error) {
	playlistID, err := y.playlistIDForURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var videos []resolver.Video
	pageToken := ""
	for page := 0; page < ytMaxPages; page++ {
		params := url.Values{}
		params.Set("playlistId", playlistID)
		params.Set("part", "snippet,contentDetails")
		params.Set("maxResults", strconv.Itoa(ytPageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var result ytPlaylistItemsResp
		if err := y.apiGet(ctx, "/playlistItems", params, &result); err != nil {
			return nil, err
		}
		for _, item := range result.Items {
			if item.Content == nil || item.Content.VideoID == "" {
				continue // deleted or private entry
			}
			v := resolver.Video{Service: ytServiceID, ID: item.Content.VideoID, Mime: "video/mp4"}
			if item.Snippet != nil {
				v.Title = item.Snippet.Title
				v.Channel = item.Snippet.VideoOwnerChannelTitle
				v.Thumbnail = item.Snippet.Thumbnails.best()
			}
			videos = append(videos, v)
		}
		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}
	slog.Debug("youtube playlist resolved", slog.String("playlist", playlistID), slog.Int("videos", len(videos)))
	return videos, nil
}

// playlistIDForURL maps a collection URL to a playlist id. A channel id
// UCxxxx has its uploads under UUxxxx; handle and legacy user URLs need a
// channels lookup first.
func (y *YouTube) playlistIDForURL(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if list := u.Query().Get("list"); list != "" {
		return list, nil
	}
	p := u.Path
	if rest, ok := strings.CutPrefix(p, "/channel/"); ok {
		channelID := strings.SplitN(rest, "/", 2)[0]
		if after, ok := strings.CutPrefix(channelID, "UC"); ok {
			return "UU" + after, nil
		}
		return y.uploadsPlaylist(ctx, url.Values{"id": {channelID}})
	}
	if strings.HasPrefix(p, "/@") {
		handle := strings.SplitN(strings.TrimPrefix(p, "/"), "/", 2)[0]
		return y.uploadsPlaylist(ctx, url.Values{"forHandle": {handle}})
	}
	for _, prefix := range []string{"/user/", "/c/"} {
		if rest, ok := strings.CutPrefix(p, prefix); ok {
			name := strings.SplitN(rest, "/", 2)[0]
			return y.uploadsPlaylist(ctx, url.Values{"forUsername": {name}})
		}
	}
	return "", fmt.Errorf("no playlist in %q", rawURL)
}

func (y *YouTube) uploadsPlaylist(ctx context.Context, selector url.Values) (string, error) {
	params := url.Values{}
	for k, vs := range selector {
		params[k] = vs
	}
	params.Set("part", "contentDetails")

	var result ytChannelListResp
	if err := y.apiGet(ctx, "/channels", params, &result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", fmt.Errorf("youtube channel %v not found", selector)
	}
	uploads := result.Items[0].Content.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", fmt.Errorf("youtube channel %v has no uploads playlist", selector)
	}
	return uploads, nil
}

// SearchVideos runs a Data API search restricted to videos.
func (y *YouTube) SearchVideos(ctx context.Context, query string) ([]resolver.Video, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(ytSearchLimit))

	var result ytSearchResp
	if err := y.apiGet(ctx, "/search", params, &result); err != nil {
		return nil, err
	}

	videos := make([]resolver.Video, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		v := resolver.Video{Service: ytServiceID, ID: item.ID.VideoID, Mime: "video/mp4"}
		if item.Snippet != nil {
			v.Title = item.Snippet.Title
			v.Channel = item.Snippet.ChannelTitle
			v.Description = item.Snippet.Description
			v.Thumbnail = item.Snippet.Thumbnails.best()
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// apiGet calls a Data API endpoint, falling back to the secondary key when
// the primary key's quota is exhausted. Only quota errors trigger the
// fallback; everything else returns immediately.
func (y *YouTube) apiGet(ctx context.Context, endpoint string, params url.Values, out any) error {
	keys := []string{y.cfg.APIKey}
	if y.cfg.APIKeyFallback != "" {
		keys = append(keys, y.cfg.APIKeyFallback)
	}
	var lastErr error
	for _, key := range keys {
		err := y.doAPIGet(ctx, endpoint, params, key, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, resolver.ErrQuotaExceeded) {
			return err
		}
		slog.Debug("youtube API key quota hit", slog.String("endpoint", endpoint))
	}
	return lastErr
}

func (y *YouTube) doAPIGet(ctx context.Context, endpoint string, params url.Values, apiKey string, out any) error {
	if y.cfg.Limiter != nil {
		if err := y.cfg.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	p := url.Values{}
	for k, vs := range params {
		p[k] = vs
	}
	p.Set("key", apiKey)
	apiURL := y.apiBase + endpoint + "?" + p.Encode()

	resp, err := resolver.RetryHTTP(ctx, y.cfg.Retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return y.cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return fmt.Errorf("youtube data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if ytQuotaStatus(resp.StatusCode, string(body)) {
			return fmt.Errorf("youtube data API %d: %w", resp.StatusCode, resolver.ErrQuotaExceeded)
		}
		return fmt.Errorf("youtube data API %d: %s", resp.StatusCode, string(body))
	}

	if err := decodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("decode youtube data API: %w", err)
	}
	return nil
}

// ytQuotaStatus distinguishes quota exhaustion from other 4xx failures.
// The Data API reports quota as 403 with a quotaExceeded-family reason.
func ytQuotaStatus(code int, body string) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	if code != http.StatusForbidden {
		return false
	}
	for _, reason := range []string{"quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded"} {
		if strings.Contains(body, reason) {
			return true
		}
	}
	return false
}

// parseISODuration converts an ISO 8601 duration (PT1H2M3S) to seconds.
func parseISODuration(s string) (int, error) {
	m := ytISODurRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("bad ISO duration %q", s)
	}
	secs := 0
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("bad ISO duration %q", s)
		}
		secs += n * mult
	}
	return secs, nil
}
