package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store with call counters.
type fakeStore struct {
	schema  map[string][]string
	videos  map[string]Video
	upserts int
	getErr  error
}

func newFakeStore(schema map[string][]string) *fakeStore {
	return &fakeStore{schema: schema, videos: make(map[string]Video)}
}

func (s *fakeStore) Get(_ context.Context, service, id string) (Video, bool, error) {
	if s.getErr != nil {
		return Video{}, false, s.getErr
	}
	v, ok := s.videos[service+"/"+id]
	return v, ok, nil
}

func (s *fakeStore) Fields(service string) []string { return s.schema[service] }

func (s *fakeStore) UpsertOne(_ context.Context, v Video) error {
	s.upserts++
	s.videos[v.Service+"/"+v.ID] = v
	return nil
}

func (s *fakeStore) UpsertMany(ctx context.Context, vs []Video) error {
	for _, v := range vs {
		if err := s.UpsertOne(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// fakeAdapter scripts FetchVideoInfo / SearchVideos / ResolveURL responses
// and counts fetch calls.
type fakeAdapter struct {
	service    string
	fetch      func(id string, fields []string) (Video, error)
	search     func(query string) ([]Video, error)
	collection func(rawURL string) ([]Video, error)
	fetchCalls int
}

func (a *fakeAdapter) ServiceID() string { return a.service }

func (a *fakeAdapter) CanHandleLink(rawURL string) bool {
	return strings.Contains(rawURL, a.service)
}

func (a *fakeAdapter) IsCollectionURL(rawURL string) bool {
	return strings.Contains(rawURL, "/playlist")
}

func (a *fakeAdapter) VideoIDFromURL(rawURL string) (string, error) {
	i := strings.LastIndexByte(rawURL, '=')
	if i < 0 || i == len(rawURL)-1 {
		return "", fmt.Errorf("no video id in %q", rawURL)
	}
	return rawURL[i+1:], nil
}

func (a *fakeAdapter) ResolveURL(_ context.Context, rawURL string) ([]Video, error) {
	if a.collection == nil {
		return nil, errors.New("no collection scripted")
	}
	return a.collection(rawURL)
}

func (a *fakeAdapter) FetchVideoInfo(_ context.Context, id string, fields []string) (Video, error) {
	a.fetchCalls++
	if a.fetch == nil {
		return Video{}, errors.New("no fetch scripted")
	}
	return a.fetch(id, fields)
}

func (a *fakeAdapter) SearchVideos(_ context.Context, query string) ([]Video, error) {
	if a.search == nil {
		return nil, errors.New("no search scripted")
	}
	return a.search(query)
}

var testSchema = map[string][]string{
	"tube": {FieldTitle, FieldDuration, FieldThumbnail, FieldMime},
}

func newTestResolver(store *fakeStore, adapter *fakeAdapter) *Resolver {
	return New(store, NewRegistry(adapter))
}

func TestResolveCacheHitFastPath(t *testing.T) {
	store := newFakeStore(testSchema)
	cached := Video{Service: "tube", ID: "abc", Title: "t", Duration: 60, Thumbnail: "x.jpg", Mime: "video/mp4"}
	store.videos["tube/abc"] = cached
	adapter := &fakeAdapter{service: "tube"}

	got, err := newTestResolver(store, adapter).Resolve(context.Background(), "tube", "abc")
	require.NoError(t, err)
	assert.Equal(t, cached, got, "cached record must be returned unchanged")
	assert.Zero(t, adapter.fetchCalls, "complete cache hit must make zero adapter calls")
	assert.Zero(t, store.upserts, "cache hit must not rewrite the store")
}

func TestResolveGapFillMerge(t *testing.T) {
	store := newFakeStore(testSchema)
	store.videos["tube/abc"] = Video{Service: "tube", ID: "abc", Title: "t", Thumbnail: "x.jpg", Mime: "video/mp4"}
	adapter := &fakeAdapter{
		service: "tube",
		fetch: func(id string, fields []string) (Video, error) {
			assert.Equal(t, []string{FieldDuration}, fields, "only the missing field may be fetched")
			return Video{Service: "tube", ID: id, Duration: 90}, nil
		},
	}

	got, err := newTestResolver(store, adapter).Resolve(context.Background(), "tube", "abc")
	require.NoError(t, err)
	want := Video{Service: "tube", ID: "abc", Title: "t", Thumbnail: "x.jpg", Mime: "video/mp4", Duration: 90}
	assert.Equal(t, want, got)
	assert.Equal(t, 1, store.upserts, "merged record must be written back")
	assert.Equal(t, want, store.videos["tube/abc"])
}

func TestResolveOverlapPrecedence(t *testing.T) {
	store := newFakeStore(testSchema)
	store.videos["tube/abc"] = Video{Service: "tube", ID: "abc", Title: "stale title", Mime: "video/mp4"}
	adapter := &fakeAdapter{
		service: "tube",
		fetch: func(id string, fields []string) (Video, error) {
			return Video{Service: "tube", ID: id, Title: "fresh title", Duration: 90, Thumbnail: "y.jpg"}, nil
		},
	}

	got, err := newTestResolver(store, adapter).Resolve(context.Background(), "tube", "abc")
	require.NoError(t, err)
	assert.Equal(t, "fresh title", got.Title, "fetched value wins on overlapping fields")
}

func TestResolveQuotaDegradation(t *testing.T) {
	store := newFakeStore(testSchema)
	cached := Video{Service: "tube", ID: "abc", Title: "t", Mime: "video/mp4"}
	store.videos["tube/abc"] = cached
	adapter := &fakeAdapter{
		service: "tube",
		fetch: func(string, []string) (Video, error) {
			return Video{}, fmt.Errorf("api 403: %w", ErrQuotaExceeded)
		},
	}

	got, err := newTestResolver(store, adapter).Resolve(context.Background(), "tube", "abc")
	require.NoError(t, err, "partial cached data must degrade, not fail")
	assert.Equal(t, cached, got, "the stale cached record is the degraded result")
	assert.Zero(t, store.upserts)
}

func TestResolveQuotaHardFailure(t *testing.T) {
	store := newFakeStore(testSchema)
	adapter := &fakeAdapter{
		service: "tube",
		fetch: func(string, []string) (Video, error) {
			return Video{}, fmt.Errorf("api 403: %w", ErrQuotaExceeded)
		},
	}

	_, err := newTestResolver(store, adapter).Resolve(context.Background(), "tube", "abc")
	require.Error(t, err, "with nothing cached there is nothing to degrade to")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "tube", pe.Service)
}

func TestResolveIdempotence(t *testing.T) {
	store := newFakeStore(testSchema)
	adapter := &fakeAdapter{
		service: "tube",
		fetch: func(id string, fields []string) (Video, error) {
			return Video{Service: "tube", ID: id, Title: "t", Duration: 60, Thumbnail: "x.jpg", Mime: "video/mp4"}, nil
		},
	}
	r := newTestResolver(store, adapter)

	first, err := r.Resolve(context.Background(), "tube", "abc")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "tube", "abc")
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-resolving must converge to the same record")
	assert.Equal(t, 1, adapter.fetchCalls, "second call must be a pure cache hit")
}

func TestResolveUnsupportedMime(t *testing.T) {
	store := newFakeStore(testSchema)
	store.videos["tube/abc"] = Video{
		Service: "tube", ID: "abc",
		Title: "t", Duration: 60, Thumbnail: "x.jpg", Mime: "video/x-unsupported",
	}
	adapter := &fakeAdapter{service: "tube"}

	_, err := newTestResolver(store, adapter).Resolve(context.Background(), "tube", "abc")
	require.Error(t, err, "a complete but unplayable record must be rejected")
	assert.ErrorIs(t, err, ErrUnsupportedMime)
	assert.Zero(t, adapter.fetchCalls)
}

func TestResolveUnknownService(t *testing.T) {
	store := newFakeStore(testSchema)
	_, err := newTestResolver(store, &fakeAdapter{service: "tube"}).Resolve(context.Background(), "nope", "abc")
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestResolveNonQuotaErrorPropagates(t *testing.T) {
	store := newFakeStore(testSchema)
	store.videos["tube/abc"] = Video{Service: "tube", ID: "abc", Title: "t", Mime: "video/mp4"}
	fetchErr := errors.New("connection reset")
	adapter := &fakeAdapter{
		service: "tube",
		fetch:   func(string, []string) (Video, error) { return Video{}, fetchErr },
	}

	_, err := newTestResolver(store, adapter).Resolve(context.Background(), "tube", "abc")
	require.Error(t, err, "only quota errors may degrade to stale data")
	assert.ErrorIs(t, err, fetchErr)
}

func TestResolveStoreReadError(t *testing.T) {
	store := newFakeStore(testSchema)
	store.getErr = errors.New("disk gone")
	_, err := newTestResolver(store, &fakeAdapter{service: "tube"}).Resolve(context.Background(), "tube", "abc")
	assert.ErrorIs(t, err, store.getErr)
}
