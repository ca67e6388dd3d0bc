package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thomann-reviews/adapters"
	"thomann-reviews/internal/types"
)

// fakeSource serves generated listing pages and reuses the Thomann markup rules
type fakeSource struct {
	*adapters.ThomannAdapter

	pages  map[string][]int // reviews per page; pages past the end are empty
	failAt map[string]int   // product -> page returning a server error
	broken map[string]bool  // product whose reviews lack a text container

	mu      sync.Mutex
	fetches map[string][]int
}

func newFakeSource(config *types.Config, pages map[string][]int) *fakeSource {
	return &fakeSource{
		ThomannAdapter: adapters.NewThomannAdapter(config, logrus.New()),
		pages:          pages,
		failAt:         map[string]int{},
		broken:         map[string]bool{},
		fetches:        map[string][]int{},
	}
}

func (f *fakeSource) Fetch(ctx context.Context, productID string, page int, filter types.ReviewFilter) (string, error) {
	f.mu.Lock()
	f.fetches[productID] = append(f.fetches[productID], page)
	f.mu.Unlock()

	if p, ok := f.failAt[productID]; ok && p == page {
		return "", &types.FetchError{URL: productID, StatusCode: 500}
	}

	counts := f.pages[productID]
	n := 0
	if page <= len(counts) {
		n = counts[page-1]
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		b.WriteString(`<div class="review"><div class="stars" style="width: 80%"></div>`)
		if !f.broken[productID] {
			fmt.Fprintf(&b, `<div class="inner js-replace-text"> %s p%d r%d </div>`, productID, page, i)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

func (f *fakeSource) fetchedPages(productID string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[productID]
}

func testConfig() *types.Config {
	config := types.DefaultConfig()
	config.RequestDelay = 0
	return config
}

func texts(t *testing.T, source *fakeSource, fragments []types.ReviewFragment) []string {
	t.Helper()
	var out []string
	for _, f := range fragments {
		text, err := source.DecodeText(f)
		require.NoError(t, err)
		out = append(out, text)
	}
	return out
}

func TestWalker_CollectAll(t *testing.T) {
	config := testConfig()
	source := newFakeSource(config, map[string][]int{"hd25": {2, 3, 1}})
	walker := NewWalker(source, config, logrus.New())

	fragments, err := walker.CollectAll(context.Background(), "hd25", types.DefaultFilter())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"hd25 p1 r0", "hd25 p1 r1",
		"hd25 p2 r0", "hd25 p2 r1", "hd25 p2 r2",
		"hd25 p3 r0",
	}, texts(t, source, fragments))
	assert.Equal(t, 1, fragments[0].Page)
	assert.Equal(t, 3, fragments[5].Page)
	assert.Equal(t, []int{1, 2, 3, 4}, source.fetchedPages("hd25"))
}

func TestWalker_CollectAll_EmptyFirstPage(t *testing.T) {
	config := testConfig()
	source := newFakeSource(config, map[string][]int{})
	walker := NewWalker(source, config, logrus.New())

	fragments, err := walker.CollectAll(context.Background(), "nothing", types.DefaultFilter())

	require.NoError(t, err)
	assert.NotNil(t, fragments)
	assert.Empty(t, fragments)
	assert.Equal(t, []int{1}, source.fetchedPages("nothing"))
}

func TestWalker_CollectAll_MaxPages(t *testing.T) {
	config := testConfig()
	config.MaxPages = 3
	source := newFakeSource(config, map[string][]int{"endless": {1, 1, 1, 1, 1, 1, 1, 1}})
	walker := NewWalker(source, config, logrus.New())

	fragments, err := walker.CollectAll(context.Background(), "endless", types.DefaultFilter())

	require.NoError(t, err)
	assert.Len(t, fragments, 3)
	assert.Equal(t, []int{1, 2, 3}, source.fetchedPages("endless"))
}

func TestWalker_CollectAll_FetchFailure(t *testing.T) {
	config := testConfig()
	source := newFakeSource(config, map[string][]int{"flaky": {2, 2, 2}})
	source.failAt["flaky"] = 2
	walker := NewWalker(source, config, logrus.New())

	fragments, err := walker.CollectAll(context.Background(), "flaky", types.DefaultFilter())

	assert.Nil(t, fragments)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNetwork))
	assert.Contains(t, err.Error(), "product flaky page 2")
}

func TestWalker_CollectAll_Cancelled(t *testing.T) {
	config := testConfig()
	source := newFakeSource(config, map[string][]int{"hd25": {1}})
	walker := NewWalker(source, config, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := walker.CollectAll(ctx, "hd25", types.DefaultFilter())

	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, source.fetchedPages("hd25"))
}

func TestWalker_OnPage(t *testing.T) {
	config := testConfig()
	source := newFakeSource(config, map[string][]int{"hd25": {4, 2}})
	walker := NewWalker(source, config, logrus.New())

	var counts []int
	walker.OnPage(func(productID string, page, fragments int) {
		assert.Equal(t, "hd25", productID)
		assert.Equal(t, len(counts)+1, page)
		counts = append(counts, fragments)
	})

	_, err := walker.CollectAll(context.Background(), "hd25", types.DefaultFilter())

	require.NoError(t, err)
	assert.Equal(t, []int{4, 2, 0}, counts)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "fetching", StateFetching.String())
	assert.Equal(t, "accumulating", StateAccumulating.String())
	assert.Equal(t, "done", StateDone.String())
}

func TestBuild_TwoProducts(t *testing.T) {
	config := testConfig()
	source := newFakeSource(config, map[string][]int{"a": {2}, "b": {1, 1}})
	extractor := NewReviewExtractorWithSource(source, config, logrus.New())
	defer extractor.Close()

	table, err := extractor.Build(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	require.Equal(t, 4, table.Len())
	var names []string
	for _, row := range table.Rows {
		names = append(names, row.ProductName)
		assert.InDelta(t, 4.0, row.Stars, 1e-9)
	}
	assert.Equal(t, []string{"a", "a", "b", "b"}, names)
	assert.Equal(t, "a p1 r0", table.Rows[0].Text)
	assert.Equal(t, "b p2 r0", table.Rows[3].Text)
	assert.Empty(t, table.Failures)
}

func TestBuild_ConcurrentKeepsOrder(t *testing.T) {
	config := testConfig()
	config.MaxConcurrentRequests = 4
	pages := map[string][]int{}
	var products []string
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("product_%02d", i)
		products = append(products, id)
		pages[id] = []int{1 + i%3, 2}
	}
	source := newFakeSource(config, pages)
	extractor := NewReviewExtractorWithSource(source, config, logrus.New())
	defer extractor.Close()

	table, err := extractor.Build(context.Background(), products)

	require.NoError(t, err)
	assert.Equal(t, products, table.Products())
	for i := 1; i < table.Len(); i++ {
		assert.LessOrEqual(t, table.Rows[i-1].ProductName, table.Rows[i].ProductName)
	}
}

func TestBuild_EmptyProducts(t *testing.T) {
	config := testConfig()
	extractor := NewReviewExtractorWithSource(newFakeSource(config, nil), config, logrus.New())
	defer extractor.Close()

	table, err := extractor.Build(context.Background(), []string{})

	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestBuild_FailureAbortsRun(t *testing.T) {
	config := testConfig()
	source := newFakeSource(config, map[string][]int{"a": {1}, "b": {1, 1}, "c": {1}})
	source.failAt["b"] = 2
	extractor := NewReviewExtractorWithSource(source, config, logrus.New())
	defer extractor.Close()

	table, err := extractor.Build(context.Background(), []string{"a", "b", "c"})

	assert.Nil(t, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNetwork))
	assert.Empty(t, source.fetchedPages("c"))
}

func TestBuild_DecodeFailure(t *testing.T) {
	config := testConfig()
	source := newFakeSource(config, map[string][]int{"a": {1}})
	source.broken["a"] = true
	extractor := NewReviewExtractorWithSource(source, config, logrus.New())
	defer extractor.Close()

	_, err := extractor.Build(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDecode))
	assert.Contains(t, err.Error(), "product a page 1 review 1")
}

func TestBuild_SkipFailedProducts(t *testing.T) {
	config := testConfig()
	config.SkipFailedProducts = true
	source := newFakeSource(config, map[string][]int{"a": {1}, "b": {1, 1}, "c": {2}})
	source.failAt["b"] = 2
	extractor := NewReviewExtractorWithSource(source, config, logrus.New())
	defer extractor.Close()

	table, err := extractor.Build(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, table.Products())
	assert.Equal(t, 3, table.Len())
	require.Len(t, table.Failures, 1)
	assert.Equal(t, "b", table.Failures[0].ProductName)
	assert.Contains(t, table.Failures[0].Error, "unexpected status code: 500")
}

func TestBuildWithFilter_PassesFilter(t *testing.T) {
	config := testConfig()
	var got []types.ReviewFilter
	source := &filterRecorder{fakeSource: newFakeSource(config, map[string][]int{"a": {1}}), seen: &got}
	extractor := NewReviewExtractorWithSource(source, config, logrus.New())
	defer extractor.Close()

	filter := types.ReviewFilter{Rating: 5, Order: 2, Language: 3}
	_, err := extractor.BuildWithFilter(context.Background(), []string{"a"}, filter)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, filter, got[0])
}

type filterRecorder struct {
	*fakeSource
	seen *[]types.ReviewFilter
}

func (r *filterRecorder) Fetch(ctx context.Context, productID string, page int, filter types.ReviewFilter) (string, error) {
	*r.seen = append(*r.seen, filter)
	return r.fakeSource.Fetch(ctx, productID, page, filter)
}
