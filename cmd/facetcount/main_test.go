package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hupe1980/facetcount/blobstore"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/internal/config"
	"github.com/hupe1980/facetcount/metrics"
)

const docs = `{"genre": "rock", "year": 2019, "live": true}
{"genre": "rock", "year": 2021, "live": false}

{"genre": "jazz", "year": 2022, "live": true}
{"genre": "rock", "year": 2023, "live": true}
{"genre": "pop", "year": 2024, "live": true}
`

const cfgYAML = `
env: local
storage:
  prefix: music
segment:
  rows_per_segment: 2
  compression: lz4
request:
  query:
    where:
      - key: genre
        value: rock
  facets:
    - name: live
      filter:
        where:
          - key: live
            value: true
    - name: recent
      filter:
        expr: 'doc.year >= 2021'
`

func setup(t *testing.T, searcher string) (blobstore.BlobStore, config.Config) {
	t.Helper()
	cfg, err := config.Parse([]byte(cfgYAML))
	require.NoError(t, err)
	cfg.Searcher = searcher

	store := blobstore.NewMemoryStore()
	n, err := buildSegments(context.Background(), store, cfg, strings.NewReader(docs), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	return store, cfg
}

func TestBuildSegments(t *testing.T) {
	ctx := context.Background()
	store, cfg := setup(t, "index")

	// A second build appends after the existing segments.
	n, err := buildSegments(ctx, store, cfg, strings.NewReader(`{"genre": "rock"}`), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	names, err := store.List(ctx, "music")
	require.NoError(t, err)
	require.Len(t, names, 4)
	id, ok := index.ParseSegmentName(names[3])
	require.True(t, ok)
	assert.EqualValues(t, 3, id)

	_, err = buildSegments(ctx, store, cfg, strings.NewReader("{not json}\n"), zap.NewNop())
	assert.ErrorContains(t, err, "line 1")
}

func TestWriteCount(t *testing.T) {
	for _, searcher := range []string{"index", "bluge", "none"} {
		t.Run(searcher, func(t *testing.T) {
			ctx := context.Background()
			store, cfg := setup(t, searcher)

			eng, err := openEngine(ctx, store, cfg, zap.NewNop(), nil)
			require.NoError(t, err)
			defer eng.Close()

			var buf bytes.Buffer
			require.NoError(t, writeCount(ctx, &buf, eng, cfg.Request))
			assert.JSONEq(t, `[{"name":"live","count":2},{"name":"recent","count":2}]`, buf.String())
		})
	}
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	store, cfg := setup(t, "index")

	reg := prometheus.NewRegistry()
	mc := metrics.New()
	require.NoError(t, mc.Register(reg))

	eng, err := openEngine(ctx, store, cfg, zap.NewNop(), mc)
	require.NoError(t, err)
	defer eng.Close()

	srv := httptest.NewServer(newRouter(eng, cfg.Request, reg, zap.NewNop()))
	defer srv.Close()

	get := func(path string) (*http.Response, []byte) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		return resp, buf.Bytes()
	}

	resp, body := get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = get("/facets")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"results":[{"name":"live","count":2},{"name":"recent","count":2}]}`, string(body))

	// Row 0 of segment 0 is a live rock track from 2019.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/segments/0/rows/0", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = get("/facets")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"results":[{"name":"live","count":1},{"name":"recent","count":2}]}`, string(body))

	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/segments/42/rows/0", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	post := func(body string) (*http.Response, []byte) {
		resp, err := http.Post(srv.URL+"/facets", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		return resp, buf.Bytes()
	}

	resp, body = post(`{"types": [], "facets": [{"name": "jazz", "filter": {"where": [{"key": "genre", "value": "jazz"}]}}]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out facetsResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Results, 1)
	assert.EqualValues(t, 1, out.Results[0].Count())

	resp, _ = post(`{"facets": [{"name": "bad"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(`not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "facetcount_facets_total")
	assert.Contains(t, string(body), "facetcount_deleted_rows_total 1")

	resp, _ = get("/stats")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
