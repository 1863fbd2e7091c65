package handlers

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
	"github.com/ETAnderson/shopfeed/internal/domain"
	"github.com/ETAnderson/shopfeed/internal/ingest"
	"github.com/ETAnderson/shopfeed/internal/metrics"
	"github.com/ETAnderson/shopfeed/internal/renditions"
	"github.com/ETAnderson/shopfeed/internal/state"
)

const productsJSON = `[
  {
    "product_key": "sku1",
    "path": "/p/sku1/",
    "brand": {"name": "Acme"},
    "short_name": "Runner",
    "colour": "Red",
    "prices": {"selling": "49.99"},
    "gallery": {"images": [{"id": "img1", "renditions": {"product_fullsize": {"path": "/m/img1.jpg", "width": 800, "height": 600}}}]},
    "live": true,
    "legacy_id": 7
  },
  {"product_key": "sku2", "path": "/p/sku2/", "short_name": "Nameless"}
]`

func newCatalog() (CatalogHandler, *state.MemoryStore, *renditions.MemoryIndex, *metrics.Metrics) {
	st := state.NewMemoryStore()
	idx := renditions.NewMemoryIndex()
	m := metrics.New(prometheus.NewRegistry())
	return CatalogHandler{
		Processor:  ingest.NewProcessor(),
		Store:      st,
		Renditions: idx,
		Metrics:    m,
	}, st, idx, m
}

func doRequest(h http.HandlerFunc, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req = req.WithContext(tenantctx.WithTenantID(req.Context(), 1))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeIngest(t *testing.T, rec *httptest.ResponseRecorder) IngestResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestCatalog_UpsertProducts_JSON(t *testing.T) {
	h, st, idx, m := newCatalog()

	resp := decodeIngest(t, doRequest(h.UpsertProducts, http.MethodPost, "/v1/catalog/products:upsert", []byte(productsJSON), nil))

	sum := resp.Result.Summary
	if sum.Received != 2 || sum.Upserted != 1 || sum.Rejected != 1 {
		t.Fatalf("unexpected summary: %#v", sum)
	}
	if len(resp.Warnings.UnknownKeys) != 1 || resp.Warnings.UnknownKeys[0] != "legacy_id" {
		t.Fatalf("unexpected warnings: %#v", resp.Warnings)
	}
	if resp.IngestID == "" {
		t.Fatalf("expected ingest id")
	}

	if _, ok, _ := st.GetProductHash(context.Background(), 1, "sku1"); !ok {
		t.Fatalf("expected sku1 persisted")
	}
	if _, ok, _ := st.GetProductHash(context.Background(), 1, "sku2"); ok {
		t.Fatalf("expected rejected sku2 not persisted")
	}

	r := idx.Resolve(context.Background(), domain.Image{ID: "img1"}, "product_fullsize")
	if !r.OK() || r.Path != "/m/img1.jpg" {
		t.Fatalf("expected rendition to be indexed, got %#v", r)
	}

	if got := testutil.ToFloat64(m.IngestProductsTotal.WithLabelValues("upserted")); got != 1 {
		t.Fatalf("expected upserted metric 1, got %v", got)
	}
}

func TestCatalog_UpsertProducts_SecondPushUnchanged(t *testing.T) {
	h, _, _, _ := newCatalog()

	decodeIngest(t, doRequest(h.UpsertProducts, http.MethodPost, "/v1/catalog/products:upsert", []byte(productsJSON), nil))
	resp := decodeIngest(t, doRequest(h.UpsertProducts, http.MethodPost, "/v1/catalog/products:upsert", []byte(productsJSON), nil))

	if resp.Result.Summary.Unchanged != 1 || resp.Result.Summary.Upserted != 0 {
		t.Fatalf("unexpected summary: %#v", resp.Result.Summary)
	}
}

func TestCatalog_UpsertProducts_NDJSONGzip(t *testing.T) {
	h, st, _, _ := newCatalog()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"product_key":"sku1","path":"/p/1/","brand":{"name":"Acme"},"short_name":"Runner","prices":{"selling":"10"},"live":true}
not json

{"product_key":"sku3","path":"/p/3/","brand":{"name":"Acme"},"short_name":"Trail","prices":{"selling":"12.50"},"live":true}
`))
	_ = zw.Close()

	resp := decodeIngest(t, doRequest(h.UpsertProducts, http.MethodPost, "/v1/catalog/products:upsert", buf.Bytes(), map[string]string{
		"Content-Type":     "application/x-ndjson",
		"Content-Encoding": "gzip",
	}))

	sum := resp.Result.Summary
	if sum.Received != 3 || sum.Upserted != 2 || sum.Rejected != 1 {
		t.Fatalf("unexpected summary: %#v", sum)
	}
	if resp.Result.Products[1].Reason != "invalid_json_line" {
		t.Fatalf("expected bad line rejected, got %#v", resp.Result.Products[1])
	}

	products, _ := st.ListLiveProducts(context.Background(), 1)
	if len(products) != 2 {
		t.Fatalf("expected 2 live products, got %d", len(products))
	}
}

func TestCatalog_UpsertProducts_BadRequests(t *testing.T) {
	h, _, _, _ := newCatalog()

	rec := doRequest(h.UpsertProducts, http.MethodPost, "/v1/catalog/products:upsert", []byte(`{"not":"an array"}`), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-array, got %d", rec.Code)
	}

	rec = doRequest(h.UpsertProducts, http.MethodPost, "/v1/catalog/products:upsert", []byte(`[]`), map[string]string{"Content-Encoding": "br"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported encoding, got %d", rec.Code)
	}

	rec = doRequest(h.UpsertProducts, http.MethodGet, "/v1/catalog/products:upsert", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestCatalog_UpsertCategories(t *testing.T) {
	h, st, _, _ := newCatalog()

	body := []byte(`[
	  {"category_key":"sneakers","title":"Sneakers"},
	  {"category_key":"loop","title":"Loop","parent_key":"loop"}
	]`)
	rec := doRequest(h.UpsertCategories, http.MethodPost, "/v1/catalog/categories:upsert", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Received int              `json:"received"`
		Accepted int              `json:"accepted"`
		Results  []CategoryResult `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Received != 2 || resp.Accepted != 1 || resp.Results[1].Accepted {
		t.Fatalf("unexpected response: %#v", resp)
	}

	_ = st.UpsertProduct(context.Background(), 1, domain.Product{ProductKey: "a", Live: true, CategoryKeys: []string{"sneakers"}}, "h")
	products, _ := st.ListLiveProducts(context.Background(), 1)
	if len(products[0].Categories) != 1 || products[0].Categories[0].Title != "Sneakers" {
		t.Fatalf("expected stored category to resolve, got %#v", products[0].Categories)
	}
}

func TestCatalog_PutSite(t *testing.T) {
	h, st, _, _ := newCatalog()

	rec := doRequest(h.PutSite, http.MethodPut, "/v1/catalog/site", []byte(`{"domain":"shop.example","scheme":"https"}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	site, ok, _ := st.GetSite(context.Background(), 1)
	if !ok || site.BaseURL() != "https://shop.example" {
		t.Fatalf("unexpected site %#v", site)
	}

	for _, body := range []string{`{"scheme":"https"}`, `{"domain":"shop.example","scheme":"gopher"}`, `{"domain":"shop.example","port":1}`} {
		rec := doRequest(h.PutSite, http.MethodPut, "/v1/catalog/site", []byte(body), nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}
