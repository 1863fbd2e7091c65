package handlers

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
	"github.com/ETAnderson/shopfeed/internal/domain"
	"github.com/ETAnderson/shopfeed/internal/ingest"
	"github.com/ETAnderson/shopfeed/internal/logging"
	"github.com/ETAnderson/shopfeed/internal/metrics"
	"github.com/ETAnderson/shopfeed/internal/state"
)

const maxCatalogBody = 64 << 20

// RenditionWriter records generated image variants (renditions.Index).
type RenditionWriter interface {
	Put(ctx context.Context, imageID string, rendition string, info domain.RenditionInfo) error
}

// CatalogHandler accepts catalog pushes:
//
//	POST /v1/catalog/products:upsert    JSON array, or NDJSON with Content-Type application/x-ndjson
//	POST /v1/catalog/categories:upsert  JSON array
//	PUT  /v1/catalog/site
type CatalogHandler struct {
	Processor  ingest.Processor
	Store      state.Store
	Renditions RenditionWriter
	Metrics    *metrics.Metrics
	Logger     *logrus.Entry
}

type IngestResponse struct {
	IngestID string                   `json:"ingest_id"`
	Warnings ingest.UnknownKeyWarning `json:"warnings"`
	Result   ingest.ProcessOutput     `json:"result"`
}

func (h CatalogHandler) UpsertProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.Store == nil {
		writeError(w, http.StatusInternalServerError, "misconfigured", errors.New("handler dependencies not configured"))
		return
	}

	reader, err := wrapMaybeGzip(r.Body, r.Header.Get("Content-Encoding"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_encoding", err)
		return
	}
	defer reader.Close()

	tenantID := tenantctx.TenantID(r.Context())
	ingestID := ingest.NewRunID()
	log := h.logger().WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"ingest_id": ingestID,
		"subject":   tenantctx.Subject(r.Context()),
	})

	resp, err := h.Ingest(r.Context(), tenantID, reader, isNDJSON(r.Header.Get("Content-Type")))
	resp.IngestID = ingestID

	var failure *persistError
	if errors.As(err, &failure) {
		log.WithError(failure.err).WithField("product_key", failure.productKey).Error("catalog ingest failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":     failure.code,
			"message":   failure.err.Error(),
			"product":   failure.productKey,
			"ingest_id": ingestID,
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}

	sum := resp.Result.Summary
	h.Metrics.ObserveIngest(string(domain.ProductDispositionRejected), sum.Rejected)
	h.Metrics.ObserveIngest(string(domain.ProductDispositionUnchanged), sum.Unchanged)
	h.Metrics.ObserveIngest(string(domain.ProductDispositionUpserted), sum.Upserted)

	log.WithFields(logrus.Fields{
		"received":  sum.Received,
		"rejected":  sum.Rejected,
		"unchanged": sum.Unchanged,
		"upserted":  sum.Upserted,
	}).Info("catalog ingest completed")

	writeJSON(w, http.StatusOK, resp)
}

// persistError marks a server-side failure; anything else from parsing is
// the client's fault.
type persistError struct {
	code       string
	productKey string
	err        error
}

func (e *persistError) Error() string { return e.code + ": " + e.err.Error() }

func (e *persistError) Unwrap() error { return e.err }

// Ingest runs a catalog upload through validation, diffing and persistence.
// feedctl uses it to load catalog files without going through HTTP.
func (h CatalogHandler) Ingest(ctx context.Context, tenantID uint64, body io.Reader, ndjson bool) (IngestResponse, error) {
	if ndjson {
		return h.ingestNDJSON(ctx, tenantID, body)
	}
	return h.ingestJSON(ctx, tenantID, body)
}

func (h CatalogHandler) ingestJSON(ctx context.Context, tenantID uint64, body io.Reader) (IngestResponse, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxCatalogBody))
	if err != nil {
		return IngestResponse{}, err
	}

	parsed, err := ingest.ParseProductsAllowUnknown(raw)
	if err != nil {
		return IngestResponse{}, err
	}

	out := ingest.ProcessOutput{Products: make([]ingest.ProductProcessResult, 0, len(parsed.Products))}
	for _, prod := range parsed.Products {
		res, perr := h.process(ctx, tenantID, prod)
		if perr != nil {
			return IngestResponse{}, perr
		}
		out.Products = append(out.Products, res)
		out.Summary.Add(res)
	}

	return IngestResponse{Warnings: parsed.Warnings, Result: out}, nil
}

// ingestNDJSON rejects malformed lines individually instead of failing the
// whole upload.
func (h CatalogHandler) ingestNDJSON(ctx context.Context, tenantID uint64, body io.Reader) (IngestResponse, error) {
	unknown := make(map[string]struct{})
	out := ingest.ProcessOutput{Products: make([]ingest.ProductProcessResult, 0, 1024)}

	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}

		prod, unk, err := ingest.ParseProductObjectAllowUnknown(b)
		if err != nil {
			res := ingest.ProductProcessResult{
				Disposition: domain.ProductDispositionRejected,
				Reason:      "invalid_json_line",
				Issues: []ingest.ValidationIssue{
					{Path: fmt.Sprintf("$line[%d]", line), Code: "invalid_json", Message: err.Error()},
				},
			}
			out.Products = append(out.Products, res)
			out.Summary.Add(res)
			continue
		}
		for k := range unk {
			unknown[k] = struct{}{}
		}

		res, perr := h.process(ctx, tenantID, prod)
		if perr != nil {
			return IngestResponse{}, perr
		}
		out.Products = append(out.Products, res)
		out.Summary.Add(res)
	}
	if err := sc.Err(); err != nil {
		return IngestResponse{}, err
	}

	return IngestResponse{
		Warnings: ingest.UnknownKeyWarning{UnknownKeys: ingest.SortedUnknownKeys(unknown)},
		Result:   out,
	}, nil
}

// process validates and diffs one product, then persists it (and its
// renditions) when it changed.
func (h CatalogHandler) process(ctx context.Context, tenantID uint64, prod domain.Product) (ingest.ProductProcessResult, *persistError) {
	lookup := func(productKey string) (string, bool, error) {
		return h.Store.GetProductHash(ctx, tenantID, productKey)
	}

	res, err := h.Processor.ProcessProduct(prod, lookup)
	if err != nil {
		return res, &persistError{code: "processing_failed", productKey: prod.ProductKey, err: err}
	}
	if res.Disposition != domain.ProductDispositionUpserted {
		return res, nil
	}

	if h.Renditions != nil && prod.Gallery != nil {
		for _, img := range prod.Gallery.Images {
			for name, info := range img.Renditions {
				if err := h.Renditions.Put(ctx, img.ID, name, info); err != nil {
					return res, &persistError{code: "persist_rendition_failed", productKey: prod.ProductKey, err: err}
				}
			}
		}
	}

	if err := h.Store.UpsertProduct(ctx, tenantID, prod, res.Hash); err != nil {
		return res, &persistError{code: "persist_product_failed", productKey: prod.ProductKey, err: err}
	}
	return res, nil
}

type CategoryResult struct {
	CategoryKey string                   `json:"category_key"`
	Accepted    bool                     `json:"accepted"`
	Issues      []ingest.ValidationIssue `json:"issues,omitempty"`
}

func (h CatalogHandler) UpsertCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCatalogBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read_failed", err)
		return
	}

	cats, err := ingest.ParseCategories(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}

	tenantID := tenantctx.TenantID(r.Context())
	results := make([]CategoryResult, 0, len(cats))
	accepted := 0

	for _, c := range cats {
		v := ingest.ValidateCategory(c)
		if !v.IsValid() {
			results = append(results, CategoryResult{CategoryKey: c.Key, Issues: v.Issues})
			continue
		}
		if err := h.Store.UpsertCategory(r.Context(), tenantID, c); err != nil {
			writeError(w, http.StatusInternalServerError, "persist_category_failed", err)
			return
		}
		accepted++
		results = append(results, CategoryResult{CategoryKey: c.Key, Accepted: true})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"received":   len(cats),
		"accepted":   accepted,
		"categories": results,
	})
}

type siteRequest struct {
	Domain string `json:"domain" validate:"required,hostname_port|fqdn|hostname"`
	Scheme string `json:"scheme" validate:"omitempty,oneof=http https"`
}

var requestValidate = validator.New()

func (h CatalogHandler) PutSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req siteRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if err := requestValidate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_site", err)
		return
	}

	site := domain.Site{Domain: req.Domain, Scheme: req.Scheme}
	if site.Scheme == "" {
		site.Scheme = "http"
	}

	if err := h.Store.UpsertSite(r.Context(), tenantctx.TenantID(r.Context()), site); err != nil {
		writeError(w, http.StatusInternalServerError, "persist_site_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"site": site})
}

func (h CatalogHandler) logger() *logrus.Entry {
	if h.Logger != nil {
		return h.Logger
	}
	return logging.Discard()
}

func isNDJSON(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "ndjson") || strings.Contains(ct, "jsonl")
}

func wrapMaybeGzip(body io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	enc := strings.ToLower(strings.TrimSpace(contentEncoding))
	if enc == "" || enc == "identity" {
		return body, nil
	}

	if enc != "gzip" {
		return nil, fmt.Errorf("unsupported Content-Encoding: %s", enc)
	}

	gr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}

	return readCloserChain{Reader: gr, Closers: []io.Closer{gr, body}}, nil
}

type readCloserChain struct {
	io.Reader
	Closers []io.Closer
}

func (r readCloserChain) Close() error {
	var firstErr error
	for _, c := range r.Closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
