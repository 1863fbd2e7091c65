package execute

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ETAnderson/shopfeed/internal/catalog"
	"github.com/ETAnderson/shopfeed/internal/channels"
	"github.com/ETAnderson/shopfeed/internal/domain"
	"github.com/ETAnderson/shopfeed/internal/ingest"
	"github.com/ETAnderson/shopfeed/internal/logging"
	"github.com/ETAnderson/shopfeed/internal/metrics"
	"github.com/ETAnderson/shopfeed/internal/state"
)

var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrSiteNotFound   = errors.New("site not configured for tenant")
)

// Executor runs one feed generation for a tenant and records it in the run
// ledger.
type Executor struct {
	Store    state.Store
	Channels channels.Registry

	Sizes      catalog.SizeResolver
	Prices     catalog.PriceResolver
	Renditions catalog.RenditionResolver

	// DefaultSite is used for tenants without a stored site.
	DefaultSite domain.Site

	// PublicBaseURL, when set, is used to advertise the feed's own URL
	// (atom:link rel=self).
	PublicBaseURL string

	Logger  *logrus.Entry
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// ContentType reports the media type of a channel's documents.
func (e Executor) ContentType(channel string) (string, error) {
	ch, ok := e.Channels.Get(channel)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	return ch.ContentType(), nil
}

// Generate builds the channel document into memory and copies it to w only
// once the whole document succeeded, so w never sees a partial feed. Every
// attempt against a known channel is recorded, failures included.
func (e Executor) Generate(ctx context.Context, tenantID uint64, channel string, w io.Writer) (state.FeedRunRecord, error) {
	if e.Store == nil {
		return state.FeedRunRecord{}, errors.New("store is nil")
	}
	if tenantID == 0 {
		return state.FeedRunRecord{}, errors.New("tenantID is required")
	}

	ch, ok := e.Channels.Get(channel)
	if !ok {
		return state.FeedRunRecord{}, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}

	log := e.logger().WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"channel":   channel,
	})

	started := e.now()
	run := state.FeedRunRecord{
		RunID:     ingest.NewRunID(),
		TenantID:  tenantID,
		Channel:   channel,
		CreatedAt: started.UTC(),
	}

	var buf bytes.Buffer
	res, err := e.build(ctx, tenantID, ch, &buf, started)

	run.DurationMS = e.now().Sub(started).Milliseconds()
	if err != nil {
		run.Status = string(domain.RunStatusFailed)
		run.Error = err.Error()
	} else {
		run.Status = string(domain.RunStatusCompleted)
		run.Items = res.Items
		run.ImagesSkipped = res.ImagesSkipped
		run.Bytes = buf.Len()
		run.ContentHash = ContentHash(buf.Bytes())
	}

	// Ledger writes are best effort; a stored feed run must not block delivery.
	if ierr := e.Store.InsertFeedRun(context.WithoutCancel(ctx), run); ierr != nil {
		log.WithError(ierr).WithField("run_id", run.RunID).Error("record feed run failed")
	}

	e.Metrics.ObserveFeedRun(metrics.FeedRun{
		Channel:       channel,
		Status:        run.Status,
		Items:         run.Items,
		ImagesSkipped: run.ImagesSkipped,
		Bytes:         run.Bytes,
		Duration:      time.Duration(run.DurationMS) * time.Millisecond,
	})

	log = log.WithFields(logrus.Fields{
		"run_id":      run.RunID,
		"duration_ms": run.DurationMS,
	})

	if err != nil {
		log.WithError(err).Error("feed generation failed")
		return run, err
	}

	log.WithFields(logrus.Fields{
		"items":          run.Items,
		"images_skipped": run.ImagesSkipped,
		"bytes":          run.Bytes,
	}).Info("feed generated")

	if _, err := buf.WriteTo(w); err != nil {
		return run, fmt.Errorf("write feed output: %w", err)
	}
	return run, nil
}

func (e Executor) build(ctx context.Context, tenantID uint64, ch channels.Channel, w io.Writer, started time.Time) (channels.BuildResult, error) {
	site, err := e.site(ctx, tenantID)
	if err != nil {
		return channels.BuildResult{}, err
	}

	products, err := e.Store.ListLiveProducts(ctx, tenantID)
	if err != nil {
		return channels.BuildResult{}, fmt.Errorf("list live products: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return channels.BuildResult{}, err
	}

	in := channels.GenerateInput{
		Products:   products,
		Site:       site,
		Sizes:      e.Sizes,
		Prices:     e.Prices,
		Renditions: e.Renditions,
		FeedURL:    e.feedURL(ch.Name()),
		BuildDate:  started.UTC(),
	}

	return ch.Generate(ctx, w, in)
}

func (e Executor) site(ctx context.Context, tenantID uint64) (domain.Site, error) {
	site, ok, err := e.Store.GetSite(ctx, tenantID)
	if err != nil {
		return domain.Site{}, fmt.Errorf("get site: %w", err)
	}
	if ok && site.Domain != "" {
		return site, nil
	}
	if e.DefaultSite.Domain != "" {
		return e.DefaultSite, nil
	}
	return domain.Site{}, ErrSiteNotFound
}

func (e Executor) feedURL(channel string) string {
	base := strings.TrimRight(strings.TrimSpace(e.PublicBaseURL), "/")
	if base == "" {
		return ""
	}
	return base + "/feeds/" + channel + ".xml"
}

func (e Executor) logger() *logrus.Entry {
	if e.Logger != nil {
		return e.Logger
	}
	return logging.Discard()
}

func (e Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ContentHash is the sha256 of a feed document without its lastBuildDate
// element, so an unchanged catalog hashes the same on every request.
func ContentHash(doc []byte) string {
	const open, closing = "<lastBuildDate>", "</lastBuildDate>"

	h := sha256.New()
	if i := bytes.Index(doc, []byte(open)); i >= 0 {
		if j := bytes.Index(doc[i:], []byte(closing)); j >= 0 {
			h.Write(doc[:i])
			h.Write(doc[i+j+len(closing):])
			return hex.EncodeToString(h.Sum(nil))
		}
	}
	h.Write(doc)
	return hex.EncodeToString(h.Sum(nil))
}
