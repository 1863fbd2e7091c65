package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ETAnderson/shopfeed/internal/api/handlers"
	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
	"github.com/ETAnderson/shopfeed/internal/app"
	"github.com/ETAnderson/shopfeed/internal/config"
	"github.com/ETAnderson/shopfeed/internal/ingest"
	"github.com/ETAnderson/shopfeed/internal/logging"
)

type generateOptions struct {
	channel string
	tenant  uint64
	out     string
	schema  string
	catalog string
}

func newGenerateCmd() *cobra.Command {
	var o generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a channel feed from the configured store",
		Long: `Generate builds one feed document and records the run like the API does.

With --catalog the products in a JSON array (or .ndjson/.jsonl) file are
loaded first, which together with STATE_BACKEND=memory renders a feed from
a file without any infrastructure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.channel, "channel", "google", "feed channel")
	f.Uint64Var(&o.tenant, "tenant", tenantctx.DefaultTenantID, "tenant id")
	f.StringVarP(&o.out, "out", "o", "-", "output file, - for stdout")
	f.StringVar(&o.schema, "schema", "", "feed schema YAML (overrides FEED_SCHEMA_PATH)")
	f.StringVar(&o.catalog, "catalog", "", "catalog file to load before generating")
	return cmd
}

func runGenerate(cmd *cobra.Command, o generateOptions) error {
	cfg := config.Load()
	if o.schema != "" {
		cfg.FeedSchemaPath = o.schema
	}

	log := logging.New("feedctl", cfg.LogLevel)
	log.Logger.SetOutput(cmd.ErrOrStderr())

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if o.catalog != "" {
		if err := loadCatalog(cmd, a, o); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	run, err := a.Executor.Generate(ctx, o.tenant, o.channel, &buf)
	if err != nil {
		return fmt.Errorf("generate %s: %w", o.channel, err)
	}

	if o.out == "-" {
		if _, err := buf.WriteTo(cmd.OutOrStdout()); err != nil {
			return err
		}
	} else if err := writeFileAtomic(o.out, buf.Bytes()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: items=%d images_skipped=%d bytes=%d hash=%s\n",
		run.RunID, run.Status, run.Items, run.ImagesSkipped, run.Bytes, run.ContentHash)
	return nil
}

func loadCatalog(cmd *cobra.Command, a *app.App, o generateOptions) error {
	f, err := os.Open(o.catalog)
	if err != nil {
		return err
	}
	defer f.Close()

	h := handlers.CatalogHandler{
		Processor:  ingest.NewProcessor(),
		Store:      a.Store,
		Renditions: a.Renditions,
		Metrics:    a.Metrics,
		Logger:     a.Logger,
	}

	ext := strings.ToLower(filepath.Ext(o.catalog))
	resp, err := h.Ingest(cmd.Context(), o.tenant, f, ext == ".ndjson" || ext == ".jsonl")
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", o.catalog, err)
	}

	sum := resp.Result.Summary
	fmt.Fprintf(cmd.ErrOrStderr(), "catalog: received=%d upserted=%d unchanged=%d rejected=%d\n",
		sum.Received, sum.Upserted, sum.Unchanged, sum.Rejected)
	for _, res := range resp.Result.Products {
		for _, issue := range res.Issues {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s %s: %s\n", res.ProductKey, issue.Path, issue.Message)
		}
	}
	return nil
}

// writeFileAtomic keeps the previous feed in place until the new one is
// fully written.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
