package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

func TestProcessor_RejectsInvalid(t *testing.T) {
	proc := NewProcessor()

	p := validProduct("sku1")
	p.ShortName = ""

	out, err := proc.ProcessProducts([]domain.Product{p}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Summary.Received != 1 || out.Summary.Rejected != 1 || out.Summary.Valid != 0 {
		t.Fatalf("unexpected summary: %#v", out.Summary)
	}
	if out.Products[0].Disposition != domain.ProductDispositionRejected {
		t.Fatalf("expected rejected, got %s", out.Products[0].Disposition)
	}
	if out.Products[0].Reason != "validation_failed" {
		t.Fatalf("expected validation_failed, got %s", out.Products[0].Reason)
	}
	if out.Products[0].Hash != "" || len(out.Products[0].Issues) == 0 {
		t.Fatalf("expected issues and no hash, got %#v", out.Products[0])
	}
}

func TestProcessor_UpsertsNewWhenNoPreviousHash(t *testing.T) {
	proc := NewProcessor()

	out, err := proc.ProcessProducts([]domain.Product{validProduct("sku1")}, func(productKey string) (string, bool, error) {
		return "", false, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Summary.Upserted != 1 || out.Summary.Valid != 1 || out.Summary.Unchanged != 0 {
		t.Fatalf("unexpected summary: %#v", out.Summary)
	}
	if out.Products[0].Reason != "new_product" {
		t.Fatalf("expected new_product, got %s", out.Products[0].Reason)
	}
	if out.Products[0].Hash == "" {
		t.Fatalf("expected hash to be set")
	}
}

func TestProcessor_UnchangedWhenSameHash(t *testing.T) {
	proc := NewProcessor()

	p := validProduct("sku1")
	hash, err := proc.Hasher.HashNormalized(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := proc.ProcessProducts([]domain.Product{p}, func(productKey string) (string, bool, error) {
		return hash, true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Summary.Unchanged != 1 || out.Summary.Upserted != 0 {
		t.Fatalf("unexpected summary: %#v", out.Summary)
	}
	if out.Products[0].Disposition != domain.ProductDispositionUnchanged {
		t.Fatalf("expected unchanged, got %s", out.Products[0].Disposition)
	}
}

func TestProcessor_MixedBatchKeepsOrder(t *testing.T) {
	proc := NewProcessor()

	bad := validProduct("sku2")
	bad.Brand = nil

	out, err := proc.ProcessProducts([]domain.Product{validProduct("sku1"), bad, validProduct("sku3")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Summary.Received != 3 || out.Summary.Rejected != 1 || out.Summary.Upserted != 2 {
		t.Fatalf("unexpected summary: %#v", out.Summary)
	}
	keys := []string{out.Products[0].ProductKey, out.Products[1].ProductKey, out.Products[2].ProductKey}
	if strings.Join(keys, ",") != "sku1,sku2,sku3" {
		t.Fatalf("unexpected order: %v", keys)
	}
}

func TestProcessor_PropagatesLookupError(t *testing.T) {
	proc := NewProcessor()
	wantErr := errors.New("lookup failed")

	_, err := proc.ProcessProducts([]domain.Product{validProduct("sku1")}, func(productKey string) (string, bool, error) {
		return "", false, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestNewRunID_Format(t *testing.T) {
	a, b := NewRunID(), NewRunID()

	if !strings.HasPrefix(a, "run_") || len(a) != len("run_")+32 {
		t.Fatalf("unexpected run id %q", a)
	}
	if a == b {
		t.Fatalf("expected unique run ids")
	}
}
