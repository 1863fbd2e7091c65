package tenantctx

import (
	"context"
	"testing"
)

func TestTenantID_DefaultsWhenUnsetOrZero(t *testing.T) {
	if got := TenantID(context.Background()); got != DefaultTenantID {
		t.Fatalf("expected default tenant, got %d", got)
	}
	if got := TenantID(WithTenantID(context.Background(), 0)); got != DefaultTenantID {
		t.Fatalf("expected zero tenant to fall back, got %d", got)
	}
	if got := TenantID(WithTenantID(context.Background(), 42)); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestSubject(t *testing.T) {
	ctx := context.Background()
	if got := Subject(ctx); got != "anonymous" {
		t.Fatalf("expected anonymous, got %q", got)
	}
	if got := Subject(WithSubject(ctx, "")); got != "anonymous" {
		t.Fatalf("expected empty subject to be ignored, got %q", got)
	}
	if got := Subject(WithSubject(ctx, "svc-catalog")); got != "svc-catalog" {
		t.Fatalf("unexpected subject %q", got)
	}
}
