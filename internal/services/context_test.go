package services_test

import (
	"context"
	"testing"

	"intake/internal/services"
)

func TestContextCarriage(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithDocumentID(ctx, "doc-1")
	ctx = services.WithStep(ctx, "fetch")
	ctx = services.WithRequestID(ctx, "req-1")

	if id, ok := services.DocumentIDFromContext(ctx); !ok || id != "doc-1" {
		t.Fatalf("expected document id doc-1, got %q ok=%v", id, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "fetch" {
		t.Fatalf("expected step fetch, got %q ok=%v", step, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-1" {
		t.Fatalf("expected request id req-1, got %q ok=%v", rid, ok)
	}

	if _, ok := services.DocumentIDFromContext(context.Background()); ok {
		t.Fatal("expected empty context to carry no document id")
	}
}
