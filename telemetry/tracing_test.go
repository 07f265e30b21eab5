package telemetry

import (
	"context"
	"testing"
)

func TestSetupDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("MESCHOOLDATA_OTEL_ENDPOINT", "")

	shutdown, err := Setup(context.Background(), "meschooldata-test")
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}

func TestSetupDisabledExplicitly(t *testing.T) {
	t.Setenv("MESCHOOLDATA_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("MESCHOOLDATA_OTEL_ENABLED", "false")

	shutdown, err := Setup(context.Background(), "meschooldata-test")
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}
