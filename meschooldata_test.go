package meschooldata

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/maine-ed-data/meschooldata-go/telemetry"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	return NewClient(Config{
		PackageName: "meschooldata",
		PackagePath: filepath.Join("testdata", "luapkg"),
	}, opts...)
}

func TestFetchEnrollment(t *testing.T) {
	c := newTestClient(t)

	f, err := c.FetchEnrollment(context.Background(), 2025)
	if err != nil {
		t.Fatalf("FetchEnrollment returned error: %v", err)
	}
	if f.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", f.NumRows())
	}
	names := f.Columns()
	if names[0] != "district_id" || names[len(names)-1] != "enr_male" {
		t.Fatalf("unexpected columns: %v", names)
	}
	years, err := f.Column("end_year")
	if err != nil {
		t.Fatalf("Column returned error: %v", err)
	}
	for _, y := range years {
		if y != 2025 {
			t.Fatalf("unexpected end_year value: %v", y)
		}
	}
}

// TestFetchEnrollmentMultiMatchesSingle checks the consistency of the single-
// and multi-year paths for a one-element request.
func TestFetchEnrollmentMultiMatchesSingle(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	single, err := c.FetchEnrollment(ctx, 2024)
	if err != nil {
		t.Fatalf("FetchEnrollment returned error: %v", err)
	}
	multi, err := c.FetchEnrollmentMulti(ctx, []int{2024})
	if err != nil {
		t.Fatalf("FetchEnrollmentMulti returned error: %v", err)
	}
	if !multi.Equal(single) {
		t.Fatal("expected single-element multi fetch to match single fetch")
	}
}

func TestFetchEnrollmentMultiCombinesYears(t *testing.T) {
	c := newTestClient(t)

	f, err := c.FetchEnrollmentMulti(context.Background(), []int{2023, 2024, 2025})
	if err != nil {
		t.Fatalf("FetchEnrollmentMulti returned error: %v", err)
	}
	if f.NumRows() != 9 {
		t.Fatalf("expected 9 rows for 3 years, got %d", f.NumRows())
	}
}

func TestFetchEnrollmentForeignError(t *testing.T) {
	c := newTestClient(t)

	_, err := c.FetchEnrollment(context.Background(), 1900)
	if CodeOf(err) != CodeForeignCall {
		t.Fatalf("error code = %v, want %v (err: %v)", CodeOf(err), CodeForeignCall, err)
	}
	if !strings.Contains(err.Error(), "no enrollment data for 1900") {
		t.Fatalf("expected foreign message to pass through, got %v", err)
	}
}

// TestTidyPreservesCombinations ensures tidy output covers the full
// cross-product of (school, year, demographic) keys present in the input.
func TestTidyPreservesCombinations(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	wide, err := c.FetchEnrollmentMulti(ctx, []int{2024, 2025})
	if err != nil {
		t.Fatalf("FetchEnrollmentMulti returned error: %v", err)
	}
	tidy, err := c.Tidy(ctx, wide)
	if err != nil {
		t.Fatalf("Tidy returned error: %v", err)
	}

	demographics := []string{"total", "female", "male"}
	wantRows := wide.NumRows() * len(demographics)
	if tidy.NumRows() != wantRows {
		t.Fatalf("expected %d tidy rows, got %d", wantRows, tidy.NumRows())
	}

	seen := map[string]bool{}
	for i := 0; i < tidy.NumRows(); i++ {
		row := tidy.Row(i)
		seen[fmt.Sprintf("%v/%v/%v", row["school_id"], row["end_year"], row["demographic"])] = true
	}
	for i := 0; i < wide.NumRows(); i++ {
		row := wide.Row(i)
		for _, demo := range demographics {
			key := fmt.Sprintf("%v/%v/%v", row["school_id"], row["end_year"], demo)
			if !seen[key] {
				t.Fatalf("tidy output missing combination %s", key)
			}
		}
	}
}

func TestTidyNilFrame(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Tidy(context.Background(), nil)
	if CodeOf(err) != CodeFrameConversion {
		t.Fatalf("error code = %v, want %v (err: %v)", CodeOf(err), CodeFrameConversion, err)
	}
}

func TestAvailableYears(t *testing.T) {
	c := newTestClient(t)

	years, err := c.AvailableYears(context.Background())
	if err != nil {
		t.Fatalf("AvailableYears returned error: %v", err)
	}
	if years.MinYear != 2023 || years.MaxYear != 2025 {
		t.Fatalf("AvailableYears = %+v, want {2023 2025}", years)
	}
	if years.MinYear > years.MaxYear {
		t.Fatalf("min year %d exceeds max year %d", years.MinYear, years.MaxYear)
	}
}

// TestPackageLoadErrorIsCached ensures a failed load surfaces on first use
// and every later call reports the same error.
func TestPackageLoadErrorIsCached(t *testing.T) {
	c := NewClient(Config{PackageName: "no_such_package"})
	ctx := context.Background()

	_, first := c.FetchEnrollment(ctx, 2025)
	if CodeOf(first) != CodePackageLoad {
		t.Fatalf("error code = %v, want %v (err: %v)", CodeOf(first), CodePackageLoad, first)
	}
	_, second := c.AvailableYears(ctx)
	if CodeOf(second) != CodePackageLoad {
		t.Fatalf("error code = %v, want %v (err: %v)", CodeOf(second), CodePackageLoad, second)
	}
	if !errors.Is(first, second) {
		t.Fatal("expected repeated calls to report the same load error")
	}
	if first.Error() != second.Error() {
		t.Fatalf("load errors differ: %q vs %q", first, second)
	}
}

func TestDefaultPackageName(t *testing.T) {
	// An empty package name falls back to the published package.
	c := NewClient(Config{PackagePath: filepath.Join("testdata", "luapkg")})
	if _, err := c.AvailableYears(context.Background()); err != nil {
		t.Fatalf("AvailableYears returned error: %v", err)
	}
}

func TestMetricsRecorded(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := newTestClient(t, WithMetrics(telemetry.NewBridgeMetrics(registry)))

	if _, err := c.FetchEnrollment(context.Background(), 2025); err != nil {
		t.Fatalf("FetchEnrollment returned error: %v", err)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if len(families) != 2 {
		t.Fatalf("expected 2 metric families, got %d", len(families))
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Fatal("expected a non-empty version")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MESCHOOLDATA_PACKAGE", "meschooldata_dev")
	t.Setenv("MESCHOOLDATA_PACKAGE_PATH", "/opt/meschooldata")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv returned error: %v", err)
	}
	if cfg.PackageName != "meschooldata_dev" {
		t.Fatalf("package name = %q, want meschooldata_dev", cfg.PackageName)
	}
	if cfg.PackagePath != "/opt/meschooldata" {
		t.Fatalf("package path = %q, want /opt/meschooldata", cfg.PackagePath)
	}
}
