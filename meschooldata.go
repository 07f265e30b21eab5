// Package meschooldata provides Go bindings for the meschooldata package,
// which retrieves and reshapes Maine school enrollment data. The package
// itself runs inside an embedded Lua interpreter; this library loads it,
// marshals calls and tabular data across the language boundary, and returns
// results as native frames. It never reimplements the package's logic.
//
// A Client is constructed once by the application's composition root and
// passed around explicitly. The external package is loaded lazily on the
// first call and cached for the Client's lifetime; the interpreter state is
// never torn down.
package meschooldata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/maine-ed-data/meschooldata-go/frame"
	"github.com/maine-ed-data/meschooldata-go/internal/luabridge"
	"github.com/maine-ed-data/meschooldata-go/telemetry"
)

// Version is the binding version, independent of the wrapped package's own
// versioning.
const Version = "0.2.0"

const tracerName = "github.com/maine-ed-data/meschooldata-go"

// YearRange is the span of school years the external package can serve.
// Years are the ending year of a school year (2025 denotes 2024-25).
type YearRange struct {
	MinYear int `json:"min_year"`
	MaxYear int `json:"max_year"`
}

// Option configures optional client behavior.
type Option func(*Client)

// WithMetrics wires a bridge-call metrics collector into the client.
func WithMetrics(m *telemetry.BridgeMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client exposes the external package's entry points. All operations are
// synchronous and blocking; the client serializes access to the interpreter
// state, so it is safe for concurrent use.
type Client struct {
	cfg     Config
	metrics *telemetry.BridgeMetrics
	tracer  trace.Tracer

	loadOnce sync.Once
	bridge   *luabridge.Bridge
	loadErr  error

	// mu serializes foreign calls; the Lua state is single-threaded.
	mu sync.Mutex
}

// NewClient creates a client for the configured external package. The package
// is not loaded until the first call.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchEnrollment fetches enrollment data for a single school year. endYear
// is the ending year of the school year (2025 for 2024-25); validation is the
// external package's responsibility and its failures surface as foreign-call
// errors.
func (c *Client) FetchEnrollment(ctx context.Context, endYear int) (*frame.Frame, error) {
	var f *frame.Frame
	err := c.call(ctx, "fetch_enr",
		[]attribute.KeyValue{attribute.Int("meschooldata.end_year", endYear)},
		func(b *luabridge.Bridge) error {
			var err error
			f, err = b.FetchEnr(endYear)
			return err
		})
	return f, err
}

// FetchEnrollmentMulti fetches combined enrollment data for the given school
// years, in order.
func (c *Client) FetchEnrollmentMulti(ctx context.Context, endYears []int) (*frame.Frame, error) {
	var f *frame.Frame
	err := c.call(ctx, "fetch_enr_multi",
		[]attribute.KeyValue{attribute.IntSlice("meschooldata.end_years", endYears)},
		func(b *luabridge.Bridge) error {
			var err error
			f, err = b.FetchEnrMulti(endYears)
			return err
		})
	return f, err
}

// Tidy reshapes enrollment data into tidy (long) format, one row per
// school/year/demographic combination. The reshaping logic lives entirely in
// the external package.
func (c *Client) Tidy(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	var tidy *frame.Frame
	err := c.call(ctx, "tidy_enr", nil,
		func(b *luabridge.Bridge) error {
			var err error
			tidy, err = b.TidyEnr(f)
			return err
		})
	return tidy, err
}

// AvailableYears reports the range of years the external package can serve.
// The foreign return value is normalized from any of its known shapes into a
// YearRange; an unrecognized shape yields a CodeUnexpectedReturn error.
func (c *Client) AvailableYears(ctx context.Context) (YearRange, error) {
	var years YearRange
	err := c.call(ctx, "get_available_years", nil,
		func(b *luabridge.Bridge) error {
			r, err := b.AvailableYears()
			if err != nil {
				return err
			}
			years = YearRange{MinYear: r.Min, MaxYear: r.Max}
			return nil
		})
	return years, err
}

// handle returns the loaded bridge, loading the external package on first
// use. A failed load is cached: every subsequent call reports the same
// package-load error.
func (c *Client) handle() (*luabridge.Bridge, error) {
	c.loadOnce.Do(func() {
		name := c.cfg.PackageName
		if name == "" {
			name = "meschooldata"
		}
		b, err := luabridge.Load(name, c.cfg.PackagePath)
		if err != nil {
			c.loadErr = wrapError(CodePackageLoad,
				fmt.Sprintf("load external package %q", name), err)
			return
		}
		c.bridge = b
	})
	return c.bridge, c.loadErr
}

// call runs one foreign call under a span, the state mutex, and the metrics
// collector. The context carries the span only; the underlying call is
// blocking and does not observe cancellation.
func (c *Client) call(ctx context.Context, entryPoint string, attrs []attribute.KeyValue, fn func(*luabridge.Bridge) error) error {
	_, span := c.tracer.Start(ctx, "meschooldata."+entryPoint,
		trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	err := func() error {
		b, err := c.handle()
		if err != nil {
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return fn(b)
	}()
	if err != nil {
		err = classifyError(entryPoint, err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(CodeOf(err)))
	} else {
		span.SetStatus(otelcodes.Ok, "")
	}
	c.metrics.ObserveCall(entryPoint, time.Since(start), err)
	return err
}

// classifyError maps bridge errors onto the domain error taxonomy. Errors
// that already carry a code (the cached package-load error) pass through.
func classifyError(entryPoint string, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	var shapeErr *luabridge.ShapeError
	if errors.As(err, &shapeErr) {
		return &Error{
			Code:     CodeUnexpectedReturn,
			Message:  err.Error(),
			Metadata: map[string]string{"lua_type": shapeErr.LuaType},
			Cause:    err,
		}
	}

	if errors.Is(err, luabridge.ErrFrame) {
		return wrapError(CodeFrameConversion, entryPoint+": "+err.Error(), err)
	}

	// Everything else failed on the foreign side of the boundary.
	return wrapError(CodeForeignCall, err.Error(), err)
}
