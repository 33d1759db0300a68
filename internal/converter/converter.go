// Package converter turns the raw text a user typed for each subject into a
// conversion request and hands it to the scheme service. The conversion
// formula itself lives in the service; the converter never recomputes totals.
package converter

//go:generate go tool mockgen -source=converter.go -destination=mock_service_test.go -package=converter

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/spboyer/kansan/internal/scheme"
)

// ErrConversionPending is returned when Convert is called while an earlier
// conversion has not finished.
var ErrConversionPending = errors.New("a conversion is already in progress")

// Service performs conversions. *schemeclient.Client satisfies it.
type Service interface {
	Convert(ctx context.Context, req scheme.ConversionRequest) (*scheme.ConversionResult, error)
}

// RawInput is the text entered for one subject.
type RawInput struct {
	Score string
	// Base is the maximum raw score the user sat; empty means the scheme default.
	Base string
}

// Converter submits one conversion at a time to a Service.
type Converter struct {
	svc     Service
	logger  *slog.Logger
	pending atomic.Bool
}

// New creates a Converter backed by svc. A nil logger uses slog.Default().
func New(svc Service, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{svc: svc, logger: logger}
}

// Pending reports whether a conversion is in flight.
func (c *Converter) Pending() bool {
	return c.pending.Load()
}

// Convert builds the request for s from inputs and returns the service's
// result as-is. Service errors are returned unchanged and never retried.
func (c *Converter) Convert(ctx context.Context, s *scheme.Scheme, inputs map[string]RawInput) (*scheme.ConversionResult, error) {
	if s == nil {
		return nil, errors.New("no scheme selected")
	}
	if !c.pending.CompareAndSwap(false, true) {
		return nil, ErrConversionPending
	}
	defer c.pending.Store(false)

	req := BuildRequest(s, inputs)
	c.logger.Debug("Submitting conversion", "scheme", req.SchemeKey, "subjects", len(req.Scores), "overrides", len(req.Bases))

	res, err := c.svc.Convert(ctx, req)
	if err != nil {
		c.logger.Debug("Conversion failed", "scheme", req.SchemeKey, "error", err)
		return nil, err
	}
	return res, nil
}

// BuildRequest packages inputs for s. Every subject of s gets a score; input
// keys the scheme does not define are dropped. A base goes into Bases only
// when it parses to a positive integer different from the scheme default.
func BuildRequest(s *scheme.Scheme, inputs map[string]RawInput) scheme.ConversionRequest {
	req := scheme.ConversionRequest{
		SchemeKey: s.Key,
		Scores:    make(map[string]float64),
	}
	for _, subj := range s.Subjects() {
		in := inputs[subj.Name]
		req.Scores[subj.Name] = ParseScore(in.Score)

		if base, ok := OverrideBase(in.Base, subj.Base); ok {
			if req.Bases == nil {
				req.Bases = make(map[string]int)
			}
			req.Bases[subj.Name] = base
		}
	}
	return req
}
