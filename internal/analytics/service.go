package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/seller-analytics/internal/common"
	"github.com/noah-isme/seller-analytics/internal/obs"
	"github.com/noah-isme/seller-analytics/internal/sellerstats"
)

const cachePrefix = "an:sellers:v1:"

// Report is a computed seller report with its run metadata.
type Report struct {
	ID          string                     `json:"report_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Cached      bool                       `json:"cached"`
	Reports     []sellerstats.SellerReport `json:"reports"`
	Warnings    []sellerstats.Warning      `json:"warnings"`
}

// Service runs seller reports with caching, metrics and tracing around the pure computation.
type Service struct {
	Cache   Cache
	Options *sellerstats.Options
	Logger  zerolog.Logger
	Metrics *obs.ReportMetrics
	Now     func() time.Time
	NewID   func() string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// SellerReport computes the per-seller report for data, serving identical datasets from cache.
func (s *Service) SellerReport(ctx context.Context, data *sellerstats.Dataset) (*Report, error) {
	if s == nil {
		return nil, common.NewAppError("ANALYTICS_NOT_CONFIGURED", "analytics service not configured", http.StatusInternalServerError, nil)
	}
	ctx, span := otel.Tracer("analytics").Start(ctx, "sellerstats.analyze")
	defer span.End()
	if data != nil {
		span.SetAttributes(
			attribute.Int("sellers.count", len(data.Sellers)),
			attribute.Int("products.count", len(data.Products)),
			attribute.Int("purchase_records.count", len(data.PurchaseRecords)),
		)
	}

	key := s.cacheKey(data)
	if cached := s.lookup(ctx, key); cached != nil {
		s.emitWarnings(cached.Warnings)
		span.SetAttributes(attribute.Bool("cache.hit", true), attribute.Int("warnings.count", len(cached.Warnings)))
		return cached, nil
	}

	start := time.Now()
	res, err := sellerstats.Analyze(data, s.Options)
	if err != nil {
		appErr := toAppError(err)
		s.Metrics.ObserveRun(resultLabel(err), time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Code)
		s.Logger.Debug().Err(err).Str("code", appErr.Code).Msg("seller report rejected")
		return nil, appErr
	}
	s.Metrics.ObserveRun("ok", time.Since(start))

	s.emitWarnings(res.Warnings)
	span.SetAttributes(attribute.Int("warnings.count", len(res.Warnings)))

	report := &Report{
		ID:          s.newID(),
		GeneratedAt: s.now(),
		Reports:     res.Reports,
		Warnings:    res.Warnings,
	}
	if key != "" && s.Cache != nil {
		if err := s.Cache.Set(ctx, key, report); err != nil {
			s.Logger.Error().Err(err).Msg("store seller report in cache")
		}
	}
	return report, nil
}

// emitWarnings logs and counts the warnings of every served report, cached or computed.
func (s *Service) emitWarnings(warnings []sellerstats.Warning) {
	for _, w := range warnings {
		s.Metrics.ObserveWarning(string(w.Kind))
		s.Logger.Warn().
			Str("kind", string(w.Kind)).
			Int("record", w.Record).
			Int("item", w.Item).
			Str("seller_id", w.SellerID).
			Str("sku", w.SKU).
			Msg(w.String())
	}
}

func (s *Service) cacheKey(data *sellerstats.Dataset) string {
	if s.Cache == nil || data == nil {
		return ""
	}
	digest, err := common.HashJSON(data)
	if err != nil {
		s.Logger.Error().Err(err).Msg("hash dataset")
		return ""
	}
	return cachePrefix + digest
}

func (s *Service) lookup(ctx context.Context, key string) *Report {
	if key == "" {
		return nil
	}
	report, ok, err := s.Cache.Get(ctx, key)
	switch {
	case err != nil:
		s.Metrics.ObserveCache("error")
		s.Logger.Error().Err(err).Msg("read seller report from cache")
		return nil
	case !ok:
		s.Metrics.ObserveCache("miss")
		return nil
	}
	s.Metrics.ObserveCache("hit")
	report.Cached = true
	return report
}

func toAppError(err error) *common.AppError {
	var fe *sellerstats.FieldError
	message := err.Error()
	if errors.As(err, &fe) {
		message = fmt.Sprintf("%s %s", fe.Field, fe.Reason)
	}
	switch {
	case errors.Is(err, sellerstats.ErrInvalidInput):
		return common.NewAppError("INVALID_INPUT", message, http.StatusBadRequest, err)
	case errors.Is(err, sellerstats.ErrInvalidItem):
		return common.NewAppError("INVALID_ITEM", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, sellerstats.ErrNumericOverflow):
		return common.NewAppError("NUMERIC_OVERFLOW", message, http.StatusUnprocessableEntity, err)
	case errors.Is(err, sellerstats.ErrInvalidOptions):
		return common.NewAppError("INVALID_OPTIONS", message, http.StatusInternalServerError, err)
	default:
		return common.NewAppError("ANALYTICS_ERROR", "seller report failed", http.StatusInternalServerError, err)
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, sellerstats.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, sellerstats.ErrInvalidItem):
		return "invalid_item"
	case errors.Is(err, sellerstats.ErrNumericOverflow):
		return "numeric_overflow"
	case errors.Is(err, sellerstats.ErrInvalidOptions):
		return "invalid_options"
	default:
		return "error"
	}
}
