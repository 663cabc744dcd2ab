package orders

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/safar/lanchonete-orders/internal/models"
)

const instrumentationName = "github.com/safar/lanchonete-orders/internal/orders"

// Instrumented decorates Service with tracing, logging and metrics.
type Instrumented struct {
	inner   *Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type InstrumentOption func(*Instrumented)

func WithLogger(logger *slog.Logger) InstrumentOption {
	return func(s *Instrumented) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) InstrumentOption {
	return func(s *Instrumented) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) InstrumentOption {
	return func(s *Instrumented) {
		s.metrics = newServiceMetrics(m)
	}
}

func NewInstrumented(inner *Service, opts ...InstrumentOption) *Instrumented {
	s := &Instrumented{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(instrumentationName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Instrumented) SubmitOrder(ctx context.Context, sub Submission) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.SubmitOrder",
		trace.WithAttributes(attribute.Int("order.items", len(sub.Items))))
	defer span.End()

	id, err := s.inner.SubmitOrder(ctx, sub)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to submit order", slog.Int("order.items", len(sub.Items)))
	}
	span.SetAttributes(attribute.Int64("order.id", id))
	s.metrics.recordSubmitted(ctx, sub.DeliveryMode)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "order submitted",
		slog.Int64("order.id", id), slog.Int("order.items", len(sub.Items)))
	return id, nil
}

func (s *Instrumented) ListOrders(ctx context.Context) ([]models.OrderSummary, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	result, err := s.inner.ListOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Instrumented) GetOrder(ctx context.Context, id int64) (*models.OrderDetail, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	return result, nil
}

func (s *Instrumented) UpdateStatus(ctx context.Context, id int64, raw string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus",
		trace.WithAttributes(attribute.Int64("order.id", id), attribute.String("order.status", raw)))
	defer span.End()

	if err := s.inner.UpdateStatus(ctx, id, raw); err != nil {
		return s.handleError(ctx, span, err, "failed to update order status",
			slog.Int64("order.id", id), slog.String("status", raw))
	}
	s.metrics.recordTransition(ctx, raw)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "order status updated",
		slog.Int64("order.id", id), slog.String("status", raw))
	return nil
}

func (s *Instrumented) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListProducts")
	defer span.End()

	result, err := s.inner.ListProducts(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products")
	}
	return result, nil
}

func (s *Instrumented) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, errorLevel(err), msg, attrs...)
	return err
}

// errorLevel keeps client mistakes out of the error log.
func errorLevel(err error) slog.Level {
	if IsClientError(err) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

type serviceMetrics struct {
	ordersSubmitted metric.Int64Counter
	transitions     metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	submitted, _ := m.Int64Counter("orders.service.submitted", metric.WithDescription("Number of orders submitted"))
	transitions, _ := m.Int64Counter("orders.service.status_transitions", metric.WithDescription("Number of applied status transitions"))
	return serviceMetrics{ordersSubmitted: submitted, transitions: transitions}
}

func (m serviceMetrics) recordSubmitted(ctx context.Context, rawMode string) {
	if m.ordersSubmitted == nil {
		return
	}
	mode, err := models.ParseDeliveryMode(rawMode)
	if err != nil {
		return
	}
	m.ordersSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("order.delivery_mode", string(mode))))
}

func (m serviceMetrics) recordTransition(ctx context.Context, raw string) {
	if m.transitions == nil {
		return
	}
	status, err := models.ParseStatus(raw)
	if err != nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
}
