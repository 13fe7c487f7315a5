package downstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Totarae/relay/internal/jsoncodec"
	"github.com/Totarae/relay/internal/model"
)

const tracerName = "relay-downstream"

// HTTPForwarder отправляет OutboundPayload POST-запросом на фиксированный адрес.
type HTTPForwarder struct {
	client *http.Client
	url    string
	logger *zap.Logger
}

// NewHTTPForwarder создаёт клиента. timeout == 0 означает отсутствие таймаута.
func NewHTTPForwarder(url string, timeout time.Duration, logger *zap.Logger) *HTTPForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPForwarder{
		client: &http.Client{Timeout: timeout},
		url:    url,
		logger: logger,
	}
}

// Forward выполняет исходящий вызов и возвращает статус ответа.
// Тело ответа вычитывается и отбрасывается, статус не проверяется.
func (f *HTTPForwarder) Forward(ctx context.Context, payload model.OutboundPayload) (int, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "relay.downstream.forward",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.url", f.url),
		attribute.String("relay.duration", payload.Duration.String()),
	)

	body, err := jsoncodec.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal payload")
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return 0, fmt.Errorf("build downstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "downstream unreachable")
		return 0, fmt.Errorf("downstream unreachable: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		f.logger.Debug("failed to drain downstream response", zap.Error(err))
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	f.logger.Debug("downstream responded",
		zap.String("url", f.url),
		zap.Int("status", resp.StatusCode),
	)
	return resp.StatusCode, nil
}
