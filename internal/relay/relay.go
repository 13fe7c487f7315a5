package relay

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Totarae/relay/internal/metrics"
	"github.com/Totarae/relay/internal/model"
)

//go:generate mockgen -destination=mocks/forwarder_mock.go -package=mocks . Forwarder

// Forwarder отправляет удвоенное значение downstream-сервису.
// Возвращает HTTP-статус ответа; сам ответ не проверяется.
type Forwarder interface {
	Forward(ctx context.Context, payload model.OutboundPayload) (int, error)
}

// Result итог обработки одного запроса.
type Result struct {
	Value json.Number
	// DownstreamStatus равен 0, если вызов не удался.
	DownstreamStatus int
	// DownstreamErr ошибка исходящего вызова. Клиенту не возвращается.
	DownstreamErr error
}

type RelayService struct {
	Forwarder Forwarder
	Logger    *zap.Logger
	Metrics   *metrics.RelayMetrics
}

func NewRelayService(forwarder Forwarder, logger *zap.Logger, m *metrics.RelayMetrics) *RelayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayService{
		Forwarder: forwarder,
		Logger:    logger,
		Metrics:   m,
	}
}

// Relay разбирает тело, удваивает duration, пересылает результат и возвращает его.
// Ошибка downstream не прерывает обработку: она логируется и учитывается в метриках.
func (s *RelayService) Relay(ctx context.Context, body []byte) (Result, error) {
	in, err := ParseInbound(body)
	if err != nil {
		s.Metrics.ObserveRequest(metrics.OutcomeInvalidInput)
		return Result{}, err
	}

	value, err := Double(in.Duration)
	if err != nil {
		s.Metrics.ObserveRequest(metrics.OutcomeInvalidInput)
		return Result{}, err
	}

	payload := model.OutboundPayload{Duration: value}

	// исходящий вызов не отменяется вместе с входящим запросом
	fwdCtx := context.WithoutCancel(ctx)
	start := time.Now()
	status, fwdErr := s.Forwarder.Forward(fwdCtx, payload)
	s.Metrics.ObserveDownstream(fwdErr, time.Since(start))
	if fwdErr != nil {
		s.Logger.Warn("downstream call failed",
			zap.Stringer("duration", payload.Duration),
			zap.Error(fwdErr),
		)
	}

	s.Logger.Info("relay payload",
		zap.Stringer("duration", payload.Duration),
		zap.Int("downstream_status", status),
	)

	s.Metrics.ObserveRequest(metrics.OutcomeSuccess)
	return Result{
		Value:            value,
		DownstreamStatus: status,
		DownstreamErr:    fwdErr,
	}, nil
}
