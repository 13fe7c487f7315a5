package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Totarae/relay/internal/jsoncodec"
	"github.com/Totarae/relay/internal/model"
	"github.com/Totarae/relay/internal/relay"
)

// InvalidInputMessage тело ответа 400
const InvalidInputMessage = "Invalid JSON input."

// Relayer выполняет обработку тела входящего запроса.
type Relayer interface {
	Relay(ctx context.Context, body []byte) (relay.Result, error)
}

type Handler struct {
	Service Relayer
	Logger  *zap.Logger
}

func NewHandler(service Relayer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Logger: logger}
}

// Relay принимает {"duration": d} и отвечает {"status":"success","result":2*d}.
func (h *Handler) Relay(res http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		h.Logger.Debug("failed to read request body", zap.Error(err))
		InvalidInput(res, req)
		return
	}

	result, err := h.Service.Relay(req.Context(), body)
	if err != nil {
		if errors.Is(err, relay.ErrInvalidInput) {
			h.Logger.Debug("rejected request", zap.Error(err))
			InvalidInput(res, req)
			return
		}
		h.Logger.Error("relay failed", zap.Error(err))
		http.Error(res, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	out, err := jsoncodec.Marshal(model.RelayResponse{Status: model.StatusSuccess, Result: result.Value})
	if err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
		http.Error(res, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)
	res.Write(out)
}

// Ping проверка живости
func (h *Handler) Ping(res http.ResponseWriter, _ *http.Request) {
	res.Header().Set("Content-Type", "text/plain")
	res.WriteHeader(http.StatusOK)
	res.Write([]byte("OK"))
}

// InvalidInput пишет 400 с телом InvalidInputMessage без перевода строки и без content-type.
func InvalidInput(res http.ResponseWriter, _ *http.Request) {
	res.WriteHeader(http.StatusBadRequest)
	res.Write([]byte(InvalidInputMessage))
}
