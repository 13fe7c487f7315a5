package model

import "encoding/json"

// InboundRequest представляет входящий запрос клиента.
// Отсутствующее поле duration трактуется как 0.
type InboundRequest struct {
	Duration json.Number `json:"duration"`
}

// OutboundPayload представляет тело запроса, отправляемого downstream-сервису.
type OutboundPayload struct {
	Duration json.Number `json:"duration"`
}

// RelayResponse представляет успешный ответ клиенту.
type RelayResponse struct {
	Status string      `json:"status"`
	Result json.Number `json:"result"`
}

// StatusSuccess значение поля status в успешном ответе
const StatusSuccess = "success"
