package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/Totarae/relay/internal/jsoncodec"
	"github.com/Totarae/relay/internal/model"
)

// ErrInvalidInput единственная ошибка, видимая клиенту: тело не является
// JSON-объектом либо поле duration нельзя умножить.
var ErrInvalidInput = errors.New("invalid JSON input")

const durationField = "duration"

var zero = json.Number("0")

// ParseInbound разбирает тело входящего запроса.
// Число сохраняется в исходной записи.
func ParseInbound(body []byte) (model.InboundRequest, error) {
	if !jsoncodec.Valid(body) {
		return model.InboundRequest{}, fmt.Errorf("%w: malformed body", ErrInvalidInput)
	}

	var doc any
	if err := jsoncodec.UnmarshalNumber(body, &doc); err != nil {
		return model.InboundRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return model.InboundRequest{}, fmt.Errorf("%w: top-level value is %s, want object", ErrInvalidInput, jsonKind(doc))
	}

	raw, present := obj[durationField]
	if !present {
		return model.InboundRequest{Duration: zero}, nil
	}

	d, ok := raw.(json.Number)
	if !ok {
		return model.InboundRequest{}, fmt.Errorf("%w: duration is %s, want number", ErrInvalidInput, jsonKind(raw))
	}
	return model.InboundRequest{Duration: d}, nil
}

// Double удваивает значение. Целые удваиваются без потери точности,
// остальные числа как float64; переполнение до бесконечности не представимо в JSON.
func Double(d json.Number) (json.Number, error) {
	s := d.String()
	if s == "" {
		return zero, nil
	}

	if !strings.ContainsAny(s, ".eE") {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return "", fmt.Errorf("%w: duration %q is not a number", ErrInvalidInput, s)
		}
		return json.Number(n.Mul(n, big.NewInt(2)).String()), nil
	}

	f, err := d.Float64()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	result := f * 2
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return "", fmt.Errorf("%w: doubled duration overflows", ErrInvalidInput)
	}
	out, err := jsoncodec.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return json.Number(out), nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
