// Package jsoncodec оборачивает sonic в режиме совместимости с encoding/json.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var defaultConfig = sonic.ConfigStd

// numberConfig совпадает с ConfigStd, но числа в interface{} декодируются как json.Number.
var numberConfig = sonic.Config{
	EscapeHTML:       true,
	SortMapKeys:      true,
	CompactMarshaler: true,
	CopyString:       true,
	ValidateString:   true,
	UseNumber:        true,
}.Froze()

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}

// UnmarshalNumber как Unmarshal, но сохраняет исходную запись чисел.
func UnmarshalNumber(data []byte, v any) error {
	return numberConfig.Unmarshal(data, v)
}

func Decode(r io.Reader, v any) error {
	return defaultConfig.NewDecoder(r).Decode(v)
}

// Valid сообщает, является ли data одним корректным JSON-значением.
func Valid(data []byte) bool {
	return defaultConfig.Valid(data)
}
