package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// gzipResponseWriter оборачивает ResponseWriter и использует gzip.Writer для сжатия ответа
type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// GzipMiddleware распаковывает gzip-тела запросов и сжимает ответы,
// если клиент их принимает. onBadBody вызывается для тела, которое не удалось распаковать.
// Распакованное тело ограничено maxBodySize байтами; чтение сверх предела возвращает ошибку.
func GzipMiddleware(onBadBody http.HandlerFunc, maxBodySize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
				reader, err := gzip.NewReader(r.Body)
				if err != nil {
					onBadBody(w, r)
					return
				}
				defer reader.Close()
				r.Body = http.MaxBytesReader(w, reader, maxBodySize)
				r.Header.Del("Content-Encoding")
				r.ContentLength = -1
			}

			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Add("Vary", "Accept-Encoding")

			gzipWriter := gzip.NewWriter(w)
			defer gzipWriter.Close()

			next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, Writer: gzipWriter}, r)
		})
	}
}
