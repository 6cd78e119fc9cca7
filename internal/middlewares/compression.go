package middlewares

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

type compressWriter struct {
	http.ResponseWriter
	writer io.Writer
}

func (cw *compressWriter) Write(data []byte) (int, error) {
	return cw.writer.Write(data)
}

// GzipMiddleware compresses the response when the client accepts gzip.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(response, request)

			return
		}

		gzipWriter := gzip.NewWriter(response)
		defer func() {
			_ = gzipWriter.Close()
		}()

		response.Header().Set("Content-Encoding", "gzip")
		next.ServeHTTP(&compressWriter{ResponseWriter: response, writer: gzipWriter}, request)
	})
}

// BrotliMiddleware compresses the response when the client prefers brotli.
// Registered after GzipMiddleware so brotli wins only when gzip did not run.
func BrotliMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		accepts := request.Header.Get("Accept-Encoding")
		if !strings.Contains(accepts, "br") || strings.Contains(accepts, "gzip") {
			next.ServeHTTP(response, request)

			return
		}

		brotliWriter := brotli.NewWriter(response)
		defer func() {
			_ = brotliWriter.Close()
		}()

		response.Header().Set("Content-Encoding", "br")
		next.ServeHTTP(&compressWriter{ResponseWriter: response, writer: brotliWriter}, request)
	})
}

// GzipDecompressionMiddleware transparently unpacks gzip request bodies.
func GzipDecompressionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Content-Encoding") == "gzip" {
			gzipReader, err := gzip.NewReader(request.Body)
			if err != nil {
				http.Error(response, "Invalid gzip body", http.StatusBadRequest)

				return
			}

			request.Body = gzipReader
			request.Header.Del("Content-Encoding")
		}

		next.ServeHTTP(response, request)
	})
}

// ContentMiddleware sets the response content type for a route group.
func ContentMiddleware(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			response.Header().Set("Content-Type", contentType)

			next.ServeHTTP(response, request)
		})
	}
}
