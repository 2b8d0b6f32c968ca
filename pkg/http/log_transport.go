package http

import (
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// payloadContextKey carries the marshalled request body so the transport can
// log it without re-reading the request stream.
type payloadContextKey struct{}

type logTransport struct {
	next http.RoundTripper
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	}
	if payload, ok := ctx.Value(payloadContextKey{}).([]byte); ok && len(payload) > 0 {
		fields = append(fields, zap.ByteString("payload", payload))
	}
	ctxzap.Debug(ctx, "outbound request", fields...)

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		ctxzap.Debug(ctx, "outbound request failed",
			zap.String("url", req.URL.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	ctxzap.Debug(ctx, "outbound response",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return resp, nil
}

// WithRequestLogging logs every outbound request and its response status at
// debug level through the context logger.
func WithRequestLogging() ClientOption {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &logTransport{next: rt}
	})
}
