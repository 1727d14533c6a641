package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BurakkYuce/rental-backend/internal/cache"
	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

// IdempotencyStore is implemented by cache.IdempotencyStore.
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) ([]byte, bool, error)
	Complete(ctx context.Context, key string, response []byte) error
	Abort(ctx context.Context, key string) error
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a request already completed
// under the same Idempotency-Key. Requests without the header pass through.
// Only 2xx and 4xx responses are stored; a 5xx releases the key so the client
// may retry.
func Idempotency(store IdempotencyStore, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		stored, acquired, err := store.Begin(ctx, key)
		switch {
		case errors.Is(err, cache.ErrInProgress):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "RequestInProgress"})
			return
		case err != nil:
			log.WarnContext(ctx, "idempotency store unavailable", "request_id", GetRequestID(c), "error", err)
			c.Next()
			return
		case !acquired:
			var resp storedResponse
			if err := json.Unmarshal(stored, &resp); err != nil {
				log.WarnContext(ctx, "unreadable idempotent response", "key", key, "error", err)
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": domain.ErrDuplicateRequest.Error(), "code": "DuplicateRequest"})
				return
			}
			c.Header("X-Idempotency-Hit", "true")
			c.Data(resp.Status, resp.ContentType, resp.Body)
			c.Abort()
			return
		}

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Abort(ctx, key); err != nil {
				log.WarnContext(ctx, "failed to release idempotency key", "key", key, "error", err)
			}
			return
		}
		payload, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		})
		if err == nil {
			err = store.Complete(ctx, key, payload)
		}
		if err != nil {
			log.WarnContext(ctx, "failed to store idempotent response", "key", key, "error", err)
		}
	}
}
