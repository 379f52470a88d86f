package fetcher

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strconv"
	"time"

	"factposter/internal/logger"

	"github.com/go-resty/resty/v2"
)

// RequestIDHeader задаёт заголовок, по которому запрос к API можно найти в логах.
const RequestIDHeader = "X-Request-ID"

func generateRequestID() string {
	return requestID(rand.Reader, time.Now)
}

// requestID читает 8 случайных байт из src. Если источник отказал, ID строится из текущего времени.
func requestID(src io.Reader, now func() time.Time) string {
	b := make([]byte, 8)
	if _, err := io.ReadFull(src, b); err != nil {
		return strconv.FormatInt(now().UnixNano(), 16)
	}
	return hex.EncodeToString(b)
}

// instrument добавляет ID запроса и пишет в лог каждый ответ и каждую сетевую ошибку.
func instrument(client *resty.Client, log *logger.Entry) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if req.Header.Get(RequestIDHeader) == "" {
			req.SetHeader(RequestIDHeader, generateRequestID())
		}
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		log.WithFields(logger.Fields{
			"method":     res.Request.Method,
			"status":     res.StatusCode(),
			"duration":   res.Time().String(),
			"request_id": res.Request.Header.Get(RequestIDHeader),
		}).Debug("Fact API responded")
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		log.WithFields(logger.Fields{
			"method":     req.Method,
			"request_id": req.Header.Get(RequestIDHeader),
		}).Debugf("Fact API request failed: %v", err)
	})
}
