package inspector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MessagePath is the daemon endpoint receiving page-size messages.
const MessagePath = "/v1/message"

// Sender posts page-size messages to the daemon. Delivery is fire and
// forget: there is no retry and the response body is discarded.
type Sender struct {
	Endpoint string
	Client   *http.Client
}

// NewSender returns a Sender for the daemon at baseURL.
func NewSender(baseURL string) *Sender {
	return &Sender{
		Endpoint: baseURL + MessagePath,
		Client:   &http.Client{Timeout: 2 * time.Second},
	}
}

// Send delivers one message. The error exists for callers that want to log
// it; nothing is retried.
func (s *Sender) Send(ctx context.Context, pageSize int64) error {
	body, err := json.Marshal(Message{PageSize: pageSize})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send message: daemon answered %s", resp.Status)
	}
	return nil
}
