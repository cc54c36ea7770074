package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/lokhin/coursechat/internal/errors"
	"github.com/lokhin/coursechat/internal/models"
)

// StreamChat opens a streaming chat request. The returned body yields the
// backend's chunked record stream; the caller owns it and must close it.
// Cancelling ctx aborts the request, which the reader observes as a failed
// read at the next boundary.
func (c *Client) StreamChat(ctx context.Context, chatReq models.ChatRequest) (io.ReadCloser, error) {
	if chatReq.UserRequest == "" {
		return nil, fmt.Errorf("user request cannot be empty")
	}
	if c.IsClosed() {
		return nil, apierrors.ErrClientClosed
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint(models.PathChatStream), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewTransportError(models.PathChatStream, err)
	}

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, apierrors.NewStatusError(resp.StatusCode, models.PathChatStream, string(errorBody))
	}

	return resp.Body, nil
}
