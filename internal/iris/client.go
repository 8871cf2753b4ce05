package iris

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// maxImageBytes bounds poster downloads relayed as image replies.
const maxImageBytes = 5 << 20

// Client calls the Iris HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var config Config
	if err := c.doRequest(ctx, http.MethodGet, "/config", nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.GetConfig(ctx)
	return err == nil
}

func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	err := c.doRequest(ctx, http.MethodPost, "/reply", ReplyRequest{Type: ReplyTypeText, Room: room, Data: message}, nil)
	if err != nil {
		c.logger.Error("Failed to send message", zap.String("room", room), zap.Error(err))
	}
	return err
}

func (c *Client) SendImage(ctx context.Context, room, imageBase64 string) error {
	err := c.doRequest(ctx, http.MethodPost, "/reply", ReplyRequest{Type: ReplyTypeImage, Room: room, Data: imageBase64}, nil)
	if err != nil {
		c.logger.Error("Failed to send image", zap.String("room", room), zap.Error(err))
	}
	return err
}

// SendImageURL downloads an image and relays it as an image reply.
func (c *Client) SendImageURL(ctx context.Context, room, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return errors.NewTransportError("failed to create image request", 0, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransportError("image download failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewTransportError(fmt.Sprintf("image download failed: %s", resp.Status), resp.StatusCode, nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return errors.NewTransportError("failed to read image", resp.StatusCode, err)
	}
	if len(data) > maxImageBytes {
		return errors.NewValidationError("image too large", "image_url", imageURL)
	}

	return c.SendImage(ctx, room, base64.StdEncoding.EncodeToString(data))
}

func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewAPIError("failed to marshal request", 400, map[string]any{"url": url}).WithCause(err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{"url": url}).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransportError("iris request failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.NewAPIError(fmt.Sprintf("Iris API error: %s", resp.Status), resp.StatusCode, map[string]any{
			"url":  url,
			"body": string(body),
		})
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return errors.NewAPIError("failed to decode response", 500, map[string]any{"url": url}).WithCause(err)
		}
	}
	return nil
}
