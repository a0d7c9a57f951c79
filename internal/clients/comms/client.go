package comms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/utils"
)

// Client sends transactional email through the communications service.
// Sends are best-effort: the caller's operation never depends on delivery.
type Client interface {
	SendEmail(ctx context.Context, msg EmailMessage)
}

type EmailMessage struct {
	To       string                 `json:"to"`
	Template string                 `json:"template"`
	Subject  string                 `json:"subject,omitempty"`
	Data     map[string]interface{} `json:"data"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type sendPayload struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	EmailMessage
}

type client struct {
	log        *logger.Logger
	baseURL    string
	sendPath   string
	apiSecret  string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) Client {
	serviceLog := log.With("service", "CommunicationsClient")
	return &client{
		log:        serviceLog,
		baseURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("COMMUNICATIONS_BASE_URL")), "/"),
		sendPath:   utils.GetEnv("COMMUNICATIONS_SEND_PATH", "/send", nil),
		apiSecret:  strings.TrimSpace(os.Getenv("COMMUNICATIONS_API_SECRET")),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) SendEmail(ctx context.Context, msg EmailMessage) {
	if c.baseURL == "" {
		return
	}
	if c.apiSecret == "" {
		c.log.Warn("COMMUNICATIONS_API_SECRET not set, skipping send")
		return
	}

	payload := sendPayload{
		ID:           utils.NewID("send"),
		Channel:      "email",
		EmailMessage: msg,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.Warn("Communications payload marshal failed", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.sendPath, bytes.NewReader(raw))
	if err != nil {
		c.log.Warn("Communications request build failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-communications-secret", c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Communications send failed", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		c.log.Warn("Communications send rejected", "error", fmt.Errorf("http %d", resp.StatusCode))
	}
}
