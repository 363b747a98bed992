// Package serviceplatform is the boundary client for the external
// registration-lookup and Digital Post delivery APIs. Both services sit
// behind one OAuth2 client-credentials token endpoint; their internals are
// opaque to the workers.
package serviceplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/openpostbud/postbud/internal/domain/model"
)

const maxErrorBodyBytes = 4 * 1024 // cap stored API error bodies

// Config describes how to reach and authenticate against the service platform.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string

	// SenderCVR and SenderLabel identify the sending authority on every letter.
	SenderCVR   string
	SenderLabel string

	// Timeout bounds each API call.
	Timeout time.Duration
}

// Validate checks that the config can produce a working client.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return errors.New("service platform base url is required")
	case strings.TrimSpace(c.TokenURL) == "":
		return errors.New("service platform token url is required")
	case strings.TrimSpace(c.ClientID) == "":
		return errors.New("service platform client id is required")
	case strings.TrimSpace(c.ClientSecret) == "":
		return errors.New("service platform client secret is required")
	case strings.TrimSpace(c.SenderCVR) == "":
		return errors.New("sender cvr is required")
	}
	return nil
}

// Sender identifies the sending authority.
type Sender struct {
	CVR   string `json:"cvr"`
	Label string `json:"label,omitempty"`
}

// Recipient identifies the receiving person.
type Recipient struct {
	CPR string `json:"cpr"`
}

// File is one attachment in a delivery envelope. Content is base64-encoded
// on the wire by encoding/json.
type File struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
	MIMEType string `json:"mimeType"`
	Content  []byte `json:"content"`
}

// Message is the delivery envelope sent to the Digital Post API.
type Message struct {
	MessageUUID string    `json:"messageUUID"`
	Label       string    `json:"label"`
	Sender      Sender    `json:"sender"`
	Recipient   Recipient `json:"recipient"`
	Files       []File    `json:"files"`
}

// Client calls the service platform APIs with client-credentials auth.
type Client struct {
	http    *http.Client
	baseURL string
	sender  Sender
	logger  *slog.Logger
}

// NewClient constructs a Client whose HTTP client transparently fetches and
// refreshes OAuth2 tokens from the configured token endpoint.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	httpClient := creds.Client(ctx)
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	} else {
		httpClient.Timeout = 30 * time.Second
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		sender:  Sender{CVR: cfg.SenderCVR, Label: cfg.SenderLabel},
		logger:  logger,
	}, nil
}

// NewMessage builds a delivery envelope for one recipient with a fresh
// message UUID and this client's sender identity.
func (c *Client) NewMessage(label, recipientCPR string, files []File) Message {
	return Message{
		MessageUUID: uuid.NewString(),
		Label:       label,
		Sender:      c.sender,
		Recipient:   Recipient{CPR: recipientCPR},
		Files:       files,
	}
}

// IsRegistered asks the lookup API whether a registrant is registered for the
// given service (the job-type string, e.g. "digitalpost" or "nemsms").
func (c *Client) IsRegistered(ctx context.Context, registrantID string, service model.JobType) (bool, error) {
	reqBody := struct {
		Identifier string `json:"identifier"`
		Service    string `json:"service"`
	}{Identifier: registrantID, Service: string(service)}

	var respBody struct {
		Result bool `json:"result"`
	}
	if err := c.postJSON(ctx, "/v1/registration/check", reqBody, &respBody); err != nil {
		return false, fmt.Errorf("registration lookup: %w", err)
	}
	return respBody.Result, nil
}

// Send delivers a message and returns the platform's transaction identifier.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	var respBody struct {
		TransactionID string `json:"transactionId"`
	}
	if err := c.postJSON(ctx, "/v1/messages", msg, &respBody); err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	if respBody.TransactionID == "" {
		return "", errors.New("send message: delivery API returned no transaction id")
	}
	return respBody.TransactionID, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
