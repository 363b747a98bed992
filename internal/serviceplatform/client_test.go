package serviceplatform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpostbud/postbud/internal/domain/model"
)

// newTestServer serves a stub token endpoint plus the given API handlers.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
	})
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(serverURL string) Config {
	return Config{
		BaseURL:      serverURL,
		TokenURL:     serverURL + "/oauth/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		SenderCVR:    "12345678",
		SenderLabel:  "Testkommune",
	}
}

func TestConfigValidate(t *testing.T) {
	valid := testConfig("https://example.test")
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing base url", mutate: func(c *Config) { c.BaseURL = "" }},
		{name: "missing token url", mutate: func(c *Config) { c.TokenURL = " " }},
		{name: "missing client id", mutate: func(c *Config) { c.ClientID = "" }},
		{name: "missing client secret", mutate: func(c *Config) { c.ClientSecret = "" }},
		{name: "missing sender cvr", mutate: func(c *Config) { c.SenderCVR = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestIsRegistered(t *testing.T) {
	var gotBody map[string]string
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/v1/registration/check": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"result":true}`))
		},
	})

	client, err := NewClient(context.Background(), testConfig(server.URL), nil)
	require.NoError(t, err)

	registered, err := client.IsRegistered(context.Background(), "0101011234", model.JobTypeDigitalPost)
	require.NoError(t, err)
	assert.True(t, registered)
	assert.Equal(t, map[string]string{
		"identifier": "0101011234",
		"service":    "digitalpost",
	}, gotBody)
}

func TestNewMessage(t *testing.T) {
	server := newTestServer(t, nil)

	client, err := NewClient(context.Background(), testConfig(server.URL), nil)
	require.NoError(t, err)

	files := []File{{Filename: "letter.pdf", Language: "DA", MIMEType: "application/pdf", Content: []byte("doc")}}
	msg := client.NewMessage("Aftalebrev", "0101011234", files)

	assert.NotEmpty(t, msg.MessageUUID)
	assert.Equal(t, "Aftalebrev", msg.Label)
	assert.Equal(t, Sender{CVR: "12345678", Label: "Testkommune"}, msg.Sender)
	assert.Equal(t, Recipient{CPR: "0101011234"}, msg.Recipient)
	assert.Equal(t, files, msg.Files)

	// Every envelope gets its own UUID.
	other := client.NewMessage("Aftalebrev", "0101011234", files)
	assert.NotEqual(t, msg.MessageUUID, other.MessageUUID)
}

func TestSend(t *testing.T) {
	var gotMsg Message
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/v1/messages": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotMsg))
			_, _ = w.Write([]byte(`{"transactionId":"txn-42"}`))
		},
	})

	client, err := NewClient(context.Background(), testConfig(server.URL), nil)
	require.NoError(t, err)

	msg := client.NewMessage("Aftalebrev", "0101011234", []File{{
		Filename: "letter.pdf",
		Language: "DA",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-fake"),
	}})

	txn, err := client.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "txn-42", txn)

	assert.Equal(t, msg.MessageUUID, gotMsg.MessageUUID)
	require.Len(t, gotMsg.Files, 1)
	assert.Equal(t, []byte("%PDF-fake"), gotMsg.Files[0].Content, "content survives base64 wire encoding")
}

func TestSendMissingTransactionID(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/v1/messages": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		},
	})

	client, err := NewClient(context.Background(), testConfig(server.URL), nil)
	require.NoError(t, err)

	_, err = client.Send(context.Background(), Message{})
	assert.ErrorContains(t, err, "no transaction id")
}

func TestErrorResponseCarriesTruncatedBody(t *testing.T) {
	longBody := strings.Repeat("x", 10_000)
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/v1/messages": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(longBody))
		},
	})

	client, err := NewClient(context.Background(), testConfig(server.URL), nil)
	require.NoError(t, err)

	_, err = client.Send(context.Background(), Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
	assert.Less(t, len(err.Error()), 5_000, "error body is capped")
}
