package config

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// EsiClient is the shared client for EVE's ESI API. Auth uses a pre-issued
// bearer token (ESI_TOKEN) for the SRP mailbox character; the interactive
// SSO flow is handled outside this service.
type EsiClient struct {
	BaseURL     string
	UserAgent   string
	Token       string
	CharacterId int
	HTTP        *http.Client
}

var (
	esiClient   *EsiClient
	esiClientMu sync.Mutex
)

func init() {
	godotenv.Load()
}

// GetEsiClient returns the lazily-initialized ESI client.
// It never blocks on the network; callers see errors per request.
func GetEsiClient() (*EsiClient, error) {
	esiClientMu.Lock()
	defer esiClientMu.Unlock()
	if esiClient != nil {
		return esiClient, nil
	}

	baseURL := os.Getenv("ESI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://esi.evetech.net/latest"
	}
	agent := os.Getenv("ESI_USER_AGENT")
	if agent == "" {
		agent = "bombersbar-backend"
	}
	token := os.Getenv("ESI_TOKEN")
	charId, _ := strconv.Atoi(os.Getenv("ESI_MAILBOX_CHARACTER_ID"))
	if charId <= 0 {
		return nil, errors.New("ESI_MAILBOX_CHARACTER_ID not set")
	}

	timeout := time.Duration(intFromEnv("ESI_TIMEOUT_SECONDS", 20)) * time.Second
	esiClient = &EsiClient{
		BaseURL:     baseURL,
		UserAgent:   agent,
		Token:       token,
		CharacterId: charId,
		HTTP:        &http.Client{Timeout: timeout},
	}
	return esiClient, nil
}

// Do issues the request with the standard ESI headers attached.
func (c *EsiClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTP.Do(req)
}
