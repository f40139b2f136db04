// Command devclient runs a scripted smoke test against a running
// keyportal server: health check, then add, fetch and remove a key.
// Intended for development mode; the server logs a seeded token and
// client credentials at startup to pass via the flags below.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const testKey = "ssh-rsa AAAAB3NzaC1yc2EAAAADAQABAAABgQc= devclient@localhost"

func main() {
	var (
		base         = flag.String("url", "http://localhost:8443", "server base URL")
		token        = flag.String("token", "", "access token to present")
		clientID     = flag.String("client-id", "", "client id for authenticated actions")
		clientSecret = flag.String("client-secret", "", "client secret for authenticated actions")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := &client{
		base:         strings.TrimRight(*base, "/"),
		token:        *token,
		clientID:     *clientID,
		clientSecret: *clientSecret,
		http:         &http.Client{Timeout: 5 * time.Second},
	}

	if err := c.health(ctx); err != nil {
		logger.Error("health check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("health check successful")

	added, err := c.do(ctx, url.Values{"action": {"add"}, "pubkey": {testKey}})
	if err != nil {
		logger.Error("add failed", "error", err)
		os.Exit(1)
	}
	if len(added.Keys) != 1 {
		logger.Error("add returned unexpected payload", "keys", len(added.Keys))
		os.Exit(1)
	}
	label := added.Keys[0].Label
	logger.Info("add successful", "label", label, "username", added.Keys[0].Username)

	got, err := c.do(ctx, url.Values{"action": {"get"}, "label": {label}})
	if err != nil || len(got.Keys) != 1 {
		logger.Error("get failed", "error", err)
		os.Exit(1)
	}
	logger.Info("get successful", "label", got.Keys[0].Label, "pub_key", got.Keys[0].PublicKey)

	if _, err := c.do(ctx, url.Values{"action": {"remove"}, "label": {label}}); err != nil {
		logger.Error("remove failed", "error", err)
		os.Exit(1)
	}
	logger.Info("remove successful", "label", label)
}

type client struct {
	base         string
	token        string
	clientID     string
	clientSecret string
	http         *http.Client
}

type keyRecord struct {
	Label     string `json:"label"`
	Username  string `json:"username"`
	PublicKey string `json:"pub_key"`
}

type keysResponse struct {
	Keys []keyRecord `json:"ssh_keys"`
}

func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *client) do(ctx context.Context, form url.Values) (*keysResponse, error) {
	if c.clientID != "" {
		form.Set("client_id", c.clientID)
		form.Set("client_secret", c.clientSecret)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/sshkey", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("action %s: status %d: %s", form.Get("action"), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out keysResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("action %s: decode response: %w", form.Get("action"), err)
	}
	return &out, nil
}
