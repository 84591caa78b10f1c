package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-redis/redis/v9"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/ruhidibadli/ucuzbot/internal/misc"
)

const maxResponseBytes = 2 * 1024 * 1024

// Client bundles the outbound side of the service: the shared HTTP
// client used by every store adapter plus the notification channels.
type Client struct {
	*http.Client
	Redis           *redis.Client
	Telegram        *tgbotapi.BotAPI
	UserAgent       string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	Logger          logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

func (c Client) newRequest(ctx context.Context, method string, url string, body io.Reader) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	c.setDefaultRequestHeader(r)
	return r, nil
}

func (c Client) setDefaultRequestHeader(r *http.Request) {
	ua := c.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0"
	}
	r.Header.Set("User-Agent", ua)
	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	r.Header.Set("Accept-Language", "az,en;q=0.9")
}

// doRead performs the request and reads the full (size-capped) body.
func (c Client) doRead(req *http.Request) (status int, body []byte, err error) {
	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "error doing request to: %s", req.URL)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.Logger.Errorf("Error closing response body on request to url: %s, err: %v", req.URL, cerr)
		}
	}()
	body, err = io.ReadAll(http.MaxBytesReader(nil, resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, errors.Wrapf(err, "error reading response body from: %s", req.URL)
	}
	return resp.StatusCode, body, nil
}

// getPage fetches a URL, retrying transient failures with the 2s/4s/8s
// schedule the stores tolerate.
func (c Client) getPage(ctx context.Context, url string) ([]byte, error) {
	return c.getPageAttempts(ctx, url, 3)
}

func (c Client) getPageOnce(ctx context.Context, url string) ([]byte, error) {
	return c.getPageAttempts(ctx, url, 1)
}

func (c Client) getPageAttempts(ctx context.Context, url string, attempts int) ([]byte, error) {
	var lastErr error
	wait := 2 * time.Second
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		req, err := c.newRequest(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "error creating request from URL: %s", url)
		}
		status, body, err := c.doRead(req)
		if err != nil {
			lastErr = err
			continue
		}
		if status != http.StatusOK {
			lastErr = errors.Errorf("unexpected status %d from %s, body:\n%s",
				status, url, misc.BytesLimit(body, 500))
			continue
		}
		return body, nil
	}
	return nil, lastErr
}

func (c Client) getJSON(ctx context.Context, url string, out any) error {
	body, err := c.getPage(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "error unmarshalling response from: %s, body:\n%s",
			url, misc.BytesLimit(body, 500))
	}
	return nil
}

// postJSON posts a JSON payload (GraphQL stores) and decodes the reply.
func (c Client) postJSON(ctx context.Context, url string, payload any, extraHeaders map[string]string, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "error marshalling request body for: %s", url)
	}

	var lastErr error
	wait := 2 * time.Second
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		req, err := c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
		if err != nil {
			return errors.Wrapf(err, "error creating request from URL: %s", url)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, v := range extraHeaders {
			req.Header.Set(k, v)
		}

		status, body, err := c.doRead(req)
		if err != nil {
			lastErr = err
			continue
		}
		if status != http.StatusOK {
			lastErr = errors.Errorf("unexpected status %d from %s, body:\n%s",
				status, url, misc.BytesLimit(body, 500))
			continue
		}
		if err := json.Unmarshal(body, out); err != nil {
			return errors.Wrapf(err, "error unmarshalling response from: %s, body:\n%s",
				url, misc.BytesLimit(body, 500))
		}
		return nil
	}
	return lastErr
}
