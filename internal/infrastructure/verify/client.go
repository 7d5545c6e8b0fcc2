package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-auth-stepup/internal/config"
)

// Client talks to the Nexmo/Vonage Verify JSON API. The provider sends the
// code and checks it server-side; we only ever see the request id.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	brand      string
	codeLength int
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: http.DefaultClient,
		baseURL:    strings.TrimSuffix(cfg.VerifyBaseURL, "/"),
		apiKey:     cfg.VerifyAPIKey,
		apiSecret:  cfg.VerifyAPISecret,
		brand:      cfg.VerifyBrand,
		codeLength: cfg.VerifyCodeLength,
	}
}

func (c *Client) RequestCode(ctx context.Context, number string) (*RequestResult, error) {
	form := url.Values{
		"api_key":     {c.apiKey},
		"api_secret":  {c.apiSecret},
		"number":      {number},
		"brand":       {c.brand},
		"code_length": {strconv.Itoa(c.codeLength)},
	}
	var res RequestResult
	if err := c.postForm(ctx, "/verify/json", form, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CheckCode(ctx context.Context, requestID, code string) (*CheckResult, error) {
	form := url.Values{
		"api_key":    {c.apiKey},
		"api_secret": {c.apiSecret},
		"request_id": {requestID},
		"code":       {code},
	}
	var res CheckResult
	if err := c.postForm(ctx, "/verify/check/json", form, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("verify gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("verify gateway: unexpected HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode verify response: %w", err)
	}
	return nil
}
