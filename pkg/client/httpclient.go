package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string
}

func NewHttpClient(baseURL string, timeout time.Duration, headers map[string]string) *HttpClient {
	return &HttpClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Headers: headers,
	}
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (c *HttpClient) GET(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// POSTJSON marshals body as JSON.
func (c *HttpClient) POSTJSON(ctx context.Context, path string, body any) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

// POSTForm sends an already url-encoded body.
func (c *HttpClient) POSTForm(ctx context.Context, path string, encoded string) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, bytes.NewBufferString(encoded), "application/x-www-form-urlencoded;charset=utf-8")
}

func (c *HttpClient) do(ctx context.Context, method, path string, reqBody io.Reader, contentType string) (*Response, error) {
	url := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}, nil
}

func GetErrorMessage(resp *Response) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Code    any    `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		return fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	if errResp.Message != "" {
		return errResp.Message
	}
	if errResp.Msg != "" {
		return errResp.Msg
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	if errResp.Code != nil {
		return fmt.Sprintf("%v", errResp.Code)
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}
