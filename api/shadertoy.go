// Package api fetches shader sources from the Shadertoy API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	DefaultBaseURL = "https://www.shadertoy.com/api/v1"
	userAgent      = "postfx (+https://github.com/richinsley/postfx)"
)

// ErrNoKey is returned when no API key is configured.
var ErrNoKey = errors.New("shadertoy API key not set, see https://www.shadertoy.com/howto#q2")

type ShadertoyResponse struct {
	Shader *Shader `json:"Shader"`
	Error  string  `json:"Error,omitempty"`
}

type Shader struct {
	Info       ShaderInfo   `json:"info"`
	RenderPass []RenderPass `json:"renderpass"`
}

type ShaderInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type RenderPass struct {
	Inputs []Input `json:"inputs"`
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
}

type Input struct {
	Channel int    `json:"channel"`
	CType   string `json:"ctype"`
	Src     string `json:"src"`
}

// Pass returns the first render pass of the given type ("image",
// "common", "buffer", ...).
func (s *Shader) Pass(passType string) (*RenderPass, bool) {
	for i := range s.RenderPass {
		if s.RenderPass[i].Type == passType {
			return &s.RenderPass[i], true
		}
	}
	return nil, false
}

// Client talks to the Shadertoy API.
type Client struct {
	BaseURL string
	Key     string
	HTTP    *http.Client
}

// NewClient returns a client for key. The base URL is DefaultBaseURL.
func NewClient(key string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		Key:     key,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// KeyFromEnv reads SHADERTOY_KEY.
func KeyFromEnv() (string, error) {
	key := os.Getenv("SHADERTOY_KEY")
	if key == "" {
		return "", ErrNoKey
	}
	return key, nil
}

// FetchShader downloads the shader with the given ID.
func (c *Client) FetchShader(ctx context.Context, id string) (*Shader, error) {
	if c.Key == "" {
		return nil, ErrNoKey
	}
	u := fmt.Sprintf("%s/shaders/%s?key=%s", c.BaseURL, url.PathEscape(id), url.QueryEscape(c.Key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shader %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch shader %s: status %s", id, resp.Status)
	}

	var out ShadertoyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode shader %s: %w", id, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("shadertoy: %s", out.Error)
	}
	if out.Shader == nil {
		return nil, fmt.Errorf("shadertoy: shader %s missing from response", id)
	}
	return out.Shader, nil
}

// ImageCode returns the image pass and common code of the shader. Shaders
// using buffers or input channels are rejected; only single-pass shaders are
// supported as scenes.
func ImageCode(s *Shader) (image, common string, err error) {
	pass, ok := s.Pass("image")
	if !ok {
		return "", "", fmt.Errorf("shader %s has no image pass", s.Info.ID)
	}
	for _, p := range s.RenderPass {
		if p.Type == "buffer" || p.Type == "cubemap" || p.Type == "sound" {
			return "", "", fmt.Errorf("shader %s: %s passes are not supported", s.Info.ID, p.Type)
		}
	}
	if len(pass.Inputs) > 0 {
		return "", "", fmt.Errorf("shader %s: image pass reads %d input channels, none are supported", s.Info.ID, len(pass.Inputs))
	}
	if c, ok := s.Pass("common"); ok {
		common = c.Code
	}
	return pass.Code, common, nil
}
