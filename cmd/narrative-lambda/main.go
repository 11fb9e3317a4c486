package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
)

// API Gateway gives up after 30s, so stay just under it by default.
const defaultUpstreamTimeout = 29 * time.Second

type config struct {
	upstreamBaseURL string
	upstreamTimeout time.Duration
}

func loadConfig() (config, error) {
	baseURL := strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL"))
	if baseURL == "" {
		return config{}, errors.New("UPSTREAM_BASE_URL is required")
	}

	timeout := defaultUpstreamTimeout
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	return config{
		upstreamBaseURL: strings.TrimRight(baseURL, "/"),
		upstreamTimeout: timeout,
	}, nil
}

func main() {
	_ = godotenv.Load()
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	client := &http.Client{Timeout: cfg.upstreamTimeout}
	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, cfg, client, evt)
	})
}

// allowedMethod reports whether path accepts method through the forwarder.
// The websocket route is not forwarded; API Gateway HTTP APIs cannot upgrade.
func allowedMethod(path, method string) (known bool, allowed bool) {
	switch path {
	case "/session":
		return true, method == http.MethodGet
	case "/session/events":
		return true, method == http.MethodPost
	default:
		return false, false
	}
}

func handle(ctx context.Context, cfg config, client *http.Client, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	path = strings.TrimRight(path, "/")

	if path == "/health" {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Body: "ok"}, nil
	}

	known, allowed := allowedMethod(path, method)
	if !known {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}
	if !allowed {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
	}

	var body io.Reader
	if method == http.MethodPost {
		raw, err := decodeBody(evt)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
		}
		body = bytes.NewReader(raw)
	}

	upstreamURL := cfg.upstreamBaseURL + path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		upstreamURL += "?" + qs
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.upstreamTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, upstreamURL, body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError}, nil
	}

	copyHeader(req.Header, evt.Headers, "content-type")
	copyHeader(req.Header, evt.Headers, "x-request-id")
	copyHeader(req.Header, evt.Headers, "origin")
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusGatewayTimeout, Body: "upstream timeout"}, nil
		}
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadGateway, Body: "upstream error"}, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	out := events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
		Headers:    map[string]string{},
	}
	for _, h := range []string{"Content-Type", "X-Request-ID", "X-Narrative-Error", "Retry-After", "Access-Control-Allow-Origin"} {
		if v := resp.Header.Get(h); v != "" {
			out.Headers[strings.ToLower(h)] = v
		}
	}
	return out, nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func copyHeader(dst http.Header, src map[string]string, header string) {
	if value := strings.TrimSpace(headerValue(src, header)); value != "" {
		dst.Set(header, value)
	}
}
