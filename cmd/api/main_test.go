package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/miz-art/Micro-narrativesxHarms-June25/internal/config"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, m := setupMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveEvent(narrative.EventUserAnswered, "ok")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "narrative_session_events_total") {
		t.Fatalf("expected session event counter to be exported")
	}
}

func TestNeedsAWS(t *testing.T) {
	tests := []struct {
		name string
		cfg  appconfig.Config
		want bool
	}{
		{"local openai", appconfig.Config{LLMProvider: "openai"}, false},
		{"bedrock", appconfig.Config{LLMProvider: "bedrock"}, true},
		{"bedrock fallback", appconfig.Config{LLMProvider: "openai", LLMFallbackProvider: "bedrock"}, true},
		{"dynamo", appconfig.Config{LLMProvider: "openai", PackageTable: "packages"}, true},
		{"s3", appconfig.Config{LLMProvider: "openai", ArchiveBucket: "archive"}, true},
		{"sqs", appconfig.Config{LLMProvider: "openai", PackageQueueURL: "https://sqs"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if got := needsAWS(&cfg); got != tt.want {
				t.Fatalf("needsAWS() = %v, want %v", got, tt.want)
			}
		})
	}
}
