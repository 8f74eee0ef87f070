package websearch

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
)

func TestSourceInfoTrusted(t *testing.T) {
	name, stype, trusted := sourceInfo("https://ico.org.uk/for-organisations/guide")
	if !trusted || name != "UK ICO" || stype != "Regulatory Authority" {
		t.Errorf("got %s/%s trusted=%v", name, stype, trusted)
	}

	name, _, trusted = sourceInfo("https://example.com/blog")
	if trusted || name != "Web Source" {
		t.Errorf("unknown domain classified as %s trusted=%v", name, trusted)
	}
}

func TestFallbackResourcesByTopic(t *testing.T) {
	gdpr := FallbackResources("gdpr breach notification")
	if len(gdpr) == 0 {
		t.Fatal("expected gdpr fallback resources")
	}
	for _, r := range gdpr {
		if !r.IsTrusted {
			t.Errorf("fallback resource %s not trusted", r.URL)
		}
	}

	ccpa := FallbackResources("california consumer rights")
	found := false
	for _, r := range ccpa {
		if strings.Contains(r.URL, "oag.ca.gov") {
			found = true
		}
	}
	if !found {
		t.Error("ccpa query should surface the CA Attorney General resource")
	}

	if got := FallbackResources("unrelated topic"); len(got) != 0 {
		t.Errorf("unmatched query returned %d resources", len(got))
	}
}

func TestEnhancePassthroughWhenAnswerComplete(t *testing.T) {
	e := NewEnricher(nil, log.New(io.Discard, "", 0))
	answer := "Article 33 requires notification within 72 hours [1]."
	got := e.Enhance(context.Background(), answer, "breach deadline", true)
	if got != answer {
		t.Errorf("complete answer must pass through unchanged:\n%s", got)
	}
}

func TestEnhanceAppendsResourcesOnTrigger(t *testing.T) {
	e := NewEnricher(nil, log.New(io.Discard, "", 0))
	answer := "The provided context does not contain enough information to answer."
	got := e.Enhance(context.Background(), answer, "gdpr data transfers", true)
	if !strings.Contains(got, "Additional Resources") {
		t.Errorf("trigger phrase should append resources:\n%s", got)
	}
	if !strings.HasPrefix(got, answer) {
		t.Error("original answer must be preserved")
	}
}

func TestEnhanceComplexTopic(t *testing.T) {
	e := NewEnricher(nil, log.New(io.Discard, "", 0))
	got := e.Enhance(context.Background(), "Some answer.", "biometric data under gdpr", true)
	if !strings.Contains(got, "Additional Resources") {
		t.Error("complex topic should append resources")
	}
}

func TestFormatResourcesEmpty(t *testing.T) {
	if got := FormatResources(nil); got != "" {
		t.Errorf("no results should format to empty string, got %q", got)
	}
}
