package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// SearchResult is a web resource offered alongside an answer.
type SearchResult struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	SourceName string `json:"source_name"`
	SourceType string `json:"source_type"`
	IsTrusted  bool   `json:"is_trusted"`
}

type trustedSource struct {
	domain string
	name   string
	stype  string
}

// curated compliance authorities, checked in order
var trustedSources = []trustedSource{
	{"ico.org.uk", "UK ICO", "Regulatory Authority"},
	{"edpb.europa.eu", "EDPB", "EU Data Protection Board"},
	{"gdpr-info.eu", "GDPR Info", "Reference"},
	{"oag.ca.gov", "CA Attorney General", "Regulatory Authority"},
	{"nist.gov", "NIST", "Security Framework"},
	{"enisa.europa.eu", "ENISA", "Security Agency"},
	{"iapp.org", "IAPP", "Privacy Association"},
	{"eur-lex.europa.eu", "EUR-Lex", "Official Law"},
}

// sourceInfo classifies a URL against the curated source list.
func sourceInfo(url string) (name, stype string, trusted bool) {
	lower := strings.ToLower(url)
	for _, s := range trustedSources {
		if strings.Contains(lower, s.domain) {
			return s.name, s.stype, true
		}
	}
	return "Web Source", "General", false
}

// Client queries the Serper search API.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *log.Logger
}

func NewClient(apiKey string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.Writer(), "[WEBSEARCH] ", log.LstdFlags)
	}
	return &Client{
		apiKey:     apiKey,
		endpoint:   "https://google.serper.dev/search",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search runs a compliance-scoped web search, trusted sources first.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	payload, err := json.Marshal(map[string]interface{}{
		"q":   query + " GDPR compliance official",
		"num": maxResults,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search status %d", resp.StatusCode)
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("web search decode: %w", err)
	}

	var results []SearchResult
	for _, r := range parsed.Organic {
		name, stype, trusted := sourceInfo(r.Link)
		results = append(results, SearchResult{
			Title:      clip(r.Title, 80),
			URL:        r.Link,
			Snippet:    clip(r.Snippet, 250),
			SourceName: name,
			SourceType: stype,
			IsTrusted:  trusted,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].IsTrusted != results[j].IsTrusted {
			return results[i].IsTrusted
		}
		return results[i].Title < results[j].Title
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	c.logger.Printf("found %d web results", len(results))
	return results, nil
}

// FallbackResources returns curated links when live search is unavailable.
func FallbackResources(query string) []SearchResult {
	lower := strings.ToLower(query)
	var resources []SearchResult

	if strings.Contains(lower, "gdpr") || strings.Contains(lower, "data") || strings.Contains(lower, "privacy") {
		resources = append(resources,
			SearchResult{
				Title:      "ICO Guide to GDPR",
				URL:        "https://ico.org.uk/for-organisations/guide-to-data-protection/guide-to-the-general-data-protection-regulation-gdpr/",
				Snippet:    "Comprehensive guide from the UK's data protection authority covering all aspects of GDPR compliance.",
				SourceName: "UK ICO", SourceType: "Regulatory Authority", IsTrusted: true,
			},
			SearchResult{
				Title:      "EDPB Guidelines & Recommendations",
				URL:        "https://edpb.europa.eu/our-work-tools/general-guidance/guidelines-recommendations-best-practices_en",
				Snippet:    "Official guidance from the European Data Protection Board on GDPR interpretation.",
				SourceName: "EDPB", SourceType: "EU Data Protection Board", IsTrusted: true,
			},
			SearchResult{
				Title:      "GDPR.info - Full Regulation Text",
				URL:        "https://gdpr-info.eu/",
				Snippet:    "Complete GDPR text with article-by-article explanations and recitals.",
				SourceName: "GDPR Info", SourceType: "Reference", IsTrusted: true,
			},
		)
	}
	if strings.Contains(lower, "ccpa") || strings.Contains(lower, "california") || strings.Contains(lower, "consumer") {
		resources = append(resources, SearchResult{
			Title:      "California Attorney General - CCPA",
			URL:        "https://oag.ca.gov/privacy/ccpa",
			Snippet:    "Official CCPA regulations, FAQs, and enforcement information from the CA Attorney General.",
			SourceName: "CA Attorney General", SourceType: "Regulatory Authority", IsTrusted: true,
		})
	}
	if strings.Contains(lower, "security") || strings.Contains(lower, "encryption") || strings.Contains(lower, "technical") {
		resources = append(resources, SearchResult{
			Title:      "NIST Cybersecurity Framework",
			URL:        "https://www.nist.gov/cyberframework",
			Snippet:    "Industry-standard security framework for implementing appropriate technical measures.",
			SourceName: "NIST", SourceType: "Security Framework", IsTrusted: true,
		})
	}

	if len(resources) > 4 {
		resources = resources[:4]
	}
	return resources
}

// FormatResources renders a markdown resources section for an answer.
func FormatResources(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	trustedCount := 0
	for _, r := range results {
		if r.IsTrusted {
			trustedCount++
		}
	}

	var sb strings.Builder
	sb.WriteString("\n\n---\n\n")
	sb.WriteString("**Additional Resources**")
	if trustedCount > 0 {
		fmt.Fprintf(&sb, " (%d from official sources)", trustedCount)
	}
	sb.WriteString("\n\n")

	for _, r := range results {
		badge := ""
		if r.IsTrusted {
			badge = "[official] "
		}
		fmt.Fprintf(&sb, "**[%s](%s)**\n", r.Title, r.URL)
		fmt.Fprintf(&sb, "   %s*%s* - %s\n\n", badge, r.SourceName, r.Snippet)
	}

	sb.WriteString("---\n")
	sb.WriteString("*Tip: for definitive answers, always consult the official regulation text or your Data Protection Officer.*")
	return sb.String()
}

// phrases in an answer that suggest the local corpus fell short
var triggerPhrases = []string{
	"cannot find sufficient information",
	"not contain enough information",
	"no relevant context",
	"outside the scope",
	"require additional",
	"specialized guidance",
	"consult with",
}

// query topics where outside resources usually help
var complexTopics = []string{
	"ml ", "machine learning", "ai ", "artificial intelligence",
	"cloud", "cross-border", "international", "biometric",
}

// Enricher appends curated web resources to answers that need them. A nil
// client falls back to the curated list only.
type Enricher struct {
	client *Client
	logger *log.Logger
}

func NewEnricher(client *Client, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = log.New(log.Writer(), "[WEBSEARCH] ", log.LstdFlags)
	}
	return &Enricher{client: client, logger: logger}
}

// Enhance appends a resources section when the answer admits a gap, the
// topic is complex, or no local context was available.
func (e *Enricher) Enhance(ctx context.Context, answer, query string, hasLocalContext bool) string {
	lowerAnswer := strings.ToLower(answer)
	needsWeb := false
	for _, phrase := range triggerPhrases {
		if strings.Contains(lowerAnswer, phrase) {
			needsWeb = true
			break
		}
	}

	lowerQuery := strings.ToLower(query)
	isComplex := false
	for _, topic := range complexTopics {
		if strings.Contains(lowerQuery, topic) {
			isComplex = true
			break
		}
	}

	if !needsWeb && !isComplex && hasLocalContext {
		return answer
	}

	var results []SearchResult
	if e.client != nil {
		var err error
		results, err = e.client.Search(ctx, query, 3)
		if err != nil {
			e.logger.Printf("web search failed: %v, using fallback resources", err)
			results = FallbackResources(query)
		}
	} else {
		results = FallbackResources(query)
	}

	if section := FormatResources(results); section != "" {
		return answer + section
	}
	return answer
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
