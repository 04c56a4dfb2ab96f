package enrichment

import (
	"net/url"
	"strings"
)

const (
	SourceDirect   = "Direct"
	SourceSearch   = "Search"
	SourceSocial   = "Social"
	SourceAI       = "AI"
	SourceReferral = "Referral"
)

type sourceDomains struct {
	source  string
	domains []string
}

// RefererClassifier maps referrer URLs to traffic sources.
type RefererClassifier struct {
	categories []sourceDomains
}

// NewRefererClassifier returns a classifier with the built-in domain lists.
// Categories are checked in order; AI platforms come first because some of
// them live under search engine domains.
func NewRefererClassifier() *RefererClassifier {
	return &RefererClassifier{
		categories: []sourceDomains{
			{source: SourceAI, domains: []string{
				"chatgpt.com", "claude.ai", "gemini.google.com", "perplexity.ai", "copilot.microsoft.com",
			}},
			{source: SourceSearch, domains: []string{
				"google.com", "bing.com", "yahoo.com", "duckduckgo.com", "baidu.com", "yandex.ru", "ecosia.org",
			}},
			{source: SourceSocial, domains: []string{
				"facebook.com", "twitter.com", "t.co", "x.com", "instagram.com", "linkedin.com", "pinterest.com",
				"reddit.com", "tiktok.com", "youtube.com", "threads.net", "mastodon.social", "news.ycombinator.com",
			}},
		},
	}
}

// ClassifySource returns the traffic source of a referrer. An empty or
// unparsable referrer is a direct visit.
func (r *RefererClassifier) ClassifySource(referrer string) string {
	if referrer == "" {
		return SourceDirect
	}

	parsed, err := url.Parse(referrer)
	if err != nil || parsed.Hostname() == "" {
		return SourceDirect
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	for _, c := range r.categories {
		for _, d := range c.domains {
			if matchesDomain(host, d) {
				return c.source
			}
		}
	}
	return SourceReferral
}

// matchesDomain reports whether host is domain or one of its subdomains.
func matchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
