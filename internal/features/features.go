// Package features extracts the lexical feature set the phishing scorer
// consumes from one line of free text (a URL or an email snippet).
package features

import (
	"net/url"
	"regexp"
	"strings"
)

// FeatureSet is an immutable record of lexical signals extracted from one
// input. It is produced once per input and never mutated; the zero value
// (all flags false, empty domain) classifies as legitimate.
type FeatureSet struct {
	Domain              string `json:"domain"`
	HasIP               bool   `json:"has_ip"`
	HasHyphen           bool   `json:"has_hyphen"`
	HasNumbersInDomain  bool   `json:"has_numbers_in_domain"`
	HasAtSymbol         bool   `json:"has_at_symbol"`
	NumDots             int    `json:"num_dots"`
	LongSubdomain       bool   `json:"long_subdomain"`
	HasPunycode         bool   `json:"has_punycode"`
	RedirectPattern     bool   `json:"redirect_pattern"`
	ShortenedURL        bool   `json:"shortened_url"`
	SuspiciousSubdomain bool   `json:"suspicious_subdomain"`
}

var (
	ipv4Re     = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)
	digitRe    = regexp.MustCompile(`\d`)
	shorteners = []string{"bit.ly", "tinyurl", "t.co", "goo.gl"}
)

// Extract derives a FeatureSet from raw input text. It is pure and total:
// any input, including the empty string, produces a valid feature set.
func Extract(text string) FeatureSet {
	domain := text
	if u, err := url.Parse(text); err == nil && u.Host != "" {
		domain = u.Host
	}
	domain = strings.ToLower(domain)

	numDots := strings.Count(domain, ".")

	shortened := false
	for _, s := range shorteners {
		if strings.Contains(domain, s) {
			shortened = true
			break
		}
	}

	// A second "//" past the scheme is the classic open-redirect embed.
	redirect := false
	if len(text) > 8 {
		redirect = strings.Contains(text[8:], "//")
	}

	return FeatureSet{
		Domain:              domain,
		HasIP:               ipv4Re.MatchString(domain),
		HasHyphen:           strings.Contains(domain, "-"),
		HasNumbersInDomain:  digitRe.MatchString(domain),
		HasAtSymbol:         strings.Contains(text, "@"),
		NumDots:             numDots,
		LongSubdomain:       numDots > 3,
		HasPunycode:         strings.Contains(domain, "xn--"),
		RedirectPattern:     redirect,
		ShortenedURL:        shortened,
		SuspiciousSubdomain: numDots > 2,
	}
}
