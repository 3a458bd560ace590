// Package phishing implements the brand impersonation, typosquatting, and
// additive feature scoring rules that classify a URL or email snippet.
package phishing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/socsentry-project/socsentry/internal/core"
	"github.com/socsentry-project/socsentry/internal/features"
)

const ModuleName = "phishing_scorer"

// DefaultTyposquatThreshold is the similarity ratio above which a non-exact
// brand match is treated as typosquatting. The value matches the original
// SOC ruleset and is overridable via config.
const DefaultTyposquatThreshold = 0.75

// DefaultBrands is the built-in brand reference list.
var DefaultBrands = []string{"paypal", "facebook", "instagram", "amazon", "microsoft", "google"}

// featureRule is one entry of the additive weight table. Table order defines
// reason order in the result.
type featureRule struct {
	key    string
	reason string
	weight int
}

// defaultRules is the canonical weight table. Earlier revisions of the
// ruleset disagreed on the bottom three weights (1 vs 2); 2 is canonical.
var defaultRules = []featureRule{
	{"has_ip", "IP address used instead of domain", 5},
	{"has_punycode", "Punycode detected", 5},
	{"has_at_symbol", "Contains '@' symbol", 3},
	{"shortened_url", "Shortened URL detected", 3},
	{"suspicious_subdomain", "Suspicious subdomain detected", 3},
	{"redirect_pattern", "Redirect pattern detected", 3},
	{"has_hyphen", "Hyphen used in domain", 2},
	{"has_numbers_in_domain", "Numbers used in domain", 2},
	{"long_subdomain", "Long subdomain detected", 2},
}

// Scorer classifies feature sets. It is stateless and safe to call from any
// goroutine.
type Scorer struct {
	brands    []string
	threshold float64
	rules     []featureRule
}

// NewScorer builds a scorer from config. Empty config fields fall back to
// the built-in brand list, threshold, and weight table.
func NewScorer(cfg core.PhishingConfig) *Scorer {
	brands := cfg.Brands
	if len(brands) == 0 {
		brands = DefaultBrands
	}
	lowered := make([]string, len(brands))
	for i, b := range brands {
		lowered[i] = strings.ToLower(b)
	}

	threshold := cfg.TyposquatThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultTyposquatThreshold
	}

	rules := make([]featureRule, len(defaultRules))
	copy(rules, defaultRules)
	for i := range rules {
		if w, ok := cfg.Weights[rules[i].key]; ok {
			rules[i].weight = w
		}
	}

	return &Scorer{brands: lowered, threshold: threshold, rules: rules}
}

// Classify scores a feature set. Deterministic and total: missing fields are
// simply absent flags, and an empty domain classifies as legitimate.
//
// Rules apply in strict priority order. Brand impersonation and typosquatting
// short-circuit because substring containment of a known brand (e.g.
// paypal-secure-login.net) dominates any additive signal.
func (s *Scorer) Classify(fs features.FeatureSet) core.DetectionResult {
	domain := strings.ToLower(fs.Domain)

	for _, brand := range s.brands {
		if strings.Contains(domain, brand) {
			if domain != brand+".com" && !strings.HasSuffix(domain, "."+brand+".com") {
				return core.DetectionResult{
					Status:   core.StatusPhishing,
					Reasons:  []string{fmt.Sprintf("Brand impersonation detected: %s", brand)},
					Severity: core.SeverityHigh,
				}
			}
		}
	}

	label := domain
	if i := strings.IndexByte(domain, '.'); i >= 0 {
		label = domain[:i]
	}
	for _, brand := range s.brands {
		if label != brand && similarityRatio(label, brand) > s.threshold {
			return core.DetectionResult{
				Status:   core.StatusPhishing,
				Reasons:  []string{fmt.Sprintf("Typosquatting detected (similar to %s)", brand)},
				Severity: core.SeverityHigh,
			}
		}
	}

	score := 0
	reasons := []string{}
	for _, rule := range s.rules {
		if flagSet(fs, rule.key) {
			score += rule.weight
			reasons = append(reasons, rule.reason)
		}
	}

	result := core.DetectionResult{Reasons: reasons, Score: score}
	switch {
	case score >= 6:
		result.Status = core.StatusPhishing
		result.Severity = core.SeverityHigh
	case score >= 3:
		result.Status = core.StatusSuspicious
		result.Severity = core.SeverityMedium
	case score >= 1:
		result.Status = core.StatusLowRisk
		result.Severity = core.SeverityLow
	default:
		result.Status = core.StatusLegitimate
		result.Severity = core.SeverityLow
	}
	return result
}

// ClassifyText extracts features from raw text and classifies them.
func (s *Scorer) ClassifyText(text string) core.DetectionResult {
	return s.Classify(features.Extract(text))
}

func flagSet(fs features.FeatureSet, key string) bool {
	switch key {
	case "has_ip":
		return fs.HasIP
	case "has_punycode":
		return fs.HasPunycode
	case "has_at_symbol":
		return fs.HasAtSymbol
	case "shortened_url":
		return fs.ShortenedURL
	case "suspicious_subdomain":
		return fs.SuspiciousSubdomain
	case "redirect_pattern":
		return fs.RedirectPattern
	case "has_hyphen":
		return fs.HasHyphen
	case "has_numbers_in_domain":
		return fs.HasNumbersInDomain
	case "long_subdomain":
		return fs.LongSubdomain
	default:
		return false
	}
}

// similarityRatio returns a normalized similarity in [0,1] based on edit
// distance: 1 - levenshtein(a,b)/max(len(a),len(b)). Identical strings score
// 1, fully dissimilar strings score 0.
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	matrix := make([][]int, la+1)
	for i := range matrix {
		matrix[i] = make([]int, lb+1)
		matrix[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				min(matrix[i][j-1]+1, matrix[i-1][j-1]+cost),
			)
		}
	}
	return matrix[la][lb]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ---------------------------------------------------------------------------
// Module wrapper — classifies URLs that appear inside ingested log lines
// ---------------------------------------------------------------------------

// Detector is the phishing module. On the live bus it watches raw log lines
// for embedded URLs and classifies them; the scorer itself is also used
// directly by the CLI for one-off classification.
type Detector struct {
	logger   zerolog.Logger
	pipeline *core.AlertPipeline
	scorer   *Scorer
	ctx      context.Context
	cancel   context.CancelFunc
}

var _ core.Module = (*Detector)(nil)

func New() *Detector { return &Detector{} }

func (d *Detector) Name() string { return ModuleName }
func (d *Detector) Description() string {
	return "Brand impersonation, typosquatting, and lexical risk scoring for URLs and email text"
}

func (d *Detector) Start(ctx context.Context, bus *core.EventBus, pipeline *core.AlertPipeline, cfg *core.Config) error {
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.pipeline = pipeline
	d.scorer = NewScorer(cfg.Phishing)
	d.logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("module", ModuleName).Logger()
	d.logger.Info().
		Int("brands", len(d.scorer.brands)).
		Float64("typosquat_threshold", d.scorer.threshold).
		Msg("phishing scorer started")
	return nil
}

func (d *Detector) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	return nil
}

// Scorer exposes the underlying scorer for direct classification.
func (d *Detector) Scorer() *Scorer { return d.scorer }

// HandleEvent scans the raw log line for an embedded URL and classifies it.
// Most auth log lines carry no URL and return immediately.
func (d *Detector) HandleEvent(event *core.AuthEvent) error {
	u := firstURL(event.Raw)
	if u == "" {
		return nil
	}

	result := d.scorer.ClassifyText(u)
	if result.Status != core.StatusPhishing && result.Status != core.StatusSuspicious {
		return nil
	}

	alert := core.NewAlert(core.AlertPhishing, event.SourceID, 1, result.Severity,
		fmt.Sprintf("%s URL in log line: %s (%s)", result.Status, u, strings.Join(result.Reasons, "; ")))
	alert.EventIDs = []string{event.ID}
	if d.pipeline != nil {
		d.pipeline.Process(alert)
	}
	return nil
}

// firstURL returns the first http(s) token in the line, or "".
func firstURL(line string) string {
	for _, field := range strings.Fields(line) {
		field = strings.Trim(field, `"'<>()[],;`)
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return field
		}
	}
	return ""
}
