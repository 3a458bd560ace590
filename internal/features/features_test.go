package features

import "testing"

func TestExtract_PlainDomain(t *testing.T) {
	fs := Extract("paypal.com")
	if fs.Domain != "paypal.com" {
		t.Errorf("domain = %q, want %q", fs.Domain, "paypal.com")
	}
	if fs.HasIP || fs.HasHyphen || fs.HasAtSymbol || fs.HasPunycode || fs.ShortenedURL {
		t.Errorf("unexpected flags set: %+v", fs)
	}
	if fs.NumDots != 1 {
		t.Errorf("num_dots = %d, want 1", fs.NumDots)
	}
}

func TestExtract_URLHostPreferred(t *testing.T) {
	fs := Extract("https://Login.Example.com/path?q=1")
	if fs.Domain != "login.example.com" {
		t.Errorf("domain = %q, want host lowered", fs.Domain)
	}
}

func TestExtract_Flags(t *testing.T) {
	cases := []struct {
		name  string
		input string
		check func(fs FeatureSet) bool
	}{
		{"ip address", "http://192.168.10.5/login", func(fs FeatureSet) bool { return fs.HasIP }},
		{"hyphen", "secure-login.net", func(fs FeatureSet) bool { return fs.HasHyphen }},
		{"digits", "pay2pal.com", func(fs FeatureSet) bool { return fs.HasNumbersInDomain }},
		{"at symbol", "http://example.com/@evil", func(fs FeatureSet) bool { return fs.HasAtSymbol }},
		{"punycode", "http://xn--pypal-4ve.com", func(fs FeatureSet) bool { return fs.HasPunycode }},
		{"shortener", "https://bit.ly/3xyz", func(fs FeatureSet) bool { return fs.ShortenedURL }},
		{"redirect", "https://example.com//evil.com", func(fs FeatureSet) bool { return fs.RedirectPattern }},
		{"suspicious subdomain", "a.b.c.example.com", func(fs FeatureSet) bool { return fs.SuspiciousSubdomain }},
		{"long subdomain", "a.b.c.d.example.com", func(fs FeatureSet) bool { return fs.LongSubdomain }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := Extract(tc.input)
			if !tc.check(fs) {
				t.Errorf("Extract(%q) = %+v, expected flag not set", tc.input, fs)
			}
		})
	}
}

func TestExtract_SchemePrefixNotRedirect(t *testing.T) {
	// The "//" of the scheme itself must not count as a redirect pattern.
	fs := Extract("https://example.com")
	if fs.RedirectPattern {
		t.Error("scheme separator misread as redirect pattern")
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	fs := Extract("")
	if fs.Domain != "" {
		t.Errorf("domain = %q, want empty", fs.Domain)
	}
	if fs.HasIP || fs.HasHyphen || fs.HasNumbersInDomain || fs.HasAtSymbol ||
		fs.LongSubdomain || fs.HasPunycode || fs.RedirectPattern || fs.ShortenedURL ||
		fs.SuspiciousSubdomain {
		t.Errorf("empty input should produce zero flags: %+v", fs)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	a := Extract("http://paypal-secure.tk//redir")
	b := Extract("http://paypal-secure.tk//redir")
	if a != b {
		t.Errorf("Extract not deterministic: %+v vs %+v", a, b)
	}
}
