package core

import (
	"encoding/json"
	"testing"
	"time"
)

// ─── Severity ───────────────────────────────────────────────────────────────

func TestSeverity_String(t *testing.T) {
	cases := []struct {
		s    Severity
		want string
	}{
		{SeverityInfo, "INFO"},
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{SeverityCritical, "CRITICAL"},
		{Severity(99), "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := tc.s.String(); got != tc.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tc.s, got, tc.want)
		}
	}
}

func TestSeverity_Ordering(t *testing.T) {
	if !(SeverityInfo < SeverityLow) {
		t.Error("Info should be less than Low")
	}
	if !(SeverityLow < SeverityMedium) {
		t.Error("Low should be less than Medium")
	}
	if !(SeverityMedium < SeverityHigh) {
		t.Error("Medium should be less than High")
	}
	if !(SeverityHigh < SeverityCritical) {
		t.Error("High should be less than Critical")
	}
}

func TestSeverity_JSON_RoundTrip(t *testing.T) {
	cases := []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for _, sev := range cases {
		data, err := json.Marshal(sev)
		if err != nil {
			t.Fatalf("Marshal Severity %v: %v", sev, err)
		}
		var out Severity
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("Unmarshal Severity %v: %v", sev, err)
		}
		if out != sev {
			t.Errorf("round-trip Severity: got %v, want %v", out, sev)
		}
	}
}

func TestSeverity_UnmarshalJSON_Unknown(t *testing.T) {
	var s Severity
	if err := json.Unmarshal([]byte(`"BOGUS"`), &s); err != nil {
		t.Errorf("UnmarshalJSON with unknown string should not error, got: %v", err)
	}
	if s != SeverityInfo {
		t.Errorf("unknown severity should default to Info, got %v", s)
	}
}

// ─── AuthEvent ──────────────────────────────────────────────────────────────

func TestNewAuthEvent_Fields(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	ev := NewAuthEvent("192.168.1.10", true, false, at)

	if ev.ID == "" {
		t.Error("ID should not be empty")
	}
	if ev.SourceID != "192.168.1.10" {
		t.Errorf("SourceID = %q", ev.SourceID)
	}
	if !ev.FailedLogin || ev.SuccessfulLogin {
		t.Errorf("flags = failed %v success %v, want failed only", ev.FailedLogin, ev.SuccessfulLogin)
	}
	if !ev.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", ev.Timestamp, at)
	}
}

func TestNewAuthEvent_UniqueIDs(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ev := NewAuthEvent("1.2.3.4", true, false, time.Now())
		if ids[ev.ID] {
			t.Errorf("duplicate ID generated: %s", ev.ID)
		}
		ids[ev.ID] = true
	}
}

func TestAuthEvent_Actionable(t *testing.T) {
	cases := []struct {
		name string
		ev   AuthEvent
		want bool
	}{
		{"failed login", AuthEvent{SourceID: "1.2.3.4", FailedLogin: true}, true},
		{"successful login", AuthEvent{SourceID: "1.2.3.4", SuccessfulLogin: true}, true},
		{"no source", AuthEvent{FailedLogin: true}, false},
		{"no outcome", AuthEvent{SourceID: "1.2.3.4"}, false},
		{"admin only", AuthEvent{SourceID: "1.2.3.4", AdminActivity: true}, false},
	}
	for _, tc := range cases {
		if got := tc.ev.Actionable(); got != tc.want {
			t.Errorf("%s: Actionable() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAuthEvent_Marshal_Unmarshal(t *testing.T) {
	ev := NewAuthEvent("10.0.0.1", false, true, time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC))
	ev.AdminActivity = true
	ev.Raw = "accepted password for admin from 10.0.0.1"

	data, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	out, err := UnmarshalAuthEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalAuthEvent() error: %v", err)
	}

	if out.ID != ev.ID {
		t.Errorf("ID: %q != %q", out.ID, ev.ID)
	}
	if out.SourceID != ev.SourceID {
		t.Errorf("SourceID: %q != %q", out.SourceID, ev.SourceID)
	}
	if !out.SuccessfulLogin || out.FailedLogin {
		t.Errorf("flags not preserved: %+v", out)
	}
	if !out.AdminActivity {
		t.Error("AdminActivity not preserved")
	}
	if out.Raw != ev.Raw {
		t.Errorf("Raw: %q != %q", out.Raw, ev.Raw)
	}
	if !out.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("Timestamp: %v != %v", out.Timestamp, ev.Timestamp)
	}
}

func TestUnmarshalAuthEvent_Invalid(t *testing.T) {
	if _, err := UnmarshalAuthEvent([]byte("not-json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
