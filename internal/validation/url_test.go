package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestNewFeedURLValidator(t *testing.T) {
	v := NewFeedURLValidator()
	if v == nil {
		t.Fatal("NewFeedURLValidator returned nil")
	}

	if v.AllowLocalhost {
		t.Error("Expected AllowLocalhost to be false for security")
	}
	if v.AllowPrivateIPs {
		t.Error("Expected AllowPrivateIPs to be false for security")
	}
	if v.MaxLength != 2048 {
		t.Errorf("Expected MaxLength to be 2048, got %d", v.MaxLength)
	}
}

func TestNewPermissiveFeedURLValidator(t *testing.T) {
	v := NewPermissiveFeedURLValidator()
	if !v.AllowLocalhost {
		t.Error("Expected AllowLocalhost to be true for permissive mode")
	}
	if !v.AllowPrivateIPs {
		t.Error("Expected AllowPrivateIPs to be true for permissive mode")
	}
}

func TestValidateAndNormalize(t *testing.T) {
	v := NewFeedURLValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
		errorMsg    string
	}{
		{name: "empty URL", input: "", shouldError: true, errorMsg: "URL cannot be empty"},
		{name: "whitespace-only URL", input: "   ", shouldError: true, errorMsg: "URL cannot be empty"},
		{name: "letterboxd watchlist", input: "https://letterboxd.com/someone/rss/", expected: "https://letterboxd.com/someone/rss/"},
		{name: "scheme added", input: "letterboxd.com/someone/rss/", expected: "https://letterboxd.com/someone/rss/"},
		{name: "host lowercased and fragment dropped", input: "https://Letterboxd.COM/someone/rss/#top", expected: "https://letterboxd.com/someone/rss/"},
		{name: "http kept", input: "http://feeds.example.org/watchlist.xml", expected: "http://feeds.example.org/watchlist.xml"},
		{name: "query kept", input: "https://feeds.example.org/w?user=1", expected: "https://feeds.example.org/w?user=1"},
		{name: "ftp rejected", input: "ftp://feeds.example.org/w.xml", shouldError: true, errorMsg: "http or https"},
		{name: "javascript rejected", input: "javascript://alert(1)", shouldError: true},
		{name: "invalid characters", input: "https://example.org/<script>", shouldError: true, errorMsg: "invalid characters"},
		{name: "embedded space", input: "https://example.org/a b", shouldError: true, errorMsg: "invalid characters"},
		{name: "credentials", input: "https://user:pw@example.org/rss", shouldError: true, errorMsg: "credentials"},
		{name: "traversal", input: "https://example.org/../etc/passwd", shouldError: true, errorMsg: "directory traversal"},
		{name: "localhost", input: "http://localhost:8080/rss", shouldError: true, errorMsg: "localhost"},
		{name: "loopback v4", input: "http://127.0.0.1/rss", shouldError: true, errorMsg: "localhost"},
		{name: "loopback v6", input: "http://[::1]/rss", shouldError: true, errorMsg: "localhost"},
		{name: "private v4", input: "http://192.168.1.10/rss", shouldError: true, errorMsg: "private"},
		{name: "link-local", input: "http://169.254.169.254/latest", shouldError: true, errorMsg: "private"},
		{name: "unique local v6", input: "http://[fd00::1]/rss", shouldError: true, errorMsg: "private"},
		{name: "mapped private", input: "http://[::ffff:10.0.0.1]/rss", shouldError: true, errorMsg: "private"},
		{name: "unspecified", input: "http://0.0.0.0/rss", shouldError: true, errorMsg: "private"},
		{name: "bogus dotted host", input: "http://999.1.1.1/rss", shouldError: true, errorMsg: "invalid host"},
		{name: "public ip", input: "http://93.184.216.34/rss", expected: "http://93.184.216.34/rss"},
		{name: "missing host", input: "https:///rss", shouldError: true, errorMsg: "hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateAndNormalize(tt.input)

			if tt.shouldError {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, result)
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ValidateAndNormalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidateAndNormalizePermissive(t *testing.T) {
	v := NewPermissiveFeedURLValidator()

	for _, input := range []string{
		"http://localhost:8080/rss",
		"http://127.0.0.1:54321/feed.xml",
		"http://192.168.1.10/rss",
		"http://[::1]:9000/rss",
	} {
		if _, err := v.ValidateAndNormalize(input); err != nil {
			t.Errorf("permissive validator rejected %q: %v", input, err)
		}
	}
}

func TestValidateSentinelErrors(t *testing.T) {
	v := NewFeedURLValidator()

	if _, err := v.ValidateAndNormalize(""); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
	if _, err := v.ValidateAndNormalize("http://app.localhost/rss"); !errors.Is(err, ErrLocalhost) {
		t.Errorf("expected ErrLocalhost, got %v", err)
	}
	if _, err := v.ValidateAndNormalize("http://10.1.2.3/rss"); !errors.Is(err, ErrPrivateAddress) {
		t.Errorf("expected ErrPrivateAddress, got %v", err)
	}
	if _, err := v.ValidateAndNormalize("http://255.255.255.255/"); !errors.Is(err, ErrPrivateAddress) {
		t.Errorf("expected ErrPrivateAddress for broadcast, got %v", err)
	}
}

func TestMaxLength(t *testing.T) {
	v := &FeedURLValidator{MaxLength: 30}
	_, err := v.ValidateAndNormalize("https://letterboxd.com/" + strings.Repeat("a", 30))
	if err == nil || !strings.Contains(err.Error(), "too long") {
		t.Errorf("expected length error, got %v", err)
	}
}
