package domain_test

import (
	"testing"

	"github.com/meridianhealth/account-security-service/internal/domain"
)

func TestDeviceFingerprint(t *testing.T) {
	t.Parallel()

	fp := domain.DeviceFingerprint("203.0.113.10", "Mozilla/5.0")
	if len(fp) != 16 {
		t.Fatalf("fingerprint length = %d, want 16", len(fp))
	}
	for _, r := range fp {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("fingerprint %q is not lowercase hex", fp)
		}
	}

	if again := domain.DeviceFingerprint("203.0.113.10", "Mozilla/5.0"); again != fp {
		t.Fatalf("fingerprint not deterministic: %q vs %q", fp, again)
	}
	if other := domain.DeviceFingerprint("203.0.113.11", "Mozilla/5.0"); other == fp {
		t.Fatalf("different ip produced identical fingerprint")
	}
	if other := domain.DeviceFingerprint("203.0.113.10", "curl/8.0"); other == fp {
		t.Fatalf("different user agent produced identical fingerprint")
	}
}

func TestParseUserAgent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		userAgent  string
		deviceType string
		browser    string
		os         string
	}{
		{
			name:       "chrome on windows",
			userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			deviceType: "desktop",
			browser:    "Chrome",
			os:         "Windows",
		},
		{
			name:       "edge identified before chrome",
			userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			deviceType: "desktop",
			browser:    "Edge",
			os:         "Windows",
		},
		{
			name:       "safari on iphone",
			userAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			deviceType: "mobile",
			browser:    "Safari",
			os:         "iOS",
		},
		{
			name:       "ipad is a tablet",
			userAgent:  "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/604.1",
			deviceType: "tablet",
			browser:    "Safari",
			os:         "iOS",
		},
		{
			name:       "chrome on android phone",
			userAgent:  "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			deviceType: "mobile",
			browser:    "Chrome",
			os:         "Android",
		},
		{
			name:       "firefox on linux",
			userAgent:  "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			deviceType: "desktop",
			browser:    "Firefox",
			os:         "Linux",
		},
		{
			name:       "unknown agent",
			userAgent:  "totally-custom-client/1.0",
			deviceType: "desktop",
			browser:    "Unknown",
			os:         "Unknown",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			info := domain.ParseUserAgent(tc.userAgent)
			if info.DeviceType != tc.deviceType {
				t.Fatalf("DeviceType = %q, want %q", info.DeviceType, tc.deviceType)
			}
			if info.Browser != tc.browser {
				t.Fatalf("Browser = %q, want %q", info.Browser, tc.browser)
			}
			if info.OS != tc.os {
				t.Fatalf("OS = %q, want %q", info.OS, tc.os)
			}
		})
	}
}
