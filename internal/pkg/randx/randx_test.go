package randx

import (
	"strings"
	"testing"
)

func TestMessageID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := MessageID()
		if id == "" {
			t.Fatal("expected a non-empty message ID")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate message ID generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestImageObjectKey(t *testing.T) {
	key := ImageObjectKey(".PNG")

	if !strings.HasPrefix(key, ImageKeyPrefix) {
		t.Errorf("expected key to have prefix %q, got %q", ImageKeyPrefix, key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("expected a lowercased extension, got %q", key)
	}
	if !IsImageObjectKey(key) {
		t.Errorf("generated key %q failed its own validation", key)
	}
}

func TestIsImageObjectKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "valid key", key: "img/3f1d9a.png", want: true},
		{name: "bare prefix", key: "img/", want: false},
		{name: "empty key", key: "", want: false},
		{name: "wrong prefix", key: "uploads/3f1d9a.png", want: false},
		{name: "path traversal", key: "img/../secrets.txt", want: false},
		{name: "traversal inside name", key: "img/a..b.png", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsImageObjectKey(tc.key); got != tc.want {
				t.Errorf("IsImageObjectKey(%q) = %v, want %v", tc.key, got, tc.want)
			}
		})
	}
}
