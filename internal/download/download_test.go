package download

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framegrab/internal/media"
)

func TestFormatFor(t *testing.T) {
	y := NewYtdlp(t.TempDir(), "720")

	tests := []struct {
		platform media.Platform
		want     string
	}{
		{media.YouTube, "best[height<=720]/best"},
		{media.Facebook, "best[height<=720]/best"},
		{media.Instagram, "best[height<=720]/mp4/best"},
		{media.TikTok, "best/h264_540p/bytevc1_540p/download"},
		{media.Douyin, "best/mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.platform.String(), func(t *testing.T) {
			if got := y.formatFor(tt.platform); got != tt.want {
				t.Errorf("formatFor(%s) = %q, want %q", tt.platform, got, tt.want)
			}
		})
	}
}

func TestFormatForRespectsQuality(t *testing.T) {
	y := NewYtdlp(t.TempDir(), "1080")
	if got := y.formatFor(media.YouTube); !strings.Contains(got, "height<=1080") {
		t.Errorf("formatFor(youtube) = %q, want 1080 ceiling", got)
	}
}

func TestFormatForBestQuality(t *testing.T) {
	// "best" is a valid config value and must never land inside a
	// height<= filter, which only accepts numbers.
	y := NewYtdlp(t.TempDir(), "best")

	tests := []struct {
		platform media.Platform
		want     string
	}{
		{media.YouTube, "best"},
		{media.Facebook, "best"},
		{media.Instagram, "best/mp4"},
		{media.TikTok, "best/h264_540p/bytevc1_540p/download"},
		{media.Douyin, "best/mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.platform.String(), func(t *testing.T) {
			got := y.formatFor(tt.platform)
			if got != tt.want {
				t.Errorf("formatFor(%s) = %q, want %q", tt.platform, got, tt.want)
			}
			if strings.Contains(got, "height<=best") {
				t.Errorf("formatFor(%s) = %q interpolates a non-numeric height", tt.platform, got)
			}
		})
	}

	mixed := NewYtdlp(t.TempDir(), "Best")
	if got := mixed.formatFor(media.YouTube); got != "best" {
		t.Errorf("formatFor(youtube) with quality=Best = %q, want best", got)
	}
}

func TestFindByMarker(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"Some_Title_ab12cd34.mp4",
		"Other_Title_ffffffff.webm",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	path, err := findByMarker(dir, "ab12cd34")
	if err != nil {
		t.Fatalf("findByMarker error: %v", err)
	}
	if filepath.Base(path) != "Some_Title_ab12cd34.mp4" {
		t.Errorf("got %q", path)
	}

	if _, err := findByMarker(dir, "deadbeef"); err == nil {
		t.Error("expected error for unknown marker")
	}
}

func TestFetchErrorMessage(t *testing.T) {
	e := &FetchError{Status: 403, Message: "Sign in to confirm your age"}
	if !strings.Contains(e.Error(), "403") {
		t.Errorf("status missing from %q", e.Error())
	}
	if e.StatusCode() != 403 {
		t.Errorf("StatusCode() = %d", e.StatusCode())
	}

	plain := &FetchError{Message: "timed out"}
	if strings.Contains(plain.Error(), "HTTP") {
		t.Errorf("zero status should not render HTTP: %q", plain.Error())
	}
}
