package cred

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"framegrab/internal/media"
)

// fileProducer yields a bundle backed by a user-supplied Netscape-format
// cookie file at a well-known path.
type fileProducer struct {
	path string
}

func (p fileProducer) Kind() SourceKind { return SourceManualFile }

func (p fileProducer) Produce(ref media.VideoReference) (*Bundle, error) {
	f, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cookie file %s: %w", p.path, ErrStoreAbsent)
		}
		return nil, fmt.Errorf("cookie file %s: %w", p.path, ErrStoreInaccessible)
	}
	defer f.Close()

	if err := checkNetscapeFormat(f); err != nil {
		return nil, fmt.Errorf("cookie file %s: %v: %w", p.path, err, ErrStoreInaccessible)
	}

	return &Bundle{
		Platform:   ref.Platform,
		Source:     SourceManualFile,
		CookieFile: p.path,
		ObtainedAt: time.Now(),
	}, nil
}

// checkNetscapeFormat verifies the file looks like a Netscape cookie file:
// either the magic header comment or at least one 7-field tab-separated line.
func checkNetscapeFormat(f *os.File) error {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if strings.Contains(line, "Netscape HTTP Cookie File") || strings.Contains(line, "HTTP Cookie File") {
				return nil
			}
			continue
		}
		if len(strings.Split(line, "\t")) >= 7 {
			return nil
		}
		return fmt.Errorf("not a Netscape cookie file")
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("empty cookie file")
}

// browserProducer yields a bundle naming a browser cookie store. The store
// itself is read by the download collaborator (cookies-from-browser), so
// production only verifies the store exists and is readable.
type browserProducer struct {
	kind     SourceKind
	storeDir string
}

func (p browserProducer) Kind() SourceKind { return p.kind }

func (p browserProducer) Produce(ref media.VideoReference) (*Bundle, error) {
	info, err := os.Stat(p.storeDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s store %s: %w", p.kind, p.storeDir, ErrStoreAbsent)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%s store %s: %w", p.kind, p.storeDir, ErrStoreInaccessible)
		}
		return nil, fmt.Errorf("%s store %s: %v: %w", p.kind, p.storeDir, err, ErrStoreInaccessible)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s store %s is not a directory: %w", p.kind, p.storeDir, ErrStoreInaccessible)
	}

	return &Bundle{
		Platform:   ref.Platform,
		Source:     p.kind,
		Browser:    p.kind.String(),
		ObtainedAt: time.Now(),
	}, nil
}

// noneProducer is the sentinel unauthenticated producer. It always
// succeeds with an empty bundle.
type noneProducer struct{}

func (noneProducer) Kind() SourceKind { return SourceNone }

func (noneProducer) Produce(ref media.VideoReference) (*Bundle, error) {
	return &Bundle{
		Platform:   ref.Platform,
		Source:     SourceNone,
		ObtainedAt: time.Now(),
	}, nil
}

// storeDir returns the default cookie store location for a browser on the
// given OS. Empty means the browser has no store on that OS.
func storeDir(kind SourceKind, goos, home string) string {
	switch goos {
	case "darwin":
		switch kind {
		case SourceChrome:
			return filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
		case SourceFirefox:
			return filepath.Join(home, "Library", "Application Support", "Firefox")
		case SourceEdge:
			return filepath.Join(home, "Library", "Application Support", "Microsoft Edge")
		case SourceSafari:
			return filepath.Join(home, "Library", "Cookies")
		}
	case "windows":
		switch kind {
		case SourceChrome:
			return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data")
		case SourceFirefox:
			return filepath.Join(home, "AppData", "Roaming", "Mozilla", "Firefox")
		case SourceEdge:
			return filepath.Join(home, "AppData", "Local", "Microsoft", "Edge", "User Data")
		}
	default: // linux and friends
		switch kind {
		case SourceChrome:
			return filepath.Join(home, ".config", "google-chrome")
		case SourceFirefox:
			return filepath.Join(home, ".mozilla", "firefox")
		case SourceEdge:
			return filepath.Join(home, ".config", "microsoft-edge")
		}
	}
	return ""
}
