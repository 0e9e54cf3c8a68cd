package cred

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"framegrab/internal/media"
)

func kinds(producers []Producer) []SourceKind {
	out := make([]SourceKind, len(producers))
	for i, p := range producers {
		out[i] = p.Kind()
	}
	return out
}

func TestChainExcludesSafariOffDarwin(t *testing.T) {
	chain := Chain(media.Instagram, ChainConfig{GOOS: "linux", Home: t.TempDir()})
	for _, k := range kinds(chain) {
		if k == SourceSafari {
			t.Fatal("Safari producer present in chain on linux")
		}
	}
}

func TestChainIncludesSafariOnDarwin(t *testing.T) {
	chain := Chain(media.Instagram, ChainConfig{GOOS: "darwin", Home: t.TempDir()})
	found := false
	for _, k := range kinds(chain) {
		if k == SourceSafari {
			found = true
		}
	}
	if !found {
		t.Fatal("Safari producer missing from chain on darwin")
	}
}

func TestChainInstagramOrder(t *testing.T) {
	home := t.TempDir()
	cookieFile := filepath.Join(home, "cookies.txt")
	if err := os.WriteFile(cookieFile, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	chain := Chain(media.Instagram, ChainConfig{CookieFile: cookieFile, GOOS: "linux", Home: home})
	got := kinds(chain)
	want := []SourceKind{SourceManualFile, SourceChrome, SourceFirefox, SourceEdge, SourceNone}
	if len(got) != len(want) {
		t.Fatalf("chain kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chain kinds = %v, want %v", got, want)
		}
	}
}

func TestChainYouTubeLeadsUnauthenticated(t *testing.T) {
	chain := Chain(media.YouTube, ChainConfig{GOOS: "linux", Home: t.TempDir()})
	if len(chain) == 0 {
		t.Fatal("empty chain")
	}
	if chain[0].Kind() != SourceNone {
		t.Errorf("first producer = %v, want none", chain[0].Kind())
	}
}

func TestChainManualFileExcludedWhenMissing(t *testing.T) {
	chain := Chain(media.Instagram, ChainConfig{
		CookieFile: "/nonexistent/cookies.txt",
		GOOS:       "linux",
		Home:       t.TempDir(),
	})
	for _, k := range kinds(chain) {
		if k == SourceManualFile {
			t.Fatal("manual file producer present despite missing file")
		}
	}
}

func TestFileProducer(t *testing.T) {
	ref := media.VideoReference{Platform: media.Instagram, ID: "abc"}

	t.Run("valid netscape file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cookies.txt")
		content := "# Netscape HTTP Cookie File\n.instagram.com\tTRUE\t/\tTRUE\t0\tsessionid\tsecret\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		b, err := fileProducer{path: path}.Produce(ref)
		if err != nil {
			t.Fatalf("Produce() error = %v", err)
		}
		if b.Source != SourceManualFile || b.CookieFile != path {
			t.Errorf("bundle = %+v", b)
		}
	})

	t.Run("headerless tab-separated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cookies.txt")
		content := ".instagram.com\tTRUE\t/\tTRUE\t0\tsessionid\tsecret\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, err := (fileProducer{path: path}).Produce(ref); err != nil {
			t.Fatalf("Produce() error = %v", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cookies.txt")
		if err := os.WriteFile(path, []byte("this is not a cookie file"), 0o600); err != nil {
			t.Fatal(err)
		}

		_, err := fileProducer{path: path}.Produce(ref)
		if !errors.Is(err, ErrStoreInaccessible) {
			t.Errorf("Produce() error = %v, want ErrStoreInaccessible", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := fileProducer{path: "/nonexistent/cookies.txt"}.Produce(ref)
		if !errors.Is(err, ErrStoreAbsent) {
			t.Errorf("Produce() error = %v, want ErrStoreAbsent", err)
		}
	})
}

func TestBrowserProducer(t *testing.T) {
	ref := media.VideoReference{Platform: media.Instagram, ID: "abc"}

	t.Run("store present", func(t *testing.T) {
		dir := t.TempDir()
		b, err := browserProducer{kind: SourceChrome, storeDir: dir}.Produce(ref)
		if err != nil {
			t.Fatalf("Produce() error = %v", err)
		}
		if b.Browser != "chrome" || b.Source != SourceChrome {
			t.Errorf("bundle = %+v", b)
		}
	})

	t.Run("store absent", func(t *testing.T) {
		_, err := browserProducer{kind: SourceFirefox, storeDir: "/nonexistent/firefox"}.Produce(ref)
		if !errors.Is(err, ErrStoreAbsent) {
			t.Errorf("Produce() error = %v, want ErrStoreAbsent", err)
		}
	})
}

func TestNoneProducerAlwaysSucceeds(t *testing.T) {
	b, err := noneProducer{}.Produce(media.VideoReference{Platform: media.YouTube, ID: "abc123"})
	if err != nil {
		t.Fatalf("Produce() error = %v", err)
	}
	if b.Source != SourceNone || b.Browser != "" || b.CookieFile != "" {
		t.Errorf("bundle = %+v, want empty unauthenticated bundle", b)
	}
}
