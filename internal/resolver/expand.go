package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"framegrab/internal/httputil"
)

// Expand follows a share link to its canonical page URL. The final
// redirect target usually carries the canonical path already; when the
// landing page declares one via <link rel="canonical"> or og:url, that
// wins. The returned URL is fed back into Resolve.
func Expand(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	resp, err := httputil.Get(ctx, client, rawURL)
	if err != nil {
		return "", fmt.Errorf("expanding share link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("expanding share link: unexpected status %d", resp.StatusCode)
	}

	// Where the redirect chain landed.
	landed := resp.Request.URL.String()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		// Page did not parse; the landing URL is still usable.
		slog.Debug("share link page not parseable", slog.String("url", rawURL), slog.Any("error", err))
		return landed, nil
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok && href != "" {
		return href, nil
	}
	if content, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok && content != "" {
		return content, nil
	}

	return landed, nil
}
