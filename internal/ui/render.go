package ui

import (
	"fmt"
	"strings"
	"time"

	"framegrab/internal/acquire"
	"framegrab/internal/media"
)

// RenderHandle formats a successful acquisition for human output.
func RenderHandle(h *media.MediaHandle, frames []media.Frame, clip *media.Clip) string {
	var b strings.Builder

	b.WriteString(okStyle.Render("done") + " " + titleStyle.Render(h.Title) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s, %s", h.Platform, formatDuration(h.Duration))) + "\n")

	for _, f := range frames {
		b.WriteString(fmt.Sprintf("  frame %s  %s\n", formatDuration(f.Timestamp), f.Path))
	}
	if clip != nil {
		b.WriteString(fmt.Sprintf("  clip  %s-%s  %s\n",
			formatDuration(clip.Start), formatDuration(clip.End), clip.Path))
	}

	return b.String()
}

// RenderFailure formats a terminal cascade failure: the primary kind, the
// attempt trail, and what the user can do about it.
func RenderFailure(tf *acquire.TerminalFailure) string {
	var b strings.Builder

	b.WriteString(errorStyle.Render(fmt.Sprintf("failed: %s", tf.PrimaryKind)) + "\n")
	for _, a := range tf.Attempts {
		if a.Success {
			continue
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s: %s", a.Source, a.Kind)) + "\n")
	}
	if tf.Remediation != "" {
		b.WriteString(panelStyle.Render(tf.Remediation) + "\n")
	}

	return b.String()
}

// RenderDenied formats a rate-limit denial with the earliest retry time.
func RenderDenied(op string, retryAfter time.Duration) string {
	wait := retryAfter.Round(time.Second)
	if wait < time.Second {
		wait = time.Second
	}
	return errorStyle.Render(fmt.Sprintf("rate limit reached for %s", op)) + "\n" +
		mutedStyle.Render(fmt.Sprintf("  try again in %s", wait)) + "\n"
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
