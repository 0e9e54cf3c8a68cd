package frames

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// maxTimestamps bounds one extraction request.
const maxTimestamps = 50

var (
	secondsPattern = regexp.MustCompile(`^(\d+)$`)
	mmssPattern    = regexp.MustCompile(`^(\d+):(\d{2})$`)
	hhmmssPattern  = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})$`)
)

// ParseTimestamp converts "30", "1:23" or "1:23:45" into a duration.
// maxDuration caps the result; zero disables the cap.
func ParseTimestamp(s string, maxDuration time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("timestamp is required")
	}

	var seconds int
	switch {
	case secondsPattern.MatchString(s):
		seconds, _ = strconv.Atoi(s)
	case mmssPattern.MatchString(s):
		m := mmssPattern.FindStringSubmatch(s)
		mins, _ := strconv.Atoi(m[1])
		secs, _ := strconv.Atoi(m[2])
		seconds = mins*60 + secs
	case hhmmssPattern.MatchString(s):
		m := hhmmssPattern.FindStringSubmatch(s)
		hours, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		secs, _ := strconv.Atoi(m[3])
		seconds = hours*3600 + mins*60 + secs
	default:
		return 0, fmt.Errorf("invalid timestamp %q: use 30, 1:23, or 1:23:45", s)
	}

	d := time.Duration(seconds) * time.Second
	if maxDuration > 0 && d > maxDuration {
		return 0, fmt.Errorf("timestamp %s exceeds maximum duration %s", s, maxDuration)
	}
	return d, nil
}

// ParseTimestamps validates a batch, rejecting empty or oversized lists.
func ParseTimestamps(in []string, maxDuration time.Duration) ([]time.Duration, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("at least one timestamp is required")
	}
	if len(in) > maxTimestamps {
		return nil, fmt.Errorf("too many timestamps (max %d)", maxTimestamps)
	}

	out := make([]time.Duration, 0, len(in))
	for i, s := range in {
		d, err := ParseTimestamp(s, maxDuration)
		if err != nil {
			return nil, fmt.Errorf("timestamp %d: %w", i+1, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// formatTimestamp renders a duration as HH:MM:SS for ffmpeg seeking and
// artifact names.
func formatTimestamp(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
