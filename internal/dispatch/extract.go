package dispatch

import (
	"fmt"
	"strings"
)

var locationFillers = map[string]bool{
	"today": true, "tomorrow": true, "please": true, "forecast": true,
	"weather": true, "now": true, "right": true, "currently": true,
	"like": true, "the": true, "temperature": true, "outside": true,
	"is": true, "it": true, "what": true, "s": true,
}

// location returns the place named after "in", "at" or "for", with filler
// words dropped.
func location(u string) string {
	ws := words(u)
	for i, w := range ws {
		if w != "in" && w != "at" && w != "for" {
			continue
		}
		var keep []string
		for _, rest := range ws[i+1:] {
			if !locationFillers[rest] {
				keep = append(keep, rest)
			}
		}
		if len(keep) > 0 {
			return strings.Join(keep, " ")
		}
	}
	return ""
}

var topicFillers = map[string]bool{
	"today": true, "please": true, "latest": true, "news": true,
	"headlines": true, "the": true, "recent": true,
}

// newsTopic returns the subject of an "about <topic>" clause.
func newsTopic(u string) string {
	ws := words(u)
	for i, w := range ws {
		if w != "about" {
			continue
		}
		var keep []string
		for _, rest := range ws[i+1:] {
			if !topicFillers[rest] {
				keep = append(keep, rest)
			}
		}
		return strings.Join(keep, " ")
	}
	return ""
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// spokenDuration renders seconds as e.g. "1 hour", "2 minutes and 5 seconds".
func spokenDuration(secs int) string {
	h, m, s := secs/3600, secs%3600/60, secs%60
	var parts []string
	if h > 0 {
		parts = append(parts, plural(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, plural(m, "minute"))
	}
	if s > 0 || len(parts) == 0 {
		parts = append(parts, plural(s, "second"))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
