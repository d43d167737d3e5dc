// Package duration reads timer lengths out of spoken requests.
package duration

import (
	"errors"
	"math"
	"regexp"
	"strconv"
)

type unit struct {
	re     *regexp.Regexp
	factor int
}

// Tried in order. The first unit with a match decides the result, so
// "1 hour and 30 minutes" reads as 30 minutes.
var units = []unit{
	{regexp.MustCompile(`(\d+)\s*(?:seconds?|secs?)\b`), 1},
	{regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?)\b`), 60},
	{regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?)\b`), 3600},
}

var bareRe = regexp.MustCompile(`\d+`)

// Extract returns the requested duration in seconds. A bare number with no
// unit counts as seconds. ok is false when the utterance has no digits.
// Amounts too large for an int saturate at math.MaxInt, so range checks
// downstream still reject them.
func Extract(u string) (seconds int, ok bool) {
	for _, un := range units {
		m := un.re.FindStringSubmatch(u)
		if m == nil {
			continue
		}
		n, ok := atoi(m[1])
		if !ok {
			return 0, false
		}
		if n > math.MaxInt/un.factor {
			return math.MaxInt, true
		}
		return n * un.factor, true
	}

	s := bareRe.FindString(u)
	if s == "" {
		return 0, false
	}
	return atoi(s)
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	switch {
	case errors.Is(err, strconv.ErrRange):
		return math.MaxInt, true
	case err != nil:
		return 0, false
	}
	return n, true
}
