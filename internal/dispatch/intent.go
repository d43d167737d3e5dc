package dispatch

import "fmt"

// Intent is the category selected for an utterance.
type Intent int

const (
	None Intent = iota
	Exit
	TimeQuery
	DateQuery
	Music
	Arithmetic
	Weather
	Timer
	SystemInfo
	News
	MemoryClear
	MemoryQuery
	Password
	OpenEnded
	Canned
	Fallback
)

var intentNames = map[Intent]string{
	None:        "none",
	Exit:        "exit",
	TimeQuery:   "time",
	DateQuery:   "date",
	Music:       "music",
	Arithmetic:  "arithmetic",
	Weather:     "weather",
	Timer:       "timer",
	SystemInfo:  "system",
	News:        "news",
	MemoryClear: "memory_clear",
	MemoryQuery: "memory_query",
	Password:    "password",
	OpenEnded:   "open_ended",
	Canned:      "canned",
	Fallback:    "fallback",
}

func (i Intent) String() string {
	if s, ok := intentNames[i]; ok {
		return s
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}
