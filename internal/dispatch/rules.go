package dispatch

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"voxassist/internal/arith"
	"voxassist/internal/duration"
	"voxassist/internal/timer"
	"voxassist/internal/weather"
)

// Rule pairs a predicate with its handler. A handler returning ok=false
// lets evaluation continue with the next rule.
type Rule struct {
	Intent Intent
	Match  func(u string) bool
	Handle func(ctx context.Context, u string) (text string, ok bool)
}

const (
	farewell   = "Goodbye! Have a great day!"
	rephrase   = "I'm not sure how to help with that. Could you please rephrase?"
	llmApology = "I'm having trouble getting a response right now. Please try again."
	llmMissing = "My question answering service isn't configured, so I can't answer that right now."
	sysFailure = "Sorry, I couldn't do that on this system."
)

var (
	exitWords     = []string{"quit", "exit", "goodbye", "bye"}
	timerPhrases  = []string{"timer", "stopwatch", "countdown", "timing"}
	musicPhrases  = []string{"play music", "play song", "stop music", "pause music"}
	interrogative = []string{"what", "who", "when", "where", "why", "how", "which", "explain", "describe", "define"}
	percentRe     = regexp.MustCompile(`(\d+)\s*(?:%|percent)?`)
)

var sites = map[string]string{
	"google":    "https://www.google.com",
	"youtube":   "https://www.youtube.com",
	"wikipedia": "https://www.wikipedia.org",
	"github":    "https://github.com",
	"gmail":     "https://mail.google.com",
	"browser":   "https://www.google.com",
}

func (d *Dispatcher) buildRules() []Rule {
	return []Rule{
		{Intent: Exit, Match: isExit, Handle: d.exit},
		{Intent: TimeQuery, Match: isTimeQuery, Handle: d.timeOfDay},
		{Intent: DateQuery, Match: isDateQuery, Handle: d.date},
		{Intent: Music, Match: isMusic, Handle: d.music},
		{Intent: Arithmetic, Match: isArithmetic, Handle: d.arithmetic},
		{Intent: Weather, Match: isWeather, Handle: d.weather},
		{Intent: Timer, Match: isTimer, Handle: d.timer},
		{Intent: SystemInfo, Match: d.isSystem, Handle: d.system},
		{Intent: News, Match: isNews, Handle: d.news},
		{Intent: MemoryClear, Match: isMemoryClear, Handle: d.memoryClear},
		{Intent: MemoryQuery, Match: isMemoryQuery, Handle: d.memoryQuery},
		{Intent: Password, Match: isPassword, Handle: d.password},
		{Intent: OpenEnded, Match: isQuestion, Handle: d.openEnded},
		{Intent: Canned, Match: always, Handle: d.canned},
		{Intent: Fallback, Match: always, Handle: d.fallback},
	}
}

func always(string) bool { return true }

// Keyword predicates below match substrings, so "today" counts as "day"
// and "show" as "how". "stop" exits unless it names a stopwatch, timer or
// music, which later rules handle.
func isExit(u string) bool {
	if hasPhrase(u, exitWords...) {
		return true
	}
	return hasPhrase(u, "stop") && !hasPhrase(u, timerPhrases...) && !hasPhrase(u, "music")
}

func isTimeQuery(u string) bool {
	return hasPhrase(u, "time") && hasPhrase(u, "what", "tell")
}

func isDateQuery(u string) bool {
	return hasPhrase(u, "date", "day")
}

func isMusic(u string) bool {
	return hasPhrase(u, musicPhrases...)
}

func isArithmetic(u string) bool {
	return arith.HasKeyword(u) || arith.HasSymbol(u) || hasDigit(u)
}

func isWeather(u string) bool {
	return hasPhrase(u, "weather", "forecast", "temperature")
}

func isTimer(u string) bool {
	return hasPhrase(u, timerPhrases...)
}

func (d *Dispatcher) isSystem(u string) bool {
	if !d.opts.EnableSystem {
		return false
	}
	if hasPhrase(u, "volume", "system info", "system status", "search for") ||
		hasWord(u, "mute", "unmute") {
		return true
	}
	if hasWord(u, "open", "launch") {
		for _, w := range words(u) {
			if _, ok := sites[w]; ok {
				return true
			}
		}
	}
	return false
}

func isNews(u string) bool {
	return hasPhrase(u, "news", "headlines", "current events")
}

func isMemoryClear(u string) bool {
	return hasPhrase(u, "clear memory", "clear your memory", "forget")
}

func isMemoryQuery(u string) bool {
	return hasPhrase(u, "memory")
}

func isPassword(u string) bool {
	return hasPhrase(u, "password")
}

func isQuestion(u string) bool {
	return strings.Contains(u, "?") || hasPhrase(u, interrogative...) || hasPhrase(u, "tell me about")
}

func (d *Dispatcher) exit(context.Context, string) (string, bool) {
	return farewell, true
}

func (d *Dispatcher) timeOfDay(context.Context, string) (string, bool) {
	return d.opts.Now().Format("It's 03:04 PM"), true
}

func (d *Dispatcher) date(context.Context, string) (string, bool) {
	return d.opts.Now().Format("Today is Monday, January 02, 2006"), true
}

func (d *Dispatcher) music(_ context.Context, u string) (string, bool) {
	player := d.svc.Music
	if player == nil {
		return "Music isn't available. Please set a music folder to enable it.", true
	}

	if hasPhrase(u, "stop music", "pause music") {
		player.Stop()
		return "Music stopped.", true
	}

	tracks, err := player.Tracks()
	if err != nil {
		log.Error("Music folder unreadable", "err", err)
		return "Sorry, I couldn't read the music folder.", true
	}
	if len(tracks) == 0 {
		return "I don't have any music files in the music folder. Please add some MP3 or WAV files.", true
	}

	track := tracks[d.opts.Pick(len(tracks))]
	if err := player.Play(track); err != nil {
		log.Error("Music playback failed", "track", track, "err", err)
		return "Sorry, I couldn't play that music file.", true
	}
	return "Now playing " + strings.TrimSuffix(filepath.Base(track), filepath.Ext(track)), true
}

func (d *Dispatcher) arithmetic(_ context.Context, u string) (string, bool) {
	ans, ok := arith.Resolve(u)
	if !ok {
		return "", false
	}
	// A clarification only makes sense when the user clearly asked for math;
	// a stray digit ("timer for 30 seconds") belongs to a later rule.
	if ans.Kind == arith.Clarification && !arith.HasKeyword(u) && !arith.HasFormula(u) {
		return "", false
	}
	return ans.Text, true
}

func (d *Dispatcher) weather(ctx context.Context, u string) (string, bool) {
	if d.svc.Weather == nil {
		return "Weather information isn't available. Please add an OpenWeather API key to enable it.", true
	}

	city := location(u)
	if city == "" {
		city = d.opts.DefaultCity
	}

	r, err := d.svc.Weather.Current(ctx, city)
	switch {
	case errors.Is(err, weather.ErrNotFound):
		return fmt.Sprintf("I couldn't find weather information for %s.", city), true
	case err != nil:
		log.Error("Weather lookup failed", "city", city, "err", err)
		return fmt.Sprintf("Sorry, I couldn't get the weather for %s right now.", city), true
	}
	return r.String(), true
}

func (d *Dispatcher) timer(_ context.Context, u string) (string, bool) {
	timers := d.state.Timers

	if hasPhrase(u, "stopwatch", "timing") {
		if hasWord(u, "stop", "end", "finish") {
			elapsed, err := timers.StopStopwatch()
			if err != nil {
				return "There's no stopwatch running to stop.", true
			}
			secs := int(elapsed.Seconds())
			return fmt.Sprintf("Stopwatch stopped at %s and %s.",
				plural(secs/60, "minute"), plural(secs%60, "second")), true
		}
		if _, err := timers.StartStopwatch(); err != nil {
			return "A stopwatch is already running. Say 'stop stopwatch' to stop it.", true
		}
		return "Stopwatch started. Say 'stop stopwatch' when you're done.", true
	}

	if hasWord(u, "stop", "cancel") {
		return "Timers can't be cancelled once they're running.", true
	}

	if hasWord(u, "status", "active", "list", "left", "remaining") || hasPhrase(u, "how many") {
		return d.timerStatus(), true
	}

	secs, ok := duration.Extract(u)
	if !ok {
		return "Please tell me how long the timer should be, for example 'set a timer for 30 seconds'.", true
	}

	if _, err := timers.Start(secs); err != nil {
		if errors.Is(err, timer.ErrDurationOutOfRange) {
			return fmt.Sprintf("Timers must be between 1 second and %s.", spokenDuration(timers.MaxSeconds())), true
		}
		log.Error("Timer start failed", "err", err)
		return "Sorry, I couldn't start the timer.", true
	}
	return fmt.Sprintf("Timer set for %s.", spokenDuration(secs)), true
}

func (d *Dispatcher) timerStatus() string {
	active := d.state.Timers.Active()
	if len(active) == 0 {
		return "You don't have any active timers."
	}
	parts := make([]string, 0, len(active))
	for _, st := range active {
		parts = append(parts, fmt.Sprintf("timer %d has %s left", st.ID, spokenDuration(st.Remaining)))
	}
	return fmt.Sprintf("You have %s: %s.", plural(len(active), "active timer"), strings.Join(parts, ", "))
}

func (d *Dispatcher) system(ctx context.Context, u string) (string, bool) {
	sys := d.svc.System
	if sys == nil {
		return "System commands aren't available on this device.", true
	}

	switch {
	case hasPhrase(u, "volume") || hasWord(u, "mute", "unmute"):
		if !d.opts.EnableVolume {
			return "Volume control is disabled.", true
		}
		return d.volume(ctx, u), true

	case hasPhrase(u, "system info", "system status"):
		info, err := sys.Info(ctx)
		if err != nil {
			log.Error("System info failed", "err", err)
			return sysFailure, true
		}
		return info.String(), true

	case hasPhrase(u, "search for"):
		q := strings.TrimSpace(u[strings.Index(u, "search for")+len("search for"):])
		if q == "" {
			return "What would you like me to search for?", true
		}
		if err := sys.OpenURL(ctx, "https://www.google.com/search?q="+url.QueryEscape(q)); err != nil {
			log.Error("Browser search failed", "query", q, "err", err)
			return sysFailure, true
		}
		return fmt.Sprintf("Searching for %s.", q), true
	}

	for _, w := range words(u) {
		link, ok := sites[w]
		if !ok {
			continue
		}
		if err := sys.OpenURL(ctx, link); err != nil {
			log.Error("Browser open failed", "url", link, "err", err)
			return sysFailure, true
		}
		return fmt.Sprintf("Opening %s.", w), true
	}
	return "", false
}

func (d *Dispatcher) volume(ctx context.Context, u string) string {
	sys := d.svc.System

	switch {
	case hasWord(u, "unmute"):
		if err := sys.SetMute(ctx, false); err != nil {
			log.Error("Unmute failed", "err", err)
			return sysFailure
		}
		return "Sound unmuted."
	case hasWord(u, "mute"):
		if err := sys.SetMute(ctx, true); err != nil {
			log.Error("Mute failed", "err", err)
			return sysFailure
		}
		return "Sound muted."
	case hasWord(u, "up", "increase", "louder", "raise"):
		v, err := sys.AdjustVolume(ctx, 10)
		if err != nil {
			log.Error("Volume up failed", "err", err)
			return sysFailure
		}
		return fmt.Sprintf("Volume increased to %d percent.", v)
	case hasWord(u, "down", "decrease", "lower", "quieter"):
		v, err := sys.AdjustVolume(ctx, -10)
		if err != nil {
			log.Error("Volume down failed", "err", err)
			return sysFailure
		}
		return fmt.Sprintf("Volume decreased to %d percent.", v)
	}

	if m := percentRe.FindStringSubmatch(u); m != nil {
		pct, _ := strconv.Atoi(m[1])
		pct = min(pct, 100)
		if err := sys.SetVolume(ctx, pct); err != nil {
			log.Error("Set volume failed", "err", err)
			return sysFailure
		}
		return fmt.Sprintf("Volume set to %d percent.", pct)
	}
	return "You can say volume up, volume down, mute, or set volume to a percentage."
}

func (d *Dispatcher) news(ctx context.Context, u string) (string, bool) {
	if d.svc.News == nil {
		return "News isn't available. Please add a News API key to enable it.", true
	}

	topic := newsTopic(u)
	heads, err := d.svc.News.Headlines(ctx, topic)
	if err != nil {
		log.Error("News lookup failed", "topic", topic, "err", err)
		return "Sorry, I couldn't get the news right now.", true
	}

	if len(heads) == 0 {
		if topic != "" {
			return fmt.Sprintf("I couldn't find any news about %s.", topic), true
		}
		return "I couldn't find any headlines right now.", true
	}

	var b strings.Builder
	if topic != "" {
		fmt.Fprintf(&b, "Here are the top headlines about %s:", topic)
	} else {
		b.WriteString("Here are the top headlines:")
	}
	for i, h := range heads {
		fmt.Fprintf(&b, " %d. %s.", i+1, strings.TrimRight(h.Title, "."))
	}
	return b.String(), true
}

func (d *Dispatcher) memoryClear(context.Context, string) (string, bool) {
	d.state.Memory.Clear()
	return "I've cleared my memory.", true
}

func (d *Dispatcher) memoryQuery(context.Context, string) (string, bool) {
	return d.state.Memory.Stats().String(), true
}

func (d *Dispatcher) password(_ context.Context, u string) (string, bool) {
	n := defaultPasswordLen
	if m := lengthRe.FindString(u); m != "" {
		n, _ = strconv.Atoi(m)
	}
	if n < minPasswordLen || n > maxPasswordLen {
		return fmt.Sprintf("Passwords can be between %d and %d characters long.", minPasswordLen, maxPasswordLen), true
	}

	pw, err := GeneratePassword(n)
	if err != nil {
		log.Error("Password generation failed", "err", err)
		return "Sorry, I couldn't generate a password.", true
	}
	return "Here's a random password: " + pw, true
}

func (d *Dispatcher) openEnded(ctx context.Context, u string) (string, bool) {
	if d.svc.LLM == nil {
		return llmMissing, true
	}
	answer, err := d.svc.LLM.Ask(ctx, u)
	if err != nil {
		log.Error("Language model failed", "err", err)
		return llmApology, true
	}
	d.state.Memory.Remember(u, answer)
	return answer, true
}

func (d *Dispatcher) canned(_ context.Context, u string) (string, bool) {
	if replies, ok := d.opts.Canned.Lookup(u); ok {
		return d.pick(replies), true
	}
	if len(d.opts.Fallbacks) == 0 {
		return "", false
	}
	return d.pick(d.opts.Fallbacks), true
}

func (d *Dispatcher) fallback(ctx context.Context, u string) (string, bool) {
	if d.svc.LLM == nil {
		return rephrase, true
	}
	answer, err := d.svc.LLM.Ask(ctx, u)
	if err != nil {
		log.Error("Language model fallback failed", "err", err)
		return rephrase, true
	}
	return answer, true
}
