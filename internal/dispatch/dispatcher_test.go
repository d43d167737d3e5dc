package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"voxassist/internal/memory"
	"voxassist/internal/news"
	"voxassist/internal/system"
	"voxassist/internal/timer"
	"voxassist/internal/weather"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLLM struct {
	answer string
	err    error
	asked  []string
}

func (f *fakeLLM) Ask(_ context.Context, prompt string) (string, error) {
	f.asked = append(f.asked, prompt)
	return f.answer, f.err
}

type fakeWeather struct {
	city string
	err  error
}

func (f *fakeWeather) Current(_ context.Context, city string) (weather.Reading, error) {
	f.city = city
	if f.err != nil {
		return weather.Reading{}, f.err
	}
	return weather.Reading{City: "Paris", Description: "clear sky", Temperature: 21, FeelsLike: 20, Humidity: 40, Units: "metric"}, nil
}

type fakeNews struct {
	topic string
	heads []news.Headline
	err   error
}

func (f *fakeNews) Headlines(_ context.Context, topic string) ([]news.Headline, error) {
	f.topic = topic
	return f.heads, f.err
}

type fakeSystem struct {
	opened string
	muted  bool
	level  int
}

func (f *fakeSystem) Info(context.Context) (system.Info, error) {
	return system.Info{Hostname: "box", OS: "linux", Arch: "amd64", CPUs: 4}, nil
}

func (f *fakeSystem) AdjustVolume(_ context.Context, delta int) (int, error) {
	f.level += delta
	return f.level, nil
}

func (f *fakeSystem) SetVolume(_ context.Context, percent int) error {
	f.level = percent
	return nil
}

func (f *fakeSystem) SetMute(_ context.Context, muted bool) error {
	f.muted = muted
	return nil
}

func (f *fakeSystem) OpenURL(_ context.Context, url string) error {
	f.opened = url
	return nil
}

type fakeMusic struct {
	tracks  []string
	err     error
	playErr error
	playing string
	stopped int
}

func (f *fakeMusic) Tracks() ([]string, error) { return f.tracks, f.err }

func (f *fakeMusic) Play(track string) error {
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = track
	return nil
}

func (f *fakeMusic) Stop() {
	f.playing = ""
	f.stopped++
}

// idleClock never fires, so started timers stay active until Close.
type idleClock struct{ now time.Time }

func (c idleClock) Now() time.Time { return c.now }

func (c idleClock) After(time.Duration) <-chan time.Time { return nil }

var fixedNow = time.Date(2026, time.October, 14, 15, 4, 0, 0, time.UTC)

type harness struct {
	d       *Dispatcher
	llm     *fakeLLM
	weather *fakeWeather
	news    *fakeNews
	sys     *fakeSystem
	music   *fakeMusic
	timers  *timer.Manager
	mem     *memory.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		llm:     &fakeLLM{answer: "Forty two."},
		weather: &fakeWeather{},
		news:    &fakeNews{},
		sys:     &fakeSystem{level: 50},
		music:   &fakeMusic{tracks: []string{"/music/Blue Train.mp3", "/music/so what.wav"}},
		timers:  timer.NewManager(timer.Options{Clock: idleClock{now: fixedNow}}),
		mem:     memory.New(50),
	}
	t.Cleanup(h.timers.Close)

	h.d = New(
		State{Memory: h.mem, Timers: h.timers},
		Services{LLM: h.llm, Weather: h.weather, News: h.news, System: h.sys, Music: h.music},
		Options{
			Name:         "Vox",
			DefaultCity:  "London",
			EnableSystem: true,
			EnableVolume: true,
			Now:          func() time.Time { return fixedNow },
			Pick:         func(int) int { return 0 },
		},
	)
	return h
}

func (h *harness) dispatch(t *testing.T, u string) Reply {
	t.Helper()
	r, cont := h.d.Dispatch(context.Background(), u)
	require.True(t, cont, "utterance %q should not exit", u)
	return r
}

func TestRuleOrder(t *testing.T) {
	h := newHarness(t)
	var got []Intent
	for _, r := range h.d.Rules() {
		got = append(got, r.Intent)
	}
	assert.Equal(t, []Intent{
		Exit, TimeQuery, DateQuery, Music, Arithmetic, Weather, Timer, SystemInfo,
		News, MemoryClear, MemoryQuery, Password, OpenEnded, Canned, Fallback,
	}, got)
}

func TestEmptyUtterance(t *testing.T) {
	h := newHarness(t)
	for _, u := range []string{"", "   \t"} {
		r, cont := h.d.Dispatch(context.Background(), u)
		assert.True(t, cont)
		assert.Empty(t, r.Text)
		assert.Equal(t, None, r.Intent)
	}
}

func TestExit(t *testing.T) {
	h := newHarness(t)
	for _, u := range []string{"quit", "Exit now", "goodbye!", "ok bye", "stop"} {
		r, cont := h.d.Dispatch(context.Background(), u)
		assert.False(t, cont, u)
		assert.Equal(t, Exit, r.Intent, u)
		assert.Equal(t, farewell, r.Text)
	}
}

func TestDispatchIntents(t *testing.T) {
	tests := []struct {
		in     string
		intent Intent
		text   string
	}{
		{"what time is it?", TimeQuery, "It's 03:04 PM"},
		{"  Tell me the TIME  ", TimeQuery, "It's 03:04 PM"},
		{"what day is it", DateQuery, "Today is Wednesday, October 14, 2026"},
		{"what's the date", DateQuery, "Today is Wednesday, October 14, 2026"},
		{"what is 5 plus 3", Arithmetic, "5.0 plus 3.0 equals 8.0"},
		{"10 divided by 0", Arithmetic, "Sorry, I cannot divide by zero."},
		{"factorial of 25", Arithmetic, "That number is too large. I can only calculate factorials up to 20."},
		{"12 * 3", Arithmetic, "The answer is 36"},
		{"calculate 4 and 9", Arithmetic, "I found the numbers 4 and 9. What would you like me to do with them? You can say plus, minus, times, divided by, or modulo."},
		{"set a timer for 2 minutes", Timer, "Timer set for 2 minutes."},
		{"countdown 90", Timer, "Timer set for 1 minute and 30 seconds."},
		{"open youtube", SystemInfo, "Opening youtube."},
		{"system info", SystemInfo, "You're running Linux on amd64 with 4 CPU cores. The host name is box."},
		{"hello there", Canned, "Hello! How can I help you today?"},
		{"tell me a joke", Canned, jokes[0]},
		{"roll a dice", Canned, "You rolled a 1!"},
		{"hmm okay", Canned, DefaultFallbacks[0]},
		{"give me a fact", Canned, funFacts[0]},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h := newHarness(t)
			r := h.dispatch(t, tt.in)
			assert.Equal(t, tt.intent, r.Intent)
			assert.Equal(t, tt.text, r.Text)
		})
	}
}

func TestTimeBeatsOpenEnded(t *testing.T) {
	h := newHarness(t)
	r := h.dispatch(t, "what time is it?")
	assert.Equal(t, TimeQuery, r.Intent)
	assert.Empty(t, h.llm.asked)
}

func TestKeywordsMatchInsideWords(t *testing.T) {
	t.Run("today is a date query", func(t *testing.T) {
		h := newHarness(t)
		r := h.dispatch(t, "what's the weather today")
		assert.Equal(t, DateQuery, r.Intent)
		assert.Equal(t, "Today is Wednesday, October 14, 2026", r.Text)
		assert.Empty(t, h.weather.city)
	})

	t.Run("timer holds time", func(t *testing.T) {
		h := newHarness(t)
		r := h.dispatch(t, "what is the timer status")
		assert.Equal(t, TimeQuery, r.Intent)
		assert.Equal(t, "It's 03:04 PM", r.Text)
	})

	t.Run("show holds how", func(t *testing.T) {
		h := newHarness(t)
		r := h.dispatch(t, "show me something")
		assert.Equal(t, OpenEnded, r.Intent)
		assert.Equal(t, []string{"show me something"}, h.llm.asked)
	})

	t.Run("weather without date words", func(t *testing.T) {
		h := newHarness(t)
		r := h.dispatch(t, "what's the weather like in paris")
		assert.Equal(t, Weather, r.Intent)
		assert.Equal(t, "paris", h.weather.city)
		assert.Equal(t, "The weather in Paris is clear sky with a temperature of 21.0 degrees Celsius, feels like 20.0. Humidity is 40 percent.", r.Text)
	})
}

func TestArithmeticGuardrails(t *testing.T) {
	tests := []struct {
		in   string
		text string
	}{
		{"10 / 0", "Sorry, I cannot divide by zero."},
		{"7 % 0", "Sorry, I cannot divide by zero."},
		{"what is 3 / (1-1)", "Sorry, I cannot divide by zero."},
		{"5 +", "I found the numbers 5. What would you like me to do with them? You can say plus, minus, times, divided by, or modulo."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h := newHarness(t)
			r := h.dispatch(t, tt.in)
			assert.Equal(t, Arithmetic, r.Intent)
			assert.Equal(t, tt.text, r.Text)
		})
	}
}

func TestMathKeywordsInsideWords(t *testing.T) {
	h := newHarness(t)

	// "sum" in "summer" and "mod" in "model" name no operation here
	r := h.dispatch(t, "what's the summer forecast in 2 cities")
	assert.Equal(t, Weather, r.Intent)
	assert.Equal(t, "2 cities", h.weather.city)

	r = h.dispatch(t, "model a 5 second timer")
	assert.Equal(t, Timer, r.Intent)
	assert.Equal(t, "Timer set for 5 seconds.", r.Text)

	r = h.dispatch(t, "set volume to 40%")
	assert.Equal(t, SystemInfo, r.Intent)
	assert.Equal(t, "Volume set to 40 percent.", r.Text)
}

func TestHugeTimerIsRejected(t *testing.T) {
	h := newHarness(t)
	for _, u := range []string{
		"set a timer for 5124095576030432 hours",
		"set a timer for 99999999999999999999 seconds",
	} {
		r := h.dispatch(t, u)
		assert.Equal(t, Timer, r.Intent, u)
		assert.Equal(t, "Timers must be between 1 second and 1 hour.", r.Text, u)
	}
	assert.Empty(t, h.timers.Active())
}

func TestMusicRule(t *testing.T) {
	h := newHarness(t)

	r := h.dispatch(t, "play music")
	assert.Equal(t, Music, r.Intent)
	assert.Equal(t, "Now playing Blue Train", r.Text)
	assert.Equal(t, "/music/Blue Train.mp3", h.music.playing)

	r = h.dispatch(t, "stop music")
	assert.Equal(t, Music, r.Intent)
	assert.Equal(t, "Music stopped.", r.Text)
	assert.Equal(t, 1, h.music.stopped)

	r = h.dispatch(t, "pause music")
	assert.Equal(t, "Music stopped.", r.Text)

	h.music.tracks = nil
	r = h.dispatch(t, "play song")
	assert.Equal(t, "I don't have any music files in the music folder. Please add some MP3 or WAV files.", r.Text)

	h.music.tracks = []string{"/music/broken.wav"}
	h.music.playErr = errors.New("decode")
	r = h.dispatch(t, "play music")
	assert.Equal(t, "Sorry, I couldn't play that music file.", r.Text)

	h.music.err = errors.New("permission denied")
	r = h.dispatch(t, "play music")
	assert.Equal(t, "Sorry, I couldn't read the music folder.", r.Text)

	d := New(State{Timers: h.timers}, Services{}, Options{})
	r, cont := d.Dispatch(context.Background(), "stop music")
	assert.True(t, cont)
	assert.Equal(t, Music, r.Intent)
	assert.Contains(t, r.Text, "music folder")
}

func TestPasswordRule(t *testing.T) {
	h := newHarness(t)

	r := h.dispatch(t, "generate a password")
	assert.Equal(t, Password, r.Intent)
	pw, ok := strings.CutPrefix(r.Text, "Here's a random password: ")
	require.True(t, ok, r.Text)
	assert.Len(t, pw, defaultPasswordLen)

	r = h.dispatch(t, "give me a 16 character password")
	assert.Equal(t, Password, r.Intent)
	pw, _ = strings.CutPrefix(r.Text, "Here's a random password: ")
	assert.Len(t, pw, 16)

	r = h.dispatch(t, "password with 500 characters")
	assert.Equal(t, "Passwords can be between 4 and 64 characters long.", r.Text)
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		pw, err := GeneratePassword(24)
		require.NoError(t, err)
		assert.Len(t, pw, 24)
		for _, c := range pw {
			assert.Contains(t, passwordAlphabet, string(c))
		}
		seen[pw] = true
	}
	assert.Len(t, seen, 10)
}

func TestWeather(t *testing.T) {
	t.Run("default city", func(t *testing.T) {
		h := newHarness(t)
		h.dispatch(t, "weather forecast please")
		assert.Equal(t, "London", h.weather.city)
	})

	t.Run("not found", func(t *testing.T) {
		h := newHarness(t)
		h.weather.err = fmt.Errorf("lookup: %w", weather.ErrNotFound)
		r := h.dispatch(t, "temperature in atlantis")
		assert.Equal(t, "I couldn't find weather information for atlantis.", r.Text)
	})

	t.Run("failure", func(t *testing.T) {
		h := newHarness(t)
		h.weather.err = errors.New("connection refused")
		r := h.dispatch(t, "weather in new york")
		assert.Equal(t, "Sorry, I couldn't get the weather for new york right now.", r.Text)
	})

	t.Run("not configured", func(t *testing.T) {
		d := New(State{}, Services{}, Options{})
		defer d.State().Timers.Close()
		r, cont := d.Dispatch(context.Background(), "weather in rome")
		assert.True(t, cont)
		assert.Equal(t, Weather, r.Intent)
		assert.Contains(t, r.Text, "API key")
	})
}

func TestTimerRule(t *testing.T) {
	h := newHarness(t)

	r := h.dispatch(t, "set timer for 30 seconds")
	assert.Equal(t, Timer, r.Intent)
	assert.Equal(t, "Timer set for 30 seconds.", r.Text)
	require.Len(t, h.timers.Active(), 1)

	for _, u := range []string{"set timer for 0 seconds", "timer for 5000 seconds", "timer for 2 hours"} {
		r = h.dispatch(t, u)
		assert.Equal(t, "Timers must be between 1 second and 1 hour.", r.Text, u)
	}
	assert.Len(t, h.timers.Active(), 1)

	r = h.dispatch(t, "timer")
	assert.Equal(t, "Please tell me how long the timer should be, for example 'set a timer for 30 seconds'.", r.Text)

	r = h.dispatch(t, "timer status")
	assert.Equal(t, "You have 1 active timer: timer 1 has 30 seconds left.", r.Text)

	r = h.dispatch(t, "stop the timer")
	assert.Equal(t, Timer, r.Intent)
	assert.Equal(t, "Timers can't be cancelled once they're running.", r.Text)
}

func TestStopwatchRule(t *testing.T) {
	h := newHarness(t)

	r := h.dispatch(t, "stop stopwatch")
	assert.Equal(t, Timer, r.Intent)
	assert.Equal(t, "There's no stopwatch running to stop.", r.Text)

	r = h.dispatch(t, "start the stopwatch")
	assert.Equal(t, "Stopwatch started. Say 'stop stopwatch' when you're done.", r.Text)

	r = h.dispatch(t, "start timing")
	assert.Equal(t, "A stopwatch is already running. Say 'stop stopwatch' to stop it.", r.Text)

	r = h.dispatch(t, "stop the stopwatch")
	assert.Equal(t, "Stopwatch stopped at 0 minutes and 0 seconds.", r.Text)
	assert.False(t, h.timers.StopwatchRunning())
}

func TestSystemRule(t *testing.T) {
	h := newHarness(t)

	r := h.dispatch(t, "volume up")
	assert.Equal(t, "Volume increased to 60 percent.", r.Text)

	r = h.dispatch(t, "mute")
	assert.Equal(t, "Sound muted.", r.Text)
	assert.True(t, h.sys.muted)

	r = h.dispatch(t, "search for go generics")
	assert.Equal(t, "Searching for go generics.", r.Text)
	assert.Equal(t, "https://www.google.com/search?q=go+generics", h.sys.opened)

	d := New(State{Timers: h.timers}, Services{System: h.sys}, Options{EnableSystem: true})
	r, _ = d.Dispatch(context.Background(), "volume down")
	assert.Equal(t, "Volume control is disabled.", r.Text)

	d = New(State{Timers: h.timers}, Services{System: h.sys}, Options{Pick: func(int) int { return 0 }})
	r, _ = d.Dispatch(context.Background(), "open youtube")
	assert.Equal(t, Canned, r.Intent)
}

func TestNewsRule(t *testing.T) {
	h := newHarness(t)
	h.news.heads = []news.Headline{{Title: "Rocket lands."}, {Title: "Moon base opens"}}

	r := h.dispatch(t, "tell me the latest news about space exploration")
	assert.Equal(t, News, r.Intent)
	assert.Equal(t, "space exploration", h.news.topic)
	assert.Equal(t, "Here are the top headlines about space exploration: 1. Rocket lands. 2. Moon base opens.", r.Text)

	r = h.dispatch(t, "headlines")
	assert.Equal(t, "", h.news.topic)
	assert.Equal(t, "Here are the top headlines: 1. Rocket lands. 2. Moon base opens.", r.Text)

	h.news.heads = nil
	r = h.dispatch(t, "news about nothing")
	assert.Equal(t, "I couldn't find any news about nothing.", r.Text)

	h.news.err = errors.New("timeout")
	r = h.dispatch(t, "current events")
	assert.Equal(t, "Sorry, I couldn't get the news right now.", r.Text)
}

func TestOpenEndedRecordsMemory(t *testing.T) {
	h := newHarness(t)

	r := h.dispatch(t, "who painted the mona lisa")
	assert.Equal(t, OpenEnded, r.Intent)
	assert.Equal(t, "Forty two.", r.Text)
	assert.Equal(t, []string{"who painted the mona lisa"}, h.llm.asked)

	recs := h.mem.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "who painted the mona lisa", recs[0].Question)
	assert.Equal(t, "Forty two.", recs[0].Answer)

	r = h.dispatch(t, "show me your memory")
	assert.Equal(t, MemoryQuery, r.Intent)
	assert.Equal(t, "I remember 1 conversation. Topics: general 1.", r.Text)

	r = h.dispatch(t, "clear memory")
	assert.Equal(t, MemoryClear, r.Intent)
	assert.Zero(t, h.mem.Len())
}

func TestOpenEndedFailure(t *testing.T) {
	h := newHarness(t)
	h.llm.err = errors.New("503")

	r := h.dispatch(t, "why is the sky blue")
	assert.Equal(t, OpenEnded, r.Intent)
	assert.Equal(t, llmApology, r.Text)
	assert.Zero(t, h.mem.Len())

	d := New(State{Timers: h.timers}, Services{}, Options{})
	r, _ = d.Dispatch(context.Background(), "explain gravity")
	assert.Equal(t, llmMissing, r.Text)
}

func TestFallbackWhenNoCannedFallbacks(t *testing.T) {
	llm := &fakeLLM{answer: "Sure."}
	timers := timer.NewManager(timer.Options{})
	defer timers.Close()

	d := New(State{Timers: timers}, Services{LLM: llm}, Options{Fallbacks: []string{}})
	r, cont := d.Dispatch(context.Background(), "blorp")
	assert.True(t, cont)
	assert.Equal(t, Fallback, r.Intent)
	assert.Equal(t, "Sure.", r.Text)

	llm.err = errors.New("down")
	r, _ = d.Dispatch(context.Background(), "blorp")
	assert.Equal(t, rephrase, r.Text)
}

func TestCannedIsRandomButNeverEmpty(t *testing.T) {
	timers := timer.NewManager(timer.Options{})
	defer timers.Close()
	d := New(State{Timers: timers}, Services{}, Options{})

	for i := 0; i < 20; i++ {
		r, cont := d.Dispatch(context.Background(), "thank you")
		assert.True(t, cont)
		assert.Equal(t, Canned, r.Intent)
		assert.Contains(t, []string{"You're welcome!", "Happy to help!", "No problem!"}, r.Text)
	}
}

func TestNonExitUtterancesContinue(t *testing.T) {
	h := newHarness(t)
	for _, u := range []string{
		"what time is it", "7 + 8", "weather", "set timer for 10 seconds",
		"news", "memory", "how are you", "flip a coin", "xyzzy",
		"start stopwatch", "stop stopwatch", "stop music", "play music",
	} {
		_, cont := h.d.Dispatch(context.Background(), u)
		assert.True(t, cont, u)
	}
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "open_ended", OpenEnded.String())
	assert.Equal(t, "Intent(99)", Intent(99).String())
}
