// Package tts speaks text through espeak-ng.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int initialized = 0;

int
espeak_say(const char *text, const char *lang, int rate)
{
	if (!text)
	{ return -1; }

	if (!initialized)
	{
		if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
		{ return -2; }
		initialized = 1;
	}

	espeak_VOICE specs = { 0 };
	specs.languages = lang;
	if (espeak_SetVoiceByProperties(&specs) != EE_OK)
	{ return -3; }
	if (rate > 0)
	{ espeak_SetParameter(espeakRATE, rate, 0); }

	if (espeak_Synth(text, 0, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -4; }
	espeak_Synchronize();

	return 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// Espeak is a blocking speech sink. Calls are serialised because the
// library keeps global voice state.
type Espeak struct {
	mu    sync.Mutex
	voice string
	rate  int
}

// New returns a sink speaking with the given espeak voice language,
// e.g. "en" or "en-us". rate is words per minute, 0 keeps the default.
func New(voice string, rate int) *Espeak {
	if voice == "" {
		voice = "en"
	}
	return &Espeak{voice: voice, rate: rate}
}

func (e *Espeak) Speak(text string) error {
	if text == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(e.voice)
	defer C.free(unsafe.Pointer(clang))

	if rc := C.espeak_say(ctext, clang, C.int(e.rate)); rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}
	return nil
}
