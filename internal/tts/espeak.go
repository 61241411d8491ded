package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int
espeak_open(const char *lang)
{
	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -1; }

	espeak_VOICE specs = { 0 };
	specs.languages = lang;
	if (espeak_SetVoiceByProperties(&specs) != EE_OK)
	{ return -2; }

	return 0;
}

static int
espeak_rate(int wpm)
{
	return espeak_SetParameter(espeakRATE, wpm, 0) == EE_OK ? 0 : -1;
}

static int
espeak_say(const char *text)
{
	if (!text)
	{ return -1; }

	if (espeak_Synth(text, 0, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -2; }

	return espeak_Synchronize() == EE_OK ? 0 : -3;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// Espeak speaks through libespeak-ng with synchronous playback. The
// library keeps global state, so one instance per process.
type Espeak struct {
	mu   sync.Mutex
	open bool
}

func New(lang string) (*Espeak, error) {
	if lang == "" {
		lang = "en"
	}

	clang := C.CString(lang)
	defer C.free(unsafe.Pointer(clang))

	if rc := C.espeak_open(clang); rc != 0 {
		return nil, fmt.Errorf("espeak init (lang %s): %d", lang, int(rc))
	}
	return &Espeak{open: true}, nil
}

func (e *Espeak) SetRate(wpm int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return errors.New("espeak closed")
	}
	if rc := C.espeak_rate(C.int(wpm)); rc != 0 {
		return fmt.Errorf("espeak rate %d: %d", wpm, int(rc))
	}
	return nil
}

// Speak blocks until playback finishes.
func (e *Espeak) Speak(text string) error {
	if text == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return errors.New("espeak closed")
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	if rc := C.espeak_say(ctext); rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}
	return nil
}

func (e *Espeak) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		C.espeak_Terminate()
		e.open = false
	}
}
