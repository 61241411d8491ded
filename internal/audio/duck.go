package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type streamInfo struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id   int
	from int
	to   int
}

// Ducker lowers PulseAudio sink inputs of other applications while the
// assistant speaks and restores them afterwards.
type Ducker struct {
	mu      sync.Mutex
	ducked  bool
	self    []string    // application.name values left alone
	restore map[int]int // sink input id -> volume before ducking
	floor   int
	pactl   func(ctx context.Context, args ...string) ([]byte, error)
}

func NewDucker(self []string, floor int) *Ducker {
	return &Ducker{
		self:    append([]string(nil), self...),
		restore: make(map[int]int),
		floor:   clamp(floor),
		pactl:   runPactl,
	}
}

func runPactl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "pactl", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("pactl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// DuckOthers fades every foreign stream to volume*factor, never below the
// floor. Calling it while already ducked does nothing.
func (d *Ducker) DuckOthers(ctx context.Context, factor float64, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ducked {
		return nil
	}

	streams, err := d.streams(ctx)
	if err != nil {
		return err
	}

	d.restore = make(map[int]int)

	var fades []fade
	for _, s := range streams {
		to := int(math.Round(math.Max(float64(s.Volume)*factor, float64(d.floor))))
		d.restore[s.ID] = s.Volume
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: clamp(to)})
	}

	if err := d.apply(ctx, fades, duration); err != nil {
		return err
	}

	d.ducked = true
	return nil
}

// UnduckOthers fades ducked streams back. Streams that appeared after
// ducking are not touched.
func (d *Ducker) UnduckOthers(ctx context.Context, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ducked {
		return nil
	}

	streams, err := d.streams(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, s := range streams {
		if orig, ok := d.restore[s.ID]; ok {
			fades = append(fades, fade{id: s.ID, from: s.Volume, to: orig})
		}
	}

	if err := d.apply(ctx, fades, duration); err != nil {
		return err
	}

	d.restore = make(map[int]int)
	d.ducked = false
	return nil
}

func (d *Ducker) streams(ctx context.Context) ([]streamInfo, error) {
	out, err := d.pactl(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, err
	}

	var res []streamInfo
	for _, s := range parseSinkInputs(string(out)) {
		if !d.isSelf(s) {
			res = append(res, s)
		}
	}
	return res, nil
}

func (d *Ducker) isSelf(s streamInfo) bool {
	for _, name := range d.self {
		if s.AppName == name {
			return true
		}
	}
	return false
}

// apply steps every fade in 10ms increments over duration.
func (d *Ducker) apply(ctx context.Context, fades []fade, duration time.Duration) error {
	if len(fades) == 0 {
		return nil
	}

	steps := int(duration / (10 * time.Millisecond))
	if steps < 1 {
		steps = 1
	}
	pause := duration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := f.from + int(math.Round(float64(f.to-f.from)*frac))
			if _, err := d.pactl(ctx, "set-sink-input-volume", strconv.Itoa(f.id), fmt.Sprintf("%d%%", clamp(v))); err != nil {
				return fmt.Errorf("set volume id=%d: %w", f.id, err)
			}
		}

		if i < steps && pause > 0 {
			time.Sleep(pause)
		}
	}

	return nil
}

// parseSinkInputs reads `pactl list sink-inputs` output.
func parseSinkInputs(text string) []streamInfo {
	blocks := strings.Split(text, "Sink Input #")
	var res []streamInfo

	for _, block := range blocks[1:] {
		head, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			continue
		}

		s := streamInfo{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); m != nil {
					s.Volume, _ = strconv.Atoi(m[1])
				}
			}

			if rest, ok := strings.CutPrefix(line, "application.name = "); ok && s.AppName == "" {
				s.AppName = strings.Trim(rest, `"`)
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}

	return res
}

func clamp(v int) int {
	return min(max(v, 0), maxVolume)
}
