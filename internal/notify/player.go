package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Player makes a cue audible.
type Player interface {
	Play(ctx context.Context, cue Cue) error
}

// Silent plays nothing.
type Silent struct{}

// Play implements Player.
func (Silent) Play(context.Context, Cue) error { return nil }

// BellPlayer rings the terminal bell once per tone.
type BellPlayer struct {
	Out io.Writer
}

// Play implements Player.
func (b BellPlayer) Play(ctx context.Context, cue Cue) error {
	if b.Out == nil {
		return fmt.Errorf("bell: no output")
	}
	for i, tone := range cue.Tones {
		if _, err := io.WriteString(b.Out, "\a"); err != nil {
			return fmt.Errorf("bell: %w", err)
		}
		if i == len(cue.Tones)-1 {
			break
		}
		timer := time.NewTimer(tone.Duration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

const defaultSampleRate = 22050

// CommandPlayer pipes the cue as a WAV file into an external audio player,
// e.g. "aplay -q" or "paplay".
type CommandPlayer struct {
	path       string
	args       []string
	sampleRate int
	grace      time.Duration // allowed on top of the cue length
}

const defaultCommandGrace = 5 * time.Second

// NewCommandPlayer resolves command on PATH.
func NewCommandPlayer(command string) (*CommandPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("sound command is empty")
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("find sound command: %w", err)
	}
	return &CommandPlayer{path: path, args: fields[1:], sampleRate: defaultSampleRate, grace: defaultCommandGrace}, nil
}

// Play implements Player.
// A player that outlives the cue plus the grace period is killed.
func (p *CommandPlayer) Play(ctx context.Context, cue Cue) error {
	ctx, cancel := context.WithTimeout(ctx, cue.Duration()+p.grace)
	defer cancel()
	cmd := exec.CommandContext(ctx, p.path, p.args...)
	cmd.Stdin = bytes.NewReader(cue.WAV(p.sampleRate))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run %s: %w: %s", p.path, err, strings.TrimSpace(string(out)))
	}
	return nil
}
