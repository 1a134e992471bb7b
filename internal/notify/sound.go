package notify

import (
	"context"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// SoundPlayer plays the reminder chime through whichever audio helper the
// host has. Sound names map to bundled files; "none" disables playback.
type SoundPlayer struct {
	tool   string
	sounds map[string]string
	log    *zap.Logger
}

const playTimeout = 10 * time.Second

// NewSoundPlayer probes for an audio player. With no player found Play
// becomes a silent no-op.
func NewSoundPlayer(soundDir string, log *zap.Logger) *SoundPlayer {
	if log == nil {
		log = zap.NewNop()
	}
	p := &SoundPlayer{log: log, sounds: builtinSounds(soundDir)}
	for _, tool := range []string{"paplay", "aplay", "afplay"} {
		if _, err := exec.LookPath(tool); err == nil {
			p.tool = tool
			break
		}
	}
	if p.tool == "" {
		log.Info("no audio player found, reminder sound disabled")
	}
	return p
}

func builtinSounds(dir string) map[string]string {
	if dir == "" {
		return map[string]string{}
	}
	return map[string]string{
		"default": dir + "/chime.wav",
		"bell":    dir + "/bell.wav",
		"soft":    dir + "/soft.wav",
	}
}

// Play fires the named sound and returns immediately.
func (p *SoundPlayer) Play(name string) {
	if p.tool == "" || name == "" || name == "none" {
		return
	}
	file, ok := p.sounds[name]
	if !ok {
		file, ok = p.sounds["default"]
		if !ok {
			return
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
		defer cancel()
		if err := exec.CommandContext(ctx, p.tool, file).Run(); err != nil {
			p.log.Warn("reminder sound failed", zap.String("tool", p.tool), zap.Error(err))
		}
	}()
}
