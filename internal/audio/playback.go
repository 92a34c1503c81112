package audio

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/book-expert/logger"
)

// ErrNoPlayer is returned when no known playback command is installed.
var ErrNoPlayer = errors.New("no audio player found")

// playerCommands lists the playback commands probed in order. The first one
// present on PATH wins.
var playerCommands = []struct {
	name string
	args []string
}{
	{name: "aplay", args: []string{"-q"}},
	{name: "afplay", args: nil},
	{name: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
}

// Player plays WAV files through an external system player. At most one
// playback runs at a time; starting a new one stops the previous.
type Player struct {
	mu      sync.Mutex
	current *exec.Cmd
	log     *logger.Logger
}

// NewPlayer creates a player.
func NewPlayer(log *logger.Logger) *Player {
	return &Player{
		mu:      sync.Mutex{},
		current: nil,
		log:     log,
	}
}

// Play starts playback of the WAV file at path without waiting for it to
// finish. Any playback already running is stopped first.
func (p *Player) Play(path string) error {
	command, args, err := findPlayer()
	if err != nil {
		return err
	}

	p.Stop()

	cmd := exec.Command(command, append(args, path)...)

	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("failed to start player '%s': %w", command, err)
	}

	p.mu.Lock()
	p.current = cmd
	p.mu.Unlock()

	go func() {
		waitErr := cmd.Wait()
		if waitErr != nil {
			p.log.Warn("Player '%s' exited with error: %v", command, waitErr)
		}

		p.mu.Lock()
		if p.current == cmd {
			p.current = nil
		}
		p.mu.Unlock()
	}()

	return nil
}

// Stop terminates the running playback, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	cmd := p.current
	p.current = nil
	p.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// findPlayer returns the first installed playback command.
func findPlayer() (string, []string, error) {
	for _, candidate := range playerCommands {
		path, err := exec.LookPath(candidate.name)
		if err == nil {
			return path, candidate.args, nil
		}
	}

	return "", nil, ErrNoPlayer
}
