// File: client/run_test.go
package client

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridwalk/protocol"
	"gridwalk/render"
	"gridwalk/utils"
)

type fakeScreen struct {
	*render.MemoryTerminal
	notices []string
	fatals  []string
}

func (f *fakeScreen) Notice(text string) error {
	f.notices = append(f.notices, text)
	return nil
}

func (f *fakeScreen) Fatal(text string) error {
	f.fatals = append(f.fatals, text)
	return nil
}

func newTestSession(cfg utils.Config) (*session, *fakeScreen) {
	fs := &fakeScreen{MemoryTerminal: render.NewMemoryTerminal()}
	return &session{
		cfg:        cfg,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		screen:     fs,
		driver:     render.NewDriver(fs, render.DefaultFallbackThreshold, cfg.StatusBar.Threshold),
		predictor:  NewPredictor(cfg.Prediction.Enabled),
		playerName: "alice",
	}, fs
}

// With auto-reconnect off, a dropped socket ends the session with an error
// instead of leaving the loop waiting for events that will never come.
func TestSessionEndsWhenReconnectDisabled(t *testing.T) {
	cfg := utils.DefaultConfig()
	cfg.Reconnection.Enabled = false
	s, fs := newTestSession(cfg)

	done, err := s.handleEvent(Disconnected{Err: io.EOF})
	assert.True(t, done)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
	assert.NotEmpty(t, fs.fatals)
}

func TestSessionStaysUpWhileReconnectArmed(t *testing.T) {
	s, fs := newTestSession(utils.DefaultConfig())

	done, err := s.handleEvent(Disconnected{Err: io.EOF})
	assert.False(t, done)
	assert.NoError(t, err)
	assert.NotEmpty(t, fs.notices)

	done, err = s.handleEvent(Reconnecting{Attempt: 1, Delay: time.Second})
	assert.False(t, done)
	assert.NoError(t, err)
}

func TestSessionWantedDisconnectEndsCleanly(t *testing.T) {
	s, _ := newTestSession(utils.DefaultConfig())

	done, err := s.handleEvent(Disconnected{Err: io.EOF, Wanted: true})
	assert.True(t, done)
	assert.NoError(t, err)
}

func TestSessionEndsWhenReconnectGivesUp(t *testing.T) {
	s, fs := newTestSession(utils.DefaultConfig())

	done, err := s.handleEvent(ReconnectFailed{Attempts: 10})
	assert.True(t, done)
	assert.Error(t, err)
	assert.NotEmpty(t, fs.fatals)
}

func TestSessionJoinedPrimesAndPaints(t *testing.T) {
	s, fs := newTestSession(utils.DefaultConfig())

	state := snapshotWith(protocol.PlayerState{PlayerID: "p1", X: 1, Y: 1})
	done, err := s.handleEvent(Joined{PlayerID: "p1", State: state})
	assert.False(t, done)
	assert.NoError(t, err)

	assert.True(t, s.predictor.Primed())
	assert.Equal(t, 1, fs.FullRenders)
	require.NotNil(t, s.lastState)
}
