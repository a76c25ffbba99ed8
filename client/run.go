// File: client/run.go
package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"gridwalk/protocol"
	"gridwalk/render"
	"gridwalk/utils"
)

func setRawMode(fileDescriptor uintptr) (*unix.Termios, error) {
	terminalSettings, err := unix.IoctlGetTermios(int(fileDescriptor), unix.TCGETS)
	if err != nil {
		return nil, err
	}
	savedTerminalSettings := *terminalSettings
	terminalSettings.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	terminalSettings.Oflag &^= unix.OPOST
	terminalSettings.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	terminalSettings.Cflag &^= unix.CSIZE | unix.PARENB
	terminalSettings.Cflag |= unix.CS8
	terminalSettings.Oflag |= unix.ONLCR

	if err := unix.IoctlSetTermios(int(fileDescriptor), unix.TCSETS, terminalSettings); err != nil {
		return nil, err
	}
	return &savedTerminalSettings, nil
}

func restoreMode(fileDescriptor uintptr, saved *unix.Termios) {
	_ = unix.IoctlSetTermios(int(fileDescriptor), unix.TCSETS, saved)
}

var moveKeys = map[byte][2]int{
	'w': {0, -1}, 'W': {0, -1},
	's': {0, 1}, 'S': {0, 1},
	'a': {-1, 0}, 'A': {-1, 0},
	'd': {1, 0}, 'D': {1, 0},
}

// statusScreen is the terminal surface a session paints on.
type statusScreen interface {
	render.Terminal
	Notice(text string) error
	Fatal(text string) error
}

// session is the state the event loop mutates: the painter, the predictor,
// and the last authoritative snapshot.
type session struct {
	cfg        utils.Config
	log        *slog.Logger
	screen     statusScreen
	driver     *render.Driver
	predictor  *Predictor
	playerName string
	lastState  *protocol.GameState
}

// snapBack reconciles the predictor against the last snapshot and repaints
// whatever diverged.
func (s *session) snapBack() {
	if s.lastState == nil || !s.predictor.Primed() {
		return
	}
	if d, diverged := s.predictor.Reconcile(*s.lastState); diverged {
		_ = s.driver.PaintLocal(d.PredictedX, d.PredictedY, d.ServerX, d.ServerY)
	}
}

// handleEvent applies one client event. done reports the session is over;
// err carries the terminal failure, if any.
func (s *session) handleEvent(ev Event) (done bool, err error) {
	switch e := ev.(type) {
	case Connected:
		_ = s.screen.Notice("connected, joining as " + s.playerName)

	case Joined:
		s.predictor.Prime(e.State, e.PlayerID)
		if s.predictor.Primed() {
			s.driver.SetLocalPlayer(e.PlayerID)
		}
		s.driver.Reset()
		st := e.State
		s.lastState = &st
		if err := s.driver.Apply(&st); err != nil {
			s.log.Warn("render", "err", err)
		}

	case Waiting:
		_ = s.screen.Notice(e.Message)

	case StateUpdate:
		st := e.State
		s.lastState = &st
		if err := s.driver.Apply(&st); err != nil {
			s.log.Warn("render", "err", err)
		}

	case MoveFailed:
		s.snapBack()

	case ServerError:
		_ = s.screen.Notice(e.Code + ": " + e.Message)

	case Disconnected:
		if e.Wanted {
			return true, nil
		}
		// Without auto-reconnect there is nothing left to wait for.
		if !s.cfg.Reconnection.Enabled {
			_ = s.screen.Fatal("connection lost")
			return true, fmt.Errorf("connection lost: %w", e.Err)
		}
		_ = s.screen.Notice("connection lost")

	case Reconnecting:
		_ = s.screen.Notice(fmt.Sprintf("reconnecting, attempt %d (next retry in %s)", e.Attempt, e.Delay))

	case Reconnected:
		_ = s.screen.Notice("reconnected")

	case ServerRestart:
		_ = s.screen.Notice("server restarted, joined with a fresh player")

	case ReconnectFailed:
		_ = s.screen.Fatal(fmt.Sprintf("gave up after %d reconnect attempts", e.Attempts))
		return true, fmt.Errorf("reconnect failed after %d attempts", e.Attempts)
	}
	return false, nil
}

// Run drives the interactive terminal session: raw-mode input, the client
// event stream, prediction with periodic reconciliation, and incremental
// rendering. It returns when the user quits, the connection is lost for
// good, or ctx is cancelled.
func Run(ctx context.Context, cfg utils.Config, playerName string, log *slog.Logger) error {
	savedSettings, err := setRawMode(os.Stdin.Fd())
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer restoreMode(os.Stdin.Fd(), savedSettings)

	term := render.NewANSITerminal(os.Stdout)
	sess := &session{
		cfg:        cfg,
		log:        log,
		screen:     term,
		driver:     render.NewDriver(term, render.DefaultFallbackThreshold, cfg.StatusBar.Threshold),
		predictor:  NewPredictor(cfg.Prediction.Enabled),
		playerName: playerName,
	}

	c := New(cfg, log)
	if err := c.Connect(); err != nil {
		return err
	}
	if err := c.Join(playerName); err != nil {
		return err
	}

	keys := make(chan byte, 8)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				return
			}
			keys <- buf[0]
		}
	}()

	reconcile := time.NewTicker(cfg.ReconciliationInterval())
	defer reconcile.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.Disconnect()
			return nil

		case key := <-keys:
			switch {
			case key == 'q' || key == 'Q' || key == 3:
				_ = c.Disconnect()
				return nil
			case key == 'r' || key == 'R':
				_ = c.Restart()
			default:
				d, ok := moveKeys[key]
				if !ok {
					continue
				}
				if sess.predictor.Primed() {
					fromX, fromY, toX, toY, legal := sess.predictor.Intent(d[0], d[1])
					if !legal {
						continue
					}
					_ = sess.driver.PaintLocal(fromX, fromY, toX, toY)
				}
				if err := c.Move(d[0], d[1]); err != nil {
					log.Warn("send move", "err", err)
				}
			}

		case <-reconcile.C:
			sess.snapBack()

		case ev, ok := <-c.Events():
			if !ok {
				return nil
			}
			done, err := sess.handleEvent(ev)
			if done {
				_ = c.Disconnect()
				return err
			}
		}
	}
}
