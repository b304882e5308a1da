// Package worker owns the media engine process and the channel to it.
package worker

import (
	"bufio"
	"io"
	"os/exec"
	"sync"

	"github.com/mediamux/mediamux/internal/app"
	"github.com/mediamux/mediamux/pkg/channel"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Mod struct {
			Binary string   `yaml:"binary"`
			Args   []string `yaml:"args"`
		} `yaml:"worker"`
	}

	app.LoadConfig(&cfg)

	log = app.GetLogger("worker")

	if cfg.Mod.Binary == "" {
		log.Debug().Msg("[worker] no binary, module disabled")
		return
	}

	if err := run(cfg.Mod.Binary, cfg.Mod.Args); err != nil {
		log.Error().Err(err).Msg("[worker] run")
	}
}

// GetChannel - nil when the worker module is disabled
func GetChannel() *channel.Channel {
	return ch
}

// HandleExit registers f to run once when the engine process dies
func HandleExit(f func()) {
	exitMu.Lock()
	exitFuncs = append(exitFuncs, f)
	exitMu.Unlock()
}

var log zerolog.Logger
var ch *channel.Channel

var (
	exitMu    sync.Mutex
	exitFuncs []func()
)

func run(binary string, args []string) error {
	cmd := exec.Command(binary, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err = cmd.Start(); err != nil {
		return err
	}

	log.Info().Str("binary", binary).Int("pid", cmd.Process.Pid).Msg("[worker] run")

	ch = channel.NewChannel(&pipeConn{Reader: stdout, in: stdin, out: stdout})
	ch.Log = log

	// engine writes its own log lines to stderr
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Debug().Msg("[worker] " + scanner.Text())
		}
	}()

	go func() {
		if err2 := ch.Serve(); err2 != io.EOF {
			log.Warn().Err(err2).Msg("[worker] channel")
		}
	}()

	go func() {
		err2 := cmd.Wait()
		log.Warn().Err(err2).Msg("[worker] exit")

		_ = ch.Close()

		exitMu.Lock()
		funcs := exitFuncs
		exitFuncs = nil
		exitMu.Unlock()

		for _, f := range funcs {
			f()
		}
	}()

	return nil
}

// pipeConn joins the child stdio pair into one channel transport
type pipeConn struct {
	io.Reader
	in  io.WriteCloser
	out io.Closer
}

func (p *pipeConn) Write(b []byte) (int, error) {
	return p.in.Write(b)
}

func (p *pipeConn) Close() error {
	err := p.in.Close()
	_ = p.out.Close()
	return err
}
