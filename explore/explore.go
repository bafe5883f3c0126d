// Package explore implements the interactive query loop over a resolved
// build.  A line naming a symbol by dot path or mangled name prints that
// symbol; keyword commands list what the model holds.  Completion draws
// from the same outline the editor surfaces serve.
package explore

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/jlaustill/c-next-sub006/driver"
)

type config struct {
	stdin  io.ReadCloser
	output io.WriteCloser
}

func newConfig(opts ...Option) *config {
	config := &config{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the loop.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithOutput allows overriding the output of the loop.
func WithOutput(output io.WriteCloser) Option {
	return func(c *config) {
		c.output = output
	}
}

// Run starts the query loop over a finished build and blocks until the
// input ends or the user quits.
func Run(res *driver.Result, prompt string, opts ...Option) {
	cfg := newConfig(opts...)
	out := io.Writer(os.Stderr)
	if cfg.output != nil {
		out = cfg.output
	}

	model := newModel(res)

	histFile := historyPath()
	ensureHistoryFilePermissions(histFile)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            prompt,
		HistoryFile:       histFile,
		HistorySearchFold: true,
		AutoComplete:      &pathCompleter{model: model},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		panic(err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	for {
		line, err := rl.ReadSlice()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			break
		}
		text := strings.TrimSpace(string(line))
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}
		model.eval(out, text)
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cnext_history")
}

// ensureHistoryFilePermissions creates the history file when missing
// and restricts it to 0600 either way; readline creates it 0644.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // fixed mode
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}
