// Package terminal implements an interactive prompt over an open
// JDWP session: reading user input, dispatching to the command table
// and printing results.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/derekparker/trie"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/enovella/jdwp/pkg/config"
	"github.com/enovella/jdwp/pkg/jdwp"
)

const historyFile string = "history"

// Term represents the terminal running the jdwp prompt.
type Term struct {
	resolver *jdwp.Resolver
	conf     *config.Config
	prompt   string
	line     *liner.State
	cmds     *Commands
	dumb     bool
	stdout   io.Writer

	// sigs collects class signatures seen in command output, for
	// prompt completion.
	sigs *trie.Trie

	// requests maps installed event request ids to their kind, which
	// EventRequest.Clear needs back.
	requests map[jdwp.EventRequestID]jdwp.EventKind
}

// New returns a new Term attached to the session behind resolver.
func New(resolver *jdwp.Resolver, conf *config.Config) *Term {
	cmds := DebugCommands()
	if conf != nil && conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}
	if conf == nil {
		conf = &config.Config{}
	}

	dumb := strings.ToLower(os.Getenv("TERM")) == "dumb" ||
		!isatty.IsTerminal(os.Stdout.Fd())
	var w io.Writer
	if dumb {
		w = os.Stdout
	} else {
		w = getColorableWriter()
	}

	return &Term{
		resolver: resolver,
		conf:     conf,
		prompt:   "(jdwp) ",
		line:     liner.NewLiner(),
		cmds:     cmds,
		dumb:     dumb,
		stdout:   w,
		sigs:     trie.New(),
		requests: make(map[jdwp.EventRequestID]jdwp.EventKind),
	}
}

// NewBatch returns a Term for one-shot, non-interactive use: no
// prompt, no history, output straight to stdout.
func NewBatch(resolver *jdwp.Resolver, conf *config.Config) *Term {
	cmds := DebugCommands()
	if conf != nil && conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}
	if conf == nil {
		conf = &config.Config{}
	}
	return &Term{
		resolver: resolver,
		conf:     conf,
		cmds:     cmds,
		dumb:     true,
		stdout:   os.Stdout,
		sigs:     trie.New(),
		requests: make(map[jdwp.EventRequestID]jdwp.EventKind),
	}
}

// RunCommand dispatches a single command line under ctx.
func (t *Term) RunCommand(ctx context.Context, cmdstr string) error {
	return t.cmds.CallWithContext(cmdstr, t, ctx)
}

// Close returns the terminal to its previous mode.
func (t *Term) Close() {
	if t.line != nil {
		t.line.Close()
	}
}

// Run begins the read/dispatch loop. It returns when the user quits
// or the session dies.
func (t *Term) Run() (int, error) {
	defer t.Close()

	t.line.SetCompleter(t.complete)

	fullHistoryFile, err := config.Path(historyFile)
	if err != nil {
		fmt.Printf("Unable to load history file: %v.", err)
	}
	f, err := os.Open(fullHistoryFile)
	if err != nil {
		f, err = os.Create(fullHistoryFile)
		if err != nil {
			fmt.Printf("Unable to open history file: %v. History will not be saved for this session.", err)
		}
	}
	if f != nil {
		t.line.ReadHistory(f)
		f.Close()
	}

	fmt.Println("Type 'help' for list of commands.")

	done := t.resolver.Session().Closed()
	for {
		select {
		case <-done:
			fmt.Fprintln(os.Stderr, "session closed")
			return 1, nil
		default:
		}

		cmdstr, err := t.promptForInput()
		if err != nil {
			if err == io.EOF {
				fmt.Println("exit")
				return t.handleExit()
			}
			return 1, fmt.Errorf("Prompt for input failed.\n")
		}

		if err := t.cmds.Call(cmdstr, t); err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			fmt.Fprintf(os.Stderr, "Command failed: %s\n", err)
		}
	}
}

// complete suggests command names at the start of the line and cached
// class signatures afterwards.
func (t *Term) complete(line string) (c []string) {
	sp := strings.LastIndex(line, " ")
	if sp < 0 {
		for _, cmd := range t.cmds.cmds {
			for _, alias := range cmd.aliases {
				if strings.HasPrefix(alias, strings.ToLower(line)) {
					c = append(c, alias)
				}
			}
		}
		return
	}
	head, word := line[:sp+1], line[sp+1:]
	if word == "" {
		return
	}
	for _, sig := range t.sigs.PrefixSearch(word) {
		c = append(c, head+sig)
	}
	return
}

// rememberSignature records a class signature for completion.
func (t *Term) rememberSignature(sig string) {
	t.sigs.Add(sig, nil)
}

func (t *Term) promptForInput() (string, error) {
	l, err := t.line.Prompt(t.prompt)
	if err != nil {
		return "", err
	}
	l = strings.TrimSuffix(l, "\n")
	if l != "" {
		t.line.AppendHistory(l)
	}
	return l, nil
}

func (t *Term) handleExit() (int, error) {
	if f, err := config.Path(historyFile); err == nil {
		if fh, err := os.Create(f); err == nil {
			t.line.WriteHistory(fh)
			fh.Close()
		}
	}
	return 0, nil
}

// cmdContext returns the context commands run under, honoring the
// configured per-command timeout.
func (t *Term) cmdContext() (context.Context, context.CancelFunc) {
	if d := t.conf.Timeout(); d > 0 {
		return context.WithTimeout(context.Background(), d)
	}
	return context.WithCancel(context.Background())
}
