package cmds

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/enovella/jdwp/pkg/config"
	"github.com/enovella/jdwp/pkg/jdwp"
	"github.com/enovella/jdwp/pkg/logflags"
	"github.com/enovella/jdwp/pkg/terminal"
)

const version string = "0.2.0"

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// attach is the address of the JVM debug port.
	attach string
	// dialTimeout is the timeout for establishing the TCP connection.
	dialTimeout time.Duration

	conf *config.Config
)

const jdwpCommandLongDesc = `jdwp is a command line client for JVMs running in debug mode.

It connects to the debug port of a Java virtual machine started with
-agentlib:jdwp=transport=dt_socket,server=y, enumerates loaded classes
and their methods, and installs event requests such as breakpoints.

The target address is taken from --attach, or from the "attach" key of
~/.jdwp/config.yml when the flag is not given.`

// New returns an initialized command tree.
func New() *cobra.Command {
	var err error
	conf, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		conf = &config.Config{}
	}

	rootCommand := &cobra.Command{
		Use:   "jdwp",
		Short: "jdwp is a client for JVMs running in debug mode.",
		Long:  jdwpCommandLongDesc,
	}

	rootCommand.PersistentFlags().StringVarP(&attach, "attach", "a", "", "Address of the JVM debug port (host:port).")
	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable debug logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", "Comma separated list of components that should produce debug output (jdwpwire,session).")
	rootCommand.PersistentFlags().DurationVar(&dialTimeout, "dial-timeout", 10*time.Second, "Timeout for establishing the connection.")

	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jdwp version: %s\n", version)
		},
	}
	hideGlobalFlags(versionCommand)
	rootCommand.AddCommand(versionCommand)

	classesCommand := &cobra.Command{
		Use:   "classes [signature]",
		Short: "Lists classes loaded in the VM.",
		Long: `Lists classes loaded in the VM.

Without arguments every loaded reference type is printed. With a JVM
signature (e.g. "Ljava/lang/String;") only matching classes are.`,
		Run: withSession(func(ctx context.Context, t *terminal.Term, args []string) error {
			if len(args) > 0 {
				return t.RunCommand(ctx, "classes "+args[0])
			}
			return t.RunCommand(ctx, "classes")
		}),
	}
	rootCommand.AddCommand(classesCommand)

	methodsCommand := &cobra.Command{
		Use:   "methods <signature>",
		Short: "Lists the methods of a class.",
		Args:  cobra.ExactArgs(1),
		Run: withSession(func(ctx context.Context, t *terminal.Term, args []string) error {
			return t.RunCommand(ctx, "methods "+args[0])
		}),
	}
	rootCommand.AddCommand(methodsCommand)

	breakCommand := &cobra.Command{
		Use:   "break <class-signature> <method-name> [<method-signature>]",
		Short: "Sets a breakpoint at the entry of a method.",
		Long: `Sets a breakpoint at the entry of a method and leaves it installed.

The VM suspends all threads when the breakpoint is hit; use an
interactive debugger (or the repl) to inspect and resume.`,
		Args: cobra.RangeArgs(2, 3),
		Run: withSession(func(ctx context.Context, t *terminal.Term, args []string) error {
			line := "break"
			for _, a := range args {
				line += " " + a
			}
			return t.RunCommand(ctx, line)
		}),
	}
	rootCommand.AddCommand(breakCommand)

	clearAllCommand := &cobra.Command{
		Use:   "clear-all",
		Short: "Removes all breakpoints from the VM.",
		Run: withSession(func(ctx context.Context, t *terminal.Term, args []string) error {
			return t.RunCommand(ctx, "clearall")
		}),
	}
	rootCommand.AddCommand(clearAllCommand)

	replCommand := &cobra.Command{
		Use:   "repl",
		Short: "Starts an interactive prompt on the VM.",
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(replRun())
		},
	}
	rootCommand.AddCommand(replCommand)

	return rootCommand
}

// hideGlobalFlags hides the connection flags in the help output of
// subcommands that never dial the VM. Hiding is destructive, so it
// only happens when help for such a command is actually requested.
func hideGlobalFlags(cmd *cobra.Command) {
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		c.InheritedFlags().VisitAll(func(flag *pflag.Flag) {
			flag.Hidden = true
		})
		c.Parent().HelpFunc()(c, args)
	})
}

func attachAddr() string {
	if attach != "" {
		return attach
	}
	if conf.Attach != "" {
		return conf.Attach
	}
	return "localhost:5005"
}

// connect dials the VM and opens a JDWP session on the connection.
func connect() (*jdwp.Session, error) {
	if err := logflags.Setup(log, logOutput); err != nil {
		return nil, err
	}
	addr := attachAddr()
	c, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("could not attach to %s: %v", addr, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	s, err := jdwp.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("handshake with %s failed: %v", addr, err)
	}
	return s, nil
}

// withSession wraps a one-shot subcommand with session setup and
// teardown.
func withSession(fn func(ctx context.Context, t *terminal.Term, args []string) error) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := connect()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer s.Close()

		t := terminal.NewBatch(jdwp.NewResolver(s), conf)
		ctx, cancel := commandContext()
		defer cancel()
		if err := fn(ctx, t, args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	if d := conf.Timeout(); d > 0 {
		return context.WithTimeout(context.Background(), d)
	}
	return context.WithCancel(context.Background())
}

func replRun() int {
	s, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer s.Close()

	t := terminal.New(jdwp.NewResolver(s), conf)
	status, err := t.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return status
}
