package terminal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"

	"github.com/enovella/jdwp/pkg/jdwp"
)

type cmdfunc func(t *Term, ctx context.Context, args string) error

type command struct {
	aliases []string
	helpMsg string
	cmdFn   cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// ExitRequestError is returned when the user exits the prompt.
type ExitRequestError struct{}

func (ExitRequestError) Error() string {
	return "exit"
}

// Commands represents the commands for the jdwp terminal process.
type Commands struct {
	cmds []command
}

// byFirstAlias will sort by the first
// alias of a command.
type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

// DebugCommands returns a Commands struct with default commands defined.
func DebugCommands() *Commands {
	c := &Commands{}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"classes", "cls"}, cmdFn: classes, helpMsg: `Lists loaded classes.

	classes [<signature>]

Without arguments lists every reference type loaded in the VM. With a
JVM signature (e.g. Ljava/lang/String;) lists only matching classes.`},
		{aliases: []string{"methods", "m"}, cmdFn: methods, helpMsg: `Lists the methods of a class.

	methods <signature>`},
		{aliases: []string{"break", "b"}, cmdFn: breakpoint, helpMsg: `Sets a breakpoint at the entry of a method.

	break <class-signature> <method-name> [<method-signature>]

The method signature is only needed to pick one of several overloads.`},
		{aliases: []string{"clear"}, cmdFn: clear, helpMsg: `Removes an event request installed by this client.

	clear <request-id>`},
		{aliases: []string{"clearall"}, cmdFn: clearAll, helpMsg: `Removes all breakpoints from the VM.`},
		{aliases: []string{"suspend"}, cmdFn: suspend, helpMsg: `Suspends all threads in the VM.`},
		{aliases: []string{"resume", "c"}, cmdFn: resume, helpMsg: `Resumes all threads in the VM.`},
		{aliases: []string{"string"}, cmdFn: mkstring, helpMsg: `Creates a java.lang.String in the VM and prints its object id.

	string <text>`},
		{aliases: []string{"version", "v"}, cmdFn: vmVersion, helpMsg: `Prints the version reported by the VM.`},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: `Exit the prompt.`},
	}

	sort.Sort(byFirstAlias(c.cmds))
	return c
}

// Register custom commands. Expects cf to be a func of type cmdfunc,
// returning only an error.
func (c *Commands) Register(cmdstr string, cf cmdfunc, helpMsg string) {
	for i := range c.cmds {
		if c.cmds[i].match(cmdstr) {
			c.cmds[i].cmdFn = cf
			return
		}
	}
	c.cmds = append(c.cmds, command{aliases: []string{cmdstr}, cmdFn: cf, helpMsg: helpMsg})
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
func (c *Commands) Find(cmdstr string) cmdfunc {
	// An empty line (<enter>) is a no-op; the previous command is not
	// repeated.
	if cmdstr == "" {
		return nullCommand
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.cmdFn
		}
	}

	return noCmdAvailable
}

// CallWithContext takes a command and a context to execute it under.
func (c *Commands) CallWithContext(cmdstr string, t *Term, ctx context.Context) error {
	vals := split2PartsBySpace(cmdstr)
	cmdname := vals[0]
	var args string
	if len(vals) > 1 {
		args = strings.TrimSpace(vals[1])
	}
	return c.Find(cmdname)(t, ctx, args)
}

// Call takes a command to execute.
func (c *Commands) Call(cmdstr string, t *Term) error {
	ctx, cancel := t.cmdContext()
	defer cancel()
	return c.CallWithContext(cmdstr, t, ctx)
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
}

var errNoCmd = errors.New("command not available")

func noCmdAvailable(t *Term, ctx context.Context, args string) error {
	return errNoCmd
}

func nullCommand(t *Term, ctx context.Context, args string) error {
	return nil
}

func (c *Commands) help(t *Term, ctx context.Context, args string) error {
	if args != "" {
		for _, cmd := range c.cmds {
			for _, alias := range cmd.aliases {
				if alias == args {
					fmt.Fprintln(t.stdout, cmd.helpMsg)
					return nil
				}
			}
		}
		return errNoCmd
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 0, '-', 0)
	for _, cmd := range c.cmds {
		h := cmd.helpMsg
		if idx := strings.Index(h, "\n"); idx >= 0 {
			h = h[:idx]
		}
		if len(cmd.aliases) > 1 {
			fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
		} else {
			fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func classes(t *Term, ctx context.Context, args string) error {
	var list []jdwp.ClassInfo
	var err error
	if args == "" {
		list, err = t.resolver.Session().GetAllClasses(ctx)
	} else {
		list, err = t.resolver.ClassesBySignature(ctx, args)
	}
	if err != nil {
		return err
	}
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 1, ' ', 0)
	for _, ci := range list {
		t.rememberSignature(ci.Signature)
		fmt.Fprintf(w, "%s\t%#x\t%s\t%s\n", ci.Kind, uint64(ci.TypeID), ci.Signature, ci.Status)
	}
	return w.Flush()
}

func methods(t *Term, ctx context.Context, args string) error {
	if args == "" {
		return errors.New("not enough arguments. usage: methods <signature>")
	}
	class, err := t.resolver.ClassBySignature(ctx, args)
	if err != nil {
		return err
	}
	t.rememberSignature(class.Signature)
	list, err := t.resolver.Methods(ctx, class.TypeID)
	if err != nil {
		return err
	}
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 1, ' ', 0)
	for _, mi := range list {
		fmt.Fprintf(w, "%#x\t%s\t%s\n", uint64(mi.ID), mi.Name, mi.Signature)
	}
	return w.Flush()
}

func breakpoint(t *Term, ctx context.Context, args string) error {
	if args == "" {
		return errors.New("not enough arguments. usage: break <class-signature> <method-name> [<method-signature>]")
	}
	v, err := argv.Argv(args, func(s string) (string, error) { return s, nil }, nil)
	if err != nil {
		return err
	}
	if len(v) == 0 || len(v[0]) < 2 {
		return errors.New("not enough arguments. usage: break <class-signature> <method-name> [<method-signature>]")
	}
	fields := v[0]
	methodSig := ""
	if len(fields) > 2 {
		methodSig = fields[2]
	}
	class, method, err := t.resolver.MethodByName(ctx, fields[0], fields[1], methodSig)
	if err != nil {
		return err
	}
	id, err := t.resolver.Session().SetEventRequest(ctx, jdwp.Breakpoint, jdwp.SuspendAll,
		jdwp.LocationOnlyModifier{
			Kind:   class.Kind,
			Class:  class.TypeID,
			Method: method.ID,
			Index:  0,
		})
	if err != nil {
		return err
	}
	t.requests[id] = jdwp.Breakpoint
	fmt.Fprintf(t.stdout, "Breakpoint %d set at %s.%s\n", id, class.Signature, method.Name)
	return nil
}

func clear(t *Term, ctx context.Context, args string) error {
	if args == "" {
		return errors.New("not enough arguments. usage: clear <request-id>")
	}
	n, err := strconv.ParseInt(args, 10, 32)
	if err != nil {
		return err
	}
	id := jdwp.EventRequestID(n)
	kind, ok := t.requests[id]
	if !ok {
		return fmt.Errorf("no event request with id %d", id)
	}
	if err := t.resolver.Session().ClearEventRequest(ctx, kind, id); err != nil {
		return err
	}
	delete(t.requests, id)
	fmt.Fprintf(t.stdout, "Request %d cleared\n", id)
	return nil
}

func clearAll(t *Term, ctx context.Context, args string) error {
	if err := t.resolver.Session().ClearAllBreakpoints(ctx); err != nil {
		return err
	}
	for id, kind := range t.requests {
		if kind == jdwp.Breakpoint {
			delete(t.requests, id)
		}
	}
	fmt.Fprintln(t.stdout, "All breakpoints cleared")
	return nil
}

func suspend(t *Term, ctx context.Context, args string) error {
	return t.resolver.Session().Suspend(ctx)
}

func resume(t *Term, ctx context.Context, args string) error {
	return t.resolver.Session().Resume(ctx)
}

func mkstring(t *Term, ctx context.Context, args string) error {
	if args == "" {
		return errors.New("not enough arguments. usage: string <text>")
	}
	id, err := t.resolver.Session().CreateString(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "%#x\n", uint64(id))
	return nil
}

func vmVersion(t *Term, ctx context.Context, args string) error {
	v, err := t.resolver.Session().GetVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "%s (JDWP %d.%d, %s %s)\n", v.Description, v.JDWPMajor, v.JDWPMinor, v.Name, v.Version)
	return nil
}

func exitCommand(t *Term, ctx context.Context, args string) error {
	return ExitRequestError{}
}

func split2PartsBySpace(s string) []string {
	v := strings.SplitN(s, " ", 2)
	for i := range v {
		v[i] = strings.TrimSpace(v[i])
	}
	return v
}
