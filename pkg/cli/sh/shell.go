// Package sh is the interactive shell of robocli. Command packages
// register their commands with AddCmds in init.
package sh

import (
	"flag"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	env "github.com/robotalks/dualdrive/pkg/l1/env/connector"
)

const (
	shellKey   = "$shell"
	idlePrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool
	timeout    = time.Second

	registered []*ishell.Cmd
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluate the command line only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print replies and events in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Timeout waiting for a reply.")
}

// AddCmds registers commands for every Shell created afterwards.
func AddCmds(cmds ...*ishell.Cmd) {
	registered = append(registered, cmds...)
}

// Shell is an ishell backed shell connected to at most one drive.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *ConnLoop
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(idlePrompt)
	for _, cmd := range builtinCmds {
		s.Shell.AddCmd(cmd)
	}
	for _, cmd := range registered {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Run connects when the drive is known, then evaluates args or starts
// the interactive shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if err := s.autoConnect(); err != nil {
			log.Fatalln(err)
		}
	}
	switch {
	case len(args) > 0:
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
	case s.Interactive:
		s.Shell.Run()
	default:
		log.Fatalln("command expected")
	}
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
