package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"vassist/internal/ipc"
)

const usage = `usage: vassist-ctl [flags] <command> [args]

commands:
  start            start (or restart) the listening session
  stop             stop the session
  status           show session state
  ask <text>       process a typed command
  history          print the conversation log
  speed <s>        set voice speed: slow, normal or fast
`

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	user := cli.StringP("user", "u", "", "User email; defaults to the running session")
	timeout := cli.DurationP("timeout", "t", 2*time.Minute, "How long to wait for a reply")
	cli.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		cli.PrintDefaults()
	}
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		cli.Usage()
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: args[0], User: *user, Text: strings.Join(args[1:], " ")}
	switch msg.Cmd {
	case ipc.CmdStart, ipc.CmdStop, ipc.CmdStatus, ipc.CmdHistory:
	case ipc.CmdAsk, ipc.CmdSpeed:
		if msg.Text == "" {
			fmt.Fprintf(os.Stderr, "%s needs an argument\n", msg.Cmd)
			os.Exit(2)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", msg.Cmd)
		cli.Usage()
		os.Exit(2)
	}

	reply, err := ipc.Send(*socket, msg, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vassist not running:", err)
		os.Exit(1)
	}
	if !reply.OK {
		fmt.Fprintln(os.Stderr, "error:", reply.Error)
		os.Exit(1)
	}

	if reply.Text != "" {
		fmt.Println(reply.Text)
	}
	for _, line := range reply.Lines {
		fmt.Println(line)
	}
}
