package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"voxassist/internal/ipc"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: voxassist-ctl [--socket path] trigger | say <text>\n")
	os.Exit(2)
}

func main() {
	socket := cli.StringP("socket", "s", ipc.SocketPath, "Control socket path")
	cli.Usage = usage
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		usage()
	}

	var msg ipc.ControlMessage
	switch args[0] {
	case ipc.CmdTrigger:
		msg.Cmd = ipc.CmdTrigger
	case ipc.CmdSay:
		text := strings.TrimSpace(strings.Join(args[1:], " "))
		if text == "" {
			usage()
		}
		msg = ipc.ControlMessage{Cmd: ipc.CmdSay, Text: text}
	default:
		usage()
	}

	if err := ipc.Send(*socket, msg); err != nil {
		fmt.Println("voxassist not running:", err)
		os.Exit(1)
	}
}
