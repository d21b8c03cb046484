// Command drobot inspects the logs written by drobot experiments: it prints
// parameters, draws force fields and weight heat maps and builds PDF
// reports for any number of experiment directories.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
)

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"params":         {"[-R] DIR...", runParams},
		"forcefields":    {"[-t T,..] [-p policy] [-strict] [-o out] DIR...", runForceFields},
		"weights":        {"[-t T,..] [-c cmap] [-o out] DIR...", runWeights},
		"heatmap":        {"[-t T,..] [-c cmap] [-o out] DIR...", runHeatmap},
		"reward":         {"[-o out] DIR...", runReward},
		"export-weights": {"DIR...", runExportWeights},
		"report":         {"[-config file] [-j N] [-t T,..] [-o out] DIR...", runReport},
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: drobot COMMAND [flags] DIR...\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-15s %s\n", name, commands[name].usage)
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("drobot: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		if os.Args[1] != "-h" && os.Args[1] != "help" {
			log.Printf("unknown command %q", os.Args[1])
		}
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.run(ctx, os.Args[2:]); err != nil {
		log.Print(err)
		stop()
		os.Exit(1)
	}
}
