// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// pipes-tail dumps or follows a Pipes messages file. Debugging tool
// for the orchestrator side: point it at the sink a launched process
// is writing and watch the event stream.
//
//	pipes-tail messages.jsonl
//	pipes-tail --follow messages.jsonl
//
// With --json each event is reprinted as its compact wire line;
// otherwise a human-oriented one-liner per event.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/pipes-foundation/pipes/lib/harness"
	"github.com/pipes-foundation/pipes/lib/version"
	"github.com/pipes-foundation/pipes/lib/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pipes-tail: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var follow bool
	var asJSON bool

	flagSet := pflag.NewFlagSet("pipes-tail", pflag.ContinueOnError)
	flagSet.BoolVarP(&follow, "follow", "f", false, "follow the file until the closed sentinel or interrupt")
	flagSet.BoolVar(&asJSON, "json", false, "print raw wire lines instead of a rendered form")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("pipes-tail")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}

	arguments := flagSet.Args()
	if len(arguments) != 1 {
		return fmt.Errorf("usage: pipes-tail [--follow] [--json] <messages-file>")
	}
	path := arguments[0]

	if !follow {
		messages, err := harness.ReadMessages(path)
		if err != nil {
			return err
		}
		for _, message := range messages {
			printMessage(message, asJSON)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	messages, err := harness.Tail(ctx, path)
	if err != nil {
		return err
	}
	for message := range messages {
		printMessage(message, asJSON)
	}
	return nil
}

func printMessage(message wire.Message, asJSON bool) {
	if asJSON {
		line, err := json.Marshal(message)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipes-tail: encoding message: %v\n", err)
			return
		}
		fmt.Println(string(line))
		return
	}

	switch message.Method {
	case wire.MethodReportAssetMaterialization:
		fmt.Printf("materialized %v data_version=%v\n",
			message.Params["asset_key"], message.Params["data_version"])
	case wire.MethodReportAssetCheck:
		fmt.Printf("check %v on %v passed=%v severity=%v\n",
			message.Params["check_name"], message.Params["asset_key"],
			message.Params["passed"], message.Params["severity"])
	case wire.MethodLog:
		fmt.Printf("[%v] %v\n", message.Params["level"], message.Params["message"])
	case wire.MethodClosed:
		fmt.Println("closed")
	}
}
