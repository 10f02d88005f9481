// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

// pipes-run launches a child process under the Pipes protocol. It
// reads a YAML run spec, writes the context file, injects the two
// protocol environment variables, spawns the child with inherited
// stdio and forwarded signals, and tails the messages file, rendering
// each event to stderr as it arrives.
//
//	pipes-run --spec task.yaml
//
// The exit code is the child's exit code; harness failures exit 1 and
// a child that could not be started exits 126.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/pipes-foundation/pipes/lib/harness"
	"github.com/pipes-foundation/pipes/lib/version"
	"github.com/pipes-foundation/pipes/lib/wire"
)

func main() {
	os.Exit(run())
}

func run() int {
	var specPath string
	var keep bool
	var debug bool

	flagSet := pflag.NewFlagSet("pipes-run", pflag.ContinueOnError)
	flagSet.StringVar(&specPath, "spec", "", "path to the YAML run spec (required)")
	flagSet.BoolVar(&keep, "keep", false, "keep the working directory (context and messages files) after the run")
	flagSet.BoolVar(&debug, "debug", false, "log at debug level")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other pipes
	// binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("pipes-run")
		return 0
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "pipes-run: %v\n", err)
		return 1
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return 0
	}
	if specPath == "" {
		fmt.Fprintln(os.Stderr, "pipes-run: --spec is required")
		return 1
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	spec, err := harness.LoadSpec(specPath)
	if err != nil {
		logger.Error("loading run spec", "error", err)
		return 1
	}

	workDir, err := os.MkdirTemp("", "pipes-run-*")
	if err != nil {
		logger.Error("creating working directory", "error", err)
		return 1
	}
	if keep {
		logger.Info("working directory kept", "path", workDir)
	} else {
		defer os.RemoveAll(workDir)
	}

	launch, err := harness.Prepare(spec, workDir)
	if err != nil {
		logger.Error("preparing launch", "error", err)
		return 1
	}
	logger.Debug("launch prepared",
		"context", launch.ContextPath,
		"messages", launch.MessagesPath)

	tailCtx, stopTail := context.WithCancel(context.Background())
	defer stopTail()
	messages, err := harness.Tail(tailCtx, launch.MessagesPath)
	if err != nil {
		logger.Error("tailing messages", "error", err)
		return 1
	}

	// Render events concurrently with the child run. done closes when
	// the stream ends (closed sentinel, cancel, or watcher failure).
	done := make(chan struct{})
	go func() {
		defer close(done)
		for message := range messages {
			renderMessage(logger, message)
		}
	}()

	child := exec.Command(spec.Command[0], spec.Command[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Dir = spec.WorkDir
	child.Env = append(os.Environ(), launch.Env...)
	for key, value := range spec.Env {
		child.Env = append(child.Env, key+"="+value)
	}

	if err := child.Start(); err != nil {
		logger.Error("starting child", "command", spec.Command[0], "error", err)
		return 126
	}

	// Forward signals to the child so Ctrl-C and orchestrator SIGTERM
	// reach it; the protocol's durability contract covers whatever the
	// child managed to write before dying.
	signals := make(chan os.Signal, 4)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(signals)
	go forwardSignals(signals, child.Process)

	exitCode := 0
	if err := child.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			logger.Error("waiting for child", "error", err)
			exitCode = 1
		}
	}

	// The child has exited; the sentinel (if any) is already durably
	// in the file. Drain what remains and stop the tail.
	stopTail()
	<-done

	summarize(logger, launch.MessagesPath, exitCode)
	return exitCode
}

// forwardSignals relays signals to the child process. Send errors are
// ignored: the child may have already exited.
func forwardSignals(signals <-chan os.Signal, process *os.Process) {
	for sig := range signals {
		if sysSig, ok := sig.(syscall.Signal); ok {
			_ = process.Signal(sysSig)
		}
	}
}

// renderMessage logs one protocol event at a level appropriate to its
// kind.
func renderMessage(logger *slog.Logger, message wire.Message) {
	switch message.Method {
	case wire.MethodReportAssetMaterialization:
		logger.Info("asset materialized",
			"asset_key", message.Params["asset_key"],
			"data_version", message.Params["data_version"],
			"metadata", message.Params["metadata"])
	case wire.MethodReportAssetCheck:
		passed, _ := message.Params["passed"].(bool)
		level := slog.LevelInfo
		if !passed {
			level = slog.LevelWarn
			if message.Params["severity"] == string(wire.SeverityError) {
				level = slog.LevelError
			}
		}
		logger.Log(context.Background(), level, "asset check",
			"check_name", message.Params["check_name"],
			"asset_key", message.Params["asset_key"],
			"passed", passed,
			"severity", message.Params["severity"])
	case wire.MethodLog:
		logger.Log(context.Background(), logLevel(message), "child log",
			"message", message.Params["message"])
	case wire.MethodClosed:
		logger.Debug("session closed")
	}
}

// logLevel maps a wire log level onto slog.
func logLevel(message wire.Message) slog.Level {
	level, _ := message.Params["level"].(string)
	switch wire.LogLevel(level) {
	case wire.LevelDebug:
		return slog.LevelDebug
	case wire.LevelWarning:
		return slog.LevelWarn
	case wire.LevelError, wire.LevelCritical:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// summarize reports whether the message stream terminated cleanly.
// A missing sentinel with a zero exit code usually means the child
// never opened a session or skipped Close.
func summarize(logger *slog.Logger, messagesPath string, exitCode int) {
	messages, err := harness.ReadMessages(messagesPath)
	if err != nil {
		logger.Warn("reading back messages file", "error", err)
		return
	}
	closedSeen := len(messages) > 0 && messages[len(messages)-1].Method == wire.MethodClosed
	logger.Info("run finished",
		"exit_code", exitCode,
		"messages", len(messages),
		"closed", closedSeen)
	if !closedSeen {
		logger.Warn("message stream has no closed sentinel; the stream is a truncated prefix")
	}
}
