// Copyright 2026 The Pipes Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pipes-foundation/pipes/lib/params"
	"github.com/pipes-foundation/pipes/lib/runcontext"
	"github.com/pipes-foundation/pipes/lib/wire"
	"github.com/pipes-foundation/pipes/lib/writer"
)

// UsageError represents a misuse of the session lifecycle: a second
// Init while a session is open, reporting on a closed session, or a
// report that cannot be resolved against the run context.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return "pipes session: " + e.Reason
}

// usage builds a UsageError from a format string.
func usage(format string, args ...any) *UsageError {
	return &UsageError{Reason: fmt.Sprintf(format, args...)}
}

// Options configures Init. The zero value selects the protocol
// defaults: params from the environment, context from the file or
// inline shape, messages to the file sink.
type Options struct {
	// Params locates and decodes the bootstrap parameter blobs.
	// Defaults to params.EnvLoader.
	Params params.Loader

	// Context builds the run context from context params. Defaults
	// to runcontext.DefaultLoader.
	Context runcontext.Loader

	// Writer opens the message channel from messages params.
	// Defaults to writer.DefaultWriter.
	Writer writer.Writer

	// Logger receives debug-level lifecycle records. Protocol and I/O
	// failures are never logged here; they are returned to the
	// caller. Defaults to slog.Default().
	Logger *slog.Logger
}

// The process-wide session guard. Init sets active; Close clears it.
// Explicit state with an owning handle: the Session itself is the
// only way to reach the open channel.
var (
	activeMu sync.Mutex
	active   bool
)

// Session owns one open message channel and the run context for the
// life of the process. Obtained from [Init]; must be closed.
type Session struct {
	mu         sync.Mutex
	runContext *runcontext.Context
	channel    writer.Channel
	logger     *slog.Logger
	closed     bool
}

// Init loads the bootstrap params, builds the run context, and opens
// the message channel, in that order; the first failure is returned
// and no partially initialized state remains. A second Init while a
// session is open fails with *UsageError.
func Init(options Options) (*Session, error) {
	if options.Params == nil {
		options.Params = params.EnvLoader{}
	}
	if options.Context == nil {
		options.Context = runcontext.DefaultLoader{}
	}
	if options.Writer == nil {
		options.Writer = writer.DefaultWriter{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	activeMu.Lock()
	if active {
		activeMu.Unlock()
		return nil, usage("already initialized; one session per process")
	}
	active = true
	activeMu.Unlock()

	session, err := open(options)
	if err != nil {
		release()
		return nil, err
	}
	return session, nil
}

// open performs the three-stage bootstrap. Split from Init so the
// guard release on failure lives in exactly one place.
func open(options Options) (*Session, error) {
	contextParams, err := options.Params.LoadContextParams()
	if err != nil {
		return nil, err
	}
	runContext, err := options.Context.LoadContext(contextParams)
	if err != nil {
		return nil, err
	}
	messagesParams, err := options.Params.LoadMessagesParams()
	if err != nil {
		return nil, err
	}
	channel, err := options.Writer.Open(messagesParams)
	if err != nil {
		return nil, err
	}

	options.Logger.Debug("pipes session opened",
		"run_id", runContext.RunID,
		"asset_keys", runContext.AssetKeys)

	return &Session{
		runContext: runContext,
		channel:    channel,
		logger:     options.Logger,
	}, nil
}

func release() {
	activeMu.Lock()
	active = false
	activeMu.Unlock()
}

// Context returns the run context. The returned value is shared and
// read-only.
func (session *Session) Context() *runcontext.Context {
	return session.runContext
}

// ReportAssetMaterialization reports that an asset was produced or
// updated. assetKey may be empty when the run context holds exactly
// one asset key; dataVersion may be empty when the asset has no
// version. metadata is attached verbatim.
func (session *Session) ReportAssetMaterialization(assetKey string, metadata map[string]any, dataVersion string) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	key, err := session.resolveAssetKey(assetKey)
	if err != nil {
		return err
	}
	return session.write(wire.NewMaterialization(key, metadata, dataVersion))
}

// ReportAssetCheck reports the result of a named validation against
// an asset. assetKey may be empty when the run context holds exactly
// one asset key.
func (session *Session) ReportAssetCheck(checkName, assetKey string, passed bool, severity wire.AssetCheckSeverity, metadata map[string]any) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if checkName == "" {
		return usage("asset check requires a check name")
	}
	if err := severity.Validate(); err != nil {
		return usage("%v", err)
	}
	key, err := session.resolveAssetKey(assetKey)
	if err != nil {
		return err
	}
	return session.write(wire.NewAssetCheck(checkName, key, passed, severity, metadata))
}

// Log forwards a log line to the orchestrator's event stream.
func (session *Session) Log(level wire.LogLevel, text string) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := level.Validate(); err != nil {
		return usage("%v", err)
	}
	return session.write(wire.NewLog(level, text))
}

// Close writes the closed sentinel as the final line, releases the
// channel, and marks the session terminal. Idempotent: the second and
// later calls return nil and write nothing. Any reporting call after
// Close fails with *UsageError.
//
// Close must run on every exit path: defer it right after Init so
// the sentinel is written even when user code fails partway through.
func (session *Session) Close() error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil
	}
	// Terminal from here on, even if the sentinel write fails: the
	// guard is released and later calls are rejected, not retried.
	session.closed = true
	defer release()

	sentinelErr := session.channel.WriteMessage(wire.NewClosed())
	closeErr := session.channel.Close()

	session.logger.Debug("pipes session closed",
		"run_id", session.runContext.RunID)

	if sentinelErr != nil {
		return sentinelErr
	}
	return closeErr
}

// write sends one message; callers hold session.mu.
func (session *Session) write(message wire.Message) error {
	if session.closed {
		return usage("%s on closed session", message.Method)
	}
	return session.channel.WriteMessage(message)
}

// resolveAssetKey validates an explicit asset key against the run
// context, or defaults to the context's single key when empty.
// Callers hold session.mu.
func (session *Session) resolveAssetKey(assetKey string) (string, error) {
	if session.closed {
		return "", usage("report on closed session")
	}
	if assetKey == "" {
		key, err := session.runContext.AssetKey()
		if err != nil {
			return "", usage("%v", err)
		}
		return key, nil
	}
	if !session.runContext.HasAssetKey(assetKey) {
		return "", usage("asset key %q is not part of this run (have %v)", assetKey, session.runContext.AssetKeys)
	}
	return assetKey, nil
}

// Run initializes a session, invokes fn with it, and closes the
// session on the way out, including early returns and panics, so
// the closed sentinel is guaranteed without manual cleanup at each
// return site. The close error is reported when fn itself succeeds.
func Run(options Options, fn func(*Session) error) (err error) {
	session, initErr := Init(options)
	if initErr != nil {
		return initErr
	}
	defer func() {
		closeErr := session.Close()
		if err == nil {
			err = closeErr
		}
	}()
	return fn(session)
}
