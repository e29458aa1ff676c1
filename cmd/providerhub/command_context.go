package main

import (
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/providerhub/providerhub/internal/logging"
)

// annotationStructuredLog marks commands whose output is consumed by log
// collectors rather than a person at a terminal.
const annotationStructuredLog = "structured-log"

// commandExecutionContext captures which command is running so fatal-path
// reporting can decide between structured logs and plain stderr lines.
type commandExecutionContext struct {
	CommandPath       string
	UsesStructuredLog bool
}

var (
	commandExecutionMu  sync.Mutex
	commandExecutionCtx commandExecutionContext
)

func setCommandExecutionContext(ctx commandExecutionContext) {
	commandExecutionMu.Lock()
	defer commandExecutionMu.Unlock()
	commandExecutionCtx = ctx
}

func resetCommandExecutionContext() {
	setCommandExecutionContext(commandExecutionContext{})
}

func currentCommandExecutionContext() commandExecutionContext {
	commandExecutionMu.Lock()
	defer commandExecutionMu.Unlock()
	return commandExecutionCtx
}

func commandUsesStructuredLogging(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationStructuredLog] == "true" {
			return true
		}
	}
	return false
}

// prepareCommandExecution records the execution context and, for structured
// commands, installs the process-wide logger before RunE fires.
func prepareCommandExecution(cmd *cobra.Command) error {
	structured := commandUsesStructuredLogging(cmd)
	setCommandExecutionContext(commandExecutionContext{
		CommandPath:       cmd.CommandPath(),
		UsesStructuredLog: structured,
	})

	if !structured {
		return nil
	}
	var stderr io.Writer = os.Stderr
	_, err := logging.BootstrapFromEnv(logging.BootstrapOptions{
		Command: cmd.CommandPath(),
		Writer:  stderr,
	})
	return err
}
