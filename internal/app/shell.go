package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hokaccha/go-prettyjson"

	"github.com/neuraform/neuraform/internal/log"
	"github.com/neuraform/neuraform/internal/objects"
	"github.com/neuraform/neuraform/internal/orchestrator"
	"github.com/neuraform/neuraform/internal/tracing"
)

// shellRequest is one query line read from the shell.
type shellRequest struct {
	Query string `json:"query"`

	objects.RequestContext
}

// Shell reads query requests from stdin, one JSON object per line, and
// prints the processed result.
type Shell struct {
	orchestrator *orchestrator.Orchestrator

	in  io.Reader
	out io.Writer
}

func NewShell(o *orchestrator.Orchestrator) *Shell {
	return &Shell{
		orchestrator: o,
		in:           os.Stdin,
		out:          os.Stdout,
	}
}

// Run processes requests until the input is exhausted.
func (s *Shell) Run() error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		s.handle(line)
	}

	return scanner.Err()
}

func (s *Shell) handle(line string) {
	ctx := tracing.WithTraceID(context.Background(), tracing.GenerateTraceID())
	ctx = tracing.WithOperationName(ctx, "process_query")

	var request shellRequest
	if err := json.Unmarshal([]byte(line), &request); err != nil {
		fmt.Fprintf(s.out, "invalid request: %v\n", err)
		return
	}

	result, err := s.orchestrator.Process(ctx, request.Query, request.RequestContext)
	if err != nil {
		log.Debug(ctx, "query failed", log.Cause(err))
	}

	output, err := prettyjson.Marshal(result)
	if err != nil {
		fmt.Fprintf(s.out, "marshal result: %v\n", err)
		return
	}

	fmt.Fprintln(s.out, string(output))
}
