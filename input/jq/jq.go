// Package jq implements an input.Source that streams tokens out of a
// `jq --stream` subprocess, so the trace JSON is never held in memory.
package jq

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/grafana/globalconf"
	"github.com/grafana/tracegas/input"
	"github.com/raintank/dur"
	"golang.org/x/sync/errgroup"
)

type SourceConfig struct {
	Bin        string
	TimeoutStr string
	Timeout    time.Duration
	BufferSize int
}

func NewSourceConfig() *SourceConfig {
	return &SourceConfig{
		Bin:        "jq",
		TimeoutStr: "0",
		BufferSize: 1024 * 1024,
	}
}

var CliConfig = NewSourceConfig()

func ConfigSetup() *flag.FlagSet {
	fs := flag.NewFlagSet("jq", flag.ExitOnError)
	fs.StringVar(&CliConfig.Bin, "bin", CliConfig.Bin, "name or path of the jq binary")
	fs.StringVar(&CliConfig.TimeoutStr, "timeout", CliConfig.TimeoutStr, "kill the tokenizer if it runs longer than this. eg '10min', '2h'. 0 to disable")
	fs.IntVar(&CliConfig.BufferSize, "buffer-size", CliConfig.BufferSize, "max token line size in bytes")
	globalconf.Register("jq", fs, flag.ExitOnError)
	return fs
}

func ConfigProcess() error {
	if CliConfig.TimeoutStr != "0" {
		sec, err := dur.ParseNDuration(CliConfig.TimeoutStr)
		if err != nil {
			return fmt.Errorf("invalid jq-timeout %q: %s", CliConfig.TimeoutStr, err)
		}
		CliConfig.Timeout = time.Duration(sec) * time.Second
	}
	return nil
}

// Program returns the jq filter that selects the op and gasCost fields
// (plus depth when filtering) of each structLogs entry and emits them as
// `index \t field \t value` lines.
func Program(withDepth bool) string {
	fields := `.[0][2]=="op" or .[0][2]=="gasCost"`
	if withDepth {
		fields += ` or .[0][2]=="depth"`
	}
	return `select(.[0][0]=="structLogs" and (` + fields + `)) | [.[0][1], .[0][2], .[1]] | @tsv`
}

// Args returns the full jq argument list for the given trace file.
func Args(trace string, withDepth bool) []string {
	return []string{"--stream", "-r", Program(withDepth), trace}
}

// Source streams triples from a running jq process.
type Source struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	scanner *bufio.Scanner
	stderr  bytes.Buffer
	drain   *errgroup.Group
	done    bool
	err     error
}

// New starts the tokenizer for the given trace file.
// A missing jq binary or trace file is an error before any processing.
func New(ctx context.Context, cfg *SourceConfig, trace string, withDepth bool) (*Source, error) {
	bin, err := exec.LookPath(cfg.Bin)
	if err != nil {
		return nil, fmt.Errorf("%q not found on PATH (required for streaming parse)", cfg.Bin)
	}
	if _, err := os.Stat(trace); err != nil {
		return nil, fmt.Errorf("trace not found: %s", trace)
	}

	var cancel context.CancelFunc
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	cmd := exec.CommandContext(ctx, bin, Args(trace, withDepth)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start %s: %s", bin, err)
	}

	s := &Source{
		cmd:     cmd,
		cancel:  cancel,
		scanner: bufio.NewScanner(stdout),
		drain:   &errgroup.Group{},
	}
	s.scanner.Buffer(make([]byte, 64*1024), cfg.BufferSize)
	s.drain.Go(func() error {
		_, err := io.Copy(&s.stderr, stderr)
		return err
	})
	return s, nil
}

// Next returns the next triple, io.EOF once the process exited cleanly,
// or a *input.ProcessError when it exited with a failure status.
func (s *Source) Next() (input.Triple, error) {
	if s.done {
		return input.Triple{}, s.err
	}
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			continue
		}
		return input.ParseLine(line)
	}
	if err := s.scanner.Err(); err != nil {
		s.fail(err)
		return input.Triple{}, s.err
	}
	s.finish()
	return input.Triple{}, s.err
}

// finish reaps the process after its output ran dry.
func (s *Source) finish() {
	s.done = true
	defer s.cancel()
	s.drain.Wait()
	err := s.cmd.Wait()
	if err == nil {
		s.err = io.EOF
		return
	}
	if ee, ok := err.(*exec.ExitError); ok {
		s.err = &input.ProcessError{Code: ee.ExitCode(), Stderr: s.stderr.String()}
		return
	}
	s.err = err
}

func (s *Source) fail(err error) {
	s.done = true
	s.err = err
	s.cancel()
	s.drain.Wait()
	s.cmd.Wait()
}

// Close tears down a source that is abandoned before exhaustion.
func (s *Source) Close() error {
	if s.done {
		return nil
	}
	s.fail(nil)
	s.err = io.EOF
	return nil
}
