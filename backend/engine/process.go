package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

// WorkflowsFile is the name of the workflow set handed to the engine binary
const WorkflowsFile = "workflows.json"

// ErrClosed is returned by calls on a closed engine
var ErrClosed = errors.New("engine is closed")

// Options configures the engine binary
type Options struct {
	Command     string
	Args        []string
	InitTimeout time.Duration
	CallTimeout time.Duration
	WorkDir     string
}

// ProcessEngine runs the engine binary once per call:
//
//	<command> <args...> <op> --workflows <file> [--trace]
//
// with the payload on stdin and the result on stdout.
type ProcessEngine struct {
	opts      Options
	workflows models.CategorizedWorkflows

	ready   chan struct{}
	dir     string
	file    string
	initErr error

	// done is closed by Close to abort running calls
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewFactory returns a Factory creating process engines with the given options
func NewFactory(opts Options) Factory {
	return func(workflows models.CategorizedWorkflows) (Engine, error) {
		if opts.Command == "" {
			return nil, fmt.Errorf("engine command is not configured")
		}
		return NewProcessEngine(opts, workflows), nil
	}
}

// NewProcessEngine creates an engine and starts its initialization
func NewProcessEngine(opts Options, workflows models.CategorizedWorkflows) *ProcessEngine {
	e := &ProcessEngine{
		opts:      opts,
		workflows: workflows,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
	go e.initialize()
	return e
}

func (e *ProcessEngine) initialize() {
	defer close(e.ready)

	if _, err := exec.LookPath(e.opts.Command); err != nil {
		e.initErr = fmt.Errorf("engine binary not found: %w", err)
		return
	}

	dir, err := os.MkdirTemp(e.opts.WorkDir, "reframe-engine-*")
	if err != nil {
		e.initErr = fmt.Errorf("failed to create engine directory: %w", err)
		return
	}
	e.dir = dir

	data, err := json.Marshal(e.workflows)
	if err != nil {
		e.initErr = fmt.Errorf("failed to encode workflows: %w", err)
		return
	}

	e.file = filepath.Join(dir, WorkflowsFile)
	if err := os.WriteFile(e.file, data, 0644); err != nil {
		e.initErr = fmt.Errorf("failed to write workflows: %w", err)
	}
}

// Ready blocks until initialization finished
func (e *ProcessEngine) Ready(ctx context.Context) error {
	if e.opts.InitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.InitTimeout)
		defer cancel()
	}

	select {
	case <-e.ready:
		return e.initErr
	case <-ctx.Done():
		return fmt.Errorf("engine initialization: %w", ctx.Err())
	}
}

func (e *ProcessEngine) Process(ctx context.Context, payload string) ([]byte, error) {
	return e.call(ctx, OpProcess, payload, false)
}

func (e *ProcessEngine) ProcessWithTrace(ctx context.Context, payload string) ([]byte, error) {
	return e.call(ctx, OpProcess, payload, true)
}

func (e *ProcessEngine) Validate(ctx context.Context, payload string) ([]byte, error) {
	return e.call(ctx, OpValidate, payload, false)
}

func (e *ProcessEngine) ValidateWithTrace(ctx context.Context, payload string) ([]byte, error) {
	return e.call(ctx, OpValidate, payload, true)
}

func (e *ProcessEngine) Generate(ctx context.Context, content string) ([]byte, error) {
	return e.call(ctx, OpGenerate, content, false)
}

func (e *ProcessEngine) GenerateWithTrace(ctx context.Context, content string) ([]byte, error) {
	return e.call(ctx, OpGenerate, content, true)
}

func (e *ProcessEngine) call(ctx context.Context, op Op, input string, trace bool) ([]byte, error) {
	if err := e.Ready(ctx); err != nil {
		return nil, err
	}

	// Close aborts running calls and waits for them before removing the workflow file
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}

	if e.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.CallTimeout)
		defer cancel()
	}

	ctx, abort := context.WithCancel(ctx)
	defer abort()
	go func() {
		select {
		case <-e.done:
			abort()
		case <-ctx.Done():
		}
	}()

	args := append([]string{}, e.opts.Args...)
	args = append(args, string(op), "--workflows", e.file)
	if trace {
		args = append(args, "--trace")
	}

	cmd := exec.CommandContext(ctx, e.opts.Command, args...)
	cmd.Dir = e.dir
	cmd.WaitDelay = time.Second
	killGroupOnCancel(cmd)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		select {
		case <-e.done:
			return nil, fmt.Errorf("engine %s: %w", op, ErrClosed)
		default:
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("engine %s: %w", op, ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("engine %s failed: %s: %w", op, msg, err)
		}
		return nil, fmt.Errorf("engine %s failed: %w", op, err)
	}

	return bytes.TrimSpace(stdout.Bytes()), nil
}

// Close aborts running calls and frees the engine's working directory.
// Safe to call more than once.
func (e *ProcessEngine) Close() error {
	e.closeOnce.Do(func() { close(e.done) })
	<-e.ready

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	if e.dir == "" {
		return nil
	}
	if err := os.RemoveAll(e.dir); err != nil {
		return fmt.Errorf("failed to remove engine directory: %w", err)
	}
	return nil
}
