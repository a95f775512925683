package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-pymd/internal/process"
)

// Sentinel errors.
var (
	ErrStart    = errors.New("failed to start interpreter")
	ErrExited   = errors.New("interpreter exited unexpectedly")
	ErrProtocol = errors.New("kernel protocol error")
	ErrClosed   = errors.New("kernel is closed")
)

// Defaults.
const (
	DefaultInterpreter  = "python3"
	DefaultStartTimeout = 30 * time.Second
	shutdownGrace       = 5 * time.Second
	stderrTailSize      = 4096
)

// Config describes how to launch the interpreter.
type Config struct {
	Interpreter  string        // executable name or path (default: python3)
	Args         []string      // extra arguments placed before "-c <bootstrap>"
	Env          []string      // extra KEY=VALUE entries appended to the environment
	Dir          string        // working directory (default: current)
	Charting     bool          // install the chart interception hook
	Stderr       io.Writer     // receives the interpreter's stderr (default: discarded)
	StartTimeout time.Duration // handshake deadline (default: 30s)
}

// Request is one fragment to execute.
type Request struct {
	Name string // label used in tracebacks, e.g. "<fragment 1>"
	Code string
}

// Chart is a figure intercepted while a fragment ran.
type Chart struct {
	Title string
	PNG   []byte
}

// Reply is the outcome of one fragment.
type Reply struct {
	Stdout string
	Error  string // formatted traceback, empty on success
	Charts []Chart
}

// Failed reports whether the fragment raised.
func (r Reply) Failed() bool { return r.Error != "" }

// Info is what the interpreter reported at startup.
type Info struct {
	Python   string
	Charting bool
	PID      int
}

// Kernel is a running interpreter with a persistent namespace.
type Kernel struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	enc     *json.Encoder
	inbox   chan message
	readErr error
	done    chan struct{} // closed when the reader goroutine exits
	quit    chan struct{} // closed to stop delivering messages
	stderr  *tailWriter
	info    Info

	mu     sync.Mutex
	nextID int
	closed bool
	killed bool

	waitOnce sync.Once
	waitErr  error
}

// Start launches the interpreter and waits for its handshake.
func Start(ctx context.Context, cfg Config) (*Kernel, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrStart)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	startTimeout := cfg.StartTimeout
	if startTimeout <= 0 {
		startTimeout = DefaultStartTimeout
	}

	// Passed inline: running it from a file would put that file's
	// directory at sys.path[0], ahead of the stdlib.
	args := append(append([]string{}, cfg.Args...), "-c", bootstrapSource)
	cmd := exec.Command(interpreter, args...)
	cmd.Dir = cfg.Dir
	cmd.Env = buildEnv(cfg)
	cmd.WaitDelay = shutdownGrace
	process.SetProcessGroup(cmd)

	tail := &tailWriter{max: stderrTailSize}
	var stderr io.Writer = tail
	if cfg.Stderr != nil {
		stderr = io.MultiWriter(cfg.Stderr, tail)
	}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStart, interpreter, err)
	}

	k := &Kernel{
		cmd:    cmd,
		stdin:  stdin,
		enc:    json.NewEncoder(stdin),
		inbox:  make(chan message),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
		stderr: tail,
	}
	go k.readLoop(stdout)

	msg, err := k.receive(ctx, startTimeout)
	if err != nil {
		k.abort()
		if errors.Is(err, ErrExited) || errors.Is(err, ErrProtocol) {
			return nil, fmt.Errorf("%w: %s: %w", ErrStart, interpreter, err)
		}
		return nil, err
	}
	if msg.Type != msgReady {
		k.abort()
		return nil, fmt.Errorf("%w: %w: expected %q, got %q", ErrStart, ErrProtocol, msgReady, msg.Type)
	}
	k.info = Info{Python: msg.Python, Charting: msg.Charting, PID: msg.PID}
	return k, nil
}

// Info returns what the interpreter reported at startup.
func (k *Kernel) Info() Info { return k.info }

// Charting reports whether charts are intercepted.
func (k *Kernel) Charting() bool { return k.info.Charting }

// Execute runs one fragment in the shared namespace.
func (k *Kernel) Execute(ctx context.Context, req Request) (Reply, error) {
	if ctx == nil {
		return Reply{}, fmt.Errorf("%w: nil context", ErrProtocol)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return Reply{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}

	k.nextID++
	id := k.nextID
	if err := k.enc.Encode(request{Type: msgExecute, ID: id, Name: req.Name, Code: req.Code}); err != nil {
		return Reply{}, k.exitError(err)
	}

	msg, err := k.receive(ctx, 0)
	if err != nil {
		return Reply{}, err
	}
	switch {
	case msg.Type == msgError:
		return Reply{}, fmt.Errorf("%w: %s", ErrProtocol, msg.Message)
	case msg.Type != msgResult:
		return Reply{}, fmt.Errorf("%w: expected %q, got %q", ErrProtocol, msgResult, msg.Type)
	case msg.ID != id:
		return Reply{}, fmt.Errorf("%w: reply id %d, want %d", ErrProtocol, msg.ID, id)
	}

	reply := Reply{Stdout: msg.Stdout, Error: msg.Error}
	for _, c := range msg.Artifacts {
		reply.Charts = append(reply.Charts, Chart(c))
	}
	return reply, nil
}

// Close asks the interpreter to exit and releases its resources.
// Close is idempotent.
func (k *Kernel) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil
	}
	k.closed = true

	_ = k.enc.Encode(request{Type: msgShutdown})
	_ = k.stdin.Close()
	close(k.quit)

	select {
	case <-k.done:
	case <-time.After(shutdownGrace):
		k.kill()
		<-k.done
	}

	err := k.wait()
	if err != nil && !k.killed {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %v%s", ErrExited, err, k.stderrSuffix())
		}
		return err
	}
	return nil
}

// readLoop decodes messages until the channel closes.
func (k *Kernel) readLoop(r io.Reader) {
	defer close(k.done)
	defer close(k.inbox)

	dec := json.NewDecoder(r)
	for {
		var msg message
		if err := dec.Decode(&msg); err != nil {
			if !errors.Is(err, io.EOF) {
				var syntaxErr *json.SyntaxError
				if errors.As(err, &syntaxErr) {
					err = fmt.Errorf("%w: %v", ErrProtocol, err)
				}
				k.readErr = err
			}
			return
		}
		select {
		case k.inbox <- msg:
		case <-k.quit:
			return
		}
	}
}

// receive waits for the next message. A zero timeout waits indefinitely.
func (k *Kernel) receive(ctx context.Context, timeout time.Duration) (message, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case msg, ok := <-k.inbox:
		if !ok {
			<-k.done
			if errors.Is(k.readErr, ErrProtocol) {
				k.kill()
				return message{}, k.readErr
			}
			_ = k.wait()
			return message{}, k.exitError(k.readErr)
		}
		return msg, nil
	case <-ctx.Done():
		k.kill()
		return message{}, ctx.Err()
	case <-deadline:
		k.kill()
		return message{}, fmt.Errorf("%w: no handshake within %s%s", ErrProtocol, timeout, k.stderrSuffix())
	}
}

// exitError describes a dead interpreter, including its last stderr lines.
func (k *Kernel) exitError(cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %v%s", ErrExited, cause, k.stderrSuffix())
	}
	return fmt.Errorf("%w%s", ErrExited, k.stderrSuffix())
}

func (k *Kernel) stderrSuffix() string {
	tail := strings.TrimSpace(k.stderr.String())
	if tail == "" {
		return ""
	}
	return ": " + tail
}

func (k *Kernel) kill() {
	if k.cmd.Process == nil {
		return
	}
	k.killed = true
	process.KillProcessGroup(k.cmd.Process.Pid)
	_ = k.cmd.Process.Kill()
}

// abort tears down a kernel whose startup failed.
func (k *Kernel) abort() {
	k.closed = true
	k.kill()
	_ = k.stdin.Close()
	close(k.quit)
	<-k.done
	_ = k.wait()
}

// wait reaps the interpreter once its stdout is drained.
func (k *Kernel) wait() error {
	k.waitOnce.Do(func() {
		k.waitErr = k.cmd.Wait()
	})
	return k.waitErr
}

func buildEnv(cfg Config) []string {
	charting := "0"
	if cfg.Charting {
		charting = "1"
	}
	env := append(os.Environ(),
		envEncoding+"=utf-8",
		envBackend+"=Agg",
		envArtifacts+"="+charting,
	)
	return append(env, cfg.Env...)
}

// tailWriter keeps the last max bytes written to it.
type tailWriter struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.max; over > 0 {
		w.buf = w.buf[over:]
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.buf)
}
