// Package kerneltest provides a fake interpreter that speaks the kernel
// protocol, so packages can exercise real kernel processes without Python.
//
// A test binary becomes the fake interpreter when re-executed with
// EnvFake set. Call RunIfRequested from TestMain before m.Run:
//
//	func TestMain(m *testing.M) {
//		kerneltest.RunIfRequested()
//		os.Exit(m.Run())
//	}
//
// The fake understands a tiny line-oriented language:
//
//	name = 'text'     assign a string (or another name)
//	print(x)          print a string literal or a name
//	raise Kind('msg') fail with a Python-style traceback
//	show('Title')     emit a chart (only when charting is enabled)
//	eprint('text')    write to stderr
//	exit(N)           terminate the interpreter with status N
//	sleep()           block until killed
//
// Blank lines and lines starting with '#' are ignored.
package kerneltest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-pymd/internal/kernel"
)

// Environment variables driving the fake.
const (
	EnvFake       = "PYMD_FAKE_KERNEL"
	EnvNoCharting = "PYMD_FAKE_NO_CHARTING" // report charting unavailable
	EnvBehavior   = "PYMD_FAKE_BEHAVIOR"    // "crash", "garbage", "silent", "wrong-id"
)

// Behaviors selected through EnvBehavior.
const (
	BehaviorCrash   = "crash"    // exit with status 1 before the handshake
	BehaviorGarbage = "garbage"  // write a non-JSON line instead of the handshake
	BehaviorSilent  = "silent"   // never send the handshake
	BehaviorWrongID = "wrong-id" // reply with a mismatched request id
)

// FakePython is the version reported by the fake.
const FakePython = "0.0.0-fake"

// PNGFor is the payload the fake returns for a chart titled title.
func PNGFor(title string) []byte {
	return []byte("\x89PNG fake " + title)
}

// RunIfRequested turns the current process into the fake interpreter when
// EnvFake is set, and exits when the session ends.
func RunIfRequested() {
	if os.Getenv(EnvFake) != "1" {
		return
	}
	os.Exit(Serve(os.Stdin, os.Stdout, os.Stderr))
}

// Config returns a kernel configuration that launches the current test
// binary as the fake interpreter.
func Config(extraEnv ...string) kernel.Config {
	return kernel.Config{
		Interpreter:  os.Args[0],
		Env:          append([]string{EnvFake + "=1"}, extraEnv...),
		StartTimeout: 10 * time.Second,
	}
}

type wireRequest struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type wireChart struct {
	Title string `json:"title"`
	PNG   []byte `json:"png"`
}

type wireResult struct {
	Type      string      `json:"type"`
	ID        int         `json:"id"`
	Stdout    string      `json:"stdout"`
	Error     string      `json:"error"`
	Artifacts []wireChart `json:"artifacts"`
}

// Serve runs the fake protocol loop and returns the exit status.
func Serve(in io.Reader, out, errOut io.Writer) int {
	behavior := os.Getenv(EnvBehavior)
	switch behavior {
	case BehaviorCrash:
		fmt.Fprintln(errOut, "fake: interpreter crashed during startup")
		return 1
	case BehaviorGarbage:
		fmt.Fprintln(out, "this is not json")
		time.Sleep(time.Hour)
		return 0
	case BehaviorSilent:
		time.Sleep(time.Hour)
		return 0
	}

	charting := os.Getenv("PYMD_ARTIFACTS") == "1" && os.Getenv(EnvNoCharting) != "1"

	enc := json.NewEncoder(out)
	_ = enc.Encode(map[string]any{
		"type":     "ready",
		"python":   FakePython,
		"charting": charting,
		"pid":      os.Getpid(),
	})

	s := &session{vars: map[string]string{}, charting: charting, stderr: errOut}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var req wireRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			fmt.Fprintf(errOut, "fake: bad request: %v\n", err)
			return 2
		}
		switch req.Type {
		case "shutdown":
			return 0
		case "execute":
		default:
			_ = enc.Encode(map[string]any{"type": "error", "id": req.ID, "message": "unknown request"})
			continue
		}

		res := s.run(req.Name, req.Code)
		res.Type = "result"
		res.ID = req.ID
		if behavior == BehaviorWrongID {
			res.ID = req.ID + 100
		}
		if err := enc.Encode(res); err != nil {
			return 2
		}
	}
	return 0
}

type session struct {
	vars     map[string]string
	charting bool
	stderr   io.Writer
}

func (s *session) run(name, code string) wireResult {
	var res wireResult
	var stdout strings.Builder

	for i, line := range strings.Split(code, "\n") {
		lineNo := i + 1
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "print(") && strings.HasSuffix(line, ")"):
			v, ok := s.eval(inner(line))
			if !ok {
				res.Error = nameError(name, lineNo, line, inner(line))
				res.Stdout = stdout.String()
				return res
			}
			stdout.WriteString(v + "\n")

		case strings.HasPrefix(line, "eprint(") && strings.HasSuffix(line, ")"):
			v, _ := s.eval(inner(line))
			fmt.Fprintln(s.stderr, v)

		case strings.HasPrefix(line, "show(") && strings.HasSuffix(line, ")"):
			if s.charting {
				title, _ := s.eval(inner(line))
				res.Artifacts = append(res.Artifacts, wireChart{Title: title, PNG: PNGFor(title)})
			}

		case strings.HasPrefix(line, "raise "):
			res.Error = raised(name, lineNo, line)
			res.Stdout = stdout.String()
			return res

		case strings.HasPrefix(line, "exit(") && strings.HasSuffix(line, ")"):
			status, err := strconv.Atoi(inner(line))
			if err != nil {
				status = 1
			}
			os.Exit(status)

		case line == "sleep()":
			time.Sleep(time.Hour)

		case strings.Contains(line, "="):
			lhs, rhs, _ := strings.Cut(line, "=")
			v, ok := s.eval(strings.TrimSpace(rhs))
			if !ok {
				res.Error = nameError(name, lineNo, line, strings.TrimSpace(rhs))
				res.Stdout = stdout.String()
				return res
			}
			s.vars[strings.TrimSpace(lhs)] = v

		default:
			res.Error = traceback(name, lineNo, line, "SyntaxError: invalid syntax")
			res.Stdout = stdout.String()
			return res
		}
	}

	res.Stdout = stdout.String()
	return res
}

func (s *session) eval(expr string) (string, bool) {
	if len(expr) >= 2 {
		q := expr[0]
		if (q == '\'' || q == '"') && expr[len(expr)-1] == q {
			return expr[1 : len(expr)-1], true
		}
	}
	if _, err := strconv.ParseFloat(expr, 64); err == nil {
		return expr, true
	}
	v, ok := s.vars[expr]
	return v, ok
}

func inner(call string) string {
	open := strings.Index(call, "(")
	return strings.TrimSpace(call[open+1 : len(call)-1])
}

func raised(name string, lineNo int, line string) string {
	exc := strings.TrimSpace(strings.TrimPrefix(line, "raise "))
	kind, msg := exc, ""
	if open := strings.Index(exc, "("); open >= 0 && strings.HasSuffix(exc, ")") {
		kind = exc[:open]
		msg = strings.Trim(exc[open+1:len(exc)-1], `'"`)
	}
	last := kind
	if msg != "" {
		last += ": " + msg
	}
	return traceback(name, lineNo, line, last)
}

func nameError(name string, lineNo int, line, ident string) string {
	return traceback(name, lineNo, line, fmt.Sprintf("NameError: name '%s' is not defined", ident))
}

func traceback(name string, lineNo int, line, last string) string {
	return fmt.Sprintf("Traceback (most recent call last):\n  File %q, line %d, in <module>\n    %s\n%s\n",
		name, lineNo, line, last)
}
