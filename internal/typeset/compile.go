package typeset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Engines for Compiler.
const (
	EngineAuto     = "auto"
	EnginePdflatex = "pdflatex"
	EngineDocker   = "docker"
)

const (
	// CompilationTimeout is the default time allowed for one compile
	CompilationTimeout = 60 * time.Second
	// DefaultDockerImage carries a TeX distribution with pdflatex
	DefaultDockerImage = "blang/latex"

	texName = "resume.tex"
	pdfName = "resume.pdf"
)

// runFunc runs name with args in dir and returns combined output.
type runFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Compiler turns LaTeX source into PDF bytes.
type Compiler struct {
	engine      string
	dockerImage string
	timeout     time.Duration
	run         runFunc
	lookPath    func(string) (string, error)
}

// NewCompiler returns a compiler for engine ("auto", "pdflatex" or "docker").
// Zero values select the defaults.
func NewCompiler(engine, dockerImage string, timeout time.Duration) *Compiler {
	if engine == "" {
		engine = EngineAuto
	}
	if dockerImage == "" {
		dockerImage = DefaultDockerImage
	}
	if timeout <= 0 {
		timeout = CompilationTimeout
	}
	return &Compiler{
		engine:      engine,
		dockerImage: dockerImage,
		timeout:     timeout,
		run:         execRun,
		lookPath:    exec.LookPath,
	}
}

// resolveEngine picks pdflatex when installed, then docker.
func (c *Compiler) resolveEngine() (string, error) {
	switch c.engine {
	case EnginePdflatex, EngineDocker:
		if _, err := c.lookPath(c.engine); err != nil {
			return "", &CompilationError{Message: c.engine + " not found in PATH", Cause: err}
		}
		return c.engine, nil
	case EngineAuto:
		for _, e := range []string{EnginePdflatex, EngineDocker} {
			if _, err := c.lookPath(e); err == nil {
				return e, nil
			}
		}
		return "", &CompilationError{
			Message: "no LaTeX compiler available: install a TeX distribution with pdflatex or docker with " + c.dockerImage,
		}
	default:
		return "", &CompilationError{Message: fmt.Sprintf("unknown engine %q", c.engine)}
	}
}

// Compile writes latex to a fresh temporary directory, compiles it and returns the PDF.
func (c *Compiler) Compile(ctx context.Context, latex string) ([]byte, error) {
	engine, err := c.resolveEngine()
	if err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "onepage-compile-*")
	if err != nil {
		return nil, &CompilationError{Message: "failed to create temporary working directory", Cause: err}
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	if err := os.WriteFile(filepath.Join(workDir, texName), []byte(latex), 0o644); err != nil {
		return nil, &CompilationError{Message: "failed to write LaTeX source", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pdflatexArgs := []string{"-interaction=nonstopmode", "-halt-on-error", texName}
	var output []byte
	var runErr error
	if engine == EngineDocker {
		args := append([]string{"run", "--rm", "-v", workDir + ":/data", "-w", "/data", c.dockerImage, "pdflatex"}, pdflatexArgs...)
		output, runErr = c.run(ctx, workDir, "docker", args...)
	} else {
		output, runErr = c.run(ctx, workDir, "pdflatex", pdflatexArgs...)
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, &CompilationError{Message: fmt.Sprintf("compilation timed out after %s", c.timeout), Cause: ctx.Err()}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logOutput := string(output)
	if logBytes, err := os.ReadFile(filepath.Join(workDir, "resume.log")); err == nil {
		logOutput = string(logBytes)
	}

	pdf, err := os.ReadFile(filepath.Join(workDir, pdfName))
	if err != nil || runErr != nil {
		cause := runErr
		if cause == nil {
			cause = err
		}
		return nil, &CompilationError{
			Message:   firstErrorMessage(logOutput),
			Line:      ErrorLine(logOutput),
			LogOutput: logOutput,
			Cause:     cause,
		}
	}
	return pdf, nil
}

var (
	errorLinePattern = regexp.MustCompile(`(?m)^l\.(\d+)`)
	bangPattern      = regexp.MustCompile(`(?m)^! (.+)$`)
)

// ErrorLine returns the first "l.N" line indicator in a pdflatex log, or 0.
func ErrorLine(log string) int {
	m := errorLinePattern.FindStringSubmatch(log)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func firstErrorMessage(log string) string {
	if m := bangPattern.FindStringSubmatch(log); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "PDF was not generated"
}
