// Package publisher commits the history and the generated report and pushes
// them to the remote serving the site.
package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/pkg/logger"
	"github.com/burns-20/bwrank/pkg/metrics"
)

// ErrGit wraps failures of the git command.
var ErrGit = errors.New("git command failed")

// DefaultMessage prefixes the generated commit message.
const DefaultMessage = "Mise à jour du classement BloodWars"

// Runner runs git with args in dir and returns its standard output.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary found in PATH.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%w: git %s: %v: %s", ErrGit, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Result describes a publish attempt.
type Result struct {
	Published bool     `json:"published"`
	Message   string   `json:"message,omitempty"`
	Changes   []string `json:"changes,omitempty"`
}

// Publisher stages, commits and pushes files of one working tree.
type Publisher struct {
	runner  Runner
	dir     string
	remote  string
	branch  string
	message string
	now     func() time.Time
	logger  logger.Logger
}

// Option applies a configuration option to the Publisher.
type Option func(*Publisher)

// WithRunner replaces the git runner.
func WithRunner(r Runner) Option {
	return func(p *Publisher) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithRemote sets the remote and branch pushed to.
func WithRemote(remote, branch string) Option {
	return func(p *Publisher) {
		if remote != "" {
			p.remote = remote
		}
		if branch != "" {
			p.branch = branch
		}
	}
}

// WithMessage sets a fixed commit message.
func WithMessage(msg string) Option {
	return func(p *Publisher) {
		p.message = strings.TrimSpace(msg)
	}
}

// WithClock sets the clock used in generated messages.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New constructs a Publisher for the working tree at dir.
func New(dir string, opts ...Option) *Publisher {
	p := &Publisher{
		runner: ExecRunner{},
		dir:    dir,
		remote: "origin",
		branch: "main",
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish stages paths (the whole tree when none are given), then commits and
// pushes them if anything among them is staged. Changes elsewhere in the
// working tree are neither committed nor counted. Nothing staged is reported
// as Published=false, not as an error.
func (p *Publisher) Publish(ctx context.Context, paths ...string) (Result, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	if _, err := p.runner.Run(ctx, p.dir, append([]string{"add", "--"}, paths...)...); err != nil {
		metrics.RecordPublish("failed")
		return Result{}, err
	}

	staged, err := p.runner.Run(ctx, p.dir, append([]string{"diff", "--cached", "--name-only", "--"}, paths...)...)
	if err != nil {
		metrics.RecordPublish("failed")
		return Result{}, err
	}
	changes := nonEmptyLines(staged)
	if len(changes) == 0 {
		metrics.RecordPublish("unchanged")
		p.logger.Info(ctx, "nothing to publish")
		return Result{}, nil
	}

	msg := p.commitMessage()
	if _, err := p.runner.Run(ctx, p.dir, append([]string{"commit", "-m", msg, "--"}, paths...)...); err != nil {
		metrics.RecordPublish("failed")
		return Result{}, err
	}
	if _, err := p.runner.Run(ctx, p.dir, "push", p.remote, p.branch); err != nil {
		metrics.RecordPublish("failed")
		return Result{Message: msg, Changes: changes}, err
	}

	metrics.RecordPublish("pushed")
	p.logger.Info(ctx, "published",
		logger.String("remote", p.remote),
		logger.String("branch", p.branch),
		logger.Int("changes", len(changes)),
	)
	return Result{Published: true, Message: msg, Changes: changes}, nil
}

func (p *Publisher) commitMessage() string {
	if p.message != "" {
		return p.message
	}
	return fmt.Sprintf("%s (%s)", DefaultMessage, p.now().Format(model.DateLayout))
}

func nonEmptyLines(out string) []string {
	lines := make([]string, 0)
	for _, l := range strings.Split(out, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, strings.TrimRight(l, "\r"))
		}
	}
	return lines
}
