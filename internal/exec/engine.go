// Package exec implements the execution engine: a per-stage bounded worker
// pool that spawns the shell commands described by a plan.ExecutionPlan and
// aggregates failures (§4.5).
package exec

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/replicadse/workflow/internal/errs"
	"github.com/replicadse/workflow/internal/model"
	"github.com/replicadse/workflow/internal/output"
	"github.com/replicadse/workflow/internal/plan"
)

// OutputMode controls whether a child's stdout/stderr are connected to the
// parent's or suppressed to the null device.
type OutputMode struct {
	Stdout bool
	Stderr bool
}

// Engine runs an ExecutionPlan stage by stage under a bounded worker pool.
type Engine struct {
	Output OutputMode
	// Line, when set, enables the line-oriented prefixed output mode
	// (§4.5 step 5/§4.7) instead of raw stream inheritance. Access is
	// already serialized by the Controller itself.
	Line   *output.Controller
	Logger *logrus.Logger
}

// New returns an Engine with the given output mode. A nil logger defaults
// to logrus.StandardLogger(). When prefix is non-empty, every task's
// stdout/stderr lines are tagged with it through the shared output
// controller (§4.5 step 5, §4.7) instead of being inherited raw.
func New(mode OutputMode, prefix string, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e := &Engine{Output: mode, Logger: logger}
	if prefix != "" {
		e.Line = output.New(os.Stdout, prefix, true)
	}
	return e
}

type resolvedTask struct {
	cmd     string
	env     map[string]string
	shell   plan.Shell
	workdir string
	hasDir  bool
}

// Execute runs every stage of p in order using workers concurrent workers
// per stage (§4.5). A stage fully completes — successfully or not — before
// the next stage is considered; a stage's failures are returned together as
// a single *errs.Error of KindMany, aborting the run before later stages.
func (e *Engine) Execute(ctx context.Context, p *plan.ExecutionPlan, workers int) error {
	if workers < 1 {
		workers = 1
	}

	for stageIdx, stage := range p.Stages {
		items, err := buildWorkItems(p, stage)
		if err != nil {
			return err
		}

		var (
			mu       sync.Mutex
			failures []error
		)

		g := new(errgroup.Group)
		g.SetLimit(workers)
		for _, item := range items {
			item := item
			g.Go(func() error {
				if err := e.runWorkItem(ctx, item); err != nil {
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()

		if len(failures) > 0 {
			e.Logger.WithField("stage", stageIdx).Errorf("%d task(s) failed", len(failures))
			return errs.ManyOf(failures)
		}
	}
	return nil
}

// buildWorkItems constructs one work item per (node, invocation) in the
// stage — the granularity §4.5 mandates so an invocation's tasks stay on
// one worker while different invocations/nodes run concurrently.
func buildWorkItems(p *plan.ExecutionPlan, stage plan.Stage) ([][]resolvedTask, error) {
	var items [][]resolvedTask
	for _, nodeName := range stage.Nodes {
		node, ok := p.Nodes[nodeName]
		if !ok {
			return nil, errs.NotFound(nodeName)
		}
		for _, inv := range node.Invocations {
			var tasks []resolvedTask
			for _, t := range node.Tasks {
				workdir, hasDir := firstWorkdir(t.Workdir, node.Workdir)
				shell := firstShell(t.Shell, node.Shell)
				env, err := composeEnv(p.Env, node.Env, inv.Env, t.Env)
				if err != nil {
					return nil, err
				}
				tasks = append(tasks, resolvedTask{
					cmd:     t.Cmd,
					env:     env,
					shell:   shell,
					workdir: workdir,
					hasDir:  hasDir,
				})
			}
			items = append(items, tasks)
		}
	}
	return items, nil
}

func firstWorkdir(task, node *string) (string, bool) {
	if task != nil {
		return *task, true
	}
	if node != nil {
		return *node, true
	}
	return "", false
}

func firstShell(task, node *plan.Shell) plan.Shell {
	if task != nil {
		return *task
	}
	if node != nil {
		return *node
	}
	d := model.DefaultShell()
	return plan.Shell{Program: d.Program, Args: append([]string(nil), d.Args...)}
}

// composeEnv unions maps in precedence order (plan, node, invocation, task),
// later overriding earlier on key collision (§4.3 invariant, §4.5 step 3),
// via mergo's override merge rather than a hand-rolled loop.
func composeEnv(maps ...map[string]string) (map[string]string, error) {
	result := map[string]string{}
	for _, m := range maps {
		if len(m) == 0 {
			continue
		}
		if err := mergo.Merge(&result, m, mergo.WithOverride); err != nil {
			return nil, errs.Wrap(errs.KindGeneric, err, "env composition")
		}
	}
	return result, nil
}

// runWorkItem executes an invocation's tasks sequentially on the calling
// goroutine (one OS worker); the first failing task aborts the item.
func (e *Engine) runWorkItem(ctx context.Context, tasks []resolvedTask) error {
	for _, t := range tasks {
		if err := e.spawnOne(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) spawnOne(ctx context.Context, t resolvedTask) error {
	args := append(append([]string(nil), t.shell.Args...), t.cmd)
	cmd := exec.CommandContext(ctx, t.shell.Program, args...)

	cmd.Env = mergeProcessEnv(t.env)
	if t.hasDir {
		cmd.Dir = t.workdir
	}
	cmd.Stdin = nil // connects to the null device per §4.5 step 5

	stdout, stderr, cleanup, err := e.wireOutput(cmd)
	if err != nil {
		return errs.Wrap(errs.KindIO, err, "")
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cleanup()
		return errs.Wrap(errs.KindChildProcess, err, fmt.Sprintf("command: %s", t.cmd))
	}

	waitErr := cmd.Wait()
	cleanup()

	if waitErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if ok := asExitError(waitErr, &exitErr); ok {
			code = exitErr.ExitCode()
		}
		return errs.New(errs.KindChildProcess, fmt.Sprintf(
			"command: %s failed to execute with code %d", t.cmd, code))
	}
	return nil
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

// wireOutput decides between three states for each stream: suppressed
// (null device), inherited (direct passthrough) or line-prefixed (piped
// through a scanner into the shared output controller).
func (e *Engine) wireOutput(cmd *exec.Cmd) (stdout, stderr *os.File, cleanup func(), err error) {
	// opened tracks every *os.File this call creates — devnull handle or
	// pipe endpoint — so cleanup closes all of them regardless of which
	// branch below ran.
	var opened []*os.File
	var wg sync.WaitGroup
	cleanup = func() {
		for _, f := range opened {
			_ = f.Close()
		}
		wg.Wait()
	}

	openNull := func() (*os.File, error) {
		f, nerr := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if nerr != nil {
			return nil, nerr
		}
		opened = append(opened, f)
		return f, nil
	}

	if e.Line == nil {
		if e.Output.Stdout {
			stdout = os.Stdout
		} else if stdout, err = openNull(); err != nil {
			return nil, nil, cleanup, err
		}
		if e.Output.Stderr {
			stderr = os.Stderr
		} else if stderr, err = openNull(); err != nil {
			return nil, nil, cleanup, err
		}
		return stdout, stderr, cleanup, nil
	}

	// Line-prefixed mode: pipe both streams and forward completed lines
	// through the mutex-guarded controller.
	connect := func(enabled bool) (*os.File, error) {
		if !enabled {
			return openNull()
		}
		r, w, perr := os.Pipe()
		if perr != nil {
			return nil, perr
		}
		opened = append(opened, r, w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sc := bufio.NewScanner(r)
			for sc.Scan() {
				e.Line.Print(sc.Text())
			}
		}()
		return w, nil
	}

	if stdout, err = connect(e.Output.Stdout); err != nil {
		return nil, nil, cleanup, err
	}
	if stderr, err = connect(e.Output.Stderr); err != nil {
		return nil, nil, cleanup, err
	}
	return stdout, stderr, cleanup, nil
}

func mergeProcessEnv(overlay map[string]string) []string {
	final := make(map[string]string, len(overlay)+16)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		final[name] = value
	}
	for k, v := range overlay {
		final[k] = v
	}
	out := make([]string, 0, len(final))
	for k, v := range final {
		out = append(out, k+"="+v)
	}
	return out
}
