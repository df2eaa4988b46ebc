// Package bake orchestrates a build: it executes the Bakefile line by line,
// piping the dependency system to each command and merging the
// augmentations the command emits, then computes staleness against the
// filesystem and drives the build plan.
package bake

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bake/internal/bif"
	"bake/internal/dep"
	"bake/internal/log"
	"bake/internal/scan"
)

// pendingBuild is one in-flight build command in the wait queue.
type pendingBuild struct {
	name   string
	child  Child
	before time.Time
}

// Bake drives one invocation over a Bakefile.
//
// The zero value is not usable; construct with New. FS and Proc default to
// the real filesystem and os/exec but can be replaced for tests.
type Bake struct {
	Deps   *dep.System
	File   string
	Target string

	// Subdir switches to sub-directory mode: the system is read from
	// Stdin, the Bakefile is executed, and the result is written to
	// Stdout. No staleness or build phase runs.
	Subdir string

	Stdin  io.Reader
	Stdout io.Writer

	FS   MtimeOracle
	Proc ProcessRunner

	ctx       context.Context
	runID     string
	waitQueue []pendingBuild
}

// New returns a Bake reading the given Bakefile, wired to the real
// filesystem and process runner.
func New(file string) *Bake {
	return &Bake{
		Deps:   dep.New(),
		File:   file,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		FS:     osOracle{},
		Proc:   execRunner{},
		runID:  uuid.NewString(),
	}
}

// Run executes the invocation.
func (b *Bake) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b.ctx = ctx

	entry := log.WithField("run", b.runID)
	entry.Debugf("bakefile=%s target=%q subdir=%q", b.File, b.Target, b.Subdir)

	if b.Subdir != "" {
		return b.runSub()
	}

	if err := b.processBakefile(); err != nil {
		return err
	}
	b.markStaleness()
	if err := b.executePlan(); err != nil {
		return err
	}

	entry.Infof("build complete")
	return nil
}

// processBakefile reads logical commands from the Bakefile and lets each
// one augment the dependency system.
func (b *Bake) processBakefile() error {
	f, err := os.Open(b.File)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		command, err := scan.ReadCommand(br)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if isComment(command) {
			continue
		}

		argv, err := scan.SplitCommand(command)
		if err != nil {
			return err
		}
		if len(argv) == 0 {
			continue
		}

		if err := b.runBakefileCommand(argv, command); err != nil {
			return err
		}
	}
}

// isComment reports whether a logical command is a blank line or a comment.
func isComment(command string) bool {
	trimmed := strings.TrimLeft(command, " \t")
	return trimmed == "\n" || trimmed == "" || trimmed[0] == '#'
}

// runBakefileCommand spawns one Bakefile command, feeds it the current
// system, and merges its augmentations.
func (b *Bake) runBakefileCommand(argv []string, command string) error {
	log.WithField("run", b.runID).Debugf("command: %s", argv[0])

	payload, err := b.interchange(nil)
	if err != nil {
		return err
	}
	child, err := b.Proc.Start(b.ctx, argv, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", argv[0], err)
	}

	augErr := bif.Augment(bufio.NewReader(child.Stdout()), b.Deps, nil, b.buildCallback, true)

	status, waitErr := child.Wait()
	if augErr != nil {
		return augErr
	}
	if waitErr != nil {
		return fmt.Errorf("%s: %w", argv[0], waitErr)
	}
	if status.Signalled {
		return fmt.Errorf("%s: %w %s", strings.TrimSuffix(command, "\n"), ErrChildSignalled, status.Signal)
	}
	if status.Code != 0 {
		return fmt.Errorf("%s: %w %d", strings.TrimSuffix(command, "\n"), ErrChildNonZero, status.Code)
	}
	return nil
}

// interchange renders the current system in Baker Interchange Format.
func (b *Bake) interchange(mutate bif.Mutator) ([]byte, error) {
	var buf bytes.Buffer
	if err := bif.Write(&buf, b.Deps, mutate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildCallback is the default build callback installed on symbols that
// carry a command. It spawns the command with the current system on stdin
// and enqueues the child; exit status and output checks happen when the
// wait queue drains.
func (b *Bake) buildCallback(name, value string) error {
	if value == "" {
		return buildErrorf(ErrNoRule, name)
	}

	argv, err := scan.SplitCommand(value + "\n")
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return buildErrorf(ErrNoRule, name)
	}

	before := time.Now()
	payload, err := b.interchange(nil)
	if err != nil {
		return err
	}
	child, err := b.Proc.Start(b.ctx, argv, payload)
	if err != nil {
		return buildErrorf(ErrBuildFailure, name)
	}

	log.WithField("run", b.runID).Infof("building %s", name)
	b.waitQueue = append(b.waitQueue, pendingBuild{name: name, child: child, before: before})
	return nil
}

// markStaleness stats every symbol and marks it NonBuilt when the artifact
// is missing, Stale when older than any direct dependency, propagating to
// dependents either way.
func (b *Bake) markStaleness() {
	for _, name := range b.Deps.Symbols(nil) {
		b.Deps.SetState(name, dep.Valid)
	}

	for _, name := range b.Deps.Symbols(nil) {
		mtime, ok := b.FS.Mtime(name)
		if !ok {
			b.Deps.SetState(name, dep.NonBuilt)
			b.Deps.InvalidateDependents(name)
			continue
		}

		edges, _ := b.Deps.DependencyEdges(name)
		for _, edge := range edges {
			if depMtime, ok := b.FS.Mtime(edge); ok && mtime.Before(depMtime) {
				b.Deps.SetState(name, dep.Stale)
				b.Deps.InvalidateDependents(name)
				break
			}
		}
	}
}

// executePlan builds the remaining symbols in rounds. Each round plans
// against a snapshot of the system, launches every symbol whose remaining
// plan is just itself, then drains the wait queue before the next round.
func (b *Bake) executePlan() error {
	var remaining []string
	if b.Target != "" {
		plan, err := b.Deps.BuildPlan(b.Target)
		if err != nil {
			return err
		}
		remaining = plan
	} else {
		remaining = b.Deps.Symbols(nil)
	}

	for len(remaining) > 0 {
		snapshot := b.Deps.Clone()

		kept := remaining[:0]
		for _, name := range remaining {
			plan, err := snapshot.BuildPlan(name)
			if err != nil {
				return err
			}
			if len(plan) == 1 {
				if err := b.Deps.Build(name); err != nil {
					return err
				}
			}
			if len(plan) != 0 {
				kept = append(kept, name)
			}
		}
		remaining = kept

		if err := b.drainWaitQueue(); err != nil {
			return err
		}
	}
	return nil
}

// drainWaitQueue reaps every in-flight build in FIFO order, checking exit
// status and that each target's artifact was actually refreshed.
func (b *Bake) drainWaitQueue() error {
	for len(b.waitQueue) > 0 {
		p := b.waitQueue[0]
		b.waitQueue = b.waitQueue[1:]

		status, err := p.child.Wait()
		if err != nil || status.Signalled || status.Code != 0 {
			return buildErrorf(ErrBuildFailure, p.name)
		}

		mtime, ok := b.FS.Mtime(p.name)
		if !ok || !mtime.After(p.before) {
			return buildErrorf(ErrNoOutputProduced, p.name)
		}
	}
	return nil
}

// runSub is sub-directory mode: read the parent's system from stdin with
// incoming name mutation, augment it from the Bakefile, and write the
// result back with outgoing mutation. No staleness or build phase runs.
func (b *Bake) runSub() error {
	info, err := os.Stat(b.Subdir)
	if err != nil {
		return fmt.Errorf("error accessing directory %s: %w", b.Subdir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", b.Subdir)
	}
	if err := os.Chdir(filepath.Join(os.Getenv("PWD"), b.Subdir)); err != nil {
		return err
	}

	in := bufio.NewReader(b.Stdin)
	if err := bif.Augment(in, b.Deps, bif.SubInput(b.Subdir), b.buildCallback, false); err != nil {
		return err
	}

	if err := b.processBakefile(); err != nil {
		return err
	}

	// TODO: decide whether augmentations received on stdin after the
	// system dump should be parroted back to the parent unmodified; for
	// now they are not re-emitted.
	return bif.Write(b.Stdout, b.Deps, bif.SubOutput(b.Subdir))
}
