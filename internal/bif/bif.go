// Package bif implements the Baker Interchange Format, the line-oriented
// protocol that carries a dependency system between a bake process and the
// commands it spawns.
//
// Two statement shapes exist:
//
//	NAME COMMAND    assigns COMMAND as the value of NAME, creating it if
//	                absent; COMMAND may span lines via here-doc sentinels
//	A / B           declares that B depends on A, creating either side
//	                with an empty value if absent
//
// A blank line or end of input terminates a stream.
package bif

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"bake/internal/dep"
	"bake/internal/scan"
	"bake/internal/strutil"
)

var (
	// ErrInvalidDependencySpec is returned for a malformed dependency
	// statement.
	ErrInvalidDependencySpec = errors.New("invalid dependency specification")

	// ErrOutOfScope is returned when an augmentation tries to create a
	// symbol, or add a new dependency to a target, outside the working
	// directory's namespace.
	ErrOutOfScope = errors.New("outside working directory")
)

// Mutator rewrites symbol names crossing a sub-directory boundary.
type Mutator func(name string) string

// Identity leaves names untouched.
func Identity(name string) string { return name }

// outsidePrefix marks names that escaped a sub-directory's namespace.
const outsidePrefix = "../"

// SubInput is the mutator for names entering a sub-directory invocation:
// names inside the sub-directory's own namespace lose their prefix, all
// others are pushed up one level.
func SubInput(subdir string) Mutator {
	return func(name string) string {
		if rest, ok := strings.CutPrefix(name, subdir+"/"); ok {
			return rest
		}
		return outsidePrefix + name
	}
}

// SubOutput is the inverse mutator for names leaving a sub-directory
// invocation.
func SubOutput(subdir string) Mutator {
	return func(name string) string {
		if rest, ok := strings.CutPrefix(name, outsidePrefix); ok {
			return rest
		}
		return subdir + "/" + name
	}
}

// Write emits the system to w: for every symbol its value statement followed
// by one dependency statement per direct edge. Names pass through mutate.
func Write(w io.Writer, s *dep.System, mutate Mutator) error {
	if mutate == nil {
		mutate = Identity
	}

	bw := bufio.NewWriter(w)
	for _, name := range s.Symbols(nil) {
		value, err := s.Value(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%s %s\n", mutate(name), value)

		edges, err := s.DependencyEdges(name)
		if err != nil {
			return err
		}
		for _, edge := range edges {
			fmt.Fprintf(bw, "%s / %s\n", mutate(edge), mutate(name))
		}
	}
	return bw.Flush()
}

// Augment reads statements from r until a blank line or end of input and
// applies them to s. Names pass through mutate. Symbols assigned a non-empty
// value get callback installed as their build callback.
//
// When enforceScope is set, dependency statements may neither create a
// ../-prefixed symbol nor add a new dependency to a ../-prefixed target;
// either fails with ErrOutOfScope.
func Augment(r *bufio.Reader, s *dep.System, mutate Mutator, callback dep.Callback, enforceScope bool) error {
	if mutate == nil {
		mutate = Identity
	}

	for {
		command, err := scan.ReadCommand(r)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if command == "\n" {
			return nil
		}

		body := strings.TrimSuffix(command, "\n")
		tokens := strutil.Tokenize(body)
		if len(tokens) == 0 {
			continue
		}

		if len(tokens) >= 2 && tokens[1] == "/" {
			if len(tokens) != 3 {
				return fmt.Errorf("%w: %q", ErrInvalidDependencySpec, body)
			}
			if err := addDependency(s, mutate(tokens[0]), mutate(tokens[2]), enforceScope); err != nil {
				return err
			}
			continue
		}

		name := mutate(tokens[0])
		s.AddSet(name, commandValue(body, tokens[0]))
		if value, _ := s.Value(name); value != "" && callback != nil {
			if err := s.SetCallback(name, callback); err != nil {
				return err
			}
		}
	}
}

// commandValue extracts the value from a value statement: everything after
// the name and its single separator character.
func commandValue(body, name string) string {
	trimmed := strings.TrimLeft(body, " \t")
	rest := trimmed[len(name):]
	if rest == "" {
		return ""
	}
	return rest[1:]
}

// addDependency applies the statement "depName / target": target depends on
// depName.
func addDependency(s *dep.System, depName, target string, enforceScope bool) error {
	for _, name := range []string{depName, target} {
		if s.Has(name) {
			continue
		}
		if enforceScope && strings.HasPrefix(name, outsidePrefix) {
			return fmt.Errorf("attempted to add symbol %w: %q", ErrOutOfScope, name)
		}
		s.AddSet(name, "")
	}

	if enforceScope && strings.HasPrefix(target, outsidePrefix) {
		has, err := s.HasDependency(target, depName)
		if err != nil {
			return err
		}
		if !has {
			return fmt.Errorf("attempted to add dependency to symbol %w: %q", ErrOutOfScope, target)
		}
	}

	return s.AddDependency(target, depName)
}
