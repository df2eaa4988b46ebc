package dep

import (
	"errors"
	"testing"

	"go.arcalot.io/assert"
)

// chain builds a -> b -> c with the given states.
func chain(t *testing.T, a, b, c State) *System {
	t.Helper()
	s := New()
	s.AddSet("c", "build c")
	s.AddSet("b", "build b")
	s.AddSet("a", "build a")
	assert.NoError(t, s.AddDependency("b", "c"))
	assert.NoError(t, s.AddDependency("a", "b"))
	assert.NoError(t, s.SetState("a", a))
	assert.NoError(t, s.SetState("b", b))
	assert.NoError(t, s.SetState("c", c))
	return s
}

func TestDependencies_TopologicalOrder(t *testing.T) {
	s := chain(t, Valid, Valid, Valid)

	deps, err := s.Dependencies("a", nil)
	assert.NoError(t, err)
	assert.Equals(t, deps, []string{"c", "b"})

	_, err = s.Dependencies("missing", nil)
	assert.Error(t, err)
}

func TestDependencies_Selector(t *testing.T) {
	s := chain(t, Valid, Stale, Valid)

	deps, err := s.Dependencies("a", func(name, value string, state State) bool {
		return state == Stale
	})
	assert.NoError(t, err)
	assert.Equals(t, deps, []string{"b"})
}

func TestDependencies_FollowsActiveListElement(t *testing.T) {
	s := New()
	s.AddSet("t", "")
	s.AddSet("real", "")
	assert.NoError(t, s.AddDependencyList([]string{"ghost", "real"}, "t"))

	deps, err := s.Dependencies("t", nil)
	assert.NoError(t, err)
	assert.Equals(t, deps, []string{"real"})
}

func TestDependencyEdges(t *testing.T) {
	s := chain(t, Valid, Valid, Valid)

	edges, err := s.DependencyEdges("a")
	assert.NoError(t, err)
	assert.Equals(t, edges, []string{"b"})
}

func TestSymbols_AllInBuildableOrder(t *testing.T) {
	s := chain(t, Valid, Valid, Valid)

	order := s.Symbols(nil)
	assert.Equals(t, order, []string{"c", "b", "a"})
}

func TestDependents(t *testing.T) {
	s := chain(t, Valid, Valid, Valid)

	dependents, err := s.Dependents("c", nil)
	assert.NoError(t, err)
	assert.Equals(t, dependents, []string{"b", "a"})

	dependents, err = s.Dependents("a", nil)
	assert.NoError(t, err)
	assert.Equals(t, len(dependents), 0)
}

func TestDependents_ThroughListRegistration(t *testing.T) {
	s := New()
	s.AddSet("t", "")
	s.AddSet("x", "")
	assert.NoError(t, s.AddDependencyList([]string{"x", "y"}, "t"))

	dependents, err := s.Dependents("x", nil)
	assert.NoError(t, err)
	assert.Equals(t, dependents, []string{"t"})
}

func TestBuildPlan_OnlyStaleAndNonBuilt(t *testing.T) {
	s := chain(t, Stale, NonBuilt, Valid)

	plan, err := s.BuildPlan("a")
	assert.NoError(t, err)
	assert.Equals(t, plan, []string{"b", "a"})
}

func TestBuildPlan_SubsetOfDependencies(t *testing.T) {
	s := chain(t, Stale, Stale, Stale)

	plan, err := s.BuildPlan("a")
	assert.NoError(t, err)

	deps, err := s.Dependencies("a", nil)
	assert.NoError(t, err)
	allowed := map[string]bool{"a": true}
	for _, d := range deps {
		allowed[d] = true
	}
	for _, p := range plan {
		assert.Equals(t, allowed[p], true)
	}
}

func TestBuildPlan_DisabledPrerequisiteIsFine(t *testing.T) {
	s := chain(t, Stale, Disabled, Valid)

	plan, err := s.BuildPlan("a")
	assert.NoError(t, err)
	assert.Equals(t, plan, []string{"a"})
}

func TestBuildPlan_InvalidFails(t *testing.T) {
	s := chain(t, Stale, Invalid, Valid)

	_, err := s.BuildPlan("a")
	assert.Error(t, err)
	assert.Equals(t, errors.Is(err, ErrUnbuildable), true)
}

func TestBuild_RunsCallbacksInOrderAndMarksValid(t *testing.T) {
	s := chain(t, Stale, Stale, Valid)

	var built []string
	record := func(name, value string) error {
		built = append(built, name+":"+value)
		return nil
	}
	assert.NoError(t, s.SetCallback("a", record))
	assert.NoError(t, s.SetCallback("b", record))

	assert.NoError(t, s.Build("a"))

	assert.Equals(t, built, []string{"b:build b", "a:build a"})
	for _, name := range []string{"a", "b"} {
		state, err := s.State(name)
		assert.NoError(t, err)
		assert.Equals(t, state, Valid)
	}
}

func TestBuild_CallbackErrorAborts(t *testing.T) {
	s := chain(t, Stale, Stale, Valid)

	boom := errors.New("boom")
	assert.NoError(t, s.SetCallback("b", func(name, value string) error {
		return boom
	}))

	err := s.Build("a")
	assert.Equals(t, errors.Is(err, boom), true)

	// b failed, so it is still stale and a was never reached.
	state, err2 := s.State("b")
	assert.NoError(t, err2)
	assert.Equals(t, state, Stale)
	state, err2 = s.State("a")
	assert.NoError(t, err2)
	assert.Equals(t, state, Stale)
}

func TestInvalidateDependents(t *testing.T) {
	s := chain(t, Valid, Disabled, Valid)

	assert.NoError(t, s.InvalidateDependents("c"))

	state, err := s.State("b")
	assert.NoError(t, err)
	assert.Equals(t, state, Invalid)
	state, err = s.State("a")
	assert.NoError(t, err)
	assert.Equals(t, state, Stale)

	// Already stale or nonbuilt symbols stay put.
	assert.NoError(t, s.SetState("a", NonBuilt))
	assert.NoError(t, s.InvalidateDependents("c"))
	state, err = s.State("a")
	assert.NoError(t, err)
	assert.Equals(t, state, NonBuilt)
}
