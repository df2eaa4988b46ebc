package dep

// BuildPlan returns the NonBuilt and Stale symbols among the dependencies of
// name (name itself included) in a buildable order.
//
// Disabled symbols are deliberately absent from the plan: Disabled means
// valid but unable to be regenerated, which is a legitimate build-time
// prerequisite. A plan that would contain an Invalid symbol fails with
// ErrUnbuildable.
func (s *System) BuildPlan(name string) ([]string, error) {
	if _, ok := s.symbols[name]; !ok {
		return nil, depErrorf(ErrNoSuchSymbol, "%q", name)
	}

	var all []string
	s.appendDeps(name, make(map[string]struct{}), &all)

	if bad := s.SelectWithStates(all, Invalid); len(bad) > 0 {
		return nil, depErrorf(ErrUnbuildable, "%q requires invalid symbol %q", name, bad[0])
	}

	return s.SelectWithStates(all, NonBuilt, Stale), nil
}

// Build executes the build plan of name: each entry's callback is invoked
// (when present) and the entry is marked Valid.
func (s *System) Build(name string) error {
	plan, err := s.BuildPlan(name)
	if err != nil {
		return err
	}

	for _, entry := range plan {
		sym := s.symbols[entry]
		if sym.callback != nil {
			if err := sym.callback(sym.name, sym.value); err != nil {
				return err
			}
		}
		sym.state = Valid
	}
	return nil
}

// InvalidateDependents marks every Valid dependent of name Stale and every
// Disabled dependent Invalid. Other states are left alone.
func (s *System) InvalidateDependents(name string) error {
	if _, ok := s.symbols[name]; !ok {
		return depErrorf(ErrNoSuchSymbol, "%q", name)
	}
	s.invalidateDependents(name)
	return nil
}

func (s *System) invalidateDependents(name string) {
	dependents, _ := s.Dependents(name, nil)
	for _, depName := range dependents {
		sym := s.symbols[depName]
		switch sym.state {
		case Valid:
			sym.state = Stale
		case Disabled:
			sym.state = Invalid
		}
	}
}
