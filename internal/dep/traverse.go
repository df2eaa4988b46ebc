package dep

// appendDeps walks the dependencies of name depth-first, post-order,
// following both plain edges and the active element of each ordered list,
// and appends each newly-visited symbol to out with name itself last.
// Symbols already in considered are skipped.
func (s *System) appendDeps(name string, considered map[string]struct{}, out *[]string) {
	if _, seen := considered[name]; seen {
		return
	}
	considered[name] = struct{}{}

	sym := s.symbols[name]
	for _, depName := range sortedKeys(sym.deps) {
		s.appendDeps(depName, considered, out)
	}
	for _, list := range sym.depLists {
		if active := s.firstExisting(list); active != "" {
			s.appendDeps(active, considered, out)
		}
	}

	*out = append(*out, name)
}

// Dependencies returns the dependencies of name in a buildable order,
// excluding name itself, filtered by sel.
func (s *System) Dependencies(name string, sel Selector) ([]string, error) {
	if _, ok := s.symbols[name]; !ok {
		return nil, depErrorf(ErrNoSuchSymbol, "%q", name)
	}

	var order []string
	s.appendDeps(name, make(map[string]struct{}), &order)
	order = order[:len(order)-1] // name is always last

	return s.filter(order, sel), nil
}

// DependencyEdges returns the direct dependency edges of name. Ordered
// lists are not considered.
func (s *System) DependencyEdges(name string) ([]string, error) {
	sym, ok := s.symbols[name]
	if !ok {
		return nil, depErrorf(ErrNoSuchSymbol, "%q", name)
	}
	return sortedKeys(sym.deps), nil
}

// Symbols returns every symbol in a buildable order, filtered by sel.
func (s *System) Symbols(sel Selector) []string {
	var order []string
	considered := make(map[string]struct{})
	for _, name := range s.sortedNames() {
		s.appendDeps(name, considered, &order)
	}
	return s.filter(order, sel)
}

// collectDependents accumulates name and everything that transitively
// depends on it, through both reverse edges and reverse list registrations.
func (s *System) collectDependents(name string, acc map[string]struct{}) {
	if _, seen := acc[name]; seen {
		return
	}
	acc[name] = struct{}{}

	sym, ok := s.symbols[name]
	if !ok {
		return
	}
	for rev := range sym.revDeps {
		s.collectDependents(rev, acc)
	}
	for rev := range sym.revListSet {
		s.collectDependents(rev, acc)
	}
}

// Dependents returns the dependents of name in a buildable order, excluding
// name itself, filtered by sel. The order is formed by splicing the build
// ordering of each dependent and retaining only reverse-reachable names.
func (s *System) Dependents(name string, sel Selector) ([]string, error) {
	if _, ok := s.symbols[name]; !ok {
		return nil, depErrorf(ErrNoSuchSymbol, "%q", name)
	}

	reachable := make(map[string]struct{})
	s.collectDependents(name, reachable)

	var spliced []string
	seen := make(map[string]struct{})
	for _, root := range sortedKeys(reachable) {
		var order []string
		s.appendDeps(root, make(map[string]struct{}), &order)
		for _, x := range order {
			if _, dup := seen[x]; dup {
				continue
			}
			seen[x] = struct{}{}
			spliced = append(spliced, x)
		}
	}

	out := make([]string, 0, len(spliced))
	for _, x := range spliced {
		if x == name {
			continue
		}
		if _, ok := reachable[x]; !ok {
			continue
		}
		sym := s.symbols[x]
		if sel == nil || sel(sym.name, sym.value, sym.state) {
			out = append(out, x)
		}
	}
	return out, nil
}

func (s *System) filter(names []string, sel Selector) []string {
	if sel == nil {
		return names
	}
	out := names[:0]
	for _, name := range names {
		sym := s.symbols[name]
		if sel(sym.name, sym.value, sym.state) {
			out = append(out, name)
		}
	}
	return out
}
