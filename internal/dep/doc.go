// Package dep implements the in-memory dependency system at the core of
// bake.
//
// It is intentionally split into:
//   - the symbol table itself: named symbols carrying a value (normally a
//     build command), a five-state lifecycle, plain dependency edges, and
//     ordered dependency lists
//   - traversal and planning: cycle detection, topological orderings, build
//     plans, and dependent invalidation
//   - the sentinel-delimited serialization used to ship a whole system
//     through a stream and read it back
//
// An ordered dependency list is a priority-ordered sequence of candidate
// names: the first name that currently exists acts as the dependency, and
// the non-existent names before it are tracked as shadowers so that creating
// one of them later re-binds the list to the higher-priority candidate.
package dep
