// Package git answers the two read-only source control questions brokermake
// needs to stamp build artifacts:
//   - does the working tree have uncommitted changes?
//   - what is the current commit hash?
//
// Two backends are provided. Repository uses go-git and never spawns a
// process; CLI shells out to the git binary through a runner.Runner. Neither
// backend writes to the repository, its index or its refs.
package git
