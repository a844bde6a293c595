// Package workspace manages the generation directories inside the project:
// removing and recreating them before a generate run, and copying the selected
// subset of generated files into the stable output location.
//
// Every path handed to a Manager is relative to the project root and must stay
// inside it; a configuration that points a reset at ".." or an absolute path
// outside the project is rejected before anything is deleted.
package workspace
