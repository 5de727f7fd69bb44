// Package workspace manages the scratch directories an export renders into.
//
// Each Manager owns at most one directory at a time, named after a random
// token (e.g. export-3f1c9a2e-...), so concurrent exports never share a tree.
// Cleanup removes the directory completely.
package workspace
