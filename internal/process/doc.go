// Package process manages the process groups of child interpreters so that
// a canceled compilation takes down every process a fragment started.
package process
