// Package kernel runs fragments in a Python interpreter subprocess.
//
// A Kernel is the evaluation context of one compilation: a single
// interpreter whose namespace persists across Execute calls, so later
// fragments see what earlier ones defined. Kernels are not shared between
// documents.
//
// The interpreter runs an embedded bootstrap script. Requests and replies
// are JSON objects, one per line, exchanged over the child's stdin and a
// duplicate of its original stdout. The bootstrap points fd 1 at stderr and
// fd 0 at the null device before running any fragment, so fragment I/O
// cannot corrupt the channel.
//
// Contract:
//   - Concurrency: Execute calls are serialized; a Kernel runs one fragment
//     at a time.
//   - Context: canceling the context passed to Start or Execute kills the
//     interpreter's process group.
//   - Errors: Python exceptions are data (Reply.Error), not Go errors. Go
//     errors mean the interpreter is gone or misbehaving.
package kernel
