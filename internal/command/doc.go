// Package command runs the external tools of the contour pipeline and keeps
// a reproducible record of every invocation.
//
// A Command is the structured description of what runs: an executable name
// and an ordered argument list. Rendering it to a shell string is a separate
// step (Display), so the value that is executed is never confused with the
// value that is logged.
//
// # Transcript
//
// A Transcript is an explicit, append-only accumulator owned by a single run.
// The Runner appends exactly one line per invocation, in invocation order, and
// the pipeline flushes the transcript to disk once, at the end of the run.
//
// # Display Rules
//
// The displayed form of a command is meant to be pasted back into a shell:
//   - An argument is wrapped in double quotes if and only if it contains
//     whitespace. Inside the quotes, backslash, double quote, dollar sign and
//     backtick are escaped.
//   - When the executable is a known legacy alias (for example "convert.sh"),
//     its public name ("convert") is shown instead. This never changes what
//     is executed.
//
// # Exit Status
//
// The Runner does not treat a non-zero exit status as an error. Tools in this
// pipeline report problems through their output files, and the stage that
// reads those files decides whether the run can continue. Only a failure to
// start the process is returned as an error.
package command
