package command

import (
	"strings"
	"unicode"
)

// DefaultAliases maps legacy wrapper scripts to the public tool name shown in
// transcripts and artifact headers.
var DefaultAliases = map[string]string{
	"convert.sh": "convert",
}

// Command is a single external invocation.
type Command struct {
	// Name is the executable, resolved through PATH when it has no separator.
	Name string `json:"name"`

	// Args are passed to the executable verbatim, without shell expansion.
	Args []string `json:"args"`
}

// New builds a Command from an executable name and its arguments.
func New(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// With returns a copy of c with extra arguments appended.
func (c Command) With(args ...string) Command {
	out := Command{Name: c.Name, Args: make([]string, 0, len(c.Args)+len(args))}
	out.Args = append(out.Args, c.Args...)
	out.Args = append(out.Args, args...)
	return out
}

// Argv returns the full argument vector, executable first.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Name)
	return append(argv, c.Args...)
}

// Display renders c as a shell command line. Aliased executable names are
// replaced by their public name; a nil map disables the substitution.
func (c Command) Display(aliases map[string]string) string {
	name := c.Name
	if public, ok := aliases[name]; ok {
		name = public
	}

	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, Quote(name))
	for _, arg := range c.Args {
		parts = append(parts, Quote(arg))
	}
	return strings.Join(parts, " ")
}

// String renders c with DefaultAliases.
func (c Command) String() string {
	return c.Display(DefaultAliases)
}

// Quote wraps arg in double quotes when it contains whitespace and returns it
// unchanged otherwise.
func Quote(arg string) string {
	if strings.IndexFunc(arg, unicode.IsSpace) < 0 {
		return arg
	}

	var b strings.Builder
	b.Grow(len(arg) + 2)
	b.WriteByte('"')
	for _, r := range arg {
		switch r {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
