// Package dispatch maps a command name onto exactly one build operation.
package dispatch

// Command identifies one of the orchestrator's operations.
type Command int

const (
	Build Command = iota + 1
	Run
	Test
	Generate
	Release
)

var commandNames = map[Command]string{
	Build:    "build",
	Run:      "run",
	Test:     "test",
	Generate: "generate",
	Release:  "release",
}

// All returns every command in presentation order.
func All() []Command {
	return []Command{Build, Run, Test, Generate, Release}
}

// Names returns the command names in presentation order.
func Names() []string {
	names := make([]string, 0, len(commandNames))
	for _, c := range All() {
		names = append(names, c.String())
	}
	return names
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCommand resolves a command name. Names are matched exactly.
func ParseCommand(name string) (Command, bool) {
	for _, c := range All() {
		if commandNames[c] == name {
			return c, true
		}
	}
	return 0, false
}
