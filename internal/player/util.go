package player

import "strings"

// ParseArgs splits the configured extra player arguments on whitespace.  Single or double quotes group words,
// and a quote only ends at the same quote character, so "--title=it's here" stays one argument.
func ParseArgs(argsString string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
		started bool
	)

	flush := func() {
		if started {
			args = append(args, current.String())
			current.Reset()
			started = false
		}
	}

	for _, r := range argsString {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
			started = true
		case quote == 0 && (r == ' ' || r == '\t'):
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	flush()

	return args
}
