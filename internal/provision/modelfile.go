package provision

import (
	"fmt"
	"strings"

	perrors "github.com/britney/internal/errors"
)

const tripleQuote = `"""`

// directive is one instruction of a model definition, spanning lines [start, end]
type directive struct {
	name  string
	args  string
	start int
	end   int
}

// parseDefinition splits a model definition into directives.
// Comments and blank lines are not directives. A value opened with """ may span lines.
func parseDefinition(lines []string) []directive {
	var directives []directive

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		name, args := trimmed, ""
		if idx := strings.IndexAny(trimmed, " \t"); idx >= 0 {
			name, args = trimmed[:idx], trimmed[idx+1:]
		}
		d := directive{name: strings.ToUpper(name), args: strings.TrimSpace(args), start: i, end: i}

		if strings.HasPrefix(d.args, tripleQuote) {
			rest := d.args[len(tripleQuote):]
			if !strings.Contains(rest, tripleQuote) {
				for j := i + 1; j < len(lines); j++ {
					if strings.Contains(lines[j], tripleQuote) {
						d.end = j
						break
					}
				}
				if d.end == i {
					// unterminated block runs to the end
					d.end = len(lines) - 1
				}
			}
		}

		directives = append(directives, d)
		i = d.end
	}

	return directives
}

// quoteSystem makes text safe inside a triple-quoted block: no run of three
// quotes survives and the text never ends in a quote.
func quoteSystem(text string) string {
	for strings.Contains(text, tripleQuote) {
		text = strings.ReplaceAll(text, tripleQuote, `"`)
	}
	if strings.HasSuffix(text, `"`) {
		text += " "
	}
	return text
}

// overrideSystem replaces the SYSTEM directive of a definition with system.
// Extra SYSTEM directives are dropped; when there is none, one is inserted
// right after FROM. A definition without FROM cannot be derived from.
func overrideSystem(definition, system string) (string, error) {
	lines := strings.Split(strings.ReplaceAll(definition, "\r\n", "\n"), "\n")
	directives := parseDefinition(lines)

	var from *directive
	var systems []directive
	for i := range directives {
		switch directives[i].name {
		case "FROM":
			if from == nil {
				from = &directives[i]
			}
		case "SYSTEM":
			systems = append(systems, directives[i])
		}
	}

	if from == nil {
		return "", perrors.ErrNoBaseDirective
	}

	block := fmt.Sprintf("SYSTEM %s%s%s", tripleQuote, quoteSystem(system), tripleQuote)

	var out []string
	if len(systems) == 0 {
		out = append(out, lines[:from.end+1]...)
		out = append(out, block)
		out = append(out, lines[from.end+1:]...)
	} else {
		next := 0
		for i, d := range systems {
			out = append(out, lines[next:d.start]...)
			if i == 0 {
				out = append(out, block)
			}
			next = d.end + 1
		}
		out = append(out, lines[next:]...)
	}

	result := strings.Join(out, "\n")
	if !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result, nil
}
