package report

import (
	"fmt"
	"io"

	"github.com/tklauser/thesis-scripts/internal/parser"
)

// FormatParams writes the parameters of one experiment in human readable
// form, one aligned label/value pair per line.
func FormatParams(w io.Writer, dir string, p *parser.Params) error {
	if _, err := fmt.Fprintf(w, "experiment %s\n", dir); err != nil {
		return err
	}
	values := p.Values()
	for i, name := range p.Names() {
		if _, err := fmt.Fprintf(w, "  %-25s: %s\n", name, values[i]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
