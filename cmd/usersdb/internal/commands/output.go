package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Printer renders exactly one value per operation.
type Printer struct {
	out    io.Writer
	format string
}

func NewPrinter(out io.Writer, format string) *Printer {
	return &Printer{out: out, format: format}
}

// Print writes v as indented JSON or YAML. A nil pointer renders as null.
func (p *Printer) Print(v interface{}) error {
	if p.format == OutputYAML {
		encoder := yaml.NewEncoder(p.out)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml output: %w", err)
		}
		return encoder.Close()
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json output: %w", err)
	}
	_, err = fmt.Fprintln(p.out, string(data))
	return err
}

// PrintError writes the error's message text.
func (p *Printer) PrintError(err error) {
	fmt.Fprintln(p.out, err.Error())
}
