package outputs

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sliink/extloader/internal/model"
)

// Output formats supported by the registry printer
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	pointStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	pluginStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RegistryPrinter writes extension registry snapshots
type RegistryPrinter struct {
	out      io.Writer
	format   string
	colorize bool
}

// NewRegistryPrinter creates a printer writing to out. Unknown formats fall back to text.
func NewRegistryPrinter(out io.Writer, format string, colorize bool) *RegistryPrinter {
	if format != FormatJSON {
		format = FormatText
	}
	return &RegistryPrinter{
		out:      out,
		format:   format,
		colorize: colorize,
	}
}

// Print writes the snapshot in the printer's format
func (p *RegistryPrinter) Print(snapshot model.RegistriesSnapshot) error {
	if p.format == FormatJSON {
		return p.printJSON(snapshot)
	}
	return p.printText(snapshot)
}

func (p *RegistryPrinter) printJSON(snapshot model.RegistriesSnapshot) error {
	encoder := json.NewEncoder(p.out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("encoding registries: %w", err)
	}
	return nil
}

func (p *RegistryPrinter) printText(snapshot model.RegistriesSnapshot) error {
	var b strings.Builder

	p.section(&b, "Exposed components", len(snapshot.ExposedComponents))
	for _, id := range sortedKeys(snapshot.ExposedComponents) {
		c := snapshot.ExposedComponents[id]
		fmt.Fprintf(&b, "  %s  %s %s\n", p.style(pointStyle, id), c.Title, p.style(pluginStyle, "("+c.PluginID+")"))
	}

	p.section(&b, "Added components", countAll(snapshot.AddedComponents))
	for _, target := range sortedKeys(snapshot.AddedComponents) {
		fmt.Fprintf(&b, "  %s\n", p.style(pointStyle, target))
		for _, c := range snapshot.AddedComponents[target] {
			fmt.Fprintf(&b, "    %s %s\n", c.Title, p.style(pluginStyle, "("+c.PluginID+")"))
		}
	}

	p.section(&b, "Added links", countAll(snapshot.AddedLinks))
	for _, target := range sortedKeys(snapshot.AddedLinks) {
		fmt.Fprintf(&b, "  %s\n", p.style(pointStyle, target))
		for _, l := range snapshot.AddedLinks[target] {
			fmt.Fprintf(&b, "    %s -> %s %s\n", l.Title, l.Path, p.style(pluginStyle, "("+l.PluginID+")"))
		}
	}

	p.section(&b, "Added functions", countAll(snapshot.AddedFunctions))
	for _, target := range sortedKeys(snapshot.AddedFunctions) {
		fmt.Fprintf(&b, "  %s\n", p.style(pointStyle, target))
		for _, f := range snapshot.AddedFunctions[target] {
			fmt.Fprintf(&b, "    %s %s\n", f.Title, p.style(pluginStyle, "("+f.PluginID+")"))
		}
	}

	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *RegistryPrinter) section(b *strings.Builder, title string, n int) {
	fmt.Fprintf(b, "%s\n", p.style(headingStyle, fmt.Sprintf("%s (%d)", title, n)))
}

func (p *RegistryPrinter) style(style lipgloss.Style, s string) string {
	if !p.colorize {
		return s
	}
	return style.Render(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countAll[V any](m map[string][]V) int {
	n := 0
	for _, items := range m {
		n += len(items)
	}
	return n
}
