package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
	"github.com/jmespath/go-jmespath"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v2"
)

// Formats accepted by --format.
var Formats = []string{"json", "yaml", "text", "table"}

// Printer queries and formats command results.
type Printer struct {
	query  *jmespath.JMESPath
	format string
}

// NewPrinter compiles query, if any, and checks format. An empty format
// means json.
func NewPrinter(query, format string) (*Printer, error) {
	p := &Printer{format: format}
	if p.format == "" {
		p.format = "json"
	}

	valid := false
	for _, f := range Formats {
		if f == p.format {
			valid = true
		}
	}
	if !valid {
		return nil, models.Argumentf("Invalid format %q, should be in %s", format, models.QuoteList(Formats))
	}

	if query != "" {
		compiled, err := jmespath.Compile(query)
		if err != nil {
			return nil, models.Argumentf("Invalid jmespath query %q: %s", query, err)
		}
		p.query = compiled
	}
	return p, nil
}

// Print writes result to w. A broken pipe is not an error: the reader
// went away.
func (p *Printer) Print(w io.Writer, result interface{}) error {
	formatted, err := p.Format(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, formatted)
	if errors.Is(err, syscall.EPIPE) {
		utils.Log.Debug("broken pipe on output")
		return nil
	}
	return err
}

// Format returns result as a string.
func (p *Printer) Format(result interface{}) (string, error) {
	if p.query != nil {
		// jmespath compares float64 numbers, not json.Number.
		data, err := decode(result, false)
		if err != nil {
			return "", err
		}
		result, err = p.query.Search(data)
		if err != nil {
			return "", err
		}
	}

	switch p.format {
	case "yaml":
		return formatYAML(result)
	case "text":
		return formatText(result)
	case "table":
		return formatTable(result)
	default:
		return utils.JSONDumps(result)
	}
}

// toGeneric converts result to maps, slices and scalars, the only types
// the formatters walk.
func toGeneric(result interface{}) (interface{}, error) {
	return decode(result, true)
}

func decode(result interface{}, useNumber bool) (interface{}, error) {
	var raw []byte
	switch v := result.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		var err error
		raw, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}

	var data interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if useNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func formatYAML(result interface{}) (string, error) {
	data, err := toGeneric(result)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(yamlFriendly(data))
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

// yamlFriendly turns json.Number into int64 or float64 so yaml does not
// quote them.
func yamlFriendly(v interface{}) interface{} {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case map[string]interface{}:
		out := yaml.MapSlice{}
		for _, k := range sortedKeys(v) {
			out = append(out, yaml.MapItem{Key: k, Value: yamlFriendly(v[k])})
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = yamlFriendly(item)
		}
		return out
	default:
		return v
	}
}

// formatText prints strings raw and lists one item per line. Anything
// else is printed as json.
func formatText(result interface{}) (string, error) {
	data, err := toGeneric(result)
	if err != nil {
		return "", err
	}

	switch v := data.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case []interface{}:
		lines := make([]string, len(v))
		for i, item := range v {
			line, err := formatText(item)
			if err != nil {
				return "", err
			}
			lines[i] = line
		}
		return strings.Join(lines, "\n"), nil
	default:
		return utils.JSONDumps(data)
	}
}

// formatTable renders a list of objects, or an {"items": [...]} answer, as
// a table with one column per key.
func formatTable(result interface{}) (string, error) {
	data, err := toGeneric(result)
	if err != nil {
		return "", err
	}
	if obj, ok := data.(map[string]interface{}); ok {
		if items, ok := obj["items"]; ok {
			data = items
		}
	}

	rows, ok := data.([]interface{})
	if !ok {
		return formatText(data)
	}

	columns := map[string]bool{}
	for _, row := range rows {
		obj, ok := row.(map[string]interface{})
		if !ok {
			return formatText(data)
		}
		for k := range obj {
			columns[k] = true
		}
	}
	header := make([]string, 0, len(columns))
	for k := range columns {
		header = append(header, k)
	}
	sort.Strings(header)

	buf := &bytes.Buffer{}
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, row := range rows {
		obj := row.(map[string]interface{})
		cells := make([]string, len(header))
		for i, k := range header {
			cells[i] = cell(obj[k])
		}
		table.Append(cells)
	}
	table.Render()
	return strings.TrimRight(buf.String(), "\n"), nil
}

func cell(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(out)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
