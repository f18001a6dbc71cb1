package snapshot

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-itemtree/internal/display"
)

const dumpIndent = 4

var dumpTemplate = template.Must(template.New("dump").Funcs(sprig.TxtFuncMap()).Parse(
	`snapshot root={{ .Root }} entries={{ len .Entries }}
{{- range .Entries }}
- instance {{ .InstanceID }} type {{ .TypeID }}{{ if .IsRoot }} (root){{ end }}
{{- if .Vars }}
  vars:
{{ .Vars }}{{ end }}
{{- if .Slots }}
  slots: {{ join ", " .Slots }}{{ end }}
{{- if .Inventory }}
  inventory: {{ join ", " .Inventory }}{{ end }}
{{- if .Locked }}
  locked: {{ join "," .Locked }}{{ end }}
{{- end }}
`))

type dumpEntry struct {
	InstanceID int64
	TypeID     int
	IsRoot     bool
	Vars       string
	Slots      []string
	Inventory  []string
	Locked     []string
}

// Dump renders t as human readable text for diagnostics.
func Dump(t *Tree) string {
	if t == nil {
		return "snapshot <nil>"
	}

	entries := make([]dumpEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		de := dumpEntry{
			InstanceID: e.InstanceID,
			TypeID:     int(e.TypeID),
			IsRoot:     e.InstanceID == t.Root,
		}

		if len(e.Variables) > 0 {
			var vars bytes.Buffer
			for i, k := range e.Variables.Keys() {
				if i > 0 {
					vars.WriteString(", ")
				}
				fmt.Fprintf(&vars, "%s=%#v", k, e.Variables[k])
			}
			de.Vars = display.Block(vars.String(), display.DefaultWidth, dumpIndent)
		}
		for _, ref := range e.Slots {
			de.Slots = append(de.Slots, fmt.Sprintf("%s->%d", ref.Key, ref.Child))
		}
		for _, ref := range e.Inventory {
			de.Inventory = append(de.Inventory, fmt.Sprintf("%d->%d", ref.Position, ref.Child))
		}
		for _, pos := range e.Locked {
			de.Locked = append(de.Locked, strconv.Itoa(pos))
		}

		entries = append(entries, de)
	}

	var buf bytes.Buffer
	err := dumpTemplate.Execute(&buf, struct {
		Root    int64
		Entries []dumpEntry
	}{Root: t.Root, Entries: entries})
	if err != nil {
		return fmt.Sprintf("snapshot root=%d entries=%d (dump failed: %v)", t.Root, len(t.Entries), err)
	}

	return display.Wrap(buf.String())
}
