package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/satishbabariya/relorm/schema"
)

var (
	fieldHeaders = []string{"Field", "Type", "Null", "Default", "Extra"}
	indexHeaders = []string{"Index", "Kind", "Fields", "References"}
)

func fieldRows(l *schema.Layout) [][]string {
	rows := make([][]string, 0, len(l.Fields()))
	for _, f := range l.Fields() {
		null := "NO"
		if f.Nullable {
			null = "YES"
		}
		def := ""
		if e, ok := f.DefaultExpression(); ok {
			def = string(e)
		} else if f.Default != nil {
			def = cast.ToString(f.Default)
		}
		extra := ""
		if f.AutoIncrement {
			extra = "auto_increment"
		}
		rows = append(rows, []string{f.Name, f.Type.String(), null, def, extra})
	}
	return rows
}

func indexRows(l *schema.Layout) [][]string {
	var rows [][]string
	for _, idx := range l.Indexes() {
		ref := ""
		if r := idx.References; r != nil {
			ref = r.Table + "." + r.Field
			if r.OnDelete != "" {
				ref += " on delete " + strings.ToLower(r.OnDelete)
			}
			if r.OnUpdate != "" {
				ref += " on update " + strings.ToLower(r.OnUpdate)
			}
		}
		rows = append(rows, []string{idx.Name, string(idx.Kind), strings.Join(idx.Fields, ", "), ref})
	}
	return rows
}

// layoutMarkdown documents a layout as markdown tables
func layoutMarkdown(l *schema.Layout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", l.Name())
	writeMarkdownTable(&b, fieldHeaders, fieldRows(l))
	if rows := indexRows(l); len(rows) > 0 {
		b.WriteString("\n## Indexes\n\n")
		writeMarkdownTable(&b, indexHeaders, rows)
	}
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, headers []string, rows [][]string) {
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = "`" + c + "`"
			if c == "" {
				cells[i] = ""
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}
