package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/refgraph/pkg/schema"
)

// SchemaMarkdown documents schema classes as markdown, one section and field table per
// class.
func SchemaMarkdown(specs []schema.ClassSpec) string {
	var sb strings.Builder
	sb.WriteString("# Schema\n")

	for _, cs := range specs {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", cs.Name))
		if cs.Description != "" {
			sb.WriteString(cs.Description + "\n\n")
		}
		if cs.Parent != "" {
			sb.WriteString(fmt.Sprintf("Extends **%s**.\n\n", cs.Parent))
		}
		if !cs.IsTarget() {
			sb.WriteString("Owner class: instances cannot be referenced.\n\n")
		}
		if len(cs.Fields) == 0 {
			sb.WriteString("_No fields._\n")
			continue
		}

		sb.WriteString("| Field | Kind | Type | Flags | Default | Description |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, fs := range cs.Fields {
			typ := fs.EffectiveType()
			if fs.EffectiveKind() != schema.KindProperty {
				typ = fs.Target
				if typ == "" {
					typ = "any object"
				}
			}
			def := ""
			if fs.Default != nil {
				def = fmt.Sprintf("`%v`", fs.Default)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				fs.Name, fs.EffectiveKind(), cell(typ), strings.Join(fs.Flags, ", "), def, cell(fs.Description)))
		}
	}
	return sb.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
