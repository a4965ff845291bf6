package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/schema"
)

// GraphOverlay contains objects to highlight on an object graph.
type GraphOverlay struct {
	Selected []string
}

// GenerateMermaid produces a Mermaid flowchart of the objects of a snapshot.
// Shapes:
// - Root: ((Circle))
// - Default: [Rectangle]
// Edges are labelled with the reference field, vector slots with field[index].
func GenerateMermaid(snap *domain.Snapshot, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make([]string, 0, len(snap.Objects))
	for id := range snap.Objects {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareIDs)

	for _, id := range ids {
		rec := snap.Objects[id]
		safeID := nodeID(id)

		opener, closer := "[", "]"
		if id == snap.Root {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s #%s\"%s\n", safeID, opener, escape(rec.Class), id, closer))

		fields := make([]string, 0, len(rec.References))
		for name := range rec.References {
			fields = append(fields, name)
		}
		slices.Sort(fields)
		for _, field := range fields {
			targets := rec.References[field]
			for i, to := range targets {
				if to == "" {
					continue
				}
				label := field
				if len(targets) > 1 {
					label = fmt.Sprintf("%s[%d]", field, i)
				}
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, escape(label), nodeID(to)))
			}
		}
	}

	if overlay != nil && len(overlay.Selected) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.Selected {
			if _, ok := snap.Objects[id]; !ok || seen[id] {
				continue
			}
			seen[id] = true
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", nodeID(id)))
		}
	}

	return sb.String()
}

// GenerateClassDiagram produces a Mermaid class diagram of schema classes.
// Inheritance uses <|--, references --> and vectors --> with a "*" multiplicity.
func GenerateClassDiagram(specs []schema.ClassSpec) string {
	var sb strings.Builder
	sb.WriteString("classDiagram\n")

	for _, cs := range specs {
		name := sanitizeMermaidID(cs.Name)
		sb.WriteString(fmt.Sprintf("    class %s {\n", name))
		if !cs.IsTarget() {
			sb.WriteString("        <<owner>>\n")
		}
		for _, fs := range cs.Fields {
			if fs.EffectiveKind() == schema.KindProperty {
				sb.WriteString(fmt.Sprintf("        +%s %s\n", sanitizeType(fs.EffectiveType()), fs.Name))
			}
		}
		sb.WriteString("    }\n")
	}

	for _, cs := range specs {
		name := sanitizeMermaidID(cs.Name)
		if cs.Parent != "" {
			sb.WriteString(fmt.Sprintf("    %s <|-- %s\n", sanitizeMermaidID(cs.Parent), name))
		}
		for _, fs := range cs.Fields {
			switch fs.EffectiveKind() {
			case schema.KindReference:
				arrow := "-->"
				if slices.Contains(fs.Flags, "weak") {
					arrow = "..>"
				}
				sb.WriteString(fmt.Sprintf("    %s %s %s : %s\n", name, arrow, targetName(fs), fs.Name))
			case schema.KindVector:
				sb.WriteString(fmt.Sprintf("    %s --> \"*\" %s : %s\n", name, targetName(fs), fs.Name))
			}
		}
	}

	return sb.String()
}

func targetName(fs schema.FieldSpec) string {
	if fs.Target == "" {
		return "Object"
	}
	return sanitizeMermaidID(fs.Target)
}

func nodeID(id string) string {
	return "obj_" + sanitizeMermaidID(id)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// Mermaid reads "[x]" as a generic marker only when written with tildes.
func sanitizeType(t string) string {
	if strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
		return "List~" + sanitizeType(t[1:len(t)-1]) + "~"
	}
	return t
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

// compareIDs orders numeric object IDs numerically.
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
