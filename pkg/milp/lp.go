package milp

import (
	"fmt"
	"strconv"
	"strings"
)

// LP-format readers reject lines longer than 255 characters
const lpLineWidth = 200

// ToLP renders the model in CPLEX LP format
func (model *Model) ToLP() string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "\\ %s\n", model.Name)
	if model.Maximize {
		builder.WriteString("Maximize\n")
	} else {
		builder.WriteString("Minimize\n")
	}

	objective := model.Objective
	if len(objective) == 0 && len(model.Variables) > 0 {
		objective = []Term{{Variable: 0, Coefficient: 0}}
	}
	model.writeExpression(&builder, " obj:", objective)
	builder.WriteString("\n")

	builder.WriteString("Subject To\n")
	for _, constraint := range model.Constraints {
		model.writeExpression(&builder, " "+constraint.Name+":", constraint.Terms)
		fmt.Fprintf(&builder, " %s %s\n", constraint.Sense, formatNumber(constraint.RHS))
	}

	builder.WriteString("Bounds\n")
	for _, variable := range model.Variables {
		switch {
		case variable.Fixed:
			fmt.Fprintf(&builder, " %s = %s\n", variable.Name, formatNumber(variable.Lower))
		case variable.Kind == Binary:
			continue
		case isInfinite(variable.Upper):
			fmt.Fprintf(&builder, " %s >= %s\n", variable.Name, formatNumber(variable.Lower))
		default:
			fmt.Fprintf(&builder, " %s <= %s <= %s\n", formatNumber(variable.Lower), variable.Name, formatNumber(variable.Upper))
		}
	}

	model.writeSection(&builder, "Binaries", Binary)
	model.writeSection(&builder, "Generals", Integer)
	builder.WriteString("End\n")

	return builder.String()
}

func (model *Model) writeExpression(builder *strings.Builder, label string, terms []Term) {
	builder.WriteString(label)
	width := len(label)
	for _, term := range terms {
		sign := "+"
		coefficient := term.Coefficient
		if coefficient < 0 {
			sign, coefficient = "-", -coefficient
		}

		chunk := fmt.Sprintf(" %s %s %s", sign, formatNumber(coefficient), model.Variables[term.Variable].Name)
		if width+len(chunk) > lpLineWidth {
			builder.WriteString("\n  ")
			width = 2
		}
		builder.WriteString(chunk)
		width += len(chunk)
	}
}

func (model *Model) writeSection(builder *strings.Builder, header string, kind VariableKind) {
	written := false
	width := 0
	for _, variable := range model.Variables {
		if variable.Kind != kind {
			continue
		}
		if !written {
			builder.WriteString(header + "\n")
			written = true
		}
		if width+len(variable.Name)+1 > lpLineWidth {
			builder.WriteString("\n")
			width = 0
		}
		builder.WriteString(" " + variable.Name)
		width += len(variable.Name) + 1
	}
	if written {
		builder.WriteString("\n")
	}
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

func isInfinite(value float64) bool {
	return value > 1e30
}
