package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/validate"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// File Output
// =============================================================================

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints run statistics on a single line.
func printStats(components, edges int, cached bool) {
	parts := []string{fmt.Sprintf("%d components", components)}
	if edges > 0 {
		parts = append(parts, fmt.Sprintf("%d edges", edges))
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Println(line)
}

// =============================================================================
// Order, Declarations and Issues
// =============================================================================

// printOrder prints the execution order as a numbered list, one component
// per line with its priority.
func printOrder(order []string, decls []component.Declaration) {
	prio := make(map[string]int, len(decls))
	for _, d := range decls {
		prio[d.ID] = d.Priority
	}
	width := len(strconv.Itoa(len(order)))
	for i, id := range order {
		step := fmt.Sprintf("%*d", width, i+1)
		fmt.Println("  " + StyleNumber.Render(step) + " " + StyleValue.Render(id) +
			StyleDim.Render(fmt.Sprintf("  priority %d", prio[id])))
	}
}

// printDeclarations prints each declaration with its relations.
func printDeclarations(decls []component.Declaration) {
	for _, d := range decls {
		fmt.Println(StyleHighlight.Render(d.ID) + StyleDim.Render(fmt.Sprintf("  priority %d", d.Priority)))
		if len(d.After) > 0 {
			printKeyValue("  after", strings.Join(d.After, ", "))
		}
		if len(d.Before) > 0 {
			printKeyValue("  before", strings.Join(d.Before, ", "))
		}
		if d.Version != "" {
			printKeyValue("  version", d.Version)
		}
		for _, req := range d.Requires {
			printKeyValue("  requires", formatRequirement(req))
		}
		if d.Source != "" {
			printKeyValue("  source", d.Source)
		}
	}
}

func formatRequirement(req component.Requirement) string {
	s := req.ID
	if req.Constraint != "" {
		s += " " + req.Constraint
	}
	if req.Optional {
		s += " (optional)"
	}
	return s
}

// printIssues prints validation findings grouped by component.
func printIssues(r *validate.Report) {
	groups := r.ByComponent()
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fmt.Println(StyleHighlight.Render(id))
		for _, issue := range groups[id] {
			icon := styleIconInfo.Render(iconInfo)
			if issue.Severity == validate.SeverityError {
				icon = styleIconError.Render(iconError)
			}
			fmt.Println("  " + icon + " " + issue.Message + " " + StyleDim.Render("("+string(issue.Kind)+")"))
		}
	}
}

// formatCycle renders a cycle path as "A -> B -> A".
func formatCycle(path []string) string {
	return strings.Join(path, " -> ")
}

// printCycle reports a dependency cycle.
func printCycle(path []string) {
	printError("dependency cycle: %s", formatCycle(path))
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Utilities
// =============================================================================

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
