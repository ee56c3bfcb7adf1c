package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipscope/pkg/audit"
)

var (
	browseDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	browseLabelStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	browseHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// newBrowseCmd creates the browse command, an interactive viewer for
// exported reports.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <report.json>",
		Short: "Browse an audit report interactively",
		Long: `Browse an audit report interactively.

Opens a JSON report produced by 'pipscope audit --json' in a terminal
table. Navigate with the arrow keys, press enter to inspect a
dependency's licenses and investigation flags, and q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := readReport(args[0])
			if err != nil {
				return err
			}
			if len(rep.Dependencies) == 0 {
				printInfo("Report for %s has no dependencies to browse", rep.RootPackage)
				return nil
			}
			_, err = tea.NewProgram(newBrowseModel(rep), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// browseModel is the bubbletea model for the report viewer. It has two
// states: the dependency table and a detail view of one dependency.
type browseModel struct {
	report *audit.Report
	cursor int
	offset int
	height int
	detail bool
}

func newBrowseModel(rep *audit.Report) browseModel {
	return browseModel{report: rep, height: 15}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.detail {
				m.detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if !m.detail && m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if !m.detail && m.cursor < len(m.report.Dependencies)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			m.detail = true
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	if m.detail {
		return m.detailView()
	}
	return m.listView()
}

func (m browseModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Dependency Audit: " + m.report.RootPackage))
	b.WriteString("\n")
	b.WriteString(browseDimStyle.Render("↑/↓ navigate  ⏎ inspect  q quit"))
	b.WriteString("\n\n")

	deps := m.report.Dependencies
	end := m.offset + m.height
	if end > len(deps) {
		end = len(deps)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		d := deps[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		depth := "-"
		if d.Depth >= 0 {
			depth = fmt.Sprintf("%d", d.Depth)
		}
		license := d.License
		if license == "" {
			license = "—"
		}
		wheels := "—"
		if len(d.WheelTypes) > 0 {
			wheels = strings.Join(d.WheelTypes, ", ")
		}
		investigate := ""
		if d.InvestigationRequired {
			investigate = "!"
		}

		rows = append(rows, []string{cursor, d.Name, depth, license, wheels, investigate})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Depth", "License", "Wheels", "!").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return browseHeaderStyle
			}

			actualIdx := m.offset + row
			if actualIdx >= len(deps) {
				return lipgloss.NewStyle()
			}
			d := deps[actualIdx]
			isCurrent := actualIdx == m.cursor

			base := lipgloss.NewStyle()
			if d.InvestigationRequired {
				base = base.Foreground(colorRed)
			} else if col == 2 || col == 4 {
				base = base.Foreground(colorDim)
			}
			if isCurrent {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(browseDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(deps))))

	return b.String()
}

func (m browseModel) detailView() string {
	d := m.report.Dependencies[m.cursor]
	var b strings.Builder

	b.WriteString(StyleTitle.Render(d.Name))
	b.WriteString("\n")
	b.WriteString(browseDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	writeField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(browseLabelStyle.Render(label) + " " + StyleValue.Render(value))
		b.WriteString("\n")
	}

	writeField("Spec", d.FullSpec)
	if d.Depth >= 0 {
		writeField("Depth", fmt.Sprintf("%d", d.Depth))
	} else {
		writeField("Depth", "not expanded")
	}
	writeField("License", d.License)
	writeField("License URL", d.LicenseURL)
	writeField("Project", d.ProjectURL)
	writeField("Author", d.Author)
	writeField("Wheels", strings.Join(d.WheelTypes, ", "))
	if d.IsPurePython {
		writeField("Pure Python", "yes")
	} else {
		writeField("Pure Python", "no")
	}
	writeField("Required by", strings.Join(d.DirectParents, ", "))

	if d.InvestigationRequired {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render("Requires investigation"))
		b.WriteString("\n")
		for _, flag := range d.InvestigationFlags {
			b.WriteString("  " + StyleError.Render("!") + " " + flag)
			b.WriteString("\n")
		}
		if d.Recommendation != "" {
			b.WriteString("\n")
			b.WriteString(browseDimStyle.Render(d.Recommendation))
			b.WriteString("\n")
		}
	}

	return b.String()
}
