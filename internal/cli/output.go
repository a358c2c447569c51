package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goliatone/go-print"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(14)
	emptyStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
)

func writeJSON(w io.Writer, v any) error {
	_, err := fmt.Fprintln(w, print.MaybePrettyJSON(v))
	return err
}

// writeTable renders rows under headers, or a placeholder when rows is empty.
func writeTable(w io.Writer, title string, headers []string, rows [][]string) error {
	fmt.Fprintln(w, titleStyle.Render(title))
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, emptyStyle.Render("nothing to show"))
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeDetails(w io.Writer, title string, pairs [][2]string) error {
	fmt.Fprintln(w, titleStyle.Render(title))
	for _, p := range pairs {
		if _, err := fmt.Fprintln(w, keyStyle.Render(p[0])+" "+p[1]); err != nil {
			return err
		}
	}
	return nil
}
