package interpret

import "fmt"

// ResultSet is what Execute returns for any statement that produces
// rows to display: column names and the formatted data, already
// stringified since every field here is either an INT or a fixed STR.
type ResultSet struct {
	Columns []string
	Rows    [][]string
}

// Render formats a ResultSet the way "show database" and "select"
// output is printed to the REPL: a header line followed by one line
// per row, space-separated.
func (rs *ResultSet) Render() string {
	if rs == nil {
		return ""
	}
	out := ""
	if len(rs.Columns) > 0 {
		out += joinRow(rs.Columns) + "\n"
	}
	for _, r := range rs.Rows {
		out += joinRow(r) + "\n"
	}
	return out
}

func joinRow(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += " "
		}
		out += f
	}
	return out
}

func intCell(v int) string    { return fmt.Sprintf("%d", v) }
func strCell(v string) string { return v }
