// Package support holds presentation helpers around the evaluation core.
package support

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/packmad/ClosestProxy/internal/domain"
)

var tableHeaders = []string{"Proxy", "Protocol", "IP", "Port", "Ping (s)", "Country", "City"}

// RenderTable formats evaluations as an aligned text table, fastest first if
// the input is already ranked. Latency is printed in seconds with
// millisecond precision; an absent city renders as "-".
func RenderTable(evaluations []domain.Evaluation) string {
	rows := make([][]string, 0, len(evaluations))
	for _, eval := range evaluations {
		city := eval.Candidate.Geolocation.City
		if city == "" {
			city = "-"
		}
		rows = append(rows, []string{
			eval.Candidate.URL(),
			eval.Candidate.Protocol.String(),
			eval.Candidate.Address,
			strconv.Itoa(int(eval.Candidate.Port)),
			fmt.Sprintf("%.3f", eval.Result.Latency.Seconds()),
			eval.Candidate.Geolocation.Country,
			city,
		})
	}

	widths := make([]int, len(tableHeaders))
	for i, header := range tableHeaders {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow(&b, tableHeaders, widths)

	separators := make([]string, len(widths))
	for i, w := range widths {
		separators[i] = strings.Repeat("-", w)
	}
	b.WriteString(strings.Join(separators, "-+-"))
	b.WriteByte('\n')

	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
	}
	b.WriteString(strings.Join(padded, " | "))
	b.WriteByte('\n')
}
