package cli

import (
	"bufio"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const tablePadding = 2

// writeTable prints rows in aligned columns. Widths are measured in terminal
// cells so wide runes do not skew the layout.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	widths := columnWidths(headers, rows)
	if len(widths) == 0 {
		return nil
	}

	writer := bufio.NewWriter(out)
	writeRow := func(row []string) {
		for idx, width := range widths {
			cell := ""
			if idx < len(row) {
				cell = row[idx]
			}
			_, _ = writer.WriteString(cell)
			if idx == len(widths)-1 {
				break
			}
			padding := width - cellWidth(cell)
			if padding < 0 {
				padding = 0
			}
			_, _ = writer.WriteString(strings.Repeat(" ", padding+tablePadding))
		}
		_ = writer.WriteByte('\n')
	}

	if len(headers) > 0 {
		writeRow(headers)
	}
	for _, row := range rows {
		writeRow(row)
	}
	return writer.Flush()
}

func columnWidths(headers []string, rows [][]string) []int {
	count := len(headers)
	for _, row := range rows {
		if len(row) > count {
			count = len(row)
		}
	}

	widths := make([]int, count)
	measure := func(row []string) {
		for idx, cell := range row {
			if w := cellWidth(cell); w > widths[idx] {
				widths[idx] = w
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}
	return widths
}

func cellWidth(value string) int {
	return runewidth.StringWidth(stripANSI(value))
}

// stripANSI drops CSI escape sequences.
func stripANSI(value string) string {
	if !strings.Contains(value, "\x1b[") {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != 0x1b || i+1 >= len(value) || value[i+1] != '[' {
			b.WriteByte(value[i])
			continue
		}
		for i += 2; i < len(value); i++ {
			if ch := value[i]; ch >= 0x40 && ch <= 0x7e {
				break
			}
		}
	}
	return b.String()
}
