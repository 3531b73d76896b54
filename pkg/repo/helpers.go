package repo

import (
	"fmt"
	"strings"
)

// ValuesPlaceholders renders "($1, $2), ($3, $4), ..." for a multi-row
// INSERT of rows x cols parameters, starting at $1.
func ValuesPlaceholders(rows, cols int) string {
	var b strings.Builder
	arg := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", arg)
			arg++
		}
		b.WriteString(")")
	}
	return b.String()
}

// FormatLimitOffset appends LIMIT/OFFSET clauses, omitting the ones that are
// not set.
func FormatLimitOffset(limit, offset int) string {
	if limit > 0 && offset > 0 {
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	}
	if limit > 0 {
		return fmt.Sprintf("LIMIT %d", limit)
	}
	if offset > 0 {
		return fmt.Sprintf("OFFSET %d", offset)
	}
	return ""
}
