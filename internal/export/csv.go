// Package export renders ledger snapshots as portable text.
package export

import (
	"fmt"
	"strings"

	"github.com/pavelanni/mcqgrader/internal/model"
)

// TimestampLayout is the timestamp format used in CSV exports.
const TimestampLayout = "2006-01-02 15:04:05"

// CSV serializes graded records in ledger order. Fields are joined with plain
// commas: registration numbers, course codes, and formatted timestamps contain
// no delimiters, so no quoting is applied.
func CSV(records []model.GradedRecord) string {
	var sb strings.Builder
	sb.WriteString("RegNumber,Course,Score,Total,Timestamp\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "%s,%s,%d,%d,%s\n",
			r.RegNumber, r.CourseCode, r.Score, r.Total, r.Timestamp.Format(TimestampLayout))
	}
	return sb.String()
}
