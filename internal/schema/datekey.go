package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dateParser = newDateParser()

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseDateKey turns user input into a Planner key relative to now.
//
// Accepted forms:
//   - "" or "today": the date of now
//   - an explicit YYYY-MM-DD date
//   - natural language understood by olebedev/when ("tomorrow", "next friday",
//     "in 3 days")
func ParseDateKey(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "today") {
		return DateKey(now), nil
	}

	if IsDateKey(input) {
		t, err := time.Parse(DateKeyLayout, input)
		if err != nil {
			return "", fmt.Errorf("invalid date %q: %w", input, err)
		}
		return DateKey(t), nil
	}

	r, err := dateParser.Parse(input, now)
	if err != nil {
		return "", fmt.Errorf("failed to parse date %q: %w", input, err)
	}
	if r == nil {
		return "", fmt.Errorf("no date found in %q", input)
	}
	return DateKey(r.Time), nil
}
