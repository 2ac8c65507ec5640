package extractor

import (
	"fmt"
	"strings"
	"time"
)

// BuildSystemPrompt renders the extraction instructions. The reference instant is shown
// in loc so relative expressions resolve against the time of the request.
func BuildSystemPrompt(reference time.Time, loc *time.Location, schema []byte) string {
	if loc == nil {
		loc = time.UTC
	}
	ref := reference.In(loc)

	var b strings.Builder
	b.WriteString("You are an AI assistant that extracts appointment details from natural language requests.\n\n")
	fmt.Fprintf(&b, "Current date and time: %s (%s, %s)\n\n", ref.Format("2006-01-02T15:04:05"), ref.Weekday(), loc)
	b.WriteString(`Extract the following information:
- title: The meeting/appointment title
- start_datetime: Start date and time in ISO 8601 format (YYYY-MM-DDTHH:MM:SS)
- end_datetime: End date and time in ISO 8601 format (default to 1 hour after start if not specified)
- attendee_emails: List of email addresses (extract from text if provided, otherwise empty list)
- description: Any additional context or description, omitted when there is none

Rules:
- Use the current date/time as reference for relative dates ("tomorrow", "next week", etc.)
- If no time is specified, default to 9:00 AM
- If no duration is specified, default to 1 hour
- If no attendees are mentioned, return an empty list
`)
	if loc == time.UTC {
		b.WriteString("- Do not add a timezone offset unless the request names one\n")
	} else {
		// Naive times are stored as UTC, so local wall-clock times must carry their offset.
		fmt.Fprintf(&b, "- Express times in %s and always append its UTC offset (%s), e.g. %s\n",
			loc, ref.Format("-07:00"), ref.Format(time.RFC3339))
	}
	if len(schema) > 0 {
		b.WriteString("\nRespond with a single JSON object that validates against this JSON Schema:\n")
		b.Write(schema)
		b.WriteString("\n")
	}
	return b.String()
}
