package extractor

import "regexp"

// Textual cues used to enforce the defaulting rules when the model ignores them.
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	hourWords = `(?:one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)`

	timeOfDayPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*[ap]\.?m\b`),
		regexp.MustCompile(`\b\d{1,2}:\d{2}\b`),
		regexp.MustCompile(`(?i)\b(?:noon|midday|midnight|morning|afternoon|evening|tonight|night|breakfast|lunch|dinner|o'?clock|eod|end of (?:the )?day)\b`),
		regexp.MustCompile(`(?i)\bat\s+(?:\d{1,4}h?|` + hourWords + `)\b`),
		regexp.MustCompile(`(?i)\b` + hourWords + `\s*(?:[ap]\.?m\b|o'?clock\b)`),
		regexp.MustCompile(`(?i)\b(?:half|quarter)\s+(?:past|to)\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}h(?:\d{2})?\b`),
		relativeOffset,
	}

	relativeOffset = regexp.MustCompile(`(?i)\bin\s+(?:an?|one|two|three|half\s+an?|\d+(?:\.\d+)?)\s*(?:hours?|hrs?|minutes?|mins?)\b`)

	durationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:an?|one|two|three|half\s+an?|\d+(?:\.\d+)?)[\s-]*(?:hours?|hrs?|minutes?|mins?)\b`),
		regexp.MustCompile(`(?i)\bhalf[\s-]hour\b`),
		// A range needs a time on the left, or a time marker on the right: "2 until 3", "to 4pm".
		regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?(?:\s*[ap]\.?m\.?)?\s+(?:until|till|til|through|to)\s+\d{1,2}\b`),
		regexp.MustCompile(`(?i)\b(?:until|till|til|through|to)\s+\d{1,2}(?::\d{2}|\s*[ap]\.?m\b)`),
		regexp.MustCompile(`(?i)\d(?:\s*[ap]\.?m\.?)?\s*[-–]\s*\d{1,2}(?::\d{2})?\s*[ap]\.?m\b`),
		regexp.MustCompile(`\b\d{1,2}:\d{2}\s*[-–]\s*\d{1,2}:\d{2}\b`),
	}
)

func mentionsEmail(text string) bool {
	return emailPattern.MatchString(text)
}

func mentionsTimeOfDay(text string) bool {
	for _, p := range timeOfDayPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// mentionsDuration ignores relative offsets such as "in 2 hours", which place the
// start rather than size the event.
func mentionsDuration(text string) bool {
	text = relativeOffset.ReplaceAllString(text, " ")
	for _, p := range durationPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
