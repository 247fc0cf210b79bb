package audit

import (
	"regexp"
	"strconv"
)

var bafinIDPattern = regexp.MustCompile(`\b([1-9]\d{7})\b`)

// DetectBaFinID finds the first well-formed 8-digit regulator identifier in
// free text, e.g. a mail subject or a document page
func DetectBaFinID(text string) (int64, bool) {
	match := bafinIDPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(match, 10, 64)
	if err != nil || !ValidBaFinID(id) {
		return 0, false
	}
	return id, true
}
