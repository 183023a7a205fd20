package services

import (
	"regexp"
)

// Rejection reasons returned by ContentFilter.Check.
const (
	ReasonLanguage    = "inappropriate_language"
	ReasonURL         = "url_not_allowed"
	ReasonContactInfo = "contact_info_not_allowed"
	ReasonSpam        = "spam_detected"
	ReasonCaps        = "excessive_caps"
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"ass", "asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"spam", "scam", "scammer", "phishing", "malware",
}

var rejectionMessages = map[string]string{
	ReasonLanguage:    "Your evaluation contains inappropriate language.",
	ReasonURL:         "URLs and web links are not allowed.",
	ReasonContactInfo: "Contact information is not allowed.",
	ReasonSpam:        "Your evaluation appears to be spam.",
	ReasonCaps:        "Please avoid using excessive capital letters.",
}

// ContentFilter screens evaluation text before it is stored. Patterns are
// compiled once, so a filter is safe for concurrent use.
type ContentFilter struct {
	bannedWords []*regexp.Regexp
	url         *regexp.Regexp
	email       *regexp.Regexp
	phone       *regexp.Regexp
	allCaps     *regexp.Regexp
}

func NewContentFilter() *ContentFilter {
	f := &ContentFilter{
		bannedWords: make([]*regexp.Regexp, 0, len(BannedWords)),
		url:         regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`),
		email:       regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
		phone:       regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
		allCaps:     regexp.MustCompile(`[A-Z]{5,}`),
	}
	for _, word := range BannedWords {
		f.bannedWords = append(f.bannedWords, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}
	return f
}

// Check returns ok=false and a reason code when text breaks a rule.
func (f *ContentFilter) Check(text string) (bool, string) {
	if text == "" {
		return true, ""
	}
	for _, re := range f.bannedWords {
		if re.MatchString(text) {
			return false, ReasonLanguage
		}
	}
	if f.url.MatchString(text) {
		return false, ReasonURL
	}
	if f.email.MatchString(text) || f.phone.MatchString(text) {
		return false, ReasonContactInfo
	}
	if hasRepeatedRun(text, 4) {
		return false, ReasonSpam
	}
	if len(f.allCaps.FindAllString(text, -1)) > 2 {
		return false, ReasonCaps
	}
	return true, ""
}

// RejectionMessage turns a reason code into text for the caller.
func RejectionMessage(reason string) string {
	if msg, ok := rejectionMessages[reason]; ok {
		return msg
	}
	return "Your evaluation does not meet our content guidelines."
}

// hasRepeatedRun reports a letter or !?. repeated n or more times in a row,
// case-insensitively.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		c := r
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		countable := (c >= 'a' && c <= 'z') || c == '!' || c == '?' || c == '.'
		if countable && c == prev {
			run++
		} else {
			run = 1
		}
		if countable && run >= n {
			return true
		}
		prev = c
	}
	return false
}
