package flow

import (
	"strconv"
	"strings"
)

// MaxRentDays caps the storage term at roughly ten years.
const MaxRentDays = 3650

// ValidAddress requires enough text to plausibly contain city/street/house.
func ValidAddress(text string) bool {
	return len([]rune(strings.TrimSpace(text))) >= 8
}

// ValidPhone accepts international-format numbers: "+" prefix, length >= 8.
func ValidPhone(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "+") && len(text) >= 8
}

// ValidEmail does a cheap sanity check: "@" present and not at a string
// boundary, "." present anywhere, total length >= 6.
func ValidEmail(text string) bool {
	email := strings.TrimSpace(text)
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return false
	}
	if strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return false
	}
	return len(email) >= 6
}

// ParseRentDays parses the storage term in days, in (0, MaxRentDays].
func ParseRentDays(text string) (int, bool) {
	days, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || days <= 0 || days > MaxRentDays {
		return 0, false
	}
	return days, true
}

// SplitItems splits a free-form item list on commas, semicolons and
// newlines, dropping empty entries.
func SplitItems(text string) []string {
	prepared := strings.NewReplacer(";", ",", "\n", ",").Replace(text)
	var items []string
	for _, part := range strings.Split(prepared, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// IsYes matches the accepted confirmation spellings.
func IsYes(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "да", "yes", "y":
		return true
	}
	return false
}

// IsNo matches the accepted decline spellings.
func IsNo(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "нет", "no", "n":
		return true
	}
	return false
}

// IsCancel matches the global flow-abort inputs.
func IsCancel(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/cancel", "отмена", "вернуться в главное меню":
		return true
	}
	return false
}

// IsPromoSkip matches the "no promo code" sentinels.
func IsPromoSkip(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "нет", "пропустить", "-":
		return true
	}
	return false
}

// consentAgreed / consentDeclined parse the personal-data consent answer.
// Order matters: "не согласен" contains "согласен".
func consentDeclined(text string) bool {
	return strings.Contains(strings.ToLower(text), "не согласен")
}

func consentAgreed(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return !consentDeclined(text) && (strings.Contains(lower, "согласен") || lower == "да")
}

// seasonalYes / seasonalNo parse the seasonal-items answer; the keyboard
// buttons are full sentences, so only the leading word is significant.
func seasonalYes(text string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "да")
}

func seasonalNo(text string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "нет")
}
