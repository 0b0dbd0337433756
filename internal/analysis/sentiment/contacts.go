package sentiment

import "strings"

// genericContacts are names that identify a channel rather than a person
var genericContacts = map[string]struct{}{
	"unknown":  {},
	"me":       {},
	"system":   {},
	"group":    {},
	"chat":     {},
	"whatsapp": {},
	"imessage": {},
	"sms":      {},
	"mms":      {},
}

// NormalizeContact cleans a raw contact or chat name.
// Returns "" when the name should not be tracked as a person.
func NormalizeContact(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	if _, ok := genericContacts[strings.ToLower(name)]; ok {
		return ""
	}

	name = strings.ReplaceAll(name, " Group", "")
	name = strings.ReplaceAll(name, " group", "")
	return strings.TrimSpace(name)
}
