package service

import "strings"

// CanonicalizeEmail maps an address to the form stored in the directory so
// that aliases of the same mailbox cannot register twice. Every address is
// trimmed and lowercased. Gmail and Googlemail local parts additionally lose
// their dots and any "+tag" suffix, matching how Google routes mail.
func CanonicalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	local, domain, found := strings.Cut(email, "@")
	if !found {
		return email
	}

	if domain == "gmail.com" || domain == "googlemail.com" {
		if alias, _, tagged := strings.Cut(local, "+"); tagged {
			local = alias
		}
		local = strings.ReplaceAll(local, ".", "")
	}

	return local + "@" + domain
}
