package providers

import "strings"

// ProviderRef is one entry of a configured provider list. A list looks like
// "gemini:primary|openai|mock": entries are pipe-separated, and an optional
// colon suffix names the API-key alias the provider should resolve.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits a configured list into refs, in order. Blank
// entries are skipped; an effectively empty list yields a single mock ref so
// the service always has a backend to talk to.
func ParseProviderList(raw string) []ProviderRef {
	var refs []ProviderRef
	for _, entry := range strings.Split(raw, "|") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, alias, _ := strings.Cut(entry, ":")
		refs = append(refs, ProviderRef{
			Raw:      entry,
			Name:     strings.TrimSpace(name),
			KeyAlias: strings.TrimSpace(alias),
		})
	}
	if len(refs) == 0 {
		refs = []ProviderRef{{Raw: "mock", Name: "mock"}}
	}
	return refs
}
