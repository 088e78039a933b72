package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/addressbook/internal/contact"
)

// FormatContacts renders contacts as a markdown list under title.
func FormatContacts(title string, contacts []contact.Contact) string {
	if len(contacts) == 0 {
		return fmt.Sprintf("%s: no contacts", title)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n%s\n\n", title, plural(len(contacts), "contact"))
	for _, c := range contacts {
		formatContact(&sb, c)
	}
	return sb.String()
}

// FormatUpdated renders update results, marking slots with no contact.
func FormatUpdated(patches []contact.Patch, results []*contact.Contact) string {
	var sb strings.Builder
	updated := 0
	for _, r := range results {
		if r != nil {
			updated++
		}
	}
	fmt.Fprintf(&sb, "## Updated Contacts\n\n%d of %d updated\n\n", updated, len(results))
	for i, r := range results {
		if r == nil {
			fmt.Fprintf(&sb, "- `%s`: not found\n", patches[i].ID)
			continue
		}
		formatContact(&sb, *r)
	}
	return sb.String()
}

// FormatDuplicates renders duplicate groups.
func FormatDuplicates(groups [][]contact.Contact) string {
	if len(groups) == 0 {
		return "No duplicate contacts found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Suggested Duplicates\n\n%s\n\n", plural(len(groups), "group"))
	for i, g := range groups {
		fmt.Fprintf(&sb, "### Group %d\n\n", i+1)
		for _, c := range g {
			formatContact(&sb, c)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatStatus renders the directory summary.
func FormatStatus(st DirectoryStatusOutput) string {
	var sb strings.Builder
	sb.WriteString("## Directory Status\n\n")
	fmt.Fprintf(&sb, "- Version: %s\n", st.Version)
	fmt.Fprintf(&sb, "- Contacts: %d\n", st.Contacts)
	fmt.Fprintf(&sb, "- Tokens: %d (%d postings)\n", st.Tokens, st.Postings)
	if st.Consistent {
		sb.WriteString("- Index: consistent\n")
	} else {
		fmt.Fprintf(&sb, "- Index: %d inconsistencies\n", st.Issues)
	}
	if st.Search != nil {
		fmt.Fprintf(&sb, "- Searches: %d (%.1f%% without results)\n",
			st.Search.TotalSearches, st.Search.ZeroResultPercentage())
	}
	return sb.String()
}

func formatContact(sb *strings.Builder, c contact.Contact) {
	fmt.Fprintf(sb, "- **%s** `%s`", orDash(c.Name), c.ID)
	if c.Phone != "" {
		fmt.Fprintf(sb, " phone: %s", c.Phone)
	}
	if c.Email != "" {
		fmt.Fprintf(sb, " email: %s", c.Email)
	}
	sb.WriteString("\n")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("Found 1 %s", noun)
	}
	return fmt.Sprintf("Found %d %ss", n, noun)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
