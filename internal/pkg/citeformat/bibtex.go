package citeformat

import (
	"fmt"
	"strings"
)

// bibtexEntryType maps citation types onto BibTeX entry types. Anything not
// listed exports as @misc.
func bibtexEntryType(citationType string) string {
	switch strings.ToLower(strings.TrimSpace(citationType)) {
	case "journal":
		return "article"
	case "book":
		return "book"
	case "conference":
		return "inproceedings"
	default:
		return "misc"
	}
}

// BibTeX renders one entry per record, fields emitted only when present.
func BibTeX(entries []Fields) string {
	var b strings.Builder
	for i, f := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		writeBibTeXEntry(&b, f)
	}
	return b.String()
}

func writeBibTeXEntry(b *strings.Builder, f Fields) {
	fmt.Fprintf(b, "@%s{%s,\n", bibtexEntryType(f.Type), bibtexKey(f))
	writeBibTeXField(b, "title", f.Title)
	writeBibTeXField(b, "author", strings.Join(cleanAuthors(f.Authors), " and "))
	if f.Year != nil {
		writeBibTeXField(b, "year", fmt.Sprintf("%d", *f.Year))
	}
	writeBibTeXField(b, "journal", f.Journal)
	writeBibTeXField(b, "volume", f.Volume)
	writeBibTeXField(b, "number", f.Issue)
	writeBibTeXField(b, "pages", f.Pages)
	writeBibTeXField(b, "publisher", f.Publisher)
	writeBibTeXField(b, "doi", f.DOI)
	writeBibTeXField(b, "url", f.URL)
	writeBibTeXField(b, "isbn", f.ISBN)
	b.WriteString("}\n")
}

func writeBibTeXField(b *strings.Builder, name, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s = {%s},\n", name, value)
}

// bibtexKey derives a stable entry key from the first author's surname, the
// year, and the first title word.
func bibtexKey(f Fields) string {
	surname := "anon"
	if authors := cleanAuthors(f.Authors); len(authors) > 0 {
		parts := strings.Fields(authors[0])
		if len(parts) > 0 {
			surname = slugToken(parts[len(parts)-1])
		}
	}
	year := ""
	if f.Year != nil {
		year = fmt.Sprintf("%d", *f.Year)
	}
	titleWord := ""
	if words := strings.Fields(f.Title); len(words) > 0 {
		titleWord = slugToken(words[0])
	}
	key := surname + year + titleWord
	if key == "" {
		key = "citation"
	}
	return key
}

func slugToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
