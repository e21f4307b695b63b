package citeformat

import (
	"fmt"
	"strings"
)

// risEntryType maps citation types onto RIS TY values. Anything not listed
// exports as GEN.
func risEntryType(citationType string) string {
	switch strings.ToLower(strings.TrimSpace(citationType)) {
	case "journal":
		return "JOUR"
	case "book":
		return "BOOK"
	case "conference":
		return "CONF"
	default:
		return "GEN"
	}
}

// RIS renders one record per entry. Each record ends with "ER  - " followed by
// a blank line.
func RIS(entries []Fields) string {
	var b strings.Builder
	for _, f := range entries {
		writeRISRecord(&b, f)
	}
	return b.String()
}

func writeRISRecord(b *strings.Builder, f Fields) {
	writeRISTag(b, "TY", risEntryType(f.Type))
	writeRISTag(b, "TI", f.Title)
	for _, a := range cleanAuthors(f.Authors) {
		writeRISTag(b, "AU", a)
	}
	if f.Year != nil {
		writeRISTag(b, "PY", fmt.Sprintf("%d", *f.Year))
	}
	writeRISTag(b, "JO", f.Journal)
	writeRISTag(b, "VL", f.Volume)
	writeRISTag(b, "IS", f.Issue)
	writeRISTag(b, "SP", f.Pages)
	writeRISTag(b, "PB", f.Publisher)
	writeRISTag(b, "DO", f.DOI)
	writeRISTag(b, "UR", f.URL)
	writeRISTag(b, "SN", f.ISBN)
	b.WriteString("ER  - \n\n")
}

func writeRISTag(b *strings.Builder, tag, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s  - %s\n", tag, value)
}
