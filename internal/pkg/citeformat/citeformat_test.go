package citeformat

import (
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func sampleJournal() Fields {
	return Fields{
		Type:    "journal",
		Title:   "Attention Is All You Need",
		Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
		Year:    intPtr(2017),
		Journal: "Advances in Neural Information Processing Systems",
		Volume:  "30",
		Issue:   "1",
		Pages:   "5998-6008",
		DOI:     "10.5555/3295222",
	}
}

func TestFormatDeterministic(t *testing.T) {
	f := sampleJournal()
	first := Format(f)
	second := Format(f)
	if first != second {
		t.Fatalf("formatting not idempotent:\n%+v\n%+v", first, second)
	}
	if first.APA == "" || first.MLA == "" || first.IEEE == "" || first.Chicago == "" {
		t.Fatalf("missing style output: %+v", first)
	}
}

func TestFormatAPAJournal(t *testing.T) {
	out := Format(sampleJournal())
	want := "Ashish Vaswani, & Noam Shazeer (2017). Attention Is All You Need. Advances in Neural Information Processing Systems, 30(1), 5998-6008. https://doi.org/10.5555/3295222"
	if out.APA != want {
		t.Fatalf("APA mismatch:\n got  %q\n want %q", out.APA, want)
	}
}

func TestFormatNoYear(t *testing.T) {
	f := Fields{Type: "website", Title: "Go Blog", Authors: []string{"The Go Team"}, URL: "https://go.dev/blog"}
	out := Format(f)
	if !strings.Contains(out.APA, "(n.d.)") {
		t.Fatalf("APA without year should contain (n.d.): %q", out.APA)
	}
	if !strings.Contains(out.APA, "https://go.dev/blog") {
		t.Fatalf("APA should fall back to URL: %q", out.APA)
	}
}

func TestBibTeXEntryTypes(t *testing.T) {
	cases := map[string]string{
		"journal":    "@article{",
		"book":       "@book{",
		"conference": "@inproceedings{",
		"article":    "@misc{",
		"thesis":     "@misc{",
		"website":    "@misc{",
		"other":      "@misc{",
	}
	for typ, prefix := range cases {
		f := sampleJournal()
		f.Type = typ
		out := BibTeX([]Fields{f})
		if !strings.HasPrefix(out, prefix) {
			t.Fatalf("type %q: expected prefix %q, got %q", typ, prefix, out[:40])
		}
	}
}

func TestBibTeXOmitsEmptyFields(t *testing.T) {
	f := Fields{Type: "book", Title: "The Go Programming Language", Authors: []string{"Alan Donovan", "Brian Kernighan"}, Year: intPtr(2015), Publisher: "Addison-Wesley"}
	out := BibTeX([]Fields{f})
	for _, absent := range []string{"journal =", "volume =", "number =", "pages =", "doi =", "url =", "isbn ="} {
		if strings.Contains(out, absent) {
			t.Fatalf("empty field emitted: %s in\n%s", absent, out)
		}
	}
	if !strings.Contains(out, "author = {Alan Donovan and Brian Kernighan},") {
		t.Fatalf("authors should join with \" and \":\n%s", out)
	}
}

func TestRISBook(t *testing.T) {
	f := Fields{Type: "book", Title: "SICP", Authors: []string{"Harold Abelson", "Gerald Sussman"}, Year: intPtr(1996)}
	out := RIS([]Fields{f})
	lines := strings.Split(out, "\n")
	if lines[0] != "TY  - BOOK" {
		t.Fatalf("first line = %q, want TY  - BOOK", lines[0])
	}
	var authorLines int
	for _, l := range lines {
		if strings.HasPrefix(l, "AU  - ") {
			authorLines++
		}
	}
	if authorLines != 2 {
		t.Fatalf("expected one AU line per author, got %d", authorLines)
	}
	if !strings.HasSuffix(out, "ER  - \n\n") {
		t.Fatalf("record must terminate with ER and a blank line: %q", out[len(out)-12:])
	}
}

func TestRISEntryTypes(t *testing.T) {
	cases := map[string]string{
		"journal":    "JOUR",
		"book":       "BOOK",
		"conference": "CONF",
		"article":    "GEN",
		"thesis":     "GEN",
	}
	for typ, want := range cases {
		out := RIS([]Fields{{Type: typ, Title: "x"}})
		if !strings.HasPrefix(out, "TY  - "+want+"\n") {
			t.Fatalf("type %q: got %q", typ, strings.SplitN(out, "\n", 2)[0])
		}
	}
}

func TestBibTeXKeyStable(t *testing.T) {
	f := sampleJournal()
	a := BibTeX([]Fields{f})
	b := BibTeX([]Fields{f})
	if a != b {
		t.Fatalf("BibTeX output not deterministic")
	}
	if !strings.HasPrefix(a, "@article{vaswani2017attention,") {
		t.Fatalf("unexpected entry key: %q", strings.SplitN(a, "\n", 2)[0])
	}
}
