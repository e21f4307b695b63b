// Package citeformat renders bibliographic records into inline citation styles
// and export formats. Everything here is a pure function of the input fields:
// the same Fields always produce byte-identical output.
package citeformat

import (
	"fmt"
	"strings"
)

// Fields is the style-agnostic view of a citation used by all formatters.
type Fields struct {
	Type      string
	Title     string
	Authors   []string
	Year      *int
	Journal   string
	Volume    string
	Issue     string
	Pages     string
	Publisher string
	DOI       string
	URL       string
	ISBN      string
}

// Inline holds the precomputed inline representations stored on a citation.
type Inline struct {
	APA     string
	MLA     string
	IEEE    string
	Chicago string
}

func Format(f Fields) Inline {
	return Inline{
		APA:     apa(f),
		MLA:     mla(f),
		IEEE:    ieee(f),
		Chicago: chicago(f),
	}
}

func apa(f Fields) string {
	var b strings.Builder
	if a := joinAuthorsAmp(f.Authors); a != "" {
		b.WriteString(a)
		b.WriteString(" ")
	}
	if f.Year != nil {
		fmt.Fprintf(&b, "(%d). ", *f.Year)
	} else {
		b.WriteString("(n.d.). ")
	}
	b.WriteString(ensurePeriod(f.Title))
	if f.Journal != "" {
		b.WriteString(" ")
		b.WriteString(f.Journal)
		if f.Volume != "" {
			b.WriteString(", ")
			b.WriteString(f.Volume)
			if f.Issue != "" {
				fmt.Fprintf(&b, "(%s)", f.Issue)
			}
		}
		if f.Pages != "" {
			b.WriteString(", ")
			b.WriteString(f.Pages)
		}
		b.WriteString(".")
	} else if f.Publisher != "" {
		b.WriteString(" ")
		b.WriteString(ensurePeriod(f.Publisher))
	}
	if f.DOI != "" {
		b.WriteString(" https://doi.org/")
		b.WriteString(f.DOI)
	} else if f.URL != "" {
		b.WriteString(" ")
		b.WriteString(f.URL)
	}
	return strings.TrimSpace(b.String())
}

func mla(f Fields) string {
	var b strings.Builder
	if a := joinAuthorsAnd(f.Authors); a != "" {
		b.WriteString(ensurePeriod(a))
		b.WriteString(" ")
	}
	b.WriteString("\"" + strings.TrimSuffix(strings.TrimSpace(f.Title), ".") + ".\"")
	if f.Journal != "" {
		b.WriteString(" ")
		b.WriteString(f.Journal)
		if f.Volume != "" {
			fmt.Fprintf(&b, ", vol. %s", f.Volume)
		}
		if f.Issue != "" {
			fmt.Fprintf(&b, ", no. %s", f.Issue)
		}
	} else if f.Publisher != "" {
		b.WriteString(" ")
		b.WriteString(f.Publisher)
	}
	if f.Year != nil {
		fmt.Fprintf(&b, ", %d", *f.Year)
	}
	if f.Pages != "" {
		fmt.Fprintf(&b, ", pp. %s", f.Pages)
	}
	b.WriteString(".")
	return strings.TrimSpace(b.String())
}

func ieee(f Fields) string {
	var b strings.Builder
	if a := joinAuthorsAnd(f.Authors); a != "" {
		b.WriteString(a)
		b.WriteString(", ")
	}
	b.WriteString("\"" + strings.TrimSuffix(strings.TrimSpace(f.Title), ".") + ",\"")
	if f.Journal != "" {
		b.WriteString(" ")
		b.WriteString(f.Journal)
		if f.Volume != "" {
			fmt.Fprintf(&b, ", vol. %s", f.Volume)
		}
		if f.Issue != "" {
			fmt.Fprintf(&b, ", no. %s", f.Issue)
		}
		if f.Pages != "" {
			fmt.Fprintf(&b, ", pp. %s", f.Pages)
		}
	} else if f.Publisher != "" {
		b.WriteString(" ")
		b.WriteString(f.Publisher)
	}
	if f.Year != nil {
		fmt.Fprintf(&b, ", %d", *f.Year)
	}
	b.WriteString(".")
	return strings.TrimSpace(b.String())
}

func chicago(f Fields) string {
	var b strings.Builder
	if a := joinAuthorsAnd(f.Authors); a != "" {
		b.WriteString(ensurePeriod(a))
		b.WriteString(" ")
	}
	b.WriteString("\"" + strings.TrimSuffix(strings.TrimSpace(f.Title), ".") + ".\"")
	if f.Journal != "" {
		b.WriteString(" ")
		b.WriteString(f.Journal)
		if f.Volume != "" {
			b.WriteString(" ")
			b.WriteString(f.Volume)
		}
		if f.Issue != "" {
			fmt.Fprintf(&b, ", no. %s", f.Issue)
		}
		if f.Year != nil {
			fmt.Fprintf(&b, " (%d)", *f.Year)
		}
		if f.Pages != "" {
			fmt.Fprintf(&b, ": %s", f.Pages)
		}
		b.WriteString(".")
	} else {
		if f.Publisher != "" {
			b.WriteString(" ")
			b.WriteString(f.Publisher)
			if f.Year != nil {
				fmt.Fprintf(&b, ", %d", *f.Year)
			}
			b.WriteString(".")
		} else if f.Year != nil {
			fmt.Fprintf(&b, " %d.", *f.Year)
		}
	}
	return strings.TrimSpace(b.String())
}

// joinAuthorsAmp renders "A, B, & C" (APA list shape).
func joinAuthorsAmp(authors []string) string {
	cleaned := cleanAuthors(authors)
	switch len(cleaned) {
	case 0:
		return ""
	case 1:
		return cleaned[0]
	case 2:
		return cleaned[0] + ", & " + cleaned[1]
	default:
		return strings.Join(cleaned[:len(cleaned)-1], ", ") + ", & " + cleaned[len(cleaned)-1]
	}
}

// joinAuthorsAnd renders "A, B, and C".
func joinAuthorsAnd(authors []string) string {
	cleaned := cleanAuthors(authors)
	switch len(cleaned) {
	case 0:
		return ""
	case 1:
		return cleaned[0]
	case 2:
		return cleaned[0] + " and " + cleaned[1]
	default:
		return strings.Join(cleaned[:len(cleaned)-1], ", ") + ", and " + cleaned[len(cleaned)-1]
	}
}

func cleanAuthors(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func ensurePeriod(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!") {
		return s
	}
	return s + "."
}
