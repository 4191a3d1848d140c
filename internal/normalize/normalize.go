package normalize

import "strings"

// Leading articles recognized in titles. Longer forms are listed before their
// prefixes so "Les" wins over "Le". "L'" attaches without a space.
var titleArticles = []string{"Der", "Die", "Das", "The", "Les", "Le", "La", "L'"}

// Series names additionally allow English indefinite articles.
var seriesArticles = append([]string{"An", "A"}, titleArticles...)

// Title moves a recognized leading article (German, English, French) to the
// end of the title: "Der Test" becomes "Test, Der". The article keeps the
// casing it had in the input. Titles without a recognized leading article are
// returned unchanged; mid-title articles are never touched.
func Title(title string) string {
	t := strings.TrimSpace(title)
	article, rest, ok := SplitArticle(t)
	if !ok {
		return t
	}
	return rest + ", " + article
}

// SplitArticle splits a recognized leading title article off s, returning the
// article as written, the remaining title and whether an article was found.
func SplitArticle(s string) (article, rest string, ok bool) {
	return splitLeading(s, titleArticles)
}

// SplitSeriesArticle is SplitArticle with the series article set (adds A/An).
func SplitSeriesArticle(s string) (article, rest string, ok bool) {
	return splitLeading(s, seriesArticles)
}

func splitLeading(s string, articles []string) (string, string, bool) {
	for _, a := range articles {
		if len(s) <= len(a) || !strings.EqualFold(s[:len(a)], a) {
			continue
		}
		if strings.HasSuffix(a, "'") {
			// "L'Étranger": article glued to the rest
			rest := strings.TrimSpace(s[len(a):])
			if rest != "" {
				return s[:len(a)], rest, true
			}
			continue
		}
		if s[len(a)] != ' ' {
			continue
		}
		rest := strings.TrimSpace(s[len(a):])
		if rest != "" {
			return s[:len(a)], rest, true
		}
	}
	return "", s, false
}

// StripArticle removes a leading article ("The X") or a transposed trailing
// article ("X, The") from a title. Used for article-agnostic comparison; the
// result of stripping both forms of the same title is identical.
func StripArticle(title string) string {
	t := strings.TrimSpace(title)
	if _, rest, ok := SplitArticle(t); ok {
		return rest
	}
	for _, a := range titleArticles {
		suffix := ", " + a
		if len(t) > len(suffix) && strings.EqualFold(t[len(t)-len(suffix):], suffix) {
			return strings.TrimSpace(t[:len(t)-len(suffix)])
		}
	}
	return t
}

// Author canonicalizes a semicolon-joined author list to
// "Last, First; Last, First" form. Each author is normalized independently:
// a name already containing ", " is assumed ordered and left alone, a
// two-token name is swapped, and for three or more tokens the final token is
// taken as the surname ("Johann Wolfgang von Goethe" -> "Goethe, Johann
// Wolfgang von"). This is a heuristic; compound surnames without a comma
// cannot be told apart from given names.
func Author(author string) string {
	parts := strings.Split(author, "; ")
	for i, p := range parts {
		parts[i] = personName(strings.TrimSpace(p))
	}
	return strings.Join(parts, "; ")
}

func personName(name string) string {
	if name == "" || strings.Contains(name, ", ") {
		return name
	}
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return name
	}
	last := fields[len(fields)-1]
	return last + ", " + strings.Join(fields[:len(fields)-1], " ")
}

// AuthorSeparator converts a catalog's comma-joined author list into the
// semicolon-joined form Author expects. With lastNameFirst false the input is
// "First Last, First Last, ..." and every ", " is a join point. With
// lastNameFirst true the input is "Last, First, Last, First, ..." and only
// every second comma joins two authors; the odd ones separate a surname from
// its own given name. A single comma in that mode is left untouched.
func AuthorSeparator(raw string, lastNameFirst bool) string {
	if !lastNameFirst {
		return strings.ReplaceAll(raw, ", ", "; ")
	}
	parts := strings.Split(raw, ", ")
	if len(parts) <= 2 {
		return raw
	}
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			if i%2 == 1 {
				b.WriteString(", ")
			} else {
				b.WriteString("; ")
			}
		}
		b.WriteString(p)
	}
	return b.String()
}
