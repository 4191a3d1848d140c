package series

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Nadyita/Readle-sub000/internal/normalize"
)

// Catalogs embed series name and volume number into titles in many shapes:
//
//	"Foundation 1 - Foundation"
//	"Zimt-Trilogie 2: Zimt und ewig"
//	"Donnerstagsmordclub 5: Die letzte Teufelsnummer, Der"
//	"Foundation 1-3"            (omnibus, must stay untouched)
//	"Sternenreiter 7a - Heimkehr" (letter volume standing in for 7.5)
//
// CleanupTitle strips the series prefix and number using an ordered list of
// named strategies; the first one that yields a value wins. A miss at every
// stage degrades to the article-normalized raw title, never an error.

// Descriptive words a series name may carry as a trailing suffix. A title
// often omits them ("Zimt Trilogie 2" vs "Zimt 2 - ..."), so one fallback
// retries matching with the suffix removed.
var nameSuffixes = []string{
	"Saga",
	"Dilogie", "Dilogy",
	"Duologie", "Duology",
	"Trilogie", "Trilogy",
	"Tetralogie", "Tetralogy",
	"Anthologie", "Anthology",
	"Reihe", "Serie", "Series", "Série",
	"Sammlung", "Collection",
}

type context struct {
	rawTitle string // as passed in, trimmed
	title    string // rawTitle with a trailing ", <Article>" stripped
	name     string // series name with a leading article stripped
	number   string
	article  string // article split off the series name, "" when none
}

type strategy struct {
	name  string
	apply func(*context) (string, bool)
}

// Strategy order is load-bearing: the omnibus guard must run before any
// subtitle extraction, and the bare "Series 1" form is the weakest signal.
var strategies = []strategy{
	{"omnibus-range", omnibusRange},
	{"subtitle", subtitleExact},
	{"subtitle-trimmed-decimal", subtitleTrimmedDecimal},
	{"subtitle-short-name", subtitleShortName},
	{"subtitle-letter-volume", subtitleLetterVolume},
	{"bare-first-volume", bareFirstVolume},
}

// CleanupTitle strips a known series name and volume number from a composite
// raw title. When seriesName or seriesNumber is empty there is nothing to
// strip and the article-normalized raw title is returned.
func CleanupTitle(rawTitle, seriesName, seriesNumber string) string {
	title, _ := CleanupTitleTrace(rawTitle, seriesName, seriesNumber)
	return title
}

// CleanupTitleTrace is CleanupTitle plus the ordered list of decisions taken,
// one entry per strategy tried, for callers that want to audit why a title
// came out the way it did.
func CleanupTitleTrace(rawTitle, seriesName, seriesNumber string) (string, []string) {
	if seriesName == "" || seriesNumber == "" {
		return normalize.Title(rawTitle), []string{"no-series-context"}
	}

	ctx := newContext(rawTitle, seriesName, seriesNumber)
	var trace []string
	for _, s := range strategies {
		if result, ok := s.apply(ctx); ok {
			trace = append(trace, s.name+"=match")
			return result, trace
		}
		trace = append(trace, s.name+"=miss")
	}
	trace = append(trace, "fallback=normalize")
	return normalize.Title(rawTitle), trace
}

func newContext(rawTitle, seriesName, seriesNumber string) *context {
	ctx := &context{
		rawTitle: strings.TrimSpace(rawTitle),
		name:     strings.TrimSpace(seriesName),
		number:   strings.TrimSpace(seriesNumber),
	}
	ctx.title = ctx.rawTitle

	if article, rest, ok := normalize.SplitSeriesArticle(ctx.name); ok {
		ctx.article = article
		ctx.name = rest
		// Catalogs write the article of a transposed title at the end;
		// drop that suffix so the series prefix lines up again.
		suffix := ", " + article
		if len(ctx.title) > len(suffix) &&
			strings.EqualFold(ctx.title[len(ctx.title)-len(suffix):], suffix) {
			ctx.title = strings.TrimSpace(ctx.title[:len(ctx.title)-len(suffix)])
		}
	}
	return ctx
}

// withArticle re-appends the article split off the series name.
func (c *context) withArticle(title string) string {
	if c.article == "" {
		return title
	}
	return title + ", " + c.article
}

// namePattern compiles the series name into a flexible regexp fragment where
// every space/hyphen run matches either spaces or hyphens in the title
// ("Zimt Trilogie" also matches "Zimt-Trilogie").
func namePattern(name string) string {
	runs := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-'
	})
	escaped := make([]string, 0, len(runs))
	for _, run := range runs {
		escaped = append(escaped, regexp.QuoteMeta(run))
	}
	return strings.Join(escaped, `[\s-]+`)
}

// matchSubtitle runs the primary extraction pattern
//
//	^<series> [-#] <numToken>[-range] [-:] <subtitle>$
//
// against the title and applies the casing rule to the captured subtitle.
func (c *context) matchSubtitle(name, numToken string) (string, bool) {
	re, err := regexp.Compile(`^(` + namePattern(name) + `)\s*-?\s*#?\s*` +
		numToken + `(?:-\d+(?:\.\d+)?)?\s*[-:]\s*(.+)$`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(c.title)
	if m == nil {
		return "", false
	}
	seriesAsWritten, candidate := m[1], strings.TrimSpace(m[2])
	if candidate == "" {
		return "", false
	}

	first, _ := utf8.DecodeRuneInString(candidate)
	if unicode.IsLower(first) {
		// Grammatical continuation of the series name ("... und die
		// gestohlene Katze"): keep the prefix, drop only the number token.
		return c.withArticle(seriesAsWritten + " " + candidate), true
	}
	// Standalone subtitle: the series prefix goes, and the subtitle may
	// start with an article of its own that still wants transposing.
	return normalize.Title(candidate), true
}

func exactNumToken(number string) string {
	return `0*` + regexp.QuoteMeta(number)
}

// omnibusRange keeps collection titles like "Foundation 1-3" intact. Only
// checked for volume one; a range starting elsewhere never matches the
// primary pattern anyway.
func omnibusRange(c *context) (string, bool) {
	if c.number != "1" {
		return "", false
	}
	re, err := regexp.Compile(`^` + namePattern(c.name) + `\s*-?\s*#?\s*0*1-\d+$`)
	if err != nil || !re.MatchString(c.title) {
		return "", false
	}
	return c.withArticle(c.title), true
}

func subtitleExact(c *context) (string, bool) {
	return c.matchSubtitle(c.name, exactNumToken(c.number))
}

// subtitleTrimmedDecimal retries with trailing decimal zeros removed, so a
// stored "2.50" still matches a title printed as "2.5".
func subtitleTrimmedDecimal(c *context) (string, bool) {
	if !strings.Contains(c.number, ".") || !strings.HasSuffix(c.number, "0") {
		return "", false
	}
	trimmed := strings.TrimRight(c.number, "0")
	trimmed = strings.TrimRight(trimmed, ".")
	if trimmed == c.number {
		return "", false
	}
	return c.matchSubtitle(c.name, exactNumToken(trimmed))
}

// subtitleShortName retries with a trailing descriptive word ("Trilogie",
// "Saga", ...) stripped from the series name.
func subtitleShortName(c *context) (string, bool) {
	for _, suffix := range nameSuffixes {
		if len(c.name) <= len(suffix)+1 {
			continue
		}
		cut := len(c.name) - len(suffix)
		if !strings.EqualFold(c.name[cut:], suffix) {
			continue
		}
		sep := c.name[cut-1]
		if sep != ' ' && sep != '-' {
			continue
		}
		short := strings.TrimRight(c.name[:cut-1], " -")
		if short == "" {
			continue
		}
		return c.matchSubtitle(short, exactNumToken(c.number))
	}
	return "", false
}

// subtitleLetterVolume matches a fractional volume written as a letter
// suffix: number "7.5" also accepts "7a" or plain "7" in the title.
func subtitleLetterVolume(c *context) (string, bool) {
	idx := strings.Index(c.number, ".")
	if idx <= 0 {
		return "", false
	}
	return c.matchSubtitle(c.name, `0*`+regexp.QuoteMeta(c.number[:idx])+`[a-z]?`)
}

// bareFirstVolume handles a title that is nothing but "<series> 1": the
// volume marker is noise, the series name alone is the title.
func bareFirstVolume(c *context) (string, bool) {
	if c.number != "1" {
		return "", false
	}
	re, err := regexp.Compile(`^` + namePattern(c.name) + `\s*-?\s*#?\s*0*1$`)
	if err != nil || !re.MatchString(c.title) {
		return "", false
	}
	return c.withArticle(c.name), true
}
