package document

import (
	"regexp"
	"strings"
)

// Entity labels produced by ExtractEntities.
const (
	EntityDate   = "DATE"
	EntityMoney  = "MONEY"
	EntityEmail  = "EMAIL"
	EntityPhone  = "PHONE"
	EntityOrg    = "ORG"
	EntityPermit = "PERMIT"
)

// maxEntityText bounds the text scanned for entities.
const maxEntityText = 100000

type entityRule struct {
	label string
	re    *regexp.Regexp
	group int
}

var entityRules = []entityRule{
	{EntityDate, regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), 0},
	{EntityDate, regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`), 0},
	{EntityDate, regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\.? \d{1,2},? \d{4}\b`), 0},
	{EntityMoney, regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})+(?:\.\d{2})?|\$\s?\d+(?:\.\d{2})?`), 0},
	{EntityEmail, regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`), 0},
	{EntityPhone, regexp.MustCompile(`(?:\(\d{3}\)\s?|\b\d{3}[-.\s])\d{3}[-.]\d{4}\b`), 0},
	{EntityOrg, regexp.MustCompile(`\b(?:[A-Z][A-Za-z&'-]*\s+){1,4}(?:Inc|LLC|Ltd|Corp|Corporation|Company|Construction|Builders|Contractors|Associates|Group)\b`), 0},
	{EntityPermit, regexp.MustCompile(`\b(?:[Pp]ermit|PERMIT|[Cc]ontract|CONTRACT|[Cc]hange [Oo]rder)\s*(?:[Nn]o\.?|[Nn]umber|#)?\s*:?\s*([A-Z0-9]+(?:-[A-Z0-9]+)+|\d{3,})`), 1},
}

// ExtractEntities finds dates, money amounts, contact details, company
// names and permit or contract numbers in text. Values are deduplicated
// per label in order of first appearance; labels with no match are absent.
func ExtractEntities(text string) map[string][]string {
	if len(text) > maxEntityText {
		text = text[:maxEntityText]
	}
	out := make(map[string][]string)
	seen := make(map[string]bool)
	for _, rule := range entityRules {
		for _, m := range rule.re.FindAllStringSubmatch(text, -1) {
			v := strings.TrimSpace(m[rule.group])
			v = strings.TrimRight(v, ",")
			key := rule.label + "\x00" + v
			if v == "" || seen[key] {
				continue
			}
			seen[key] = true
			out[rule.label] = append(out[rule.label], v)
		}
	}
	return out
}
