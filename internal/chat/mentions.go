package chat

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/tools"
)

// ownershipPhrases are matched case-insensitively at a word start.
var ownershipPhrases = []string{
	"i have a",
	"i have an",
	"i own a",
	"i own an",
	"i own",
	"i've got",
	"i got a",
	"i got an",
	"i already have",
}

// disclaimers right after a phrase turn it into a non-claim:
// "i own no saw", "i've got to buy a drill".
var disclaimers = []string{"no", "not", "never", "to"}

func disclaimed(tail string) bool {
	fields := strings.Fields(tail)
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ",.;:!?")
	for _, d := range disclaimers {
		if first == d {
			return true
		}
	}
	return false
}

// canonicalTool is what a free-text keyword maps to.
type canonicalTool struct {
	Name     string
	Category string
	Keywords []string
	Icons    []string
}

// toolTable is the fixed keyword vocabulary.
var toolTable = []canonicalTool{
	{Name: "Power Drill", Category: "Power Tools", Keywords: []string{"drill", "power drill", "cordless drill"}, Icons: []string{"drill", "power"}},
	{Name: "Hammer", Category: "Hand Tools", Keywords: []string{"hammer"}, Icons: []string{"hammer"}},
	{Name: "Screwdriver Set", Category: "Hand Tools", Keywords: []string{"screwdriver"}, Icons: []string{"screwdriver"}},
	{Name: "Circular Saw", Category: "Power Tools", Keywords: []string{"circular saw"}, Icons: []string{"saw", "circular"}},
	{Name: "Hand Saw", Category: "Hand Tools", Keywords: []string{"hand saw", "handsaw"}, Icons: []string{"saw"}},
	{Name: "Jigsaw", Category: "Power Tools", Keywords: []string{"jigsaw"}, Icons: []string{"saw", "jigsaw"}},
	{Name: "Angle Grinder", Category: "Power Tools", Keywords: []string{"angle grinder", "grinder"}, Icons: []string{"grinder", "disc"}},
	{Name: "Orbital Sander", Category: "Power Tools", Keywords: []string{"sander"}, Icons: []string{"sander"}},
	{Name: "Tape Measure", Category: "Measuring Tools", Keywords: []string{"tape measure", "measuring tape"}, Icons: []string{"tape", "measure"}},
	{Name: "Level", Category: "Measuring Tools", Keywords: []string{"level", "spirit level"}, Icons: []string{"level"}},
	{Name: "Stud Finder", Category: "Measuring Tools", Keywords: []string{"stud finder"}, Icons: []string{"stud", "finder"}},
	{Name: "Adjustable Wrench", Category: "Hand Tools", Keywords: []string{"adjustable wrench", "crescent wrench"}, Icons: []string{"wrench"}},
	{Name: "Socket Wrench Set", Category: "Hand Tools", Keywords: []string{"socket wrench", "socket set", "ratchet"}, Icons: []string{"wrench", "socket", "ratchet"}},
	{Name: "Pliers", Category: "Hand Tools", Keywords: []string{"pliers"}, Icons: []string{"pliers"}},
	{Name: "Utility Knife", Category: "Hand Tools", Keywords: []string{"utility knife", "box cutter"}, Icons: []string{"knife"}},
	{Name: "Caulking Gun", Category: "Hand Tools", Keywords: []string{"caulking gun", "caulk gun"}, Icons: []string{"caulk"}},
	{Name: "Ladder", Category: "Access Equipment", Keywords: []string{"ladder", "step ladder"}, Icons: []string{"ladder"}},
	{Name: "Shop Vacuum", Category: "Power Tools", Keywords: []string{"shop vac", "shop vacuum", "wet vac"}, Icons: []string{"vacuum"}},
}

// keywordPatterns holds one compiled pattern per table entry, matching any
// of its keywords as whole words with an optional plural.
var keywordPatterns = compileKeywords(toolTable)

func compileKeywords(table []canonicalTool) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(table))
	for i, ct := range table {
		alts := make([]string, len(ct.Keywords))
		for j, kw := range ct.Keywords {
			alts[j] = regexp.QuoteMeta(kw)
		}
		out[i] = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)(?:e?s)?\b`)
	}
	return out
}

// ExtractOwnershipClaims scans message for the first ownership phrase and
// returns add commands for every known tool named after it, in the order
// they appear. Tools already in existing (by case-insensitive name
// containment) are skipped, as are repeats within the message. The result
// is advisory: callers dispatch it through the router like any other input.
func ExtractOwnershipClaims(message string, existing []inventory.Tool) []tools.AddTool {
	text := normalize(message)
	pos, phrase := findOwnershipPhrase(text)
	if pos < 0 {
		return nil
	}
	tail := text[pos+len(phrase):]
	if disclaimed(tail) {
		return nil
	}

	type hit struct {
		at int
		ct canonicalTool
	}
	var hits []hit
	for i, re := range keywordPatterns {
		if loc := re.FindStringIndex(tail); loc != nil {
			hits = append(hits, hit{at: loc[0], ct: toolTable[i]})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].at < hits[b].at })

	var out []tools.AddTool
	seen := map[string]bool{}
	for _, h := range hits {
		key := strings.ToLower(h.ct.Name)
		if seen[key] || alreadyOwned(h.ct.Name, existing) {
			continue
		}
		seen[key] = true
		out = append(out, tools.AddTool{
			Name:         h.ct.Name,
			Category:     h.ct.Category,
			Quantity:     1,
			Condition:    inventory.ConditionWorking,
			IconKeywords: append([]string{}, h.ct.Icons...),
		})
	}
	return out
}

func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}

// findOwnershipPhrase returns the earliest phrase occurrence that starts a
// word. On a tie the longest phrase wins.
func findOwnershipPhrase(text string) (int, string) {
	bestPos, best := -1, ""
	for _, p := range ownershipPhrases {
		from := 0
		for {
			i := strings.Index(text[from:], p)
			if i < 0 {
				break
			}
			i += from
			if wordStart(text, i) && wordEnd(text, i+len(p)) {
				if bestPos < 0 || i < bestPos || (i == bestPos && len(p) > len(best)) {
					bestPos, best = i, p
				}
				break
			}
			from = i + 1
		}
	}
	return bestPos, best
}

func wordStart(text string, i int) bool {
	return i == 0 || !isWordByte(text[i-1])
}

func wordEnd(text string, i int) bool {
	return i >= len(text) || !isWordByte(text[i])
}

func isWordByte(c byte) bool {
	return c == '\'' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func alreadyOwned(name string, existing []inventory.Tool) bool {
	lower := strings.ToLower(name)
	for _, t := range existing {
		if strings.Contains(strings.ToLower(t.Name), lower) {
			return true
		}
	}
	return false
}
