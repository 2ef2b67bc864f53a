// Package formula decomposes molecular formula strings into elemental counts
// and heteroatom classes.
package formula

import (
	"regexp"
	"strconv"

	"gopkg.in/guregu/null.v3"

	"github.com/ChrisMcGann/PeakTab/pkg/core"
)

// DBEOffset is subtracted from every instrument-reported DBE value.
const DBEOffset = 0.5

// DefaultClass labels formulas without heteroatoms.
const DefaultClass = "CH"

// Elements lists the element tokens read from a formula, in extraction order.
var Elements = []string{"C", "H", "Na", "S", "O", "N", "Cl"}

// heteroatoms mark the start of a formula's class label.
var heteroatoms = map[string]bool{"Na": true, "S": true, "O": true, "N": true, "Cl": true}

var tokenPattern = regexp.MustCompile(`([A-Z][a-z]?)(\d*)`)

// Counts holds per-element atom counts. C and H are null when the formula
// gives no count for them.
type Counts struct {
	C, H, Na, S, O, N, Cl null.Int
}

// Get returns the count of an element symbol.
func (c Counts) Get(symbol string) null.Int {
	if p := c.field(symbol); p != nil {
		return *p
	}
	return null.Int{}
}

func (c *Counts) field(symbol string) *null.Int {
	switch symbol {
	case "C":
		return &c.C
	case "H":
		return &c.H
	case "Na":
		return &c.Na
	case "S":
		return &c.S
	case "O":
		return &c.O
	case "N":
		return &c.N
	case "Cl":
		return &c.Cl
	}
	return nil
}

// Result is the decomposition of one formula string.
type Result struct {
	Counts Counts
	Class  string
	// Parsed is false when none of the element tokens occur in the formula.
	Parsed bool
}

type token struct {
	digits string
	pos    int
}

// firstTokens returns the first occurrence of each element symbol.
func firstTokens(formula string) map[string]token {
	toks := make(map[string]token)
	for _, m := range tokenPattern.FindAllStringSubmatchIndex(formula, -1) {
		symbol := formula[m[2]:m[3]]
		if _, seen := toks[symbol]; seen {
			continue
		}
		toks[symbol] = token{digits: formula[m[4]:m[5]], pos: m[0]}
	}
	return toks
}

// coerce converts a digit run to a count; an empty run is null.
func coerce(digits string) null.Int {
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return null.Int{}
	}
	return null.IntFrom(v)
}

// Decompose parses a formula string.
//
// Heteroatom counts are filled in two passes: an absent token first gets a
// count of 0 that is not yet validated, and after numeric coercion every null
// heteroatom count is overwritten with 1. A heteroatom that is absent or
// written without digits therefore ends up as 1. C and H get no default.
func Decompose(formula string) Result {
	toks := firstTokens(formula)

	var res Result
	for _, symbol := range Elements {
		tok, ok := toks[symbol]
		if ok {
			res.Parsed = true
		}

		count := res.Counts.field(symbol)
		switch {
		case ok:
			*count = coerce(tok.digits)
		case heteroatoms[symbol]:
			*count = null.NewInt(0, false)
		default:
			*count = null.Int{}
		}
	}

	for symbol := range heteroatoms {
		if count := res.Counts.field(symbol); !count.Valid {
			*count = null.IntFrom(1)
		}
	}

	res.Class = classOf(formula, toks)
	return res
}

// classOf returns the formula from its first heteroatom token onwards.
func classOf(formula string, toks map[string]token) string {
	start := -1
	for symbol, tok := range toks {
		if !heteroatoms[symbol] {
			continue
		}
		if start < 0 || tok.pos < start {
			start = tok.pos
		}
	}
	if start < 0 {
		return DefaultClass
	}
	return formula[start:]
}

// Composition returns the elemental composition written in a formula, for
// mass and ratio calculations. Unlike Decompose, an absent element counts 0
// and an element without digits counts 1. ok is false when the formula has no
// carbon token.
func Composition(formula string) (core.Composition, bool) {
	toks := firstTokens(formula)
	if _, ok := toks["C"]; !ok {
		return core.Composition{}, false
	}
	count := func(symbol string) int {
		tok, ok := toks[symbol]
		if !ok {
			return 0
		}
		if tok.digits == "" {
			return 1
		}
		v, err := strconv.Atoi(tok.digits)
		if err != nil {
			return 0
		}
		return v
	}
	return core.Composition{
		C:  count("C"),
		H:  count("H"),
		Na: count("Na"),
		S:  count("S"),
		O:  count("O"),
		N:  count("N"),
		Cl: count("Cl"),
	}, true
}

// CorrectDBE applies the fixed instrument offset to a raw DBE value.
func CorrectDBE(raw null.Float) null.Float {
	if !raw.Valid {
		return raw
	}
	return null.FloatFrom(raw.Float64 - DBEOffset)
}

// DecomposeAll returns a new metadata table with every record decomposed.
// Records that were already decomposed are copied unchanged.
func DecomposeAll(meta *core.FormulaMetadata) (*core.FormulaMetadata, []core.Warning) {
	out := core.NewFormulaMetadata()
	var warnings []core.Warning

	for _, rec := range meta.Records() {
		if rec.Decomposed {
			out.Add(rec)
			continue
		}

		res := Decompose(rec.Formula)
		if !res.Parsed {
			warnings = append(warnings, core.UnparseableFormulaWarning{Formula: rec.Formula})
		}

		rec.C, rec.H = res.Counts.C, res.Counts.H
		rec.Na, rec.S, rec.O = res.Counts.Na, res.Counts.S, res.Counts.O
		rec.N, rec.Cl = res.Counts.N, res.Counts.Cl
		rec.Class = res.Class
		rec.DBE = CorrectDBE(rec.DBE)
		rec.Decomposed = true
		out.Add(rec)
	}
	return out, warnings
}
