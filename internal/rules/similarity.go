// internal/rules/similarity.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/listkeeper/internal/types"
)

/*
 * Similarity engine.
 *
 * Scores candidate records against a reference set using frequency-
 * weighted field overlap. SimilarTo rules select the reference items by
 * string match against item names; the matched items' attribute
 * occurrences fold into per-field frequency tables built exactly once per
 * query, so scoring a candidate is O(1) per field value.
 *
 * Negative operators on SimilarTo rules are rejected per rule with a
 * warning rather than failing the whole query: a negative match against
 * names would select nearly the entire library. Degenerate inputs (empty
 * reference set, empty field list) score as "no match", never as errors.
 *
 * Pass policy: one comparison field requires >= 1 total match, two or
 * more require >= 2. When genre is among the selected fields, at least
 * one genre match is mandatory regardless of other totals; thematic
 * similarity is a hard gate, not one more point of evidence.
 */

// CompareField selects one attribute for similarity comparison.
type CompareField int

const (
	CompareGenres CompareField = iota
	CompareTags
	CompareActors
	CompareDirectors
	CompareWriters
	CompareStudios
	CompareAudioLanguages
	CompareName
	CompareProductionYear
	CompareOfficialRating
)

var compareFieldNames = map[CompareField]string{
	CompareGenres:         "Genres",
	CompareTags:           "Tags",
	CompareActors:         "Actors",
	CompareDirectors:      "Directors",
	CompareWriters:        "Writers",
	CompareStudios:        "Studios",
	CompareAudioLanguages: "AudioLanguages",
	CompareName:           "Name",
	CompareProductionYear: "ProductionYear",
	CompareOfficialRating: "OfficialRating",
}

// String returns the wire name of the comparison field.
func (f CompareField) String() string {
	if name, ok := compareFieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("CompareField(%d)", int(f))
}

// ParseCompareField converts a wire name to a CompareField.
func ParseCompareField(s string) (CompareField, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for f, name := range compareFieldNames {
		if strings.ToLower(name) == want {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown comparison field %q", s)
}

// DefaultCompareFields apply when a playlist selects none.
func DefaultCompareFields() []CompareField {
	return []CompareField{CompareGenres, CompareTags}
}

// Production years within this distance of a reference year count as a
// match.
const yearProximity = 2

// Candidate names shorter than this never substring-match; two-letter
// fragments match too much of any library.
const minNameSubstringLen = 3

// ReferenceMetadata aggregates the attributes of a similarity query's
// reference items. Read-only after construction; safe to share across
// concurrent candidate scans.
type ReferenceMetadata struct {
	// Items is the number of de-duplicated reference items.
	Items int

	listFreq map[CompareField]map[string]int
	nameFreq map[string]int // lowercased name -> occurrences
	yearFreq map[int]int
}

// BuildReferenceMetadata resolves SimilarTo rules against the item index
// and folds the matched items' attributes into frequency tables.
// Duplicate attribute occurrences across reference items are preserved:
// repetition is signal.
func (e *Engine) BuildReferenceMetadata(similarTo []types.Expression, items []*types.Operand, fields []CompareField) (*ReferenceMetadata, error) {
	if len(fields) == 0 {
		fields = DefaultCompareFields()
	}

	ref := &ReferenceMetadata{
		listFreq: make(map[CompareField]map[string]int, len(fields)),
		nameFreq: make(map[string]int),
		yearFreq: make(map[int]int),
	}
	for _, f := range fields {
		ref.listFreq[f] = make(map[string]int)
	}

	compiled := make([]*CompiledExpression, 0, len(similarTo))
	for _, expr := range similarTo {
		op, err := ParseOperator(expr.Operator)
		if err != nil {
			return nil, fmt.Errorf("SimilarTo: %w", err)
		}
		if op.IsNegative() {
			// Per-rule safety rail, not a hard failure: other rules in the
			// same query still contribute.
			e.log.Warn().Str("operator", op.String()).Str("target", expr.TargetValue).
				Err(types.ErrNegativeSimilarityOperator).
				Msg("skipping SimilarTo rule")
			continue
		}
		named := expr
		named.Field = FieldSimilarTo
		c, err := e.Compile(named, "")
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}

	seen := make(map[string]bool)
	for _, item := range items {
		for _, c := range compiled {
			if !e.Evaluate(c, item) {
				continue
			}
			if seen[item.ItemID] {
				break
			}
			seen[item.ItemID] = true
			ref.addItem(item, fields)
			break
		}
	}
	ref.Items = len(seen)

	return ref, nil
}

// addItem folds one reference item's attributes into the tables.
func (r *ReferenceMetadata) addItem(o *types.Operand, fields []CompareField) {
	for _, f := range fields {
		switch f {
		case CompareName:
			if o.Name != "" {
				r.nameFreq[strings.ToLower(o.Name)]++
			}
		case CompareProductionYear:
			if y := int(o.ProductionYear); y > 0 {
				r.yearFreq[y]++
			}
		default:
			for _, v := range compareValues(o, f) {
				if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
					r.listFreq[f][v]++
				}
			}
		}
	}
}

// compareValues reads the candidate/reference values for one list-shaped
// comparison field.
func compareValues(o *types.Operand, f CompareField) []string {
	switch f {
	case CompareGenres:
		return o.Genres
	case CompareTags:
		return o.Tags
	case CompareActors:
		return o.Actors
	case CompareDirectors:
		return o.Directors
	case CompareWriters:
		return o.Writers
	case CompareStudios:
		return o.Studios
	case CompareAudioLanguages:
		return o.AudioLanguages
	case CompareOfficialRating:
		if o.OfficialRating == "" {
			return nil
		}
		return []string{o.OfficialRating}
	default:
		return nil
	}
}

// ScoreSimilarity scores one candidate against the reference tables and
// applies the pass/fail policy. The caller stores the score on the record
// for result ordering; the boolean gates inclusion.
func (e *Engine) ScoreSimilarity(o *types.Operand, ref *ReferenceMetadata, fields []CompareField) (bool, float64) {
	if ref == nil || ref.Items == 0 {
		return false, 0
	}
	if len(fields) == 0 {
		fields = DefaultCompareFields()
	}

	var (
		matches      int
		genreMatches int
		score        float64
		hasGenre     bool
	)

	for _, f := range fields {
		switch f {
		case CompareName:
			m, s := ref.scoreName(o.Name)
			matches += m
			score += s

		case CompareProductionYear:
			if y := int(o.ProductionYear); y > 0 {
				for refYear, n := range ref.yearFreq {
					if refYear >= y-yearProximity && refYear <= y+yearProximity {
						matches += n
						score += float64(n)
					}
				}
			}

		default:
			if f == CompareGenres {
				hasGenre = true
			}
			table := ref.listFreq[f]
			for _, v := range distinctLower(compareValues(o, f)) {
				if n := table[v]; n > 0 {
					matches += n
					score += float64(n)
					if f == CompareGenres {
						genreMatches += n
					}
				}
			}
		}
	}

	required := 1
	if len(fields) >= 2 {
		required = 2
	}

	passes := matches >= required
	if hasGenre && genreMatches == 0 {
		passes = false
	}
	return passes, score
}

// scoreName applies the name proximity rules: exact match double-weighted,
// substring match single-weighted for names of at least three characters.
func (r *ReferenceMetadata) scoreName(name string) (int, float64) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, 0
	}
	if n := r.nameFreq[name]; n > 0 {
		return n, 2 * float64(n)
	}
	if len(name) < minNameSubstringLen {
		return 0, 0
	}
	matches, score := 0, 0.0
	for refName, n := range r.nameFreq {
		if strings.Contains(refName, name) || strings.Contains(name, refName) {
			matches += n
			score += float64(n)
		}
	}
	return matches, score
}

// distinctLower lowercases, trims, and de-duplicates candidate values; a
// candidate's own duplicates must not double-count reference frequency.
func distinctLower(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
