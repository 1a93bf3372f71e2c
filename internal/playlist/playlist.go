// internal/playlist/playlist.go

// Package playlist combines compiled rule sets into playlist refreshes.
//
// A playlist definition is a DNF over expressions: AND within an
// ExpressionSet, OR across sets. Compilation happens once per refresh
// pass; the compiled sets are then applied to every record. Sets holding
// SimilarTo rules additionally gate on the similarity engine, whose
// reference tables are built once per set and shared across all
// candidates.
package playlist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solatis/listkeeper/internal/rules"
	"github.com/solatis/listkeeper/internal/types"
)

// Order-by wire names.
const (
	OrderByName            = "Name"
	OrderByProductionYear  = "ProductionYear"
	OrderByDateCreated     = "DateCreated"
	OrderBySimilarityScore = "SimilarityScore"
	OrderByNoOrder         = "NoOrder"
)

// compiledSet is one AND group ready for evaluation.
type compiledSet struct {
	exprs   []*rules.CompiledExpression // ordered by ascending cost
	similar []types.Expression          // SimilarTo rules of this set
	ref     *rules.ReferenceMetadata    // built per refresh pass
}

// Compiled is a playlist definition compiled for one refresh pass.
type Compiled struct {
	def           types.Playlist
	sets          []compiledSet
	compareFields []rules.CompareField
}

// Compile validates and compiles every expression of a playlist
// definition. SimilarTo expressions are split out per set for the
// similarity engine; the remaining expressions are cost-ordered so AND
// evaluation short-circuits cheap tests first.
func Compile(engine *rules.Engine, def types.Playlist) (*Compiled, error) {
	c := &Compiled{def: def}

	for _, name := range def.CompareFields {
		f, err := rules.ParseCompareField(name)
		if err != nil {
			return nil, fmt.Errorf("playlist %s: %w", def.Name, err)
		}
		c.compareFields = append(c.compareFields, f)
	}
	if len(c.compareFields) == 0 {
		c.compareFields = rules.DefaultCompareFields()
	}

	for i, set := range def.Sets {
		if len(set.Expressions) == 0 {
			return nil, fmt.Errorf("playlist %s set %d: %w", def.Name, i, types.ErrEmptyExpressionSet)
		}

		var cs compiledSet
		for _, expr := range set.Expressions {
			// Field names are case-insensitive on the wire, like every
			// other field lookup.
			if strings.EqualFold(expr.Field, rules.FieldSimilarTo) {
				cs.similar = append(cs.similar, expr)
				continue
			}
			compiled, err := engine.Compile(expr, def.UserID)
			if err != nil {
				return nil, fmt.Errorf("playlist %s set %d: %w", def.Name, i, err)
			}
			cs.exprs = append(cs.exprs, compiled)
		}

		// Stable sort keeps the author's order among equal-cost expressions.
		sort.SliceStable(cs.exprs, func(a, b int) bool {
			return cs.exprs[a].Cost < cs.exprs[b].Cost
		})

		c.sets = append(c.sets, cs)
	}

	return c, nil
}

// Refresh evaluates every item against the compiled sets and returns the
// ordered member list along with the similarity scores of its members.
// Items is the full library snapshot: sets with SimilarTo rules resolve
// their reference items from it before candidates are scored. Scores are
// scoped to this refresh; operands are never mutated, so a shared
// snapshot can back any number of passes.
func (c *Compiled) Refresh(engine *rules.Engine, items []*types.Operand) ([]types.ItemID, map[types.ItemID]float64, error) {
	for i := range c.sets {
		if len(c.sets[i].similar) == 0 {
			continue
		}
		ref, err := engine.BuildReferenceMetadata(c.sets[i].similar, items, c.compareFields)
		if err != nil {
			return nil, nil, fmt.Errorf("playlist %s: %w", c.def.Name, err)
		}
		c.sets[i].ref = ref
	}

	var members []*types.Operand
	scores := make(map[types.ItemID]float64)
	for _, item := range items {
		ok, score := c.matches(engine, item)
		if !ok {
			continue
		}
		members = append(members, item)
		if score != 0 {
			scores[types.ItemID(item.ItemID)] = score
		}
	}

	c.order(members, scores)

	if c.def.MaxItems > 0 && len(members) > c.def.MaxItems {
		members = members[:c.def.MaxItems]
	}

	ids := make([]types.ItemID, len(members))
	kept := make(map[types.ItemID]float64, len(members))
	for i, m := range members {
		id := types.ItemID(m.ItemID)
		ids[i] = id
		if s, ok := scores[id]; ok {
			kept[id] = s
		}
	}
	return ids, kept, nil
}

// matches applies the OR-of-ANDs. A set with SimilarTo rules passes only
// if its plain expressions match and the similarity gate passes; the
// winning set's score is returned for ordering and persistence.
func (c *Compiled) matches(engine *rules.Engine, item *types.Operand) (bool, float64) {
	for _, set := range c.sets {
		if !evalSet(engine, set.exprs, item) {
			continue
		}
		if set.ref != nil {
			passes, score := engine.ScoreSimilarity(item, set.ref, c.compareFields)
			if !passes {
				continue
			}
			return true, score
		}
		return true, 0
	}
	return false, 0
}

// evalSet evaluates an AND group, short-circuiting on the first miss.
func evalSet(engine *rules.Engine, exprs []*rules.CompiledExpression, item *types.Operand) bool {
	for _, expr := range exprs {
		if !engine.Evaluate(expr, item) {
			return false
		}
	}
	return true
}

// order sorts members per the definition's OrderBy. Similarity score
// orders descending (best match first); everything else ascending.
func (c *Compiled) order(members []*types.Operand, scores map[types.ItemID]float64) {
	switch c.def.OrderBy {
	case OrderByNoOrder:
	case OrderByProductionYear:
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].ProductionYear < members[j].ProductionYear
		})
	case OrderByDateCreated:
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].DateCreated < members[j].DateCreated
		})
	case OrderBySimilarityScore:
		sort.SliceStable(members, func(i, j int) bool {
			return scores[types.ItemID(members[i].ItemID)] > scores[types.ItemID(members[j].ItemID)]
		})
	default:
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Name < members[j].Name
		})
	}
}
