// Package assembly proposes teams from a candidate pool with a greedy,
// deterministic heuristic.
package assembly

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/apest/internal/domain/apest"
)

// Balance factor bounds and the diverse/specialized switch-over point.
const (
	MinBalanceFactor   = 0
	MaxBalanceFactor   = 100
	specializedPivot   = 50
	DefaultBalance     = 50
	priorityShareDenom = 2
)

// Strategy is the fill-phase target-role rule selected by the balance factor.
type Strategy string

// Strategies.
const (
	// Diverse targets the weakest aggregate role.
	Diverse Strategy = "diverse"
	// Specialized targets the strongest aggregate role.
	Specialized Strategy = "specialized"
)

// StrategyFor maps a balance factor onto a fill strategy.
func StrategyFor(balanceFactor int) Strategy {
	if balanceFactor < specializedPivot {
		return Diverse
	}
	return Specialized
}

// Candidate is a pool member eligible for selection.
type Candidate struct {
	ID    string       `json:"id" yaml:"id"`
	Roles apest.Vector `json:"roles" yaml:"roles"`
}

// Params controls team composition.
type Params struct {
	// Size is the desired number of members; must be >= 1.
	Size int `json:"size" yaml:"size"`
	// BalanceFactor in [0,100]; < 50 fills weak roles, >= 50 reinforces strong ones.
	BalanceFactor int `json:"balance_factor" yaml:"balance_factor"`
	// Priority is over-represented when set; RoleNone means no priority.
	Priority apest.Role `json:"priority_role" yaml:"priority_role"`
}

// Validate checks the parameters independently of any pool.
func (p Params) Validate() error {
	if p.Size < 1 {
		return fmt.Errorf("%w: size must be >= 1, got %d", ErrInvalidParameter, p.Size)
	}
	if p.BalanceFactor < MinBalanceFactor || p.BalanceFactor > MaxBalanceFactor {
		return fmt.Errorf("%w: balance factor must be in [%d,%d], got %d",
			ErrInvalidParameter, MinBalanceFactor, MaxBalanceFactor, p.BalanceFactor)
	}
	if p.Priority != apest.RoleNone && !p.Priority.Valid() {
		return fmt.Errorf("%w: priority role %s", ErrInvalidParameter, p.Priority)
	}
	return nil
}

// Team is the proposed selection, in selection order.
type Team struct {
	Members   []Candidate  `json:"members"`
	Aggregate apest.Vector `json:"aggregate"`
}

// entry tracks a candidate together with its position in the caller's pool.
type entry struct {
	Candidate
	pos int
}

// before is the deterministic tie-break: identifier ascending, then pool position.
func (e entry) before(o entry) bool {
	if c := strings.Compare(e.ID, o.ID); c != 0 {
		return c < 0
	}
	return e.pos < o.pos
}

// Assemble selects up to params.Size candidates from pool. The pool is never
// modified. A pool no larger than Size is returned whole, in order.
func Assemble(pool []Candidate, params Params) (Team, error) {
	if err := params.Validate(); err != nil {
		return Team{}, err
	}

	if len(pool) <= params.Size {
		members := slices.Clone(pool)
		if members == nil {
			members = []Candidate{}
		}
		return Team{Members: members, Aggregate: aggregate(members)}, nil
	}

	working := make([]entry, len(pool))
	for i, c := range pool {
		working[i] = entry{Candidate: c, pos: i}
	}
	team := make([]Candidate, 0, params.Size)

	if params.Priority.Valid() {
		byRoleDesc(working, params.Priority)
		take := (params.Size + priorityShareDenom - 1) / priorityShareDenom
		for _, e := range working[:take] {
			team = append(team, e.Candidate)
		}
		working = slices.Clone(working[take:])
	}

	strategy := StrategyFor(params.BalanceFactor)
	for len(team) < params.Size && len(working) > 0 {
		target := TargetRole(aggregate(team), strategy)
		best := pickBest(working, target)
		team = append(team, working[best].Candidate)
		working = slices.Delete(working, best, best+1)
	}

	return Team{Members: team, Aggregate: aggregate(team)}, nil
}

// TargetRole picks the weakest (Diverse) or strongest (Specialized) role of
// agg; ties go to the earlier role in canonical order.
func TargetRole(agg apest.Vector, strategy Strategy) apest.Role {
	roles := apest.Roles()
	target := roles[0]
	for _, r := range roles[1:] {
		s, best := agg.Score(r), agg.Score(target)
		if (strategy == Diverse && s < best) || (strategy != Diverse && s > best) {
			target = r
		}
	}
	return target
}

// byRoleDesc sorts entries by role score descending, tie-broken by before.
func byRoleDesc(es []entry, r apest.Role) {
	slices.SortStableFunc(es, func(a, b entry) int {
		sa, sb := a.Roles.Score(r), b.Roles.Score(r)
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		case a.before(b):
			return -1
		case b.before(a):
			return 1
		default:
			return 0
		}
	})
}

// pickBest returns the index of the entry that would sort first under
// byRoleDesc without reordering the slice.
func pickBest(es []entry, r apest.Role) int {
	best := 0
	for i := 1; i < len(es); i++ {
		si, sb := es[i].Roles.Score(r), es[best].Roles.Score(r)
		if si > sb || (si == sb && es[i].before(es[best])) {
			best = i
		}
	}
	return best
}

func aggregate(members []Candidate) apest.Vector {
	var agg apest.Vector
	for _, m := range members {
		agg = agg.Add(m.Roles)
	}
	return agg
}
