package apest

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Vector is an immutable five-role score vector. The zero value is the
// all-zero vector. Arithmetic always returns a new Vector.
type Vector struct {
	scores [roleCount]float64
}

// NewVector builds a vector from scores in canonical role order.
func NewVector(apostle, prophet, evangelist, shepherd, teacher float64) Vector {
	return Vector{scores: [roleCount]float64{apostle, prophet, evangelist, shepherd, teacher}}
}

// FromMap builds a vector from role-name keys. Unknown keys are ignored,
// absent roles are zero, and "herder" is folded into shepherd unless an
// explicit shepherd key is also present.
func FromMap(m map[string]float64) Vector {
	var v Vector
	herder, hasHerder := 0.0, false
	hasShepherd := false
	for k, score := range m {
		name := strings.ToLower(strings.TrimSpace(k))
		if name == herderAlias {
			herder, hasHerder = score, true
			continue
		}
		r, err := ParseRole(name)
		if err != nil {
			continue
		}
		if r == Shepherd {
			hasShepherd = true
		}
		v.scores[r.index()] = score
	}
	if hasHerder && !hasShepherd {
		v.scores[Shepherd.index()] = herder
	}
	return v
}

// Score returns the score for r, or 0 for RoleNone / invalid roles.
func (v Vector) Score(r Role) float64 {
	if !r.Valid() {
		return 0
	}
	return v.scores[r.index()]
}

// With returns a copy of v with r's score replaced.
func (v Vector) With(r Role, score float64) Vector {
	if r.Valid() {
		v.scores[r.index()] = score
	}
	return v
}

// Total is the sum of all five scores.
func (v Vector) Total() float64 {
	var t float64
	for _, s := range v.scores {
		t += s
	}
	return t
}

// IsZero reports whether every score is zero.
func (v Vector) IsZero() bool {
	for _, s := range v.scores {
		if s != 0 {
			return false
		}
	}
	return true
}

// Add returns the role-wise sum of v and o.
func (v Vector) Add(o Vector) Vector {
	out := v
	for i := range out.scores {
		out.scores[i] += o.scores[i]
	}
	return out
}

// Scale returns v with every score multiplied by f.
func (v Vector) Scale(f float64) Vector {
	out := v
	for i := range out.scores {
		out.scores[i] *= f
	}
	return out
}

// Sum adds vectors role-wise. Sum() is the zero vector.
func Sum(vs ...Vector) Vector {
	var out Vector
	for _, v := range vs {
		out = out.Add(v)
	}
	return out
}

// Validate rejects negative, NaN and infinite scores.
func (v Vector) Validate() error {
	for _, r := range Roles() {
		s := v.Score(r)
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: %s=%v", ErrNegativeScore, r, s)
		}
	}
	return nil
}

// Map returns the vector keyed by canonical role name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, roleCount)
	for _, r := range Roles() {
		m[r.String()] = v.Score(r)
	}
	return m
}

func (v Vector) String() string {
	return fmt.Sprintf("{apostle:%g prophet:%g evangelist:%g shepherd:%g teacher:%g}",
		v.scores[0], v.scores[1], v.scores[2], v.scores[3], v.scores[4])
}

// vectorJSON fixes the wire field order to the canonical role order.
type vectorJSON struct {
	Apostle    float64 `json:"apostle"`
	Prophet    float64 `json:"prophet"`
	Evangelist float64 `json:"evangelist"`
	Shepherd   float64 `json:"shepherd"`
	Teacher    float64 `json:"teacher"`
}

// MarshalJSON always emits all five canonical keys.
func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(vectorJSON{
		Apostle:    v.Score(Apostle),
		Prophet:    v.Score(Prophet),
		Evangelist: v.Score(Evangelist),
		Shepherd:   v.Score(Shepherd),
		Teacher:    v.Score(Teacher),
	})
}

// UnmarshalJSON accepts any subset of role keys, including "herder".
func (v *Vector) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode role vector: %w", err)
	}
	*v = FromMap(m)
	return nil
}

// MarshalYAML emits the canonical role map.
func (v Vector) MarshalYAML() (any, error) {
	return v.Map(), nil
}

// UnmarshalYAML accepts the same keys as UnmarshalJSON.
func (v *Vector) UnmarshalYAML(unmarshal func(any) error) error {
	var m map[string]float64
	if err := unmarshal(&m); err != nil {
		return fmt.Errorf("decode role vector: %w", err)
	}
	*v = FromMap(m)
	return nil
}
