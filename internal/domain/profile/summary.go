package profile

import "github.com/okian/apest/internal/domain/apest"

// Summary aggregates a group of role vectors, e.g. a church or a team.
type Summary struct {
	Count      int          `json:"count"`
	Total      apest.Vector `json:"total"`
	Average    apest.Vector `json:"average"`
	Profile    Profile      `json:"profile"`
	TypeCounts map[Type]int `json:"type_counts"`
}

// Summarize sums vectors role-wise, averages them and classifies the total.
func (c *Classifier) Summarize(vectors []apest.Vector) Summary {
	s := Summary{
		Count:      len(vectors),
		TypeCounts: make(map[Type]int, len(Types())),
	}
	for _, t := range Types() {
		s.TypeCounts[t] = 0
	}
	for _, v := range vectors {
		s.Total = s.Total.Add(v)
		s.TypeCounts[c.Classify(v).Type]++
	}
	if s.Count > 0 {
		s.Average = s.Total.Scale(1 / float64(s.Count))
	}
	s.Profile = c.Classify(s.Total)
	return s
}
