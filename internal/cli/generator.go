package cli

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/model"
)

// Questionnaire score ranges per generated archetype.
const (
	maxScore       = 10.0
	strongMin      = 7.0
	strongRange    = 3.0
	pairedMin      = 6.0
	pairedRange    = 3.0
	weakMin        = 1.0
	weakRange      = 3.0
	balancedMin    = 4.0
	balancedRange  = 3.0
	archetypeCount = 4
)

// Archetypes of generated respondents.
const (
	caseSpecialized = iota
	casePaired
	caseBalanced
	caseWideRange
)

// rngReader feeds uuid generation from the seeded source.
type rngReader struct {
	rng *rand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.Uint32())
	}
	return len(p), nil
}

// generateSubmissions creates n assessments with distinct member IDs for
// church. The same rng seed yields the same submissions.
func generateSubmissions(rng *rand.Rand, church string, n int) []model.Submission {
	ids := rngReader{rng: rng}
	out := make([]model.Submission, n)
	for i := range out {
		id, _ := uuid.NewRandomFromReader(ids) // rngReader never fails
		out[i] = model.Submission{
			ID:       id.String(),
			ChurchID: church,
			MemberID: fmt.Sprintf("member-%04d", i+1),
			Roles:    generateVector(rng),
		}
	}
	return out
}

// generateVector draws a role vector from one of the respondent archetypes.
func generateVector(rng *rand.Rand) apest.Vector {
	roles := apest.Roles()
	var v apest.Vector
	switch rng.IntN(archetypeCount) {
	case caseSpecialized:
		lead := roles[rng.IntN(len(roles))]
		for _, r := range roles {
			v = v.With(r, weakMin+rng.Float64()*weakRange)
		}
		v = v.With(lead, strongMin+rng.Float64()*strongRange)
	case casePaired:
		first := rng.IntN(len(roles))
		second := (first + 1 + rng.IntN(len(roles)-1)) % len(roles)
		for _, r := range roles {
			v = v.With(r, weakMin+rng.Float64()*weakRange)
		}
		v = v.With(roles[first], pairedMin+rng.Float64()*pairedRange)
		v = v.With(roles[second], pairedMin+rng.Float64()*pairedRange)
	case caseBalanced:
		for _, r := range roles {
			v = v.With(r, balancedMin+rng.Float64()*balancedRange)
		}
	default:
		for _, r := range roles {
			v = v.With(r, rng.Float64()*maxScore)
		}
	}
	return v
}
