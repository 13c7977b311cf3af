package assembly_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/assembly"
	. "github.com/smartystreets/goconvey/convey"
)

func ids(cs []assembly.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func candidate(id string, a, p, e, s, t float64) assembly.Candidate {
	return assembly.Candidate{ID: id, Roles: apest.NewVector(a, p, e, s, t)}
}

func TestAssemble_Validation(t *testing.T) {
	Convey("Given invalid composition parameters", t, func() {
		pool := []assembly.Candidate{candidate("m1", 1, 0, 0, 0, 0)}

		Convey("When the desired size is zero or negative", func() {
			_, errZero := assembly.Assemble(pool, assembly.Params{Size: 0})
			_, errNeg := assembly.Assemble(nil, assembly.Params{Size: -3})

			Convey("Then the call is rejected rather than clamped", func() {
				So(errors.Is(errZero, assembly.ErrInvalidParameter), ShouldBeTrue)
				So(errors.Is(errNeg, assembly.ErrInvalidParameter), ShouldBeTrue)
			})
		})

		Convey("When the balance factor is out of range", func() {
			_, errLow := assembly.Assemble(pool, assembly.Params{Size: 1, BalanceFactor: -1})
			_, errHigh := assembly.Assemble(pool, assembly.Params{Size: 1, BalanceFactor: 101})

			Convey("Then the call is rejected", func() {
				So(errors.Is(errLow, assembly.ErrInvalidParameter), ShouldBeTrue)
				So(errors.Is(errHigh, assembly.ErrInvalidParameter), ShouldBeTrue)
			})
		})

		Convey("When the priority role is not a real role", func() {
			_, err := assembly.Assemble(pool, assembly.Params{Size: 1, Priority: apest.Role(42)})

			Convey("Then the call is rejected", func() {
				So(errors.Is(err, assembly.ErrInvalidParameter), ShouldBeTrue)
			})
		})
	})
}

func TestAssemble_TrivialCase(t *testing.T) {
	Convey("Given a pool no larger than the desired size", t, func() {
		Convey("When the pool is empty", func() {
			team, err := assembly.Assemble(nil, assembly.Params{Size: 3})

			Convey("Then an empty team with a zero aggregate is returned", func() {
				So(err, ShouldBeNil)
				So(team.Members, ShouldBeEmpty)
				So(team.Members, ShouldNotBeNil)
				So(team.Aggregate.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When an apostle and a teacher are asked for a team of two", func() {
			pool := []assembly.Candidate{
				candidate("a", 10, 0, 0, 0, 0),
				candidate("t", 0, 0, 0, 0, 10),
			}
			team, err := assembly.Assemble(pool, assembly.Params{Size: 2, BalanceFactor: 80, Priority: apest.Prophet})

			Convey("Then both are selected in the original order", func() {
				So(err, ShouldBeNil)
				So(ids(team.Members), ShouldResemble, []string{"a", "t"})
				So(team.Aggregate, ShouldResemble, apest.NewVector(10, 0, 0, 0, 10))
			})
		})

		Convey("When the pool is smaller than the desired size", func() {
			pool := []assembly.Candidate{
				candidate("z", 1, 0, 0, 0, 0),
				candidate("b", 0, 2, 0, 0, 0),
				candidate("m", 0, 0, 3, 0, 0),
			}
			team, err := assembly.Assemble(pool, assembly.Params{Size: 10})

			Convey("Then every member appears once in the given order", func() {
				So(err, ShouldBeNil)
				So(ids(team.Members), ShouldResemble, []string{"z", "b", "m"})
				So(team.Aggregate, ShouldResemble, apest.NewVector(1, 2, 3, 0, 0))
			})
		})
	})
}

func TestAssemble_FillPhase(t *testing.T) {
	Convey("Given a pool with distinct role specialists", t, func() {
		pool := []assembly.Candidate{
			candidate("a1", 9, 0, 0, 0, 0),
			candidate("a2", 8, 0, 0, 0, 0),
			candidate("p1", 0, 7, 0, 0, 0),
			candidate("e1", 0, 0, 6, 0, 0),
			candidate("t1", 0, 0, 0, 0, 5),
		}

		Convey("When assembling a diverse team", func() {
			team, err := assembly.Assemble(pool, assembly.Params{Size: 3, BalanceFactor: 0})

			Convey("Then each pick fills the weakest role", func() {
				So(err, ShouldBeNil)
				So(ids(team.Members), ShouldResemble, []string{"a1", "p1", "e1"})
				So(team.Aggregate, ShouldResemble, apest.NewVector(9, 7, 6, 0, 0))
			})
		})

		Convey("When assembling a specialized team", func() {
			team, err := assembly.Assemble(pool, assembly.Params{Size: 3, BalanceFactor: 50})

			Convey("Then each pick reinforces the strongest role", func() {
				So(err, ShouldBeNil)
				So(ids(team.Members), ShouldResemble, []string{"a1", "a2", "e1"})
				So(team.Aggregate, ShouldResemble, apest.NewVector(17, 0, 6, 0, 0))
			})
		})

		Convey("When the balance factor is 49", func() {
			Convey("Then the diverse strategy is used", func() {
				So(assembly.StrategyFor(49), ShouldEqual, assembly.Diverse)
				So(assembly.StrategyFor(50), ShouldEqual, assembly.Specialized)
			})
		})
	})

	Convey("Given five identical balanced candidates", t, func() {
		pool := []assembly.Candidate{
			candidate("m4", 1, 1, 1, 1, 1),
			candidate("m2", 1, 1, 1, 1, 1),
			candidate("m5", 1, 1, 1, 1, 1),
			candidate("m1", 1, 1, 1, 1, 1),
			candidate("m3", 1, 1, 1, 1, 1),
		}

		Convey("When assembling three with a low balance factor", func() {
			team, err := assembly.Assemble(pool, assembly.Params{Size: 3, BalanceFactor: 10})

			Convey("Then the first three by identifier are selected", func() {
				So(err, ShouldBeNil)
				So(ids(team.Members), ShouldResemble, []string{"m1", "m2", "m3"})
				So(team.Aggregate, ShouldResemble, apest.NewVector(3, 3, 3, 3, 3))
			})
		})
	})

	Convey("Given a pool of all-zero vectors", t, func() {
		pool := []assembly.Candidate{
			candidate("c", 0, 0, 0, 0, 0),
			candidate("a", 0, 0, 0, 0, 0),
			candidate("b", 0, 0, 0, 0, 0),
		}

		Convey("When assembling", func() {
			team, err := assembly.Assemble(pool, assembly.Params{Size: 2, BalanceFactor: 90, Priority: apest.Teacher})

			Convey("Then identifier order decides", func() {
				So(err, ShouldBeNil)
				So(ids(team.Members), ShouldResemble, []string{"a", "b"})
				So(team.Aggregate.IsZero(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a pool with a duplicated identifier", t, func() {
		pool := []assembly.Candidate{
			candidate("x", 0, 0, 0, 0, 1),
			candidate("x", 0, 0, 0, 0, 2),
			candidate("y", 0, 0, 0, 0, 0),
		}

		Convey("When the target scores tie", func() {
			team, err := assembly.Assemble(pool, assembly.Params{Size: 2, BalanceFactor: 0})

			Convey("Then the earlier pool position wins", func() {
				So(err, ShouldBeNil)
				So(ids(team.Members), ShouldResemble, []string{"x", "x"})
				So(team.Members[0].Roles.Score(apest.Teacher), ShouldEqual, 1)
				So(team.Members[1].Roles.Score(apest.Teacher), ShouldEqual, 2)
			})
		})
	})
}

func TestAssemble_PriorityPhase(t *testing.T) {
	Convey("Given ten candidates where three are strong prophets", t, func() {
		pool := []assembly.Candidate{
			candidate("c01", 5, 1, 2, 3, 4),
			candidate("c02", 4, 9, 1, 1, 1),
			candidate("c03", 3, 2, 5, 1, 2),
			candidate("c04", 1, 10, 0, 2, 0),
			candidate("c05", 6, 0, 3, 3, 3),
			candidate("c06", 2, 3, 3, 6, 1),
			candidate("c07", 0, 8, 4, 0, 2),
			candidate("c08", 7, 1, 1, 1, 7),
			candidate("c09", 1, 2, 2, 2, 8),
			candidate("c10", 2, 1, 6, 2, 1),
		}

		Convey("When the prophet role has priority in a team of four", func() {
			team, err := assembly.Assemble(pool, assembly.Params{Size: 4, BalanceFactor: 20, Priority: apest.Prophet})

			Convey("Then the top two prophets lead the team", func() {
				So(err, ShouldBeNil)
				So(len(team.Members), ShouldEqual, 4)
				So(ids(team.Members)[:2], ShouldResemble, []string{"c04", "c02"})
			})

			Convey("And the fill phase continues from the priority picks", func() {
				// After c04+c02 the aggregate is {5,19,1,3,1}; evangelist is weakest.
				So(team.Members[2].ID, ShouldEqual, "c10")
				// Then {7,20,7,5,2}; teacher is weakest.
				So(team.Members[3].ID, ShouldEqual, "c09")
				So(team.Aggregate, ShouldResemble, apest.NewVector(8, 22, 9, 7, 10))
			})
		})

		Convey("When the priority share is rounded up", func() {
			team, err := assembly.Assemble(pool, assembly.Params{Size: 5, BalanceFactor: 100, Priority: apest.Prophet})

			Convey("Then three prophets are taken first", func() {
				So(err, ShouldBeNil)
				So(ids(team.Members)[:3], ShouldResemble, []string{"c04", "c02", "c07"})
			})
		})

		Convey("When priority scores tie", func() {
			tied := []assembly.Candidate{
				candidate("b", 0, 0, 0, 0, 3),
				candidate("a", 0, 0, 0, 0, 3),
				candidate("c", 9, 9, 9, 9, 1),
			}
			team, err := assembly.Assemble(tied, assembly.Params{Size: 2, BalanceFactor: 0, Priority: apest.Teacher})

			Convey("Then the lower identifier is taken", func() {
				So(err, ShouldBeNil)
				So(team.Members[0].ID, ShouldEqual, "a")
			})
		})
	})
}

func TestAssemble_Invariants(t *testing.T) {
	Convey("Given a mixed pool", t, func() {
		pool := make([]assembly.Candidate, 0, 10)
		for i := 0; i < 10; i++ {
			pool = append(pool, candidate(fmt.Sprintf("m%02d", i),
				float64(i%3), float64((i*7)%5), float64((i*3)%4), float64(i%2), float64((10-i)%6)))
		}
		snapshot := slices.Clone(pool)

		Convey("When assembling every size from 1 to 12 under several parameters", func() {
			Convey("Then the team size is min(pool, size) and members are distinct", func() {
				for size := 1; size <= 12; size++ {
					for _, bf := range []int{0, 49, 50, 100} {
						for _, pr := range []apest.Role{apest.RoleNone, apest.Apostle, apest.Teacher} {
							params := assembly.Params{Size: size, BalanceFactor: bf, Priority: pr}
							team, err := assembly.Assemble(pool, params)
							So(err, ShouldBeNil)
							So(len(team.Members), ShouldEqual, min(size, len(pool)))

							seen := map[string]bool{}
							var sum apest.Vector
							for _, m := range team.Members {
								So(seen[m.ID], ShouldBeFalse)
								seen[m.ID] = true
								sum = sum.Add(m.Roles)
							}
							So(team.Aggregate, ShouldResemble, sum)

							again, err := assembly.Assemble(pool, params)
							So(err, ShouldBeNil)
							So(again, ShouldResemble, team)
						}
					}
				}
			})

			Convey("And the caller's pool is never modified", func() {
				_, err := assembly.Assemble(pool, assembly.Params{Size: 4, BalanceFactor: 70, Priority: apest.Shepherd})
				So(err, ShouldBeNil)
				So(pool, ShouldResemble, snapshot)
			})
		})
	})
}

func TestTargetRole(t *testing.T) {
	Convey("Given an aggregate with tied extremes", t, func() {
		agg := apest.NewVector(3, 1, 3, 1, 2)

		Convey("When selecting a target", func() {
			Convey("Then the earliest canonical role wins each tie", func() {
				So(assembly.TargetRole(agg, assembly.Diverse), ShouldEqual, apest.Prophet)
				So(assembly.TargetRole(agg, assembly.Specialized), ShouldEqual, apest.Apostle)
				So(assembly.TargetRole(apest.Vector{}, assembly.Diverse), ShouldEqual, apest.Apostle)
				So(assembly.TargetRole(apest.Vector{}, assembly.Specialized), ShouldEqual, apest.Apostle)
			})
		})
	})
}
