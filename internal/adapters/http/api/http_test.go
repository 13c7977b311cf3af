package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/okian/apest/internal/adapters/http/api"
	service "github.com/okian/apest/internal/app"
	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/assembly"
	"github.com/okian/apest/internal/domain/model"
	"github.com/okian/apest/internal/domain/profile"
	"github.com/okian/apest/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newRouter(deps api.Dependencies) chi.Router {
	return api.NewServer(deps, api.WithLogger(logger.Nop())).Routes(context.Background())
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Health(t *testing.T) {
	Convey("Given the API router", t, func() {
		r := newRouter(service.New())

		Convey("When probing health, stats and metrics", func() {
			health := do(r, http.MethodGet, "/healthz", "")
			stats := do(r, http.MethodGet, "/stats", "")
			prom := do(r, http.MethodGet, "/metrics", "")

			Convey("Then each responds", func() {
				So(health.Code, ShouldEqual, http.StatusOK)
				So(decode(health)["status"], ShouldEqual, "ok")
				So(stats.Code, ShouldEqual, http.StatusOK)
				So(decode(stats), ShouldContainKey, "totalMembers")
				So(prom.Code, ShouldEqual, http.StatusOK)
				So(prom.Body.String(), ShouldContainSubstring, "apest_engine_http_requests_total")
			})
		})

		Convey("When an unknown route or method is used", func() {
			Convey("Then chi answers 404 and 405", func() {
				So(do(r, http.MethodGet, "/nope", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(r, http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestServer_Profiles(t *testing.T) {
	Convey("Given the API router over an in-memory service", t, func() {
		r := newRouter(service.New())

		Convey("When a vector is classified", func() {
			w := do(r, http.MethodPost, "/v1/profiles/classify", `{"apostle":1,"prophet":1,"evangelist":1,"shepherd":1,"teacher":6}`)

			Convey("Then the profile is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["primary_role"], ShouldEqual, "teacher")
				So(body["profile_type"], ShouldEqual, "specialized")
				So(body["dominance_ratio"], ShouldEqual, 0.6)
			})
		})

		Convey("When the zero vector is classified", func() {
			w := do(r, http.MethodPost, "/v1/profiles/classify", `{}`)

			Convey("Then the unknown sentinel is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["primary_role"], ShouldBeNil)
				So(body["profile_type"], ShouldEqual, "unknown")
			})
		})

		Convey("When the body is malformed or negative", func() {
			bad := do(r, http.MethodPost, "/v1/profiles/classify", `{"apostle":`)
			neg := do(r, http.MethodPost, "/v1/profiles/classify", `{"apostle":-1}`)

			Convey("Then 400 is returned with an error code", func() {
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(bad)["code"], ShouldEqual, "bad_request")
				So(neg.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When assessments are submitted", func() {
			first := do(r, http.MethodPut, "/v1/churches/c1/members/m2/assessment",
				`{"submission_id":"s1","name":"Bo","roles":{"apostle":2,"prophet":2,"evangelist":2,"shepherd":2,"teacher":2}}`)
			retry := do(r, http.MethodPut, "/v1/churches/c1/members/m2/assessment",
				`{"roles":{"apostle":9}}`, api.IdempotencyHeader, "s1")
			herder := do(r, http.MethodPut, "/v1/churches/c1/members/m1/assessment",
				`{"roles":{"herder":7,"apostle":1}}`)

			Convey("Then the first is stored and the retry is a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				body := decode(first)
				So(body["duplicate"], ShouldEqual, false)
				So(body["member"].(map[string]any)["name"], ShouldEqual, "Bo")
				So(body["profile"].(map[string]any)["profile_type"], ShouldEqual, "balanced")

				So(retry.Code, ShouldEqual, http.StatusOK)
				So(decode(retry)["duplicate"], ShouldEqual, true)
			})

			Convey("Then a key reused for another member stores that member", func() {
				other := do(r, http.MethodPut, "/v1/churches/c1/members/m3/assessment",
					`{"roles":{"teacher":9,"apostle":1}}`, api.IdempotencyHeader, "s1")
				So(other.Code, ShouldEqual, http.StatusOK)
				So(decode(other)["duplicate"], ShouldEqual, false)

				got := do(r, http.MethodGet, "/v1/churches/c1/members/m3/profile", "")
				So(got.Code, ShouldEqual, http.StatusOK)
				So(decode(got)["profile"].(map[string]any)["primary_role"], ShouldEqual, "teacher")
			})

			Convey("Then members are listed by ID and herder maps to shepherd", func() {
				So(herder.Code, ShouldEqual, http.StatusOK)
				list := do(r, http.MethodGet, "/v1/churches/c1/members", "")
				So(list.Code, ShouldEqual, http.StatusOK)

				var members []map[string]any
				So(json.Unmarshal(list.Body.Bytes(), &members), ShouldBeNil)
				So(len(members), ShouldEqual, 2)
				So(members[0]["member"].(map[string]any)["id"], ShouldEqual, "m1")
				So(members[0]["profile"].(map[string]any)["primary_role"], ShouldEqual, "shepherd")
			})

			Convey("Then a single profile and the summary are readable", func() {
				one := do(r, http.MethodGet, "/v1/churches/c1/members/m2/profile", "")
				So(one.Code, ShouldEqual, http.StatusOK)

				sum := do(r, http.MethodGet, "/v1/churches/c1/summary", "")
				So(sum.Code, ShouldEqual, http.StatusOK)
				So(decode(sum)["count"], ShouldEqual, 2)
			})
		})

		Convey("When an unknown member profile is requested", func() {
			w := do(r, http.MethodGet, "/v1/churches/c1/members/ghost/profile", "")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestServer_Teams(t *testing.T) {
	Convey("Given a church with assessed members", t, func() {
		svc := service.New(service.WithMaxTeamSize(10))
		r := newRouter(svc)
		for id, body := range map[string]string{
			"m1": `{"roles":{"apostle":5}}`,
			"m2": `{"roles":{"prophet":5}}`,
			"m3": `{"roles":{"evangelist":5}}`,
			"m4": `{"roles":{"apostle":4}}`,
		} {
			So(do(r, http.MethodPut, "/v1/churches/c1/members/"+id+"/assessment", body).Code, ShouldEqual, http.StatusOK)
		}

		Convey("When a specialized team with an apostle priority is requested", func() {
			w := do(r, http.MethodPost, "/v1/churches/c1/teams/suggest", `{"size":2,"balance_factor":80,"priority_role":"apostle"}`)

			Convey("Then the priority phase picks the top apostle first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["strategy"], ShouldEqual, "specialized")
				members := body["members"].([]any)
				So(len(members), ShouldEqual, 2)
				So(members[0].(map[string]any)["member"].(map[string]any)["id"], ShouldEqual, "m1")
				So(members[1].(map[string]any)["member"].(map[string]any)["id"], ShouldEqual, "m4")
			})
		})

		Convey("When balance_factor is omitted", func() {
			w := do(r, http.MethodPost, "/v1/churches/c1/teams/suggest", `{"size":3}`)

			Convey("Then the default balance selects the specialized strategy", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["strategy"], ShouldEqual, "specialized")
			})
		})

		Convey("When parameters are invalid", func() {
			zero := do(r, http.MethodPost, "/v1/churches/c1/teams/suggest", `{"size":0}`)
			big := do(r, http.MethodPost, "/v1/churches/c1/teams/suggest", `{"size":11}`)
			role := do(r, http.MethodPost, "/v1/churches/c1/teams/suggest", `{"size":2,"priority_role":"bishop"}`)
			balance := do(r, http.MethodPost, "/v1/churches/c1/teams/suggest", `{"size":2,"balance_factor":-1}`)

			Convey("Then 400 is returned", func() {
				So(zero.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(zero)["code"], ShouldEqual, "invalid_parameter")
				So(big.Code, ShouldEqual, http.StatusBadRequest)
				So(role.Code, ShouldEqual, http.StatusBadRequest)
				So(balance.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestServer_InviteCodes(t *testing.T) {
	Convey("Given the API router", t, func() {
		r := newRouter(service.New(service.WithCodeGenerator(func() (string, error) { return "ABCDEFGHIJ", nil })))

		Convey("When a team code is issued", func() {
			w := do(r, http.MethodPost, "/v1/invite-codes", `{"kind":"team","entity_id":"t1"}`)

			Convey("Then 201 carries the code", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decode(w)["code"], ShouldEqual, "ABCDEFGHIJ")
			})

			Convey("Then a mistyped code resolves fuzzily", func() {
				res := do(r, http.MethodPost, "/v1/invite-codes/resolve", `{"kind":"team","code":"ABCDEFGHIX"}`)
				So(res.Code, ShouldEqual, http.StatusOK)
				body := decode(res)
				So(body["entity_id"], ShouldEqual, "t1")
				So(body["tier"], ShouldEqual, "fuzzy")
			})

			Convey("Then an unrelated code is not found", func() {
				res := do(r, http.MethodPost, "/v1/invite-codes/resolve", `{"kind":"team","code":"ZZZZZZZZZZ"}`)
				So(res.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("Then the generator exhausting unique codes yields 409", func() {
				again := do(r, http.MethodPost, "/v1/invite-codes", `{"kind":"team","entity_id":"t2"}`)
				So(again.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When the kind is unknown", func() {
			w := do(r, http.MethodPost, "/v1/invite-codes", `{"kind":"diocese","entity_id":"d1"}`)

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

type failingDeps struct{ *service.Service }

func (failingDeps) MemberProfiles(context.Context, string) ([]service.MemberProfile, error) {
	return nil, errors.New("connection reset")
}

func (failingDeps) Classify(context.Context, apest.Vector) (profile.Profile, error) {
	return profile.Profile{}, errors.New("boom")
}

func (failingDeps) SuggestTeam(context.Context, string, assembly.Params) (service.SuggestedTeam, error) {
	return service.SuggestedTeam{}, errors.New("boom")
}

func (failingDeps) IssueInviteCode(context.Context, model.CodeKind, string) (model.InviteCode, error) {
	return model.InviteCode{}, errors.New("boom")
}

func TestServer_InternalErrors(t *testing.T) {
	Convey("Given dependencies that fail unexpectedly", t, func() {
		r := newRouter(failingDeps{Service: service.New()})

		Convey("When a route hits the failure", func() {
			w := do(r, http.MethodGet, "/v1/churches/c1/members", "")

			Convey("Then 500 hides the internal message", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decode(w)
				So(body["code"], ShouldEqual, "internal_error")
				So(body["message"], ShouldNotContainSubstring, "connection reset")
			})
		})
	})
}
