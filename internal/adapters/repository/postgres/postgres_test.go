package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/apest/internal/adapters/repository"
	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOptions(t *testing.T) {
	Convey("Given connect options", t, func() {
		o := options{maxConns: defaultMaxConns, migrate: true}

		Convey("When a positive pool size and no migration are requested", func() {
			WithMaxConns(4)(&o)
			WithoutMigrations()(&o)

			Convey("Then both are applied", func() {
				So(o.maxConns, ShouldEqual, 4)
				So(o.migrate, ShouldBeFalse)
			})
		})

		Convey("When a non-positive pool size is requested", func() {
			WithMaxConns(0)(&o)

			Convey("Then the default is kept", func() {
				So(o.maxConns, ShouldEqual, defaultMaxConns)
			})
		})
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	Convey("Given the embedded migrations", t, func() {
		sub, err := fs.Sub(migrationsFS, "migrations")
		So(err, ShouldBeNil)

		Convey("When the initial migration is read", func() {
			body, err := fs.ReadFile(sub, "00001_init.sql")

			Convey("Then it carries goose annotations for both tables", func() {
				So(err, ShouldBeNil)
				sql := string(body)
				So(sql, ShouldContainSubstring, "-- +goose Up")
				So(sql, ShouldContainSubstring, "-- +goose Down")
				So(sql, ShouldContainSubstring, "CREATE TABLE IF NOT EXISTS members")
				So(sql, ShouldContainSubstring, "CREATE TABLE IF NOT EXISTS invite_codes")
			})
		})
	})
}

// TestStoreIntegration runs against a real database when APEST_TEST_DATABASE_URL is set.
func TestStoreIntegration(t *testing.T) {
	url := os.Getenv("APEST_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("APEST_TEST_DATABASE_URL not set")
	}

	Convey("Given a migrated database", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s, err := Connect(ctx, url, WithMaxConns(2))
		So(err, ShouldBeNil)
		defer s.Close()

		church := fmt.Sprintf("it-%d", time.Now().UnixNano())

		Convey("When members are upserted", func() {
			now := time.Now().UTC().Truncate(time.Microsecond)
			So(s.UpsertMember(ctx, model.Member{ID: "b", ChurchID: church, Roles: apest.NewVector(1, 2, 3, 4, 5), UpdatedAt: now}), ShouldBeNil)
			So(s.UpsertMember(ctx, model.Member{ID: "a", ChurchID: church, Name: "Ann", Roles: apest.NewVector(5, 0, 0, 0, 0), UpdatedAt: now}), ShouldBeNil)
			So(s.UpsertMember(ctx, model.Member{ID: "a", ChurchID: church, Name: "Ann", Roles: apest.NewVector(0, 5, 0, 0, 0), UpdatedAt: now}), ShouldBeNil)

			Convey("Then they are listed by ID with the latest vector", func() {
				got, err := s.Members(ctx, church)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].ID, ShouldEqual, "a")
				So(got[0].Roles.Score(apest.Prophet), ShouldEqual, 5)
				So(got[1].Roles.Total(), ShouldEqual, 15)

				_, err = s.Member(ctx, church, "ghost")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a code is stored twice", func() {
			code := strings.ToUpper(church)
			So(s.PutCode(ctx, model.InviteCode{Kind: model.CodeKindTeam, EntityID: "t1", Code: code, CreatedAt: time.Now()}), ShouldBeNil)
			err := s.PutCode(ctx, model.InviteCode{Kind: model.CodeKindTeam, EntityID: "t2", Code: code, CreatedAt: time.Now()})

			Convey("Then the second insert reports ErrCodeExists", func() {
				So(errors.Is(err, repository.ErrCodeExists), ShouldBeTrue)

				codes, err := s.Codes(ctx, model.CodeKindTeam)
				So(err, ShouldBeNil)
				So(len(codes), ShouldBeGreaterThan, 0)
			})
		})
	})
}
