package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	jobqueue "github.com/okian/lottoheat/internal/adapters/mq/queue"
	"github.com/okian/lottoheat/internal/adapters/repository"
	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/internal/domain/types"
	"github.com/okian/lottoheat/pkg/logger"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithRefreshSchedule(""),
		WithWorkerCount(2),
		WithQueueSize(64),
	}
	s := New(append(base, opts...)...)
	return s
}

func seedStores(ctx context.Context, s *Service) {
	_, err := s.UpsertStores(ctx, []model.StoreLocation{
		{ID: "s1", Name: "Corner Gas", Latitude: 40.0, Longitude: -75.0, Category: "Gas_Station"},
		{ID: "s2", Name: "Quick Stop", Latitude: 40.1, Longitude: -75.0, Category: "convenience"},
		{ID: "s3", Name: "Far Market", Latitude: 41.0, Longitude: -75.0, Category: "unknown"},
	})
	So(err, ShouldBeNil)
}

func win(id, store, prize string, daysAgo int) types.WinSubmission {
	return types.WinSubmission{
		ID:          id,
		StoreID:     store,
		GameName:    "Lucky 7s",
		PrizeAmount: prize,
		WinDate:     fixedNow.AddDate(0, 0, -daysAgo).Format(time.RFC3339),
	}
}

// waitRanked polls until the leaderboard holds want stores.
func waitRanked(ctx context.Context, s *Service, want int) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.leaderboard.Count(ctx) >= want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func tier(amount string, total, remaining int64) model.PrizeTier {
	return model.PrizeTier{Amount: decimal.RequireFromString(amount), TotalCount: total, RemainingCount: remaining}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		s := newTestService(t)
		seedStores(ctx, s)

		Convey("Submitting before Start is refused", func() {
			_, err := s.SubmitWin(ctx, win("w1", "s1", "100", 1))
			So(errors.Is(err, ErrNotStarted), ShouldBeTrue)
		})

		Convey("Start and Stop are idempotent", func() {
			So(s.Start(ctx), ShouldBeNil)
			So(s.Start(ctx), ShouldBeNil)
			So(s.GetStats()["started"], ShouldBeTrue)
			s.Stop()
			s.Stop()
			So(s.GetStats()["started"], ShouldBeFalse)
		})

		Convey("An invalid refresh schedule fails Start", func() {
			bad := newTestService(t, WithRefreshSchedule("not a schedule"))
			So(bad.Start(ctx), ShouldNotBeNil)
		})

		Convey("A valid refresh schedule starts the scheduler", func() {
			sched := newTestService(t, WithRefreshSchedule("@every 1h"))
			So(sched.Start(ctx), ShouldBeNil)
			sched.Stop()
		})
	})
}

func TestSubmitWin(t *testing.T) {
	Convey("Given a started service with stores", t, func() {
		ctx := context.Background()
		s := newTestService(t)
		seedStores(ctx, s)
		So(s.Start(ctx), ShouldBeNil)
		Reset(s.Stop)

		Convey("A valid win is recorded and its store ranked", func() {
			rec, err := s.SubmitWin(ctx, win("w1", "s1", "5000", 1))
			So(err, ShouldBeNil)
			So(rec.ID, ShouldEqual, "w1")
			So(rec.PrizeAmount.String(), ShouldEqual, "5000")
			So(waitRanked(ctx, s, 1), ShouldBeTrue)

			row, err := s.StoreRank(ctx, "s1")
			So(err, ShouldBeNil)
			So(row.Rank, ShouldEqual, 1)
			So(row.Name, ShouldEqual, "Corner Gas")
			So(row.Category, ShouldEqual, model.CategoryGasStation)
			So(row.TotalWins, ShouldEqual, 1)
			So(row.BigWins, ShouldEqual, 1)
			So(row.RecentWins, ShouldEqual, 1)
			So(row.Score, ShouldBeGreaterThan, 0)
			So(row.Score, ShouldBeLessThanOrEqualTo, 100)
		})

		Convey("A missing id is generated", func() {
			rec, err := s.SubmitWin(ctx, win("", "s1", "20", 1))
			So(err, ShouldBeNil)
			So(rec.ID, ShouldNotBeEmpty)
		})

		Convey("A game id fills in the game name", func() {
			So(s.ReplaceGames(ctx, []model.Game{{ID: "g1", Name: "Cash Blast", Price: decimal.NewFromInt(2), OverallOdds: 4}}), ShouldBeNil)
			sub := win("w-game", "s1", "20", 1)
			sub.GameID, sub.GameName = "g1", ""
			rec, err := s.SubmitWin(ctx, sub)
			So(err, ShouldBeNil)
			So(rec.GameName, ShouldEqual, "Cash Blast")
		})

		Convey("The same id is a duplicate", func() {
			_, err := s.SubmitWin(ctx, win("dup", "s1", "20", 1))
			So(err, ShouldBeNil)
			_, err = s.SubmitWin(ctx, win("dup", "s1", "20", 1))
			So(errors.Is(err, ErrDuplicateWin), ShouldBeTrue)
			_, _, wins := s.catalog.Counts(ctx)
			So(wins, ShouldEqual, 1)
		})

		Convey("An unknown store is not found", func() {
			_, err := s.SubmitWin(ctx, win("w2", "nope", "20", 1))
			So(errors.Is(err, repository.ErrStoreNotFound), ShouldBeTrue)
		})

		Convey("Malformed submissions are invalid", func() {
			cases := []types.WinSubmission{
				win("a", "", "20", 1),
				win("b", "s1", "twenty", 1),
				win("c", "s1", "-5", 1),
			}
			for _, c := range cases {
				_, err := s.SubmitWin(ctx, c)
				So(errors.Is(err, ErrInvalidWin), ShouldBeTrue)
			}
		})

		Convey("An unreadable date is kept but never recent", func() {
			sub := win("undated", "s2", "50", 0)
			sub.WinDate = "last tuesday"
			rec, err := s.SubmitWin(ctx, sub)
			So(err, ShouldBeNil)
			So(rec.WinDate.IsZero(), ShouldBeTrue)

			h, err := s.StoreHeat(ctx, "s2")
			So(err, ShouldBeNil)
			So(h.TotalWins, ShouldEqual, 1)
			So(h.RecentWins, ShouldEqual, 0)
			So(h.LastWinDate, ShouldBeNil)
		})

		Convey("A cancelled request undoes the record without claiming backpressure", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.SubmitWin(cancelled, win("retry", "s1", "20", 1))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(errors.Is(err, ErrBackpressure), ShouldBeFalse)
			_, _, wins := s.catalog.Counts(ctx)
			So(wins, ShouldEqual, 0)

			_, err = s.SubmitWin(ctx, win("retry", "s1", "20", 1))
			So(err, ShouldBeNil)
		})

		Convey("A full recompute queue is backpressure and undoes the record", func() {
			full := jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(1))
			So(full.Enqueue(ctx, jobqueue.Job{StoreID: "s2", Reason: jobqueue.ReasonRefresh}), ShouldBeTrue)
			s.mu.Lock()
			running := s.jobs
			s.jobs = full
			s.mu.Unlock()
			Reset(func() {
				s.mu.Lock()
				s.jobs = running
				s.mu.Unlock()
			})

			_, err := s.SubmitWin(ctx, win("busy", "s1", "20", 1))
			So(errors.Is(err, ErrBackpressure), ShouldBeTrue)
			_, _, wins := s.catalog.Counts(ctx)
			So(wins, ShouldEqual, 0)

			<-full.Dequeue(ctx)
			_, err = s.SubmitWin(ctx, win("busy", "s1", "20", 1))
			So(err, ShouldBeNil)
		})
	})
}

func TestParseWinDate(t *testing.T) {
	Convey("parseWinDate accepts the known layouts", t, func() {
		So(parseWinDate("2026-03-01T10:00:00Z").Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)), ShouldBeTrue)
		So(parseWinDate("2026-03-01T10:00:00").Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)), ShouldBeTrue)
		So(parseWinDate(" 2026-03-01 ").Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		So(parseWinDate("03/01/2026").IsZero(), ShouldBeTrue)
		So(parseWinDate("").IsZero(), ShouldBeTrue)
	})
}

func TestVote(t *testing.T) {
	Convey("Given a recorded win", t, func() {
		ctx := context.Background()
		s := newTestService(t)
		seedStores(ctx, s)
		So(s.Start(ctx), ShouldBeNil)
		Reset(s.Stop)
		_, err := s.SubmitWin(ctx, win("w1", "s1", "100", 1))
		So(err, ShouldBeNil)

		Convey("Ten upvotes verify it", func() {
			var rec model.WinRecord
			for i := 0; i < 10; i++ {
				rec, err = s.Vote(ctx, "w1", true)
				So(err, ShouldBeNil)
			}
			So(rec.Upvotes, ShouldEqual, 10)
			So(rec.Verified, ShouldBeTrue)
		})

		Convey("Voting on an unknown win is not found", func() {
			_, err := s.Vote(ctx, "missing", true)
			So(errors.Is(err, repository.ErrWinNotFound), ShouldBeTrue)
		})
	})
}

func TestHotStores(t *testing.T) {
	Convey("Given three ranked stores", t, func() {
		ctx := context.Background()
		s := newTestService(t)
		seedStores(ctx, s)
		So(s.Start(ctx), ShouldBeNil)
		Reset(s.Stop)

		for _, w := range []types.WinSubmission{
			win("a1", "s1", "5000", 1),
			win("a2", "s1", "2000", 2),
			win("b1", "s2", "500", 3),
			win("c1", "s3", "50000", 1),
			win("c2", "s3", "50000", 2),
			win("c3", "s3", "50000", 3),
		} {
			_, err := s.SubmitWin(ctx, w)
			So(err, ShouldBeNil)
		}
		So(waitRanked(ctx, s, 3), ShouldBeTrue)
		So(s.Refresh(ctx), ShouldBeNil)

		Convey("Without a filter they come back by score", func() {
			rows, err := s.HotStores(ctx, 10, nil)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 3)
			So(rows[0].StoreID, ShouldEqual, "s3")
			for i := 1; i < len(rows); i++ {
				So(rows[i-1].Score, ShouldBeGreaterThanOrEqualTo, rows[i].Score)
			}
			So(rows[0].DistanceKM, ShouldBeNil)
		})

		Convey("The limit caps the result", func() {
			rows, err := s.HotStores(ctx, 1, nil)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
		})

		Convey("A radius keeps nearby stores with global ranks", func() {
			rows, err := s.HotStores(ctx, 10, &GeoFilter{Latitude: 40.0, Longitude: -75.0, RadiusKM: 25})
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			for _, r := range rows {
				So(r.StoreID, ShouldNotEqual, "s3")
				So(r.Rank, ShouldBeGreaterThan, 1)
				So(r.DistanceKM, ShouldNotBeNil)
				So(*r.DistanceKM, ShouldBeLessThanOrEqualTo, 25)
			}
		})

		Convey("Bad arguments are rejected", func() {
			_, err := s.HotStores(ctx, 0, nil)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			_, err = s.HotStores(ctx, 5, &GeoFilter{Latitude: 91, Longitude: 0, RadiusKM: 1})
			So(errors.Is(err, ErrInvalidGeo), ShouldBeTrue)
			_, err = s.HotStores(ctx, 5, &GeoFilter{Latitude: 0, Longitude: 0, RadiusKM: 0})
			So(errors.Is(err, ErrInvalidGeo), ShouldBeTrue)
		})

		Convey("Unranked stores are not found", func() {
			_, err := s.StoreRank(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestRefreshDecay(t *testing.T) {
	Convey("Refresh republishes scores against the current clock", t, func() {
		ctx := context.Background()
		now := fixedNow
		s := newTestService(t, WithClock(func() time.Time { return now }))
		seedStores(ctx, s)
		So(s.Start(ctx), ShouldBeNil)
		Reset(s.Stop)

		_, err := s.SubmitWin(ctx, win("w1", "s1", "10", 1))
		So(err, ShouldBeNil)
		So(waitRanked(ctx, s, 1), ShouldBeTrue)
		So(s.Refresh(ctx), ShouldBeNil)
		before, err := s.StoreRank(ctx, "s1")
		So(err, ShouldBeNil)
		So(before.RecentWins, ShouldEqual, 1)

		now = fixedNow.AddDate(0, 0, 60)
		So(s.Refresh(ctx), ShouldBeNil)
		after, err := s.StoreRank(ctx, "s1")
		So(err, ShouldBeNil)
		So(after.RecentWins, ShouldEqual, 0)
		So(after.Score, ShouldBeLessThan, before.Score)
	})
}

func TestRecommendAndAnalyze(t *testing.T) {
	Convey("Given a game snapshot", t, func() {
		ctx := context.Background()
		s := newTestService(t)
		So(s.ReplaceGames(ctx, []model.Game{
			{ID: "cheap", Name: "Cheap", Price: decimal.NewFromInt(1), OverallOdds: 4, PrizeTiers: []model.PrizeTier{
				tier("1", 400, 300), tier("5", 50, 40), tier("100", 2, 1),
			}},
			{ID: "big", Name: "Big", Price: decimal.NewFromInt(30), OverallOdds: 3, PrizeTiers: []model.PrizeTier{
				tier("30", 1000, 900), tier("10000000", 2, 2),
			}},
			{ID: "broken", Name: "Broken", Price: decimal.NewFromInt(2), OverallOdds: 0.5, PrizeTiers: []model.PrizeTier{
				tier("10", 5, 5),
			}},
		}), ShouldBeNil)

		Convey("Recommend keeps affordable usable games", func() {
			recs, err := s.Recommend(ctx, decimal.NewFromInt(10))
			So(err, ShouldBeNil)
			So(recs.Len(), ShouldEqual, 1)

			recs, err = s.Recommend(ctx, decimal.NewFromInt(50))
			So(err, ShouldBeNil)
			So(recs.Len(), ShouldEqual, 2)
			So(len(recs.Insane), ShouldEqual, 1)
			So(recs.Insane[0].Game.ID, ShouldEqual, "big")
		})

		Convey("A non-positive budget is rejected", func() {
			_, err := s.Recommend(ctx, decimal.Zero)
			So(errors.Is(err, ErrInvalidBudget), ShouldBeTrue)
		})

		Convey("Analyze reports win chance and stake", func() {
			a, err := s.Analyze(ctx, "cheap", 3, decimal.NewFromInt(100))
			So(err, ShouldBeNil)
			So(a.Tickets, ShouldEqual, 3)
			So(a.WinChance, ShouldBeGreaterThan, 0)
			So(a.WinChance, ShouldBeLessThanOrEqualTo, 1)
			So(a.SuggestedStake, ShouldNotBeNil)
			So(a.SuggestedStake.IsNegative(), ShouldBeFalse)

			one, err := s.Analyze(ctx, "cheap", 0, decimal.Zero)
			So(err, ShouldBeNil)
			So(one.Tickets, ShouldEqual, 1)
			So(one.SuggestedStake, ShouldBeNil)
			So(a.WinChance, ShouldBeGreaterThan, one.WinChance)
		})

		Convey("Analyze separates unknown from unusable games", func() {
			_, err := s.Analyze(ctx, "missing", 1, decimal.Zero)
			So(errors.Is(err, repository.ErrGameNotFound), ShouldBeTrue)
			_, err = s.Analyze(ctx, "broken", 1, decimal.Zero)
			So(errors.Is(err, ErrUnusableGame), ShouldBeTrue)
		})

		Convey("ReplaceGames rejects missing and duplicate ids", func() {
			So(errors.Is(s.ReplaceGames(ctx, []model.Game{{ID: " "}}), ErrInvalidGame), ShouldBeTrue)
			So(errors.Is(s.ReplaceGames(ctx, []model.Game{{ID: "x"}, {ID: "x"}}), ErrInvalidGame), ShouldBeTrue)
		})
	})
}

func TestUpsertStores(t *testing.T) {
	Convey("UpsertStores validates before writing", t, func() {
		ctx := context.Background()
		s := newTestService(t)

		n, err := s.UpsertStores(ctx, []model.StoreLocation{{ID: "a", Latitude: 1, Longitude: 1}})
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 1)

		n, err = s.UpsertStores(ctx, []model.StoreLocation{{ID: "a", Latitude: 2, Longitude: 2}})
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 0)

		_, err = s.UpsertStores(ctx, []model.StoreLocation{{ID: "b", Latitude: 100}})
		So(errors.Is(err, ErrInvalidStore), ShouldBeTrue)
		_, err = s.UpsertStores(ctx, []model.StoreLocation{{ID: ""}})
		So(errors.Is(err, ErrInvalidStore), ShouldBeTrue)

		stores, _, _ := s.catalog.Counts(ctx)
		So(stores, ShouldEqual, 1)
	})
}

func TestDistanceKM(t *testing.T) {
	Convey("DistanceKM is the haversine distance", t, func() {
		So(DistanceKM(40, -75, 40, -75), ShouldEqual, 0)
		So(DistanceKM(40.0, -75.0, 41.0, -75.0), ShouldAlmostEqual, 111.19, 0.01)
		So(DistanceKM(0, 0, 0, 180), ShouldAlmostEqual, 20015.1, 0.1)
		So(DistanceKM(10, 20, 30, 40), ShouldAlmostEqual, DistanceKM(30, 40, 10, 20), 1e-9)
	})
}
