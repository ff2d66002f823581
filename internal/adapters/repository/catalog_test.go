package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/lottoheat/internal/adapters/repository"
	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func win(id, store string, amount int64) model.WinRecord {
	return model.WinRecord{
		ID:          id,
		StoreID:     store,
		GameID:      "g1",
		GameName:    "Lucky 7s",
		PrizeAmount: decimal.NewFromInt(amount),
		WinDate:     time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCatalog_Stores(t *testing.T) {
	Convey("Given a catalog with stores", t, func() {
		ctx := context.Background()
		c := repository.NewCatalog()
		added := c.UpsertStores(ctx, []model.StoreLocation{
			{ID: "s2", Name: "Corner Mart", Category: model.CategoryConvenience},
			{ID: "s1", Name: "Fuel Stop", Category: model.CategoryGasStation},
		})
		So(added, ShouldEqual, 2)

		Convey("Then stores are listed by id", func() {
			stores := c.Stores(ctx)
			So(len(stores), ShouldEqual, 2)
			So(stores[0].ID, ShouldEqual, "s1")
		})

		Convey("Then re-upserting replaces without counting as new", func() {
			So(c.UpsertStores(ctx, []model.StoreLocation{{ID: "s1", Name: "Fuel Stop 2"}}), ShouldEqual, 0)
			s, err := c.Store(ctx, "s1")
			So(err, ShouldBeNil)
			So(s.Name, ShouldEqual, "Fuel Stop 2")
		})

		Convey("Then unknown stores are reported", func() {
			_, err := c.Store(ctx, "nope")
			So(err, ShouldEqual, repository.ErrStoreNotFound)
		})
	})
}

func TestCatalog_Games(t *testing.T) {
	Convey("Given a game snapshot", t, func() {
		ctx := context.Background()
		c := repository.NewCatalog()
		c.ReplaceGames(ctx, []model.Game{{
			ID:    "g1",
			Price: decimal.NewFromInt(5),
			PrizeTiers: []model.PrizeTier{
				{Amount: decimal.NewFromInt(100), TotalCount: 10, RemainingCount: 5},
			},
		}})

		Convey("Then reads are copies", func() {
			g, err := c.Game(ctx, "g1")
			So(err, ShouldBeNil)
			g.PrizeTiers[0].RemainingCount = 0
			again, _ := c.Game(ctx, "g1")
			So(again.PrizeTiers[0].RemainingCount, ShouldEqual, 5)
		})

		Convey("Then a new snapshot replaces the old one entirely", func() {
			c.ReplaceGames(ctx, []model.Game{{ID: "g2"}})
			_, err := c.Game(ctx, "g1")
			So(err, ShouldEqual, repository.ErrGameNotFound)
			So(len(c.Games(ctx)), ShouldEqual, 1)
		})
	})
}

func TestCatalog_Wins(t *testing.T) {
	Convey("Given win records for two stores", t, func() {
		ctx := context.Background()
		c := repository.NewCatalog()
		So(c.AddWin(ctx, win("w1", "s1", 100)), ShouldBeNil)
		So(c.AddWin(ctx, win("w2", "s1", 5000)), ShouldBeNil)
		So(c.AddWin(ctx, win("w3", "s2", 20)), ShouldBeNil)

		Convey("Then duplicates are refused", func() {
			So(c.AddWin(ctx, win("w1", "s1", 1)), ShouldEqual, repository.ErrDuplicateWin)
		})

		Convey("Then records are grouped by store in submission order", func() {
			wins, _ := c.WinsForStore(ctx, "s1")
			So(len(wins), ShouldEqual, 2)
			So(wins[0].ID, ShouldEqual, "w1")
			So(c.StoreIDsWithWins(ctx), ShouldResemble, []string{"s1", "s2"})
		})

		Convey("Then every change to a store raises its version", func() {
			_, v1 := c.WinsForStore(ctx, "s1")
			_, other := c.WinsForStore(ctx, "s2")
			So(v1, ShouldBeGreaterThan, uint64(0))

			So(c.AddWin(ctx, win("w4", "s1", 7)), ShouldBeNil)
			_, v2 := c.WinsForStore(ctx, "s1")
			So(v2, ShouldBeGreaterThan, v1)

			_, _, err := c.Vote(ctx, "w4", true)
			So(err, ShouldBeNil)
			_, v3 := c.WinsForStore(ctx, "s1")
			So(v3, ShouldBeGreaterThan, v2)

			c.RemoveWin(ctx, "w4")
			_, v4 := c.WinsForStore(ctx, "s1")
			So(v4, ShouldBeGreaterThan, v3)

			_, again := c.WinsForStore(ctx, "s2")
			So(again, ShouldEqual, other)

			_, none := c.WinsForStore(ctx, "unknown")
			So(none, ShouldEqual, uint64(0))
		})

		Convey("Then removing a record undoes the add", func() {
			c.RemoveWin(ctx, "w3")
			So(c.StoreIDsWithWins(ctx), ShouldResemble, []string{"s1"})
			_, err := c.Win(ctx, "w3")
			So(err, ShouldEqual, repository.ErrWinNotFound)
			_, _, wins := c.Counts(ctx)
			So(wins, ShouldEqual, 2)
		})

		Convey("Then votes verify a record exactly once", func() {
			var became int
			for i := 0; i < 12; i++ {
				_, verified, err := c.Vote(ctx, "w1", true)
				So(err, ShouldBeNil)
				if verified {
					became++
				}
			}
			w, _ := c.Win(ctx, "w1")
			So(w.Verified, ShouldBeTrue)
			So(w.Upvotes, ShouldEqual, 12)
			So(became, ShouldEqual, 1)
		})

		Convey("Then voting on an unknown record fails", func() {
			_, _, err := c.Vote(ctx, "nope", true)
			So(err, ShouldEqual, repository.ErrWinNotFound)
		})
	})
}
