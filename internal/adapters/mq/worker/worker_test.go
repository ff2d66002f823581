package worker_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/okian/lottoheat/internal/adapters/mq/queue"
	"github.com/okian/lottoheat/internal/adapters/mq/worker"
	"github.com/okian/lottoheat/internal/adapters/repository"
	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockScorer struct {
	mu     sync.Mutex
	scores map[string]float64
	errs   map[string]error
}

func (ms *mockScorer) Score(_ context.Context, storeID string) (model.StoreHeatScore, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err, ok := ms.errs[storeID]; ok {
		return model.StoreHeatScore{}, err
	}
	return model.StoreHeatScore{StoreID: storeID, Score: ms.scores[storeID]}, nil
}

type recordingUpdater struct {
	mu      sync.Mutex
	updates map[string]float64
	calls   chan string
	err     error
}

func newRecordingUpdater() *recordingUpdater {
	return &recordingUpdater{updates: map[string]float64{}, calls: make(chan string, 64)}
}

func (u *recordingUpdater) Upsert(_ context.Context, h model.StoreHeatScore) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		u.calls <- h.StoreID
		return u.err
	}
	u.updates[h.StoreID] = h.Score
	u.calls <- h.StoreID
	return nil
}

func (u *recordingUpdater) score(id string) (float64, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s, ok := u.updates[id]
	return s, ok
}

func waitCall(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for updater")
		return ""
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker wired to a queue, scorer and updater", t, func() {
		convey.So(logger.Init(logger.WithWriter(io.Discard)), convey.ShouldBeNil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := newMockQueue()
		scorer := &mockScorer{
			scores: map[string]float64{"s1": 42.5},
			errs:   map[string]error{"bad": errors.New("no such store")},
		}
		up := newRecordingUpdater()
		w := worker.NewInMemoryWorker(q, scorer, up, worker.WithName("w-test"))
		go w.Run(ctx)

		convey.Convey("When a job arrives", func() {
			q.jobs <- queue.Job{StoreID: "s1", Reason: queue.ReasonWin, EnqueuedAt: time.Now()}

			convey.Convey("Then the fresh score is upserted", func() {
				convey.So(waitCall(t, up.calls), convey.ShouldEqual, "s1")
				score, ok := up.score("s1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(score, convey.ShouldEqual, 42.5)
			})
		})

		convey.Convey("When scoring fails for one store", func() {
			q.jobs <- queue.Job{StoreID: "bad"}
			q.jobs <- queue.Job{StoreID: "s1"}

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitCall(t, up.calls), convey.ShouldEqual, "s1")
				_, ok := up.score("bad")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it stops promptly", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers over a real queue", t, func() {
		convey.So(logger.Init(logger.WithWriter(io.Discard)), convey.ShouldBeNil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		scorer := &mockScorer{scores: map[string]float64{}, errs: map[string]error{}}
		up := newRecordingUpdater()
		stores := []string{"a", "b", "c", "d", "e"}
		for i, id := range stores {
			scorer.scores[id] = float64(10 * (i + 1))
		}

		pool := worker.NewPool(3, q, scorer, up)
		convey.So(pool.Size(), convey.ShouldEqual, 3)
		pool.Start(ctx)

		for _, id := range stores {
			convey.So(q.Enqueue(ctx, queue.Job{StoreID: id, Reason: queue.ReasonRefresh}), convey.ShouldBeTrue)
		}

		convey.Convey("Then every store is upserted and shutdown drains cleanly", func() {
			seen := map[string]bool{}
			for range stores {
				seen[waitCall(t, up.calls)] = true
			}
			convey.So(len(seen), convey.ShouldEqual, len(stores))
			e, _ := up.score("e")
			convey.So(e, convey.ShouldEqual, 50)

			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		convey.So(logger.Init(logger.WithWriter(io.Discard)), convey.ShouldBeNil)
		pool := worker.NewPool(0, newMockQueue(), &mockScorer{}, newRecordingUpdater())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}

// snapshotScorer hands out ever newer snapshots of s1. The first s1 call
// takes the oldest snapshot and blocks until released.
type snapshotScorer struct {
	mu      sync.Mutex
	calls   int
	stuck   chan struct{}
	release chan struct{}
}

func (sc *snapshotScorer) Score(_ context.Context, storeID string) (model.StoreHeatScore, error) {
	if storeID != "s1" {
		return model.StoreHeatScore{StoreID: storeID, Score: 5, TotalWins: 1, Version: 1}, nil
	}
	sc.mu.Lock()
	sc.calls++
	n := sc.calls
	sc.mu.Unlock()

	h := model.StoreHeatScore{StoreID: storeID, Score: float64(10 * n), TotalWins: n, Version: uint64(n)}
	if n == 1 {
		close(sc.stuck)
		<-sc.release
	}
	return h, nil
}

func eventually(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestPool_SlowRecompute(t *testing.T) {
	convey.Convey("Given two workers and a recompute stuck on an old snapshot", t, func() {
		convey.So(logger.Init(logger.WithWriter(io.Discard)), convey.ShouldBeNil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		sc := &snapshotScorer{stuck: make(chan struct{}), release: make(chan struct{})}
		board := repository.NewTreapStore()
		pool := worker.NewPool(2, q, sc, board)
		pool.Start(ctx)

		convey.So(q.Enqueue(ctx, queue.Job{StoreID: "s1", Reason: queue.ReasonWin}), convey.ShouldBeTrue)
		<-sc.stuck
		convey.So(q.Enqueue(ctx, queue.Job{StoreID: "s1", Reason: queue.ReasonWin}), convey.ShouldBeTrue)
		for _, id := range []string{"a", "b", "c", "d"} {
			convey.So(q.Enqueue(ctx, queue.Job{StoreID: id, Reason: queue.ReasonWin}), convey.ShouldBeTrue)
		}

		convey.Convey("Then the free worker handles every later job", func() {
			convey.So(eventually(t, func() bool { return board.Count(ctx) == 5 }), convey.ShouldBeTrue)
			e, err := board.Rank(ctx, "s1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(e.Heat.Score, convey.ShouldEqual, 20)

			convey.Convey("And the late result does not replace the newer score", func() {
				close(sc.release)
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

				e, err := board.Rank(ctx, "s1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(e.Heat.Score, convey.ShouldEqual, 20)
				convey.So(e.Heat.TotalWins, convey.ShouldEqual, 2)
			})
		})
	})
}

func TestPool_Stop(t *testing.T) {
	convey.Convey("Given a running pool over a queue that is never closed", t, func() {
		convey.So(logger.Init(logger.WithWriter(io.Discard)), convey.ShouldBeNil)
		q := newMockQueue()
		up := newRecordingUpdater()
		pool := worker.NewPool(2, q, &mockScorer{scores: map[string]float64{"s1": 1}}, up)
		pool.Start(context.Background())

		q.jobs <- queue.Job{StoreID: "s1"}
		convey.So(waitCall(t, up.calls), convey.ShouldEqual, "s1")

		convey.Convey("Then Stop ends every worker without closing the queue", func() {
			stopped := make(chan struct{})
			go func() {
				pool.Stop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-time.After(2 * time.Second):
				t.Fatal("pool did not stop")
			}
			convey.So(pool.Active(), convey.ShouldEqual, 0)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}
