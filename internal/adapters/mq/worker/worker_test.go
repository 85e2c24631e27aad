package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtside/internal/adapters/mq/queue"
	"github.com/okian/courtside/internal/adapters/mq/worker"
	"github.com/okian/courtside/internal/domain/model"
	logging "github.com/okian/courtside/pkg/logger"
)

type mockStore struct {
	mu      sync.Mutex
	results map[string]model.Result
	err     error
}

func newMockStore() *mockStore {
	return &mockStore{results: make(map[string]model.Result)}
}

func (s *mockStore) Replace(_ context.Context, r *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.results[r.GameID] = *r
	return nil
}

func (s *mockStore) get(id string) (model.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	return r, ok
}

func succeed(_ context.Context, g model.Game) model.Result {
	return model.Result{GameID: g.GameID, Status: model.StatusSuccess, Digest: "out-" + g.GameID}
}

func panics(context.Context, model.Game) model.Result {
	panic("boom")
}

func waitsForDeadline(ctx context.Context, g model.Game) model.Result {
	<-ctx.Done()
	return model.Result{GameID: g.GameID, Status: model.StatusFailed, Err: ctx.Err().Error()}
}

func job(id string) queue.Job {
	return queue.Job{Game: model.Game{GameID: id}, Digest: "in-" + id, RunID: "run-1"}
}

func collect(n int) (worker.CompletionFunc, func(time.Duration) []model.Result) {
	ch := make(chan model.Result, n)
	fn := func(_ *queue.Job, r *model.Result) { ch <- *r }
	wait := func(timeout time.Duration) []model.Result {
		var out []model.Result
		deadline := time.After(timeout)
		for len(out) < n {
			select {
			case r := <-ch:
				out = append(out, r)
			case <-deadline:
				return out
			}
		}
		return out
	}
	return fn, wait
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		store := newMockStore()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When a game reconstructs cleanly", func() {
			done, wait := collect(1)
			w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(succeed), store,
				worker.WithName("test-worker"), worker.WithCompletion(done))
			go w.Run(ctx)
			q.Enqueue(ctx, job("g1"))
			results := wait(time.Second)

			convey.Convey("Then the result is persisted and reported with the run id", func() {
				convey.So(results, convey.ShouldHaveLength, 1)
				convey.So(results[0].RunID, convey.ShouldEqual, "run-1")
				convey.So(results[0].Digest, convey.ShouldEqual, "out-g1")
				stored, ok := store.get("g1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(stored.Status, convey.ShouldEqual, model.StatusSuccess)
			})
		})

		convey.Convey("When reconstruction panics", func() {
			done, wait := collect(1)
			w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(panics), store, worker.WithCompletion(done))
			go w.Run(ctx)
			q.Enqueue(ctx, job("g2"))
			results := wait(time.Second)

			convey.Convey("Then a failed result is produced and the worker keeps running", func() {
				convey.So(results, convey.ShouldHaveLength, 1)
				convey.So(results[0].Status, convey.ShouldEqual, model.StatusFailed)
				convey.So(results[0].Err, convey.ShouldContainSubstring, worker.ErrPanic.Error())
				convey.So(results[0].Report.Status, convey.ShouldEqual, model.StatusFailed)
				convey.So(results[0].Digest, convey.ShouldEqual, "in-g2")
				convey.So(q.Enqueue(ctx, job("g3")), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When reconstruction exceeds the game timeout", func() {
			done, wait := collect(1)
			w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(waitsForDeadline), store,
				worker.WithGameTimeout(20*time.Millisecond), worker.WithCompletion(done))
			go w.Run(ctx)
			q.Enqueue(ctx, job("slow"))
			results := wait(time.Second)

			convey.Convey("Then the game fails with a deadline error", func() {
				convey.So(results, convey.ShouldHaveLength, 1)
				convey.So(results[0].Status, convey.ShouldEqual, model.StatusFailed)
				convey.So(results[0].Err, convey.ShouldContainSubstring, "deadline")
			})
		})

		convey.Convey("When the store rejects the write", func() {
			store.err = errors.New("disk full")
			done, wait := collect(1)
			w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(succeed), store, worker.WithCompletion(done))
			go w.Run(ctx)
			q.Enqueue(ctx, job("g4"))
			results := wait(time.Second)

			convey.Convey("Then the result is still reported", func() {
				convey.So(results, convey.ShouldHaveLength, 1)
				_, ok := store.get("g4")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When shutting down", func() {
			w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(succeed), nil)
			go w.Run(ctx)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.Convey("Then it stops gracefully", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		store := newMockStore()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, worker.ProcessorFunc(succeed), store)

			convey.Convey("Then it has at least one worker", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		convey.Convey("When many games are processed and the pool is shut down", func() {
			const games = 50
			done, wait := collect(games)
			pool := worker.NewPool(4, q, worker.ProcessorFunc(succeed), store, worker.WithCompletion(done))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			for i := 0; i < games; i++ {
				q.Enqueue(ctx, job(fmt.Sprintf("g%02d", i)))
			}
			results := wait(2 * time.Second)
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every game is processed exactly once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(results, convey.ShouldHaveLength, games)
				seen := map[string]bool{}
				for _, r := range results {
					convey.So(seen[r.GameID], convey.ShouldBeFalse)
					seen[r.GameID] = true
				}
				_, ok := store.get("g49")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When stopped twice", func() {
			pool := worker.NewPool(2, q, worker.ProcessorFunc(succeed), store)
			pool.Start(context.Background())

			convey.Convey("Then the second stop is a no-op", func() {
				convey.So(func() { pool.Stop(); pool.Stop() }, convey.ShouldNotPanic)
			})
		})
	})
}
