package worker_test

import (
	"sort"
	"strconv"
	"testing"

	"github.com/keisan-drill/backend/internal/worker"
)

func TestPool_RunsEveryJob(t *testing.T) {
	pool := worker.NewPool[int](3, 10)

	for i := 0; i < 10; i++ {
		n := i
		pool.Submit(strconv.Itoa(n), func() int { return n * n })
	}

	var got []int
	ids := make(map[string]bool)
	for i := 0; i < 10; i++ {
		res := <-pool.Results()
		got = append(got, res.Output)
		ids[res.JobID] = true
	}
	pool.Close()

	sort.Ints(got)
	for i, v := range got {
		if v != i*i {
			t.Errorf("expected %d at %d, got %d", i*i, i, v)
		}
	}
	if len(ids) != 10 {
		t.Errorf("expected 10 distinct job ids, got %d", len(ids))
	}
}

func TestPool_CloseDrainsAndClosesResults(t *testing.T) {
	pool := worker.NewPool[string](2, 4)
	pool.Submit("a", func() string { return "a" })
	pool.Submit("b", func() string { return "b" })
	pool.Close()
	pool.Close()

	count := 0
	for range pool.Results() {
		count++
	}
	if count != 2 {
		t.Errorf("expected 2 results before close, got %d", count)
	}
}
