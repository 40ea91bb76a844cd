package concurrent

import (
	"sort"
	"testing"

	"lintang/routex/pkg/datastructure"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool(t *testing.T) {
	n := 500
	wp := NewWorkerPool[RouteQuery, int](8, n)
	for i := 0; i < n; i++ {
		wp.AddJob(NewRouteQuery(i, datastructure.NodeID(i), datastructure.NodeID(i+1)))
	}
	wp.Close()
	wp.Start(func(job RouteQuery) int {
		return job.Index * 2
	})
	wp.Wait()

	got := []int{}
	for r := range wp.CollectResults() {
		got = append(got, r)
	}
	sort.Ints(got)

	assert.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, i*2, v)
	}
}

func TestWorkerPoolNoJobs(t *testing.T) {
	wp := NewWorkerPool[WayJob, int](0, 0)
	wp.Close()
	wp.Start(func(job WayJob) int { return job.Index })
	wp.Wait()

	count := 0
	for range wp.CollectResults() {
		count++
	}
	assert.Equal(t, 0, count)
}
