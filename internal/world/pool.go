package world

import (
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
)

// runParallel выполняет fn(i) для i в [0, n) на пуле из workers горутин
// и возвращается, когда все задачи завершены.
func runParallel(workers, n int, fn func(i int)) {
	if n == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := pond.NewPool(workers)
	defer pool.StopAndWait()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			fn(i)
		})
	}

	wg.Wait()
}

// forEachParallel выполняет fn для каждого чанка на пуле
func forEachParallel(workers int, chunks []*Chunk, fn func(*Chunk)) {
	runParallel(workers, len(chunks), func(i int) {
		fn(chunks[i])
	})
}
