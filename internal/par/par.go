/*
Copyright © 2019 the colrad authors.
This file is part of colrad.

colrad is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

colrad is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with colrad.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package par runs index-space loops across all available processors.
// Every loop returns only after all of its iterations have finished.
package par

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// For calls f(i) for every i in [0, n). Iterations are striped across
// runtime.GOMAXPROCS(0) goroutines in an unspecified order.
func For(n int, f func(i int)) {
	if n <= 0 {
		return
	}
	nprocs := runtime.GOMAXPROCS(0) // number of processors
	if nprocs > n {
		nprocs = n
	}
	if nprocs == 1 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			for ii := pp; ii < n; ii += nprocs {
				f(ii)
			}
			wg.Done()
		}(pp)
	}
	wg.Wait()
}

// For2 calls f(i, j) for every pair in [0, n1) x [0, n2).
func For2(n1, n2 int, f func(i, j int)) {
	For(n1*n2, func(ii int) {
		f(ii/n2, ii%n2)
	})
}

// For3 calls f(i, j, k) for every triple in [0, n1) x [0, n2) x [0, n3).
func For3(n1, n2, n3 int, f func(i, j, k int)) {
	For(n1*n2*n3, func(ii int) {
		f(ii/(n2*n3), (ii/n3)%n2, ii%n3)
	})
}

// AtomicAdd adds v to *addr, safely under concurrent callers that
// also use AtomicAdd on the same address.
func AtomicAdd(addr *float64, v float64) {
	p := (*uint64)(unsafe.Pointer(addr))
	for {
		old := atomic.LoadUint64(p)
		sum := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(p, old, sum) {
			return
		}
	}
}
