// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package stream

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"strconv"
	"testing"
	"time"
)

func TestMap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	double := func(x int) int { return x * 2 }

	// 1. mapping a non-empty source
	{
		src := Range(0, 5)
		src = Map(src, double)
		result, err := ToSlice(ctx, src)
		assertNil(t, "case 1", err)
		assertSlice(t, "case 1", []int{0, 2, 4, 6, 8}, result)
	}

	// 2. mapping an empty source
	{
		src := Map(Empty[int](), double)
		result, err := ToSlice(ctx, src)
		assertNil(t, "case 2", err)
		assertSlice(t, "case 2", []int{}, result)
	}

	// 3. cancelled context
	checkCancelled(t, "case 3", Map(Range(0, 100), double))

	// 4. a panic in the mapping function becomes an error
	{
		src := Map(Of(1, 0, 2), func(x int) int { return 10 / x })
		result, err := ToSlice(ctx, src)
		assertSlice(t, "case 4", []int{10}, result)

		var perr *PanicError
		if !errors.As(err, &perr) {
			t.Fatalf("case 4: expected PanicError, got %v", err)
		}
		var rerr runtime.Error
		if !errors.As(err, &rerr) {
			t.Fatalf("case 4: expected the runtime error to be unwrapped, got %v", err)
		}
	}
}

func TestTryMap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. all items convert
	xs, err := ToSlice(ctx, TryMap(Of("1", "2", "3"), strconv.Atoi))
	assertNil(t, "case 1", err)
	assertSlice(t, "case 1", []int{1, 2, 3}, xs)

	// 2. the first failure terminates the stream and cancels the source
	seen := 0
	src := OnNext(Of("1", "x", "3"), func(string) { seen++ })
	xs, err = ToSlice(ctx, TryMap(src, strconv.Atoi))
	var nerr *strconv.NumError
	if !errors.As(err, &nerr) {
		t.Fatalf("case 2: expected NumError, got %v", err)
	}
	assertSlice(t, "case 2", []int{1}, xs)
	if seen != 2 {
		t.Fatalf("case 2: expected source to stop after 2 items, saw %d", seen)
	}
}

func TestFilter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	isOdd := func(x int) bool { return x%2 != 0 }

	// 1. filtering a non-empty source
	{
		src := Range(0, 5)
		src = Filter(src, isOdd)
		result, err := ToSlice(ctx, src)
		assertNil(t, "case 1", err)
		assertSlice(t, "case 1", []int{1, 3}, result)
	}

	// 2. filtering an empty source
	{
		src := Filter(Empty[int](), isOdd)
		result, err := ToSlice(ctx, src)
		assertNil(t, "case 2", err)
		assertSlice(t, "case 2", []int{}, result)
	}

	// 3. cancelled context
	checkCancelled(t, "case 3", Filter(Range(0, 100), isOdd))
}

func TestReduce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sum := func(result, x int) int { return result + x }

	// 1. Reducing a non-empty source
	{
		src := Range(0, 5)
		src = Reduce(src, 0, sum)
		result, err := ToSlice(ctx, src)
		assertNil(t, "case 1", err)
		assertSlice(t, "case 1", []int{0 + 0 + 1 + 2 + 3 + 4}, result)

		// Each subscription starts from the initial state.
		result, err = ToSlice(ctx, src)
		assertNil(t, "case 1 again", err)
		assertSlice(t, "case 1 again", []int{0 + 0 + 1 + 2 + 3 + 4}, result)
	}

	// 2. Reducing an empty source
	{
		src := Reduce(Empty[int](), 0, sum)
		result, err := ToSlice(ctx, src)
		assertNil(t, "case 2", err)
		assertSlice(t, "case 2", []int{0}, result)
	}

	// 3. cancelled context
	checkCancelled(t, "case 3", Reduce(Range(0, 100), 0, sum))
}

func TestScan(t *testing.T) {
	src := Scan(Range(1, 4), 1, func(x, y int) int {
		return x * y
	})
	xs, err := ToSlice(context.TODO(), src)
	assertNil(t, "Scan", err)
	assertSlice(t, "scan",
		[]int{1 * 1, 1 * 1 * 2, 1 * 1 * 2 * 3},
		xs)
}

func TestZip2(t *testing.T) {
	// 1. Non-empty sources
	src := Zip2(Range(0, 5), Range(5, 10))
	xs, err := ToSlice(context.TODO(), src)
	assertNil(t, "case 1", err)
	assertSlice(t, "case 1",
		[]Tuple2[int, int]{
			{0, 5},
			{1, 6},
			{2, 7},
			{3, 8},
			{4, 9},
		},
		xs)

	// 2. One shorter than the other
	src = Zip2(Range(0, 5), Just(5))
	xs, err = ToSlice(context.TODO(), src)
	assertNil(t, "case 2", err)
	assertSlice(t, "case 2",
		[]Tuple2[int, int]{
			{0, 5},
		},
		xs)

	// 3. One empty
	src = Zip2(Range(0, 5), Empty[int]())
	xs, err = ToSlice(context.TODO(), src)
	assertNil(t, "case 3", err)
	assertSlice(t, "case 3",
		[]Tuple2[int, int]{},
		xs)

	// 4. Cancelled context
	checkCancelled(t, "case 4",
		Map(Zip2(Range(0, 5), Never[int]()), func(t Tuple2[int, int]) int { return t.V1 }),
	)

	// 5. Items pair up in order, different types
	rec := newRecorder[Tuple2[int, string]](t)
	Subscribe(Zip2(Of(1, 2, 3), Of("x", "y")), rec)
	rec.assertCompleted("case 5")
	assertSlice(t, "case 5",
		[]Tuple2[int, string]{{1, "x"}, {2, "y"}},
		rec.items())

	// 6. Error from either source
	errZip := errors.New("zip")
	_, err = ToSlice(context.TODO(), Zip2(Error[int](errZip), Range(0, 5)))
	if !errors.Is(err, errZip) {
		t.Fatalf("case 6: expected %s, got %s", errZip, err)
	}

	// 7. One source running too far ahead
	sums := ZipWithParams(ZipParams{BufferSize: 2}, Range(0, 5), Never[int](),
		func(a, b int) int { return a + b })
	_, err = ToSlice(context.TODO(), sums)
	if !errors.Is(err, ErrZipBufferOverflow) {
		t.Fatalf("case 7: expected ErrZipBufferOverflow, got %s", err)
	}
}

func TestZipAsync(t *testing.T) {
	sch := NewVirtualScheduler()
	in1, in2 := NewSubject[int](), NewSubject[int]()
	rec := newRecorder[int](t)

	Subscribe(ZipWith(Delay(in1, time.Second, sch), in2, func(a, b int) int { return a * b }), rec)
	in1.OnNext(2)
	in1.OnNext(3)
	in2.OnNext(10)
	assertSlice(t, "before delay", []int{}, rec.items())

	sch.AdvanceBy(time.Second)
	assertSlice(t, "after delay", []int{20}, rec.items())

	in2.OnNext(100)
	in2.OnCompleted()
	rec.assertCompleted("zip")
	assertSlice(t, "completed", []int{20, 300}, rec.items())
}

func TestFlatMap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	negated := func(x int) Observable[int] {
		return FromSlice([]int{x, -x})
	}

	// 1. mapping a non-empty source
	{
		src := Range(0, 3)
		src = FlatMap(src, negated)
		result, err := ToSlice(ctx, src)
		assertNil(t, "case 1", err)
		assertSlice(t, "case 1", []int{0, 0, 1, -1, 2, -2}, result)
	}

	// 2. mapping an empty source
	{
		src := FlatMap(Empty[int](), negated)
		result, err := ToSlice(ctx, src)
		assertNil(t, "case 2", err)
		assertSlice(t, "case 2", []int{}, result)
	}

	// 3. cancelled context
	checkCancelled(t, "case 3", FlatMap(Range(0, 100), negated))

	// 4. error from an inner observable
	{
		errInner := errors.New("inner")
		src := FlatMap(Range(0, 3), func(x int) Observable[int] {
			if x == 1 {
				return Error[int](errInner)
			}
			return negated(x)
		})
		result, err := ToSlice(ctx, src)
		if !errors.Is(err, errInner) {
			t.Fatalf("case 4: expected %s, got %s", errInner, err)
		}
		assertSlice(t, "case 4", []int{0, 0}, result)
	}

	// 5. completion waits for the inner observables
	{
		sch := NewVirtualScheduler()
		rec := newRecorder[int](t)
		Subscribe(FlatMap(Of(1, 2), func(x int) Observable[int] {
			return Timer(time.Duration(x)*time.Second, sch, x)
		}), rec)
		rec.assertNotTerminated("case 5")
		sch.AdvanceBy(time.Second)
		rec.assertNotTerminated("case 5")
		sch.AdvanceBy(time.Second)
		rec.assertCompleted("case 5")
		assertSlice(t, "case 5", []int{1, 2}, rec.items())
	}
}

func TestFlatMapLatest(t *testing.T) {
	// 1. items from the previous inner observable are suppressed
	{
		outer := NewSubject[string]()
		inners := map[string]*Subject[int]{
			"a": NewSubject[int](),
			"b": NewSubject[int](),
		}
		rec := newRecorder[int](t)
		Subscribe(FlatMapLatest[string, int](outer, func(key string) Observable[int] {
			return inners[key]
		}), rec)

		outer.OnNext("a")
		inners["a"].OnNext(1)
		outer.OnNext("b")
		inners["a"].OnNext(2)
		inners["b"].OnNext(3)
		outer.OnCompleted()
		rec.assertNotTerminated("case 1")
		inners["a"].OnCompleted()
		rec.assertNotTerminated("case 1")
		inners["b"].OnCompleted()
		rec.assertCompleted("case 1")
		assertSlice(t, "case 1", []int{1, 3}, rec.items())
	}

	// 2. a pending delayed inner observable is cancelled by the next item
	{
		sch := NewVirtualScheduler()
		outer := NewSubject[string]()
		rec := newRecorder[string](t)
		Subscribe(FlatMapLatest[string, string](outer, func(s string) Observable[string] {
			return Delay(Of(s+"1", s+"2"), time.Second, sch)
		}), rec)

		outer.OnNext("a")
		sch.AdvanceBy(500 * time.Millisecond)
		outer.OnNext("b")
		sch.AdvanceBy(2 * time.Second)
		outer.OnCompleted()
		rec.assertCompleted("case 2")
		assertSlice(t, "case 2", []string{"b1", "b2"}, rec.items())
	}

	// 3. error from the current inner observable
	{
		errInner := errors.New("inner")
		src := FlatMapLatest(Of(1, 2), func(x int) Observable[int] {
			if x == 2 {
				return Error[int](errInner)
			}
			return Just(x)
		})
		result, err := ToSlice(context.TODO(), src)
		if !errors.Is(err, errInner) {
			t.Fatalf("case 3: expected %s, got %s", errInner, err)
		}
		assertSlice(t, "case 3", []int{1}, result)
	}

	// 4. cancelled context
	checkCancelled(t, "case 4", FlatMapLatest(Range(0, 100), func(x int) Observable[int] { return Just(x) }))
}

func TestFlatten(t *testing.T) {
	src := FromSlice([][]int{{1, 2}, {3, 4}})
	result, err := ToSlice(context.TODO(), Flatten(src))
	assertNil(t, "ToSlice(Flatten)", err)
	assertSlice(t, "ToSlice(Flatten)", []int{1, 2, 3, 4}, result)
}

func TestConcat(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. successful case
	res1, err := ToSlice(ctx, Concat(Just(1), Just(2), Just(3)))
	if err != nil {
		t.Fatalf("case 1 errored: %s", err)
	}
	assertSlice(t, "case 1", []int{1, 2, 3}, res1)

	// 2. test cancelled concat
	checkCancelled(t, "case 2", Concat(Just(1), Never[int]()))

	// 3. test empty concat
	res3, err := ToSlice(ctx, Concat[int]())
	if err != nil {
		t.Fatalf("case 3 errored: %s", err)
	}
	assertSlice(t, "case 3", []int{}, res3)

	// 4. error stops the concatenation
	errStop := errors.New("stop")
	res4, err := ToSlice(ctx, Concat(Just(1), Error[int](errStop), Just(3)))
	if !errors.Is(err, errStop) {
		t.Fatalf("case 4: expected %s, got %s", errStop, err)
	}
	assertSlice(t, "case 4", []int{1}, res4)
}

func TestMerge(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expected := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}

	in1 := FromSlice(expected[0:3])
	in2 := FromSlice(expected[3:6])
	in3 := FromSlice(expected[6:9])

	// 1. successful merge
	out1, err := ToSlice(ctx, Merge(in1, in2, in3))
	assertNil(t, "case 1", err)
	// items are observed in non-deterministic order, so we'll
	// need to sort first to verify.
	sort.Slice(out1, func(i, j int) bool { return out1[i] < out1[j] })
	assertSlice(t, "case 1", expected, out1)

	// 2. downstream disposes after the first item
	{
		subCtx, subCancel := context.WithCancel(ctx)
		got := []int{}
		SubscribeContext(subCtx, Merge(in1, in2, in3), ObserverFuncs[int]{
			Next: func(x int) {
				got = append(got, x)
				subCancel()
			},
		})
		assertSlice(t, "case 2", []int{1}, got)
	}

	// 3. upstream error
	stopErr := errors.New("stop")
	_, err = ToSlice(ctx, Merge(in1, Error[int](stopErr)))
	if !errors.Is(err, stopErr) {
		t.Fatalf("expected upstream error %s, got %s", stopErr, err)
	}

	// 4. merging concurrent sources
	{
		deferred := NewDeferredScheduler()
		srcs := []Observable[int]{
			Delay(in1, time.Millisecond, deferred),
			Delay(in2, time.Millisecond, deferred),
			Delay(in3, time.Millisecond, deferred),
		}
		out, err := ToSlice(ctx, Merge(srcs...))
		assertNil(t, "case 4", err)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		assertSlice(t, "case 4", expected, out)
	}

	// 5. cancelled context
	cancel()
	_, err = ToSlice(ctx, Merge(in1, in2, in3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Canceled error, got %s", err)
	}
}

func TestThrottle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	waitMillis := 20
	go func() {
		time.Sleep(time.Duration(waitMillis) * time.Millisecond)
		cancel()
	}()

	ratePerSecond := 2000.0
	values, err := ToSlice(ctx, Throttle(Range(0, 100000), ratePerSecond, 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Canceled error, got %s", err)
	}

	expectedLen := int(float64(waitMillis) / 1000.0 * ratePerSecond)

	lenDiff := len(values) - expectedLen
	if lenDiff < 0 {
		lenDiff *= -1
	}
	// Check that we're within 20%
	if lenDiff > expectedLen/5 {
		t.Fatalf("expected ~%d values, got %d, diff: %d", expectedLen, len(values), lenDiff)
	}
}

func TestDelay(t *testing.T) {
	// 1. wall clock
	{
		t0 := time.Now()
		delay := 10 * time.Millisecond
		_, err := First(context.TODO(), Delay(Just(1), delay, NewDeferredScheduler()))
		t1 := time.Now()
		assertNil(t, "case 1", err)

		tdiff := t1.Sub(t0)
		if tdiff < delay || tdiff > 20*delay {
			t.Fatalf("expected delay of ~%s, got %s", delay, tdiff)
		}
	}

	// 2. every event, terminal ones included, is shifted
	{
		sch := NewVirtualScheduler()
		errLate := errors.New("late")
		rec := newRecorder[int](t)
		Subscribe(Delay(Concat(Of(1, 2), Error[int](errLate)), time.Second, sch), rec)

		sch.AdvanceBy(999 * time.Millisecond)
		assertSlice(t, "case 2 early", []int{}, rec.items())
		rec.assertNotTerminated("case 2 early")

		sch.AdvanceBy(time.Millisecond)
		assertSlice(t, "case 2", []int{1, 2}, rec.items())
		rec.assertError("case 2", errLate)
	}

	// 3. disposing cancels pending emissions
	{
		sch := NewVirtualScheduler()
		rec := newRecorder[int](t)
		d := Subscribe(Delay(Of(1, 2, 3), time.Second, sch), rec)
		d.Dispose()
		sch.AdvanceBy(2 * time.Second)
		assertSlice(t, "case 3", []int{}, rec.items())
		rec.assertNotTerminated("case 3")
	}

	// 4. order is kept when the scheduler runs actions concurrently
	{
		xs, err := ToSlice(context.TODO(), Delay(Range(0, 100), time.Millisecond, NewDeferredScheduler()))
		assertNil(t, "case 4", err)
		expected, _ := ToSlice(context.TODO(), Range(0, 100))
		assertSlice(t, "case 4", expected, xs)
	}
}

func TestObserveOnSubscribeOn(t *testing.T) {
	ui := NewSerialScheduler()
	defer ui.Close()

	// 1. delivery moves onto the serial scheduler, order kept
	xs, err := ToSlice(context.TODO(), ObserveOn(Range(0, 50), ui))
	assertNil(t, "ObserveOn", err)
	expected, _ := ToSlice(context.TODO(), Range(0, 50))
	assertSlice(t, "ObserveOn", expected, xs)

	// 2. nothing is delivered before the scheduler gets to it
	block := make(chan struct{})
	ui.Schedule(func() { <-block }, 0)
	rec := newRecorder[int](t)
	Subscribe(ObserveOn(Just(1), ui), rec)
	assertSlice(t, "ObserveOn blocked", []int{}, rec.items())
	close(block)
	rec.wait("ObserveOn unblocked")
	assertSlice(t, "ObserveOn unblocked", []int{1}, rec.items())

	// 3. blocking production runs on the scheduler
	in := make(chan int)
	rec2 := newRecorder[int](t)
	Subscribe(SubscribeOn(FromChannel(in), NewDeferredScheduler()), rec2)
	in <- 1
	in <- 2
	close(in)
	rec2.wait("SubscribeOn")
	rec2.assertCompleted("SubscribeOn")
	assertSlice(t, "SubscribeOn", []int{1, 2}, rec2.items())
}

func TestDo(t *testing.T) {
	var kinds []EventKind
	tap := EventObserver[int](func(ev Event[int]) { kinds = append(kinds, ev.Kind()) })

	xs, err := ToSlice(context.TODO(), Do[int](Of(1, 2), tap))
	assertNil(t, "Do", err)
	assertSlice(t, "Do", []int{1, 2}, xs)
	assertSlice(t, "Do kinds", []EventKind{KindNext, KindNext, KindCompleted}, kinds)
}

func TestTakeSkip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skippedSrc := Skip(10, Range(0, 20))
	skipped, err := ToSlice(ctx, skippedSrc)
	assertNil(t, "ToSlice", err)
	expected, err := ToSlice(ctx, Range(10, 20))
	assertNil(t, "ToSlice", err)
	assertSlice(t, "skip 10", expected, skipped)

	takenSrc := Take(5, skippedSrc)
	expected, err = ToSlice(ctx, Range(10, 15))
	assertNil(t, "ToSlice", err)

	taken1, err := ToSlice(ctx, takenSrc)
	assertNil(t, "ToSlice", err)
	assertSlice(t, "skip 10, take 5", expected, taken1)

	taken2, err := ToSlice(ctx, takenSrc)
	assertNil(t, "ToSlice", err)
	assertSlice(t, "skip 10, take 5", expected, taken2)

	taken3, err := ToSlice(ctx, Take(5, Concat(Range(0, 5), Never[int]())))
	assertNil(t, "ToSlice", err)
	assertSlice(t, "take 5 of 5", []int{0, 1, 2, 3, 4}, taken3)
}

func TestTakeWhile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pred := func(x int) bool { return x < 5 }

	xs, err := ToSlice(ctx, TakeWhile(pred, Range(0, 100)))
	assertNil(t, "ToSlice+TakeWhile+Range", err)
	assertSlice(t, "TakeWhile < 5", []int{0, 1, 2, 3, 4}, xs)

	xs, err = ToSlice(ctx, TakeWhile(pred, Empty[int]()))
	assertNil(t, "ToSlice+TakeWhile+Empty", err)
	assertSlice(t, "TakeWhile of Empty", []int{}, xs)

	cancel()
	xs, err = ToSlice(ctx, TakeWhile(pred, Never[int]()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Canceled, got %s", err)
	}
	assertSlice(t, "TakeWhile of cancelled Never", []int{}, xs)
}

func TestAsSingle(t *testing.T) {
	ctx := context.TODO()

	// 1. exactly one
	xs, err := ToSlice(ctx, AsSingle(Just(1)))
	assertNil(t, "case 1", err)
	assertSlice(t, "case 1", []int{1}, xs)

	// 2. none
	_, err = ToSlice(ctx, AsSingle(Empty[int]()))
	if !errors.Is(err, ErrSequenceEmpty) {
		t.Fatalf("case 2: expected ErrSequenceEmpty, got %s", err)
	}

	// 3. more than one
	xs, err = ToSlice(ctx, AsSingle(Of(1, 2, 3)))
	if !errors.Is(err, ErrMoreThanOneElement) {
		t.Fatalf("case 3: expected ErrMoreThanOneElement, got %s", err)
	}
	assertSlice(t, "case 3", []int{}, xs)
}

func TestMaterialize(t *testing.T) {
	errBad := errors.New("bad")
	src := Concat(Of(1, 2), Error[int](errBad))

	events, err := ToSlice(context.TODO(), Materialize(src))
	assertNil(t, "Materialize", err)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %v", events)
	}
	if events[0].Value() != 1 || events[1].Value() != 2 {
		t.Fatalf("unexpected items: %v", events)
	}
	if events[2].Kind() != KindError || !errors.Is(events[2].Err(), errBad) {
		t.Fatalf("expected error event last, got %s", events[2])
	}

	xs, err := ToSlice(context.TODO(), Dematerialize(Materialize(src)))
	if !errors.Is(err, errBad) {
		t.Fatalf("Dematerialize: expected %s, got %s", errBad, err)
	}
	assertSlice(t, "Dematerialize", []int{1, 2}, xs)
}

func TestOperatorFunctionPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Counts the items the source produced so we can check that it was
	// cancelled after the failure.
	var seen int
	source := func() Observable[int] {
		seen = 0
		return Map(Of(5, 0, 2, 1), func(x int) int { seen++; return x })
	}
	checkSeen := func(what string) {
		t.Helper()
		if seen != 2 {
			t.Fatalf("%s: expected source to stop after 2 items, saw %d", what, seen)
		}
	}

	// 1. Reduce
	{
		xs, err := ToSlice(ctx, Reduce(source(), 0, func(acc, x int) int { return acc + 10/x }))
		assertPanicError(t, "Reduce", err)
		assertSlice(t, "Reduce", []int{}, xs)
		checkSeen("Reduce")
	}

	// 2. Scan
	{
		xs, err := ToSlice(ctx, Scan(source(), 0, func(acc, x int) int { return acc + 10/x }))
		assertPanicError(t, "Scan", err)
		assertSlice(t, "Scan", []int{2}, xs)
		checkSeen("Scan")
	}

	// 3. TakeWhile
	{
		xs, err := ToSlice(ctx, TakeWhile(func(x int) bool { return 10/x > 0 }, source()))
		assertPanicError(t, "TakeWhile", err)
		assertSlice(t, "TakeWhile", []int{5}, xs)
		checkSeen("TakeWhile")
	}

	// 4. Do
	{
		sum := 0
		xs, err := ToSlice(ctx, OnNext(source(), func(x int) { sum += 10 / x }))
		assertPanicError(t, "Do", err)
		assertSlice(t, "Do", []int{5}, xs)
		checkSeen("Do")
		if sum != 2 {
			t.Fatalf("Do: expected tap to see 5 only, sum %d", sum)
		}
	}

	// 5. Retry: the original error and the panic are both delivered.
	{
		errFetch := errors.New("fetch")
		zero := 0
		rec := newRecorder[int](t)
		Subscribe(Retry(Error[int](errFetch), func(error) bool { return 10/zero > 0 }), rec)
		rec.wait("Retry")
		rec.assertError("Retry", errFetch)
		ev, _ := rec.terminal()
		assertPanicError(t, "Retry", ev.Err())
	}
}
