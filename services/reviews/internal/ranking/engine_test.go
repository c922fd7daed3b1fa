package ranking

import (
	"math"
	"math/rand"
	"testing"
)

func newTestEngine() *Engine {
	return NewEngine(Config{PriorMean: 3.0, PriorWeight: 5.0})
}

func TestScore_ZeroCountEqualsPriorMean(t *testing.T) {
	e := newTestEngine()
	if got := e.Score(0, 0); got != 3.0 {
		t.Fatalf("expected prior mean 3.0 for unrated item, got %v", got)
	}
}

func TestScore_SingleFiveStarScenario(t *testing.T) {
	// m=3.0, C=5: one 5-star review -> (5*3.0 + 5) / (5 + 1) = 3.333...
	e := newTestEngine()
	got := e.Score(1, 5)
	want := (5*3.0 + 5) / (5 + 1)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got >= 3.34 || got <= 3.33 {
		t.Fatalf("expected score ~3.33, got %v", got)
	}
}

func TestScore_ConvergesToObservedMean(t *testing.T) {
	e := newTestEngine()
	const r = 4.2
	prev := math.Abs(e.Score(1, r*1) - r)
	for _, n := range []int{10, 100, 10000} {
		diff := math.Abs(e.Score(n, r*float64(n)) - r)
		if diff >= prev {
			t.Fatalf("score did not move toward observed mean at n=%d: diff %v >= %v", n, diff, prev)
		}
		prev = diff
	}
	if prev > 0.01 {
		t.Fatalf("score still %v away from observed mean at n=10000", prev)
	}
}

func TestQuery_UnknownGenreIsEmpty(t *testing.T) {
	e := newTestEngine()
	e.OnAggregateChanged("item-1", "fantasy", 2, 9)

	if got := e.Query("horror", 10, 0); len(got) != 0 {
		t.Fatalf("expected empty result for unknown genre, got %d entries", len(got))
	}
	if got := e.Query("", 10, 0); len(got) != 0 {
		t.Fatalf("expected empty result for empty genre, got %d entries", len(got))
	}
}

func TestOnAggregateChanged_OrdersByScoreThenCountThenID(t *testing.T) {
	e := newTestEngine()
	// same score for b and c via identical stats; tie broken by id asc
	e.OnAggregateChanged("item-b", "fantasy", 2, 8)
	e.OnAggregateChanged("item-c", "fantasy", 2, 8)
	e.OnAggregateChanged("item-a", "fantasy", 10, 50) // highest score

	got := e.Query("fantasy", 10, 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].ItemID != "item-a" || got[1].ItemID != "item-b" || got[2].ItemID != "item-c" {
		t.Fatalf("unexpected order: %s, %s, %s", got[0].ItemID, got[1].ItemID, got[2].ItemID)
	}
}

func TestOnAggregateChanged_CountBreaksScoreTie(t *testing.T) {
	e := NewEngine(Config{PriorMean: 3.0, PriorWeight: 0})
	// both average 4.0 -> equal score with zero prior weight; more ratings wins
	e.OnAggregateChanged("item-few", "scifi", 2, 8)
	e.OnAggregateChanged("item-many", "scifi", 10, 40)

	got := e.Query("scifi", 10, 0)
	if got[0].ItemID != "item-many" {
		t.Fatalf("expected item-many first on count tie-break, got %s", got[0].ItemID)
	}
}

func TestOnAggregateChanged_RepositionsExistingItem(t *testing.T) {
	e := newTestEngine()
	e.OnAggregateChanged("item-a", "fantasy", 5, 25) // strong
	e.OnAggregateChanged("item-b", "fantasy", 5, 10) // weak

	// item-b surges past item-a
	e.OnAggregateChanged("item-b", "fantasy", 50, 250)

	got := e.Query("fantasy", 10, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after reposition, got %d", len(got))
	}
	if got[0].ItemID != "item-b" {
		t.Fatalf("expected item-b first after reposition, got %s", got[0].ItemID)
	}
	if e.Len("fantasy") != 2 {
		t.Fatalf("reposition duplicated entry: len=%d", e.Len("fantasy"))
	}
}

func TestOnAggregateChanged_MaintainsOverallBucket(t *testing.T) {
	e := newTestEngine()
	e.OnAggregateChanged("item-a", "fantasy", 1, 5)
	e.OnAggregateChanged("item-b", "horror", 1, 4)

	if e.Len(Overall) != 2 {
		t.Fatalf("expected overall bucket of 2, got %d", e.Len(Overall))
	}
	if e.Len("fantasy") != 1 || e.Len("horror") != 1 {
		t.Fatalf("expected genre buckets of 1 each, got %d/%d", e.Len("fantasy"), e.Len("horror"))
	}
}

func TestRemove_DropsFromBothBuckets(t *testing.T) {
	e := newTestEngine()
	e.OnAggregateChanged("item-a", "fantasy", 1, 5)
	e.Remove("item-a", "fantasy")

	if e.Len(Overall) != 0 || e.Len("fantasy") != 0 {
		t.Fatalf("expected empty buckets after remove, got overall=%d fantasy=%d", e.Len(Overall), e.Len("fantasy"))
	}
}

func TestQuery_LimitOffsetSlicing(t *testing.T) {
	e := newTestEngine()
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		e.OnAggregateChanged("item-"+id, "fantasy", 10, float64(50-i*5))
	}

	page := e.Query("fantasy", 2, 2)
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
	if page[0].ItemID != "item-c" || page[1].ItemID != "item-d" {
		t.Fatalf("unexpected page contents: %s, %s", page[0].ItemID, page[1].ItemID)
	}

	if got := e.Query("fantasy", 10, 99); len(got) != 0 {
		t.Fatalf("expected empty page past end, got %d", len(got))
	}
}

func TestDeterminism_SameHistorySameBuckets(t *testing.T) {
	type event struct {
		id    string
		genre string
		count int
		sum   float64
	}

	rng := rand.New(rand.NewSource(7))
	genres := []string{"fantasy", "horror", "scifi"}
	var history []event
	for i := 0; i < 500; i++ {
		id := string(rune('a' + rng.Intn(20)))
		n := rng.Intn(50)
		history = append(history, event{
			id:    "item-" + id,
			genre: genres[rng.Intn(len(genres))],
			count: n,
			sum:   float64(n) * (1 + 4*rng.Float64()),
		})
	}

	e1 := newTestEngine()
	e2 := newTestEngine()
	for _, ev := range history {
		e1.OnAggregateChanged(ev.id, ev.genre, ev.count, ev.sum)
		e2.OnAggregateChanged(ev.id, ev.genre, ev.count, ev.sum)
	}

	for _, g := range append(genres, Overall) {
		b1 := e1.Query(g, 1000, 0)
		b2 := e2.Query(g, 1000, 0)
		if len(b1) != len(b2) {
			t.Fatalf("bucket %q sizes differ: %d vs %d", g, len(b1), len(b2))
		}
		for i := range b1 {
			if b1[i] != b2[i] {
				t.Fatalf("bucket %q diverges at %d: %+v vs %+v", g, i, b1[i], b2[i])
			}
		}
	}
}

func TestBuckets_StrictTotalOrder(t *testing.T) {
	e := newTestEngine()
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		n := rng.Intn(10)
		e.OnAggregateChanged(
			"item-"+string(rune('a'+i%26))+string(rune('a'+i/26)),
			"fantasy", n, float64(n)*(1+4*rng.Float64()))
	}

	b := e.Query("fantasy", 1000, 0)
	for i := 1; i < len(b); i++ {
		if !ranksBefore(b[i-1], b[i]) {
			t.Fatalf("order violated between %d and %d: %+v then %+v", i-1, i, b[i-1], b[i])
		}
		if ranksBefore(b[i], b[i-1]) {
			t.Fatalf("order not antisymmetric at %d", i)
		}
	}
}
