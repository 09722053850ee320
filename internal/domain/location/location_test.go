package location_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/isp/internal/domain/location"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClassifier struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	answers  map[string]string
	fail     map[string]bool
}

func (f *fakeClassifier) Classify(_ context.Context, loc string) (string, error) {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	if f.fail[loc] {
		return "", errors.New("upstream timeout")
	}
	if a, ok := f.answers[loc]; ok {
		return a, nil
	}
	return "Unknown", nil
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func (c *mapCache) Get(_ context.Context, k string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[k]
	return v, ok
}

func (c *mapCache) Put(_ context.Context, k, v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = v
}

func rows(values ...any) []*record.Mapped {
	out := make([]*record.Mapped, len(values))
	for i, v := range values {
		m := record.NewMapped(1)
		m.Set("location", v)
		out[i] = m
	}
	return out
}

func locations(recs []*record.Mapped) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i], _ = r.Get("location")
	}
	return out
}

func TestNormalizer(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	Convey("Given a normalizer with a classifier and a cache", t, func() {
		fc := &fakeClassifier{answers: map[string]string{
			"Austin, TX":     "Texas",
			"New York, NY":   "NewYork",
			"Seattle":        "Washington",
			"Washington, DC": "Washington",
			"Somewhere odd":  "DCish",
		}}
		cache := &mapCache{m: map[string]string{}}
		n := location.NewNormalizer(location.WithClassifier(fc), location.WithCache(cache))

		Convey("When DC spellings are classified", func() {
			recs := rows("DC", "D.C.", "Washington, DC", "district of columbia")
			n.Normalize(ctx, recs, "location")

			Convey("Then all resolve to the DC token whatever the classifier says", func() {
				for _, v := range locations(recs) {
					So(v, ShouldEqual, location.DistrictOfColumbia)
				}
			})
		})

		Convey("When a roster mixes values, duplicates and nulls", func() {
			recs := rows("Austin, TX", nil, "Seattle", "Austin, TX", "Mars Base")
			st := n.Normalize(ctx, recs, "location")

			Convey("Then each distinct value is classified once and order is kept", func() {
				So(st.Distinct, ShouldEqual, 3)
				So(int(fc.calls.Load()), ShouldEqual, 3)
				So(locations(recs), ShouldResemble, []any{"Texas", nil, "Washington", "Texas", "Unknown"})
			})

			Convey("And a second request is served from the cache", func() {
				again := rows("Seattle", "Austin, TX")
				st2 := n.Normalize(ctx, again, "location")
				So(int(fc.calls.Load()), ShouldEqual, 3)
				So(st2.CacheHits, ShouldEqual, 2)
				So(locations(again), ShouldResemble, []any{"Washington", "Texas"})
			})
		})

		Convey("When the classifier answer itself mentions DC", func() {
			recs := rows("Somewhere odd")
			n.Normalize(ctx, recs, "location")
			So(locations(recs)[0], ShouldEqual, location.DistrictOfColumbia)
		})

		Convey("When individual calls fail", func() {
			fc.fail = map[string]bool{"Near DC": true, "Boise": true}
			recs := rows("Near DC", "Boise", "New York, NY")
			st := n.Normalize(ctx, recs, "location")

			Convey("Then the batch completes with heuristic fallbacks", func() {
				So(st.Failures, ShouldEqual, 2)
				So(locations(recs), ShouldResemble, []any{location.DistrictOfColumbia, "Unknown", "NewYork"})
			})
		})

		Convey("When many distinct values need classification", func() {
			var values []any
			for i := range 12 {
				values = append(values, fmt.Sprintf("Town %d", i))
			}
			n.Normalize(ctx, rows(values...), "location")

			Convey("Then no more than a batch of calls is ever in flight", func() {
				So(int(fc.calls.Load()), ShouldEqual, 12)
				So(int(fc.peak.Load()), ShouldBeLessThanOrEqualTo, location.DefaultBatchSize)
			})
		})
	})

	Convey("Given a normalizer without a classifier", t, func() {
		n := location.NewNormalizer()
		recs := rows("Washington, DC", "Ohio ", nil)
		st := n.Normalize(ctx, recs, "location")

		Convey("Then only DC spellings are rewritten", func() {
			So(st.Degraded, ShouldBeTrue)
			So(locations(recs), ShouldResemble, []any{location.DistrictOfColumbia, "Ohio", nil})
		})
	})

	Convey("Given canonicalization helpers", t, func() {
		So(location.Canonicalize("d.c."), ShouldEqual, location.DistrictOfColumbia)
		So(location.Canonicalize("Texas"), ShouldEqual, "Texas")
		So(location.LooksLikeDC(strings.ToUpper("district")), ShouldBeTrue)
	})
}
