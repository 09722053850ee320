package cache_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/isp/internal/adapters/cache"
	"github.com/okian/isp/internal/domain/location"
	"github.com/okian/isp/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func exercise(c location.Cache) {
	ctx := context.Background()

	_, ok := c.Get(ctx, "Austin, TX")
	So(ok, ShouldBeFalse)

	c.Put(ctx, "Austin, TX", "Texas")
	v, ok := c.Get(ctx, "Austin, TX")
	So(ok, ShouldBeTrue)
	So(v, ShouldEqual, "Texas")

	c.Put(ctx, "Austin, TX", "Texas")
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Put(ctx, fmt.Sprintf("Town %d", i%5), "Unknown")
			c.Get(ctx, "Austin, TX")
		}()
	}
	wg.Wait()
	So(c.(cache.Sized).Len(), ShouldEqual, 6)
}

func TestBackends(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given a memory cache", t, func() {
		exercise(cache.NewMemory())
	})

	Convey("Given an LRU cache", t, func() {
		c, err := cache.NewLRU(16)
		So(err, ShouldBeNil)
		exercise(c)

		Convey("When it overflows", func() {
			small, _ := cache.NewLRU(2)
			ctx := context.Background()
			small.Put(ctx, "a", "A")
			small.Put(ctx, "b", "B")
			small.Put(ctx, "c", "C")

			Convey("Then the oldest entry is evicted", func() {
				_, ok := small.Get(ctx, "a")
				So(ok, ShouldBeFalse)
				So(small.Len(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a SQLite cache", t, func() {
		path := filepath.Join(t.TempDir(), "locations.db")
		c, err := cache.OpenSQLite(context.Background(), path)
		So(err, ShouldBeNil)
		exercise(c)
		So(c.Close(), ShouldBeNil)

		Convey("When it is reopened", func() {
			again, err := cache.OpenSQLite(context.Background(), path)
			So(err, ShouldBeNil)
			defer func() { _ = again.Close() }()

			Convey("Then earlier answers are still there", func() {
				v, ok := again.Get(context.Background(), "Austin, TX")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "Texas")
			})
		})
	})

	Convey("Given the factory", t, func() {
		ctx := context.Background()

		Convey("When an unknown kind is requested", func() {
			_, _, err := cache.New(ctx, cache.Options{Kind: "redis"})
			So(errors.Is(err, cache.ErrUnknownKind), ShouldBeTrue)
		})

		Convey("When an LRU is requested", func() {
			c, closer, err := cache.New(ctx, cache.Options{Kind: cache.KindLRU, Size: 4})
			So(err, ShouldBeNil)
			So(closer.Close(), ShouldBeNil)
			c.Put(ctx, "DC", "DistrictOfColumbia")
			v, ok := c.Get(ctx, "DC")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "DistrictOfColumbia")
			So(c.Len(), ShouldEqual, 1)
		})
	})
}
