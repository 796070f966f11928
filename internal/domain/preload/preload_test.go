package preload_test

import (
	"fmt"
	"testing"

	"github.com/okian/presage/internal/domain/preload"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCache_PutGet(t *testing.T) {
	Convey("Given a cache with default capacity", t, func() {
		c := preload.NewCache()

		Convey("When an entry is put", func() {
			ok := c.Put("wave", 0.8, []byte("frames"))

			Convey("Then it is resident and retrievable", func() {
				So(ok, ShouldBeTrue)
				So(c.Len(), ShouldEqual, 1)

				payload, found := c.Get("wave")
				So(found, ShouldBeTrue)
				So(payload, ShouldResemble, []byte("frames"))
			})
		})

		Convey("When an existing key is put again", func() {
			c.Put("wave", 0.5, []byte("v1"))
			ok := c.Put("wave", 0.9, []byte("v2"))

			Convey("Then it is updated in place", func() {
				So(ok, ShouldBeTrue)
				So(c.Len(), ShouldEqual, 1)

				payload, _ := c.Get("wave")
				So(payload, ShouldResemble, []byte("v2"))
			})
		})

		Convey("When an unknown key is requested", func() {
			_, found := c.Get("missing")

			Convey("Then the lookup misses", func() {
				So(found, ShouldBeFalse)
			})
		})
	})
}

func TestCache_Eviction(t *testing.T) {
	Convey("Given a full cache of three entries", t, func() {
		c := preload.NewCache(preload.WithCapacity(3))
		c.Put("low", 0.1, nil)
		c.Put("mid", 0.5, nil)
		c.Put("high", 0.9, nil)

		Convey("When a newcomer outranks the minimum", func() {
			ok := c.Put("better", 0.3, nil)

			Convey("Then the minimum-priority resident is evicted", func() {
				So(ok, ShouldBeTrue)
				So(c.Len(), ShouldEqual, 3)

				_, found := c.Get("low")
				So(found, ShouldBeFalse)

				_, found = c.Get("better")
				So(found, ShouldBeTrue)
			})
		})

		Convey("When a newcomer does not outrank the minimum", func() {
			ok := c.Put("worse", 0.05, nil)

			Convey("Then it is silently dropped", func() {
				So(ok, ShouldBeFalse)
				So(c.Len(), ShouldEqual, 3)

				_, found := c.Get("worse")
				So(found, ShouldBeFalse)
			})
		})

		Convey("When a newcomer ties the minimum", func() {
			ok := c.Put("tie", 0.1, nil)

			Convey("Then the resident wins", func() {
				So(ok, ShouldBeFalse)
				_, found := c.Get("low")
				So(found, ShouldBeTrue)
			})
		})

		Convey("When updating a resident key while full", func() {
			ok := c.Put("mid", 0.95, []byte("hot"))

			Convey("Then nothing is evicted", func() {
				So(ok, ShouldBeTrue)
				So(c.Len(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given a sequence of rising priorities through a tiny cache", t, func() {
		c := preload.NewCache(preload.WithCapacity(2))
		for i := 0; i < 6; i++ {
			c.Put(fmt.Sprintf("e%d", i), float64(i)/10, nil)
		}

		Convey("Then only the two highest-priority entries survive", func() {
			So(c.Len(), ShouldEqual, 2)

			_, found := c.Get("e5")
			So(found, ShouldBeTrue)
			_, found = c.Get("e4")
			So(found, ShouldBeTrue)
			_, found = c.Get("e3")
			So(found, ShouldBeFalse)
		})
	})
}

func TestCache_Remove(t *testing.T) {
	Convey("Given a cache with residents", t, func() {
		c := preload.NewCache(preload.WithCapacity(3))
		c.Put("a", 0.2, nil)
		c.Put("b", 0.4, nil)

		Convey("When removing a resident key", func() {
			c.Remove("a")

			Convey("Then it is gone and room is freed", func() {
				So(c.Len(), ShouldEqual, 1)
				_, found := c.Get("a")
				So(found, ShouldBeFalse)
			})

			Convey("And eviction ordering stays consistent afterwards", func() {
				c.Put("c", 0.1, nil)
				c.Put("d", 0.3, nil)
				// Full again with b(0.4), c(0.1), d(0.3): c is the floor.
				So(c.Put("e", 0.2, nil), ShouldBeTrue)
				_, found := c.Get("c")
				So(found, ShouldBeFalse)
			})
		})

		Convey("When removing an unknown key", func() {
			So(func() { c.Remove("ghost") }, ShouldNotPanic)
			So(c.Len(), ShouldEqual, 2)
		})
	})
}

func TestCache_Capacity(t *testing.T) {
	Convey("Given capacity configuration", t, func() {
		Convey("Then the default bound applies when unset", func() {
			So(preload.NewCache().Capacity(), ShouldEqual, 8)
		})

		Convey("Then a positive option overrides it", func() {
			So(preload.NewCache(preload.WithCapacity(32)).Capacity(), ShouldEqual, 32)
		})

		Convey("Then non-positive values keep the default", func() {
			So(preload.NewCache(preload.WithCapacity(0)).Capacity(), ShouldEqual, 8)
			So(preload.NewCache(preload.WithCapacity(-3)).Capacity(), ShouldEqual, 8)
		})
	})
}
