package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jasonKoogler/cpu-sim/internal/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		c = cache.New()
	})

	Describe("a single address", func() {
		It("misses on the first access and hits thereafter", func() {
			Expect(c.Access(0x0, false)).To(BeFalse())
			Expect(c.Access(0x0, false)).To(BeTrue())
			Expect(c.Access(0x0, true)).To(BeTrue())
		})
	})

	Describe("two addresses in different sets", func() {
		It("do not evict one another", func() {
			Expect(c.Access(0, false)).To(BeFalse())
			Expect(c.Access(cache.BlockSize, false)).To(BeFalse())
			Expect(c.Access(0, false)).To(BeTrue())
			Expect(c.Access(cache.BlockSize, false)).To(BeTrue())
		})
	})

	Describe("LRU replacement within one set", func() {
		It("evicts the way accessed longest ago once a fifth tag aliases in", func() {
			// Five addresses TotalSize apart: their block index is the same
			// modulo NumSets, so they all land in set 0, and each has a
			// distinct tag (address / TotalSize).
			stride := uint32(cache.TotalSize)
			addrs := make([]uint32, 0, cache.NumWays+1)
			for i := 0; i < cache.NumWays+1; i++ {
				addrs = append(addrs, uint32(i)*stride)
			}

			for _, a := range addrs[:cache.NumWays] {
				Expect(c.Access(a, false)).To(BeFalse(), "initial fill should always miss")
			}

			// Touch addrs[0] again so it is no longer the oldest.
			Expect(c.Access(addrs[0], false)).To(BeTrue())

			// addrs[1] is now the least-recently-used way; the fifth distinct
			// tag should evict it, and addrs[1] should miss again afterward.
			Expect(c.Access(addrs[cache.NumWays], false)).To(BeFalse())
			Expect(c.Access(addrs[1], false)).To(BeFalse())

			// addrs[0] (recently touched) should still be resident.
			Expect(c.Access(addrs[0], false)).To(BeTrue())
		})
	})

	Describe("a write access", func() {
		It("participates in the same hit/miss timing as a read", func() {
			Expect(c.Access(0x40, true)).To(BeFalse())
			Expect(c.Access(0x40, false)).To(BeTrue())
		})
	})
})
