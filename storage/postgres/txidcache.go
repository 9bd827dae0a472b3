package postgres

import (
	"log"
	"sync"

	"github.com/blkchain/xcoin/xcoin"
)

// An output can only be spent once, so Writer can track, per tx, how
// many outputs are still unspent and drop the entry once they're all
// accounted for. This is imperfect: a chain split can replay the same
// spend from an orphaned segment, which would consume the counter
// early and purge the entry before the active segment's spend is
// seen. recent exists to tolerate exactly that for a bounded window of
// the most recently inserted rows.
type idOutCnt struct {
	id  int64
	cnt uint16
}

const hashPrefixSize = 10

const recentRingSize = 1024 * 64

type txIdCache struct {
	mu   sync.Mutex
	m    map[[hashPrefixSize]byte]*idOutCnt
	sz   int
	cols int
	hits int
	miss int
	evic int

	recent map[[hashPrefixSize]byte]int64
	ring   [][hashPrefixSize]byte
	ringN  int
}

func newTxIdCache(sz int) *txIdCache {
	alloc := 1024 * 1024
	if sz < alloc {
		alloc = sz
	}
	return &txIdCache{
		m:      make(map[[hashPrefixSize]byte]*idOutCnt, alloc),
		sz:     sz,
		recent: make(map[[hashPrefixSize]byte]int64, recentRingSize),
		ring:   make([][hashPrefixSize]byte, recentRingSize),
		ringN:  -1,
	}
}

var zeroHashPrefix [hashPrefixSize]byte

// addRing returns the cached id if key was seen recently, -1 otherwise.
func (c *txIdCache) addRing(key [hashPrefixSize]byte, id int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := int64(-1)
	if hit, ok := c.recent[key]; ok {
		result = hit
	} else {
		c.recent[key] = id
	}

	c.ringN++
	if c.ringN == recentRingSize {
		c.ringN = 0
	}
	if c.ring[c.ringN] != zeroHashPrefix && result == -1 {
		delete(c.recent, c.ring[c.ringN])
	}
	c.ring[c.ringN] = key

	return result
}

func (c *txIdCache) checkSize() {
	if len(c.m) == c.sz {
		for k := range c.m {
			delete(c.m, k)
			break
		}
	}
}

func (c *txIdCache) add(hash xcoin.Uint256, id int64, cnt int) int64 {
	var key [hashPrefixSize]byte
	copy(key[:], hash[:hashPrefixSize])

	if recent := c.addRing(key, id); recent != -1 {
		return recent
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkSize()
	if hit, ok := c.m[key]; ok {
		c.cols++
		log.Printf("txidcache: possible collision at hash %s", hash)
		return hit.id
	}
	c.m[key] = &idOutCnt{id, uint16(cnt)}
	return id
}

// check is destructive: a hit decrements the remaining-output count
// and evicts the entry once it reaches zero.
func (c *txIdCache) check(hash xcoin.Uint256) (int64, bool) {
	var key [hashPrefixSize]byte
	copy(key[:], hash[:hashPrefixSize])

	c.mu.Lock()
	defer c.mu.Unlock()

	idcnt, ok := c.m[key]
	if !ok {
		c.miss++
		return 0, false
	}
	c.hits++
	idcnt.cnt--
	if idcnt.cnt == 0 {
		c.evic++
		delete(c.m, key)
	}
	return idcnt.id, true
}
