package bucketing

import (
	"hash"
	"strconv"
	"sync"

	"github.com/spaolacci/murmur3"
)

// BucketingManager maps client identifiers onto stable hashes and buckets so
// shared stores never hold raw IP addresses and keys spread across a cluster.
type BucketingManager struct {
	buckets    int
	hasherPool sync.Pool
}

func NewBucketingManager(buckets int) *BucketingManager {
	if buckets <= 0 {
		buckets = 64
	}
	return &BucketingManager{
		buckets: buckets,
		hasherPool: sync.Pool{
			New: func() interface{} {
				return murmur3.New64()
			},
		},
	}
}

// Bucket returns a consistent bucket in [0, buckets)
func (bm *BucketingManager) Bucket(identifier string) int {
	return int(bm.hash(identifier) % uint64(bm.buckets))
}

// Fingerprint returns the identifier's 64-bit murmur3 hash in hex
func (bm *BucketingManager) Fingerprint(identifier string) string {
	return strconv.FormatUint(bm.hash(identifier), 16)
}

// Key builds "<prefix>{<bucket>}:<fingerprint>"; the braces form a Redis
// Cluster hash tag.
func (bm *BucketingManager) Key(prefix, identifier string) string {
	h := bm.hash(identifier)
	return prefix + "{" + strconv.Itoa(int(h%uint64(bm.buckets))) + "}:" + strconv.FormatUint(h, 16)
}

func (bm *BucketingManager) Buckets() int {
	return bm.buckets
}

func (bm *BucketingManager) hash(key string) uint64 {
	hasher := bm.hasherPool.Get().(hash.Hash64)
	defer bm.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
