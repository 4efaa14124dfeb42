package contentkey

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/crypto/blake2b"
)

const chunkSize = 1024 * 1024

// Key is the canonical dedup identity of a file's content. Degraded keys are
// built from size and mtime only; their equality is a heuristic, not a
// content guarantee.
type Key struct {
	Value    string
	Degraded bool
}

// Generator computes content keys under a wall-clock hashing budget.
type Generator struct {
	budget      time.Duration
	quickPrefix int64
}

// NewGenerator constructs a generator. quickPrefix bounds the secondary fast
// digest. The budget is enforced between chunk reads, so a zero budget
// degrades any non-empty file while empty files still get a strong key.
func NewGenerator(budget time.Duration, quickPrefix int64) *Generator {
	return &Generator{budget: budget, quickPrefix: quickPrefix}
}

// Key computes the content key for path. It never fails: every I/O error and
// budget overrun resolves to the weak key.
func (g *Generator) Key(path string) Key {
	var size int64
	var mtime int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
		mtime = info.ModTime().Unix()
	}

	digest, ok := g.fullDigest(path)
	if !ok {
		return Key{Value: fmt.Sprintf("weak-%d@%d", size, mtime), Degraded: true}
	}

	quick := g.quickDigest(path)
	return Key{Value: fmt.Sprintf("sha256:%x|b2b1M:%x", digest, quick)}
}

// fullDigest streams the whole file through sha256, checking the elapsed
// wall clock after each chunk. The budget check is best-effort: a chunk read
// already in flight always completes.
func (g *Generator) fullDigest(path string) ([]byte, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	start := time.Now()
	hash := sha256.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
			if time.Since(start) > g.budget {
				return nil, false
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false
		}
	}
	return hash.Sum(nil), true
}

// quickDigest hashes the bounded file prefix with blake2b. Read failures
// hash an empty prefix, mirroring the primary digest's tolerance.
func (g *Generator) quickDigest(path string) []byte {
	var prefix []byte
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		prefix, err = io.ReadAll(io.LimitReader(f, g.quickPrefix))
		if err != nil {
			prefix = nil
		}
	}
	sum := blake2b.Sum512(prefix)
	return sum[:]
}
