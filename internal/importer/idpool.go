package importer

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// idBatchSize is how many ids one refill produces. Batch refills keep the
// per-row cost of id generation negligible.
const idBatchSize = 500

// idPool is a batch-refilled supply of unique record and shelf ids. It is
// owned by exactly one run at a time (the controller enforces single-run),
// so no locking is needed.
//
// Ids are random UUIDv4. When the crypto source is unavailable the pool
// falls back to ids derived from the run-start timestamp and a monotonic
// counter; the "local-" prefix and the counter suffix make fallback ids
// unique even across hash collisions, and disjoint from the UUID space.
type idPool struct {
	buf      []string
	runStart int64
	seq      uint64
}

func newIDPool() *idPool {
	return &idPool{
		buf:      make([]string, 0, idBatchSize),
		runStart: time.Now().UnixNano(),
	}
}

// get pops one id, refilling the buffer in a single batch when empty.
// Generation never fails.
func (p *idPool) get() string {
	if len(p.buf) == 0 {
		p.refill()
	}
	id := p.buf[len(p.buf)-1]
	p.buf = p.buf[:len(p.buf)-1]
	return id
}

func (p *idPool) refill() {
	for i := 0; i < idBatchSize; i++ {
		u, err := uuid.NewRandom()
		if err != nil {
			p.buf = append(p.buf, p.fallbackID())
			continue
		}
		p.buf = append(p.buf, u.String())
	}
}

func (p *idPool) fallbackID() string {
	p.seq++
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], uint64(p.runStart))
	binary.LittleEndian.PutUint64(b[8:], p.seq)
	return "local-" + strconv.FormatUint(xxh3.Hash(b[:]), 16) + "-" + strconv.FormatUint(p.seq, 10)
}
