package cart

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// NoticeBoard guarda um aviso transitório por dono. Cada aviso some
// sozinho depois do TTL; um aviso novo cancela a limpeza do anterior.
type NoticeBoard struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]*notice
	gen     uint64
}

type notice struct {
	msg   string
	gen   uint64
	timer clockwork.Timer
}

func NewNoticeBoard(clk clockwork.Clock, ttl time.Duration) *NoticeBoard {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &NoticeBoard{clock: clk, ttl: ttl, entries: make(map[string]*notice)}
}

func (b *NoticeBoard) Post(owner, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.entries[owner]; ok {
		prev.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.entries[owner] = &notice{
		msg: msg,
		gen: gen,
		timer: b.clock.AfterFunc(b.ttl, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if cur, ok := b.entries[owner]; ok && cur.gen == gen {
				delete(b.entries, owner)
			}
		}),
	}
}

func (b *NoticeBoard) Get(owner string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.entries[owner]
	if !ok {
		return "", false
	}
	return n.msg, true
}

// Close descarta todos os avisos e timers pendentes.
func (b *NoticeBoard) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for owner, n := range b.entries {
		n.timer.Stop()
		delete(b.entries, owner)
	}
}
