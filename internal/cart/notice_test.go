package cart

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericoliveiras/vitrine/internal/session"
)

func TestNoticeBoardPerOwner(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Now())
	b := NewNoticeBoard(clk, time.Second)

	b.Post("a", "um")
	b.Post("b", "dois")
	msg, ok := b.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "um", msg)

	clk.Advance(500 * time.Millisecond)
	b.Post("a", "três")
	clk.Advance(600 * time.Millisecond)

	assert.Eventually(t, func() bool {
		_, ok := b.Get("b")
		return !ok
	}, time.Second, time.Millisecond)
	msg, ok = b.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "três", msg)

	b.Close()
	_, ok = b.Get("a")
	assert.False(t, ok)
}

func TestSharedBoardOutlivesManager(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Now())
	board := NewNoticeBoard(clk, DefaultNoticeTTL)
	store := session.NewMemory()

	first := NewManager(Config{Store: store, Logger: quiet(), Board: board, Owner: "navegador-1"})
	require.NoError(t, first.Add(product(1, "Quindim", 4, 2)))
	first.Close()

	second := NewManager(Config{Store: store, Logger: quiet(), Board: board, Owner: "navegador-1"})
	msg, ok := second.Notice()
	assert.True(t, ok)
	assert.Equal(t, "Quindim adicionado ao carrinho", msg)

	other := NewManager(Config{Store: session.NewMemory(), Logger: quiet(), Board: board, Owner: "navegador-2"})
	_, ok = other.Notice()
	assert.False(t, ok)

	clk.Advance(DefaultNoticeTTL)
	assert.Eventually(t, func() bool {
		_, ok := second.Notice()
		return !ok
	}, time.Second, time.Millisecond)
}
