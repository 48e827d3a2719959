package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ping struct{ N int }
type pong struct{ S string }

func TestFlushDeliversInEmitOrder(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(p ping) { got = append(got, "ping") })
	Subscribe(b, func(p pong) { got = append(got, "pong:"+p.S) })

	Emit(b, pong{S: "a"})
	Emit(b, ping{N: 1})
	Emit(b, pong{S: "b"})

	assert.Equal(t, 3, b.Flush())
	assert.Equal(t, []string{"pong:a", "pong:b", "ping"}, got)

	assert.Zero(t, b.Flush(), "buffers are cleared after delivery")
}

func TestEmitDuringFlushIsDeferred(t *testing.T) {
	b := NewBus()
	count := 0
	Subscribe(b, func(p ping) {
		count++
		if p.N < 3 {
			Emit(b, ping{N: p.N + 1})
		}
	})
	Emit(b, ping{N: 1})

	b.Flush()
	assert.Equal(t, 1, count)
	assert.Len(t, Pending[ping](b), 1)
	b.Flush()
	b.Flush()
	assert.Equal(t, 3, count)
}

func TestDrain(t *testing.T) {
	b := NewBus()
	Emit(b, ping{N: 1})
	Emit(b, ping{N: 2})

	assert.Equal(t, []ping{{1}, {2}}, Drain[ping](b))
	assert.Empty(t, Pending[ping](b))
	assert.Zero(t, b.Flush())
}
