package hive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxFIFOPerSender(t *testing.T) {
	m := newMailbox(4)
	for i := 0; i < 5; i++ {
		wasEmpty, err := m.enqueueNormal(&Envelope{Payload: i})
		require.NoError(t, err)
		assert.Equal(t, i == 0, wasEmpty)
	}
	for i := 0; i < 5; i++ {
		e := m.tryDequeue()
		require.NotNil(t, e)
		assert.Equal(t, i, e.Payload)
	}
	assert.Nil(t, m.tryDequeue())
}

func TestMailboxUrgentBeforeNormal(t *testing.T) {
	m := newMailbox(4)
	m.enqueueNormal(&Envelope{Payload: "normal"})
	m.enqueueUrgent(&Envelope{Payload: "urgent"})

	first := m.tryDequeue()
	require.NotNil(t, first)
	assert.Equal(t, "urgent", first.Payload)

	second := m.tryDequeue()
	require.NotNil(t, second)
	assert.Equal(t, "normal", second.Payload)
}

func TestMailboxSkipAndReinject(t *testing.T) {
	m := newMailbox(4)
	m.enqueueNormal(&Envelope{Payload: 1})
	m.enqueueNormal(&Envelope{Payload: 2})
	m.enqueueNormal(&Envelope{Payload: 3})

	e1 := m.tryDequeue()
	m.skip(e1)
	e2 := m.tryDequeue()
	m.skip(e2)

	m.enqueueNormal(&Envelope{Payload: 4})
	m.reinjectDeferred()

	var got []int
	for {
		e := m.tryDequeue()
		if e == nil {
			break
		}
		got = append(got, e.Payload.(int))
	}
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestMailboxPendingReflectsAnySubqueue(t *testing.T) {
	m := newMailbox(1)
	assert.False(t, m.pending())
	m.enqueueNormal(&Envelope{Payload: 1})
	assert.True(t, m.pending())
	e := m.tryDequeue()
	m.skip(e)
	assert.True(t, m.pending(), "a deferred-only mailbox is still pending")
}

func TestMailboxDrainToDeadLetters(t *testing.T) {
	m := newMailbox(4)
	m.enqueueNormal(&Envelope{Payload: 1})
	m.enqueueUrgent(&Envelope{Payload: 2})
	drained := m.drainToDeadLetters()
	assert.Len(t, drained, 2)

	_, err := m.enqueueNormal(&Envelope{Payload: 3})
	assert.ErrorIs(t, err, ErrMailboxClosed)
}
