package fsmx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/schedule"
)

type notification struct {
	previous, current tState
	event             tEvent
}

func newRecordingTurnstile(t *testing.T) *fsmx.Machine[tState, tEvent] {
	t.Helper()
	opened := 0
	return newTurnstile(t, schedule.NewQueue(), &opened)
}

func TestSubscribeNotifiesImmediately(t *testing.T) {
	m := newRecordingTurnstile(t)

	var got []notification
	m.Subscribe(func(p, c tState, e tEvent) { got = append(got, notification{p, c, e}) })

	require.Len(t, got, 1)
	assert.Nil(t, got[0].previous)
	assert.Equal(t, locked{}, got[0].current)
	assert.Nil(t, got[0].event)
}

func TestTwoSubscribersOneUnsubscribed(t *testing.T) {
	m := newRecordingTurnstile(t)

	var a, b []notification
	unsubA := m.Subscribe(func(p, c tState, e tEvent) { a = append(a, notification{p, c, e}) })
	m.Subscribe(func(p, c tState, e tEvent) { b = append(b, notification{p, c, e}) })

	m.Transition(insertCoin{Value: 10})
	unsubA()
	unsubA()
	m.Transition(insertCoin{Value: 10})

	assert.Len(t, a, 2)
	require.Len(t, b, 3)
	assert.Equal(t, notification{locked{Credit: 10}, locked{Credit: 20}, insertCoin{Value: 10}}, b[2])
}

func TestDuplicateSubscriptionsAreIndependent(t *testing.T) {
	m := newRecordingTurnstile(t)

	calls := 0
	l := func(tState, tState, tEvent) { calls++ }
	unsub := m.Subscribe(l)
	m.Subscribe(l)
	require.Equal(t, 2, calls)

	unsub()
	m.Transition(push{})
	m.Transition(insertCoin{Value: 1})
	assert.Equal(t, 3, calls)
}

func TestUnsubscribeDuringRoundKeepsRound(t *testing.T) {
	m := newRecordingTurnstile(t)

	var order []string
	var unsubSecond func()
	m.Subscribe(func(_, _ tState, e tEvent) {
		if e == nil {
			return
		}
		order = append(order, "first")
		unsubSecond()
	})
	unsubSecond = m.Subscribe(func(_, _ tState, e tEvent) {
		if e != nil {
			order = append(order, "second")
		}
	})

	m.Transition(insertCoin{Value: 1})
	assert.Equal(t, []string{"first", "second"}, order)

	m.Transition(insertCoin{Value: 1})
	assert.Equal(t, []string{"first", "second", "first"}, order)
}

func TestSubscribeDuringRoundJoinsNextRound(t *testing.T) {
	m := newRecordingTurnstile(t)

	late := 0
	subscribed := false
	m.Subscribe(func(_, _ tState, e tEvent) {
		if e == nil || subscribed {
			return
		}
		subscribed = true
		m.Subscribe(func(_, _ tState, e tEvent) {
			if e != nil {
				late++
			}
		})
	})

	m.Transition(insertCoin{Value: 1})
	assert.Equal(t, 0, late)
	m.Transition(insertCoin{Value: 1})
	assert.Equal(t, 1, late)
}

func TestListenerMayDispatch(t *testing.T) {
	m := newRecordingTurnstile(t)

	var currents []tState
	m.Subscribe(func(_, c tState, _ tEvent) {
		currents = append(currents, c)
		if _, ok := c.(unlocked); ok {
			m.Transition(push{})
		}
	})

	m.Transition(insertCoin{Value: 50})

	assert.Equal(t, locked{}, m.Current())
	assert.Equal(t, []tState{locked{}, unlocked{}, locked{}}, currents)
}
