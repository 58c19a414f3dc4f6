package debounce

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ranMsg struct{ arg string }

func recorder(calls *[]string) func(string) tea.Cmd {
	return func(arg string) tea.Cmd {
		*calls = append(*calls, arg)
		return func() tea.Msg { return ranMsg{arg} }
	}
}

func TestCollapsesBurstToLastArgument(t *testing.T) {
	var calls []string
	d := New(10*time.Millisecond, recorder(&calls))

	var cmds []tea.Cmd
	for _, arg := range []string{"a1", "a2", "a3", "a4", "a5"} {
		cmds = append(cmds, d.Call(arg))
	}
	require.True(t, d.Pending())

	var ran []tea.Cmd
	for _, cmd := range cmds {
		out, handled := d.Update(cmd())
		assert.True(t, handled)
		if out != nil {
			ran = append(ran, out)
		}
	}

	assert.Equal(t, []string{"a5"}, calls)
	require.Len(t, ran, 1)
	assert.Equal(t, ranMsg{"a5"}, ran[0]())
	assert.False(t, d.Pending())
}

func TestCancelDropsPending(t *testing.T) {
	var calls []string
	d := New(time.Millisecond, recorder(&calls))

	cmd := d.Call("x")
	d.Cancel()
	assert.False(t, d.Pending())

	out, handled := d.Update(cmd())
	assert.True(t, handled)
	assert.Nil(t, out)
	assert.Empty(t, calls)
}

func TestCancelWhenIdleIsNoop(t *testing.T) {
	var calls []string
	d := New(time.Millisecond, recorder(&calls))

	assert.NotPanics(t, d.Cancel)
	assert.False(t, d.Pending())

	cmd := d.Call("y")
	out, _ := d.Update(cmd())
	require.NotNil(t, out)
	assert.Equal(t, []string{"y"}, calls)
}

func TestCancelAfterFireDoesNotUndo(t *testing.T) {
	var calls []string
	d := New(time.Millisecond, recorder(&calls))

	out, _ := d.Update(d.Call("z")())
	d.Cancel()

	require.NotNil(t, out)
	assert.Equal(t, ranMsg{"z"}, out())
}

func TestIgnoresOtherDebouncers(t *testing.T) {
	var a, b []string
	da := New(time.Millisecond, recorder(&a))
	db := New(time.Millisecond, recorder(&b))
	require.NotEqual(t, da.ID(), db.ID())

	msg := da.Call("for a")()
	db.Call("for b")

	out, handled := db.Update(msg)
	assert.False(t, handled)
	assert.Nil(t, out)

	_, handled = db.Update(ranMsg{})
	assert.False(t, handled)

	_, handled = da.Update(msg)
	assert.True(t, handled)
	assert.Equal(t, []string{"for a"}, a)
	assert.Empty(t, b)
}

func TestWaitsBeforeFiring(t *testing.T) {
	d := New(30*time.Millisecond, func(string) tea.Cmd { return nil })

	start := time.Now()
	msg := d.Call("q")()
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
	assert.IsType(t, FireMsg{}, msg)
}
