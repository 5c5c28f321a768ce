package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/forensiq/internal/screen"
)

type fakeScreen struct {
	title  string
	inits  int
	closed int
	keys   []string
}

func (f *fakeScreen) Init() tea.Cmd { f.inits++; return nil }
func (f *fakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		f.keys = append(f.keys, k.String())
	}
	return f, nil
}
func (f *fakeScreen) View(int, int) string { return "view:" + f.title }
func (f *fakeScreen) Title() string        { return f.title }

// closingScreen also implements screen.Closer.
type closingScreen struct{ *fakeScreen }

func (c closingScreen) Close() { c.closed++ }

func TestNavigation(t *testing.T) {
	home := &fakeScreen{title: "Training Modules"}
	live := closingScreen{&fakeScreen{title: "Firearms Examination"}}
	report := &fakeScreen{title: "Session Report"}

	r := New(home)
	r.Update(PushScreenMsg{Screen: live})
	assert.Equal(t, 1, live.inits)
	assert.Equal(t, []string{"Training Modules", "Firearms Examination"}, r.Trail())

	r.Update(ReplaceScreenMsg{Screen: report})
	assert.Equal(t, 1, live.closed, "replaced screen is closed")
	assert.Equal(t, 1, report.inits)
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "view:Session Report", r.View(80, 24))

	r.Update(PopScreenMsg{})
	assert.Same(t, home, r.Active())

	r.Update(PopScreenMsg{})
	assert.Equal(t, 1, r.Depth(), "the first screen stays")
}

func TestHomeClosesEveryScreen(t *testing.T) {
	home := &fakeScreen{title: "Training Modules"}
	a := closingScreen{&fakeScreen{title: "History"}}
	b := closingScreen{&fakeScreen{title: "Latent Print Development"}}

	r := New(home)
	r.Push(a)
	r.Push(b)
	r.Update(HomeMsg{})

	require.Equal(t, 1, r.Depth())
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
}

func TestKeysGoToActiveScreen(t *testing.T) {
	home := &fakeScreen{title: "Training Modules"}
	top := &fakeScreen{title: "History"}
	r := New(home)
	r.Push(top)

	r.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, []string{"down"}, top.keys)
	assert.Empty(t, home.keys)
}

func TestEmptyStack(t *testing.T) {
	r := &Router{}
	assert.Nil(t, r.Active())
	assert.Empty(t, r.View(80, 24))
	assert.Nil(t, r.Update(tea.KeyPressMsg{Code: tea.KeyEnter}))

	s := &fakeScreen{title: "Training Modules"}
	r.Replace(s)
	assert.Same(t, s, r.Active())
}
