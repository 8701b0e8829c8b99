package selection

import (
	"sync"

	"utdr-guide/internal/domain"
	"utdr-guide/internal/service"
)

// ElementState is the presentation state of one page element
type ElementState struct {
	Visible   bool
	Docked    bool
	FadingOut bool
}

// Layout is the server-side View: it tracks what the content page shows and
// holds the filtered grid rendered from the catalog videos.
type Layout struct {
	mu            sync.Mutex
	videos        []*domain.Video
	elements      map[Element]*ElementState
	returnVisible bool
	backdrop      domain.Game
	gridGame      domain.Game
	gridChapter   string
	grid          []*domain.Video
}

// NewLayout creates the initial content page: only the game picker is shown
func NewLayout(videos []*domain.Video) *Layout {
	return &Layout{
		videos: videos,
		elements: map[Element]*ElementState{
			ElementGameSelector:    {Visible: true},
			ElementChapterSelector: {},
			ElementVideoGrid:       {},
		},
		grid: []*domain.Video{},
	}
}

func (l *Layout) element(el Element) *ElementState {
	st, ok := l.elements[el]
	if !ok {
		st = &ElementState{}
		l.elements[el] = st
	}
	return st
}

// SetBackdrop implements View
func (l *Layout) SetBackdrop(game domain.Game) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backdrop = game
}

// FadeOut implements View
func (l *Layout) FadeOut(el Element) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.element(el).FadingOut = true
}

// Hide implements View
func (l *Layout) Hide(el Element) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.element(el)
	st.Visible = false
	st.FadingOut = false
}

// Mount implements View
func (l *Layout) Mount(el Element) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.element(el)
	st.Visible = true
	st.FadingOut = false
}

// Dock implements View
func (l *Layout) Dock(el Element) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, st := range l.elements {
		st.Docked = false
	}
	st := l.element(el)
	st.Visible = true
	st.Docked = true
	st.FadingOut = false
}

// Undock implements View
func (l *Layout) Undock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, st := range l.elements {
		st.Docked = false
	}
}

// ShowReturn implements View
func (l *Layout) ShowReturn(visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.returnVisible = visible
}

// RenderGrid implements View
func (l *Layout) RenderGrid(game domain.Game, chapter string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gridGame = game
	l.gridChapter = chapter
	l.grid = service.FilterVideos(l.videos, game, chapter)
}

// Element returns a copy of the state of el
func (l *Layout) Element(el Element) ElementState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.element(el)
}

// Visible reports whether the named element is shown
func (l *Layout) Visible(el string) bool {
	return l.Element(Element(el)).Visible
}

// Docked reports whether the named element is in the top position
func (l *Layout) Docked(el string) bool {
	return l.Element(Element(el)).Docked
}

// ReturnVisible reports whether the return-to-game-picker control is shown
func (l *Layout) ReturnVisible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.returnVisible
}

// Backdrop returns the game whose page background is active
func (l *Layout) Backdrop() domain.Game {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backdrop
}

// Grid returns the videos currently rendered in the grid
func (l *Layout) Grid() []*domain.Video {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*domain.Video(nil), l.grid...)
}

// GridFilter returns the game and chapter the grid was rendered for
func (l *Layout) GridFilter() (domain.Game, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gridGame, l.gridChapter
}

// Restore rebuilds a page from a bookmarked selection by replaying the
// transitions without delay. Unknown values stop the replay at the last
// valid step.
func Restore(videos []*domain.Video, game, chapter string, opts ...Option) (State, *Layout) {
	layout := NewLayout(videos)
	m := NewMachine(layout, ImmediateScheduler{}, opts...)

	g, ok := domain.ParseGame(game)
	if !ok {
		return m.State(), layout
	}
	if err := m.SelectGame(g); err != nil {
		return m.State(), layout
	}
	if chapter != "" && g.HasChapters() {
		_ = m.SelectChapter(chapter)
	}
	return m.State(), layout
}
