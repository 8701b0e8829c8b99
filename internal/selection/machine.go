// Package selection drives the content page: picking a game, then a chapter
// when the game has chapters, then browsing the filtered video grid.
//
// State changes take effect immediately. The visual swap of sections is
// deferred by a fixed latency so exit effects can finish; a newer transition
// supersedes any swap that is still pending.
package selection

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"utdr-guide/internal/domain"
	"utdr-guide/internal/service"
)

const (
	// TransitionLatency separates hiding a picker from mounting the next section
	TransitionLatency = 100 * time.Millisecond

	// ReturnLatency separates fading the grid from restoring the game picker
	ReturnLatency = 300 * time.Millisecond
)

var (
	// ErrInvalidTransition is returned for an action the current section does not offer
	ErrInvalidTransition = errors.New("invalid selection transition")
	// ErrUnknownGame is returned when selecting a game that is not covered
	ErrUnknownGame = errors.New("unknown game")
	// ErrUnknownChapter is returned when selecting a chapter the game does not have
	ErrUnknownChapter = errors.New("unknown chapter")
)

// Section is the primary section of the content page
type Section string

const (
	SectionGamePicker    Section = "game-picker"
	SectionChapterPicker Section = "chapter-picker"
	SectionVideoGrid     Section = "video-grid"
)

// Element identifies a mutable region of the content page
type Element string

const (
	ElementGameSelector    Element = "game-selector"
	ElementChapterSelector Element = "chapter-selector"
	ElementVideoGrid       Element = "video-container"
)

// State is the current selection. Game is empty while nothing is chosen.
type State struct {
	Game    domain.Game
	Chapter string
	Section Section
}

// View receives the page mutations a transition produces
type View interface {
	SetBackdrop(game domain.Game)
	FadeOut(el Element)
	Hide(el Element)
	Mount(el Element)
	// Dock moves el into the compact top position, undocking any other element
	Dock(el Element)
	Undock()
	ShowReturn(visible bool)
	RenderGrid(game domain.Game, chapter string)
}

// Scheduler runs f after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler schedules on real timers
type TimerScheduler struct{}

// AfterFunc implements Scheduler
func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// ImmediateScheduler runs f synchronously, ignoring the delay
type ImmediateScheduler struct{}

// AfterFunc implements Scheduler
func (ImmediateScheduler) AfterFunc(_ time.Duration, f func()) {
	f()
}

// ChapterValidator reports whether chapter is selectable for game
type ChapterValidator func(game domain.Game, chapter string) bool

// Machine is the game / chapter / grid selection state machine
type Machine struct {
	mu         sync.Mutex
	state      State
	generation uint64
	view       View
	sched      Scheduler
	validChap  ChapterValidator
}

// Option configures a Machine
type Option func(*Machine)

// WithChapterValidator restricts which chapters can be selected
func WithChapterValidator(fn ChapterValidator) Option {
	return func(m *Machine) {
		m.validChap = fn
	}
}

// NewMachine creates a Machine in the game picker
func NewMachine(view View, sched Scheduler, opts ...Option) *Machine {
	m := &Machine{
		state: State{Section: SectionGamePicker},
		view:  view,
		sched: sched,
		validChap: func(_ domain.Game, chapter string) bool {
			return chapter != ""
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current selection
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SelectGame picks a game. The game selector stays clickable once docked,
// so a game can be picked from any section.
func (m *Machine) SelectGame(game domain.Game) error {
	if _, ok := domain.ParseGame(string(game)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGame, game)
	}

	return m.transition(TransitionLatency, func() (func(), error) {
		m.view.SetBackdrop(game)
		m.view.FadeOut(ElementGameSelector)

		if game.HasChapters() {
			m.state = State{Game: game, Section: SectionChapterPicker}
			return func() {
				m.view.Hide(ElementGameSelector)
				m.view.Hide(ElementVideoGrid)
				m.view.Mount(ElementChapterSelector)
				m.view.Dock(ElementGameSelector)
				m.view.ShowReturn(true)
			}, nil
		}

		m.state = State{Game: game, Chapter: service.ChapterAll, Section: SectionVideoGrid}
		return func() {
			m.view.Hide(ElementGameSelector)
			m.view.Hide(ElementChapterSelector)
			m.view.RenderGrid(game, service.ChapterAll)
			m.view.Mount(ElementVideoGrid)
			m.view.Dock(ElementGameSelector)
			m.view.ShowReturn(true)
		}, nil
	})
}

// SelectChapter narrows the grid to one chapter of the selected game
func (m *Machine) SelectChapter(chapter string) error {
	return m.transition(TransitionLatency, func() (func(), error) {
		game := m.state.Game
		if !game.HasChapters() || m.state.Section == SectionGamePicker {
			return nil, fmt.Errorf("%w: no chaptered game selected", ErrInvalidTransition)
		}
		if !m.validChap(game, chapter) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChapter, chapter)
		}

		m.view.FadeOut(ElementChapterSelector)
		m.state = State{Game: game, Chapter: chapter, Section: SectionVideoGrid}
		return func() {
			m.view.Hide(ElementChapterSelector)
			m.view.Hide(ElementGameSelector)
			m.view.RenderGrid(game, chapter)
			m.view.Mount(ElementVideoGrid)
			m.view.Dock(ElementChapterSelector)
			m.view.ShowReturn(true)
		}, nil
	})
}

// Return goes back to the game picker, clearing the selection
func (m *Machine) Return() error {
	return m.transition(ReturnLatency, func() (func(), error) {
		if m.state.Section == SectionGamePicker {
			return nil, fmt.Errorf("%w: already at the game picker", ErrInvalidTransition)
		}

		m.view.FadeOut(ElementVideoGrid)
		m.state = State{Section: SectionGamePicker}
		return func() {
			m.view.Undock()
			m.view.ShowReturn(false)
			m.view.Hide(ElementVideoGrid)
			m.view.Hide(ElementChapterSelector)
			m.view.Mount(ElementGameSelector)
		}, nil
	})
}

// transition runs begin under the lock, then schedules the returned mutation.
// The mutation is dropped if another transition starts before it fires.
func (m *Machine) transition(latency time.Duration, begin func() (func(), error)) error {
	m.mu.Lock()
	apply, err := begin()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	m.sched.AfterFunc(latency, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.generation != gen {
			return
		}
		apply()
	})
	return nil
}
