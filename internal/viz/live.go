package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/sim"
)

const (
	historyCapacity = 120
	traceWidth      = 40
	maxFrameTime    = 100
)

// LiveTrack names a simulator track and the two targets the live view
// flips it between. Targets[0] is the one the track starts with.
type LiveTrack struct {
	Name    string
	Targets [2]float64
}

type LiveOptions struct {
	FPS   int
	Theme string
}

type tickMsg time.Time

type liveTrack struct {
	LiveTrack
	side    int
	start   float64
	sample  sim.Sample
	history []float64
}

// LiveModel advances a simulator by the wall-clock time between ticks.
// Frames longer than maxFrameTime are clipped so a stalled terminal does
// not produce one huge step.
type LiveModel struct {
	build   func() (*sim.Simulator, error)
	sim     *sim.Simulator
	tracks  []*liveTrack
	now     impel.Time
	last    time.Time
	frames  int
	running bool
	theme   Theme
	fps     int
	err     error
}

func NewLiveModel(build func() (*sim.Simulator, error), tracks []LiveTrack, opts LiveOptions) (LiveModel, error) {
	if len(tracks) == 0 {
		return LiveModel{}, sim.ErrNoTracks
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	m := LiveModel{
		build:   build,
		running: true,
		theme:   GetTheme(opts.Theme),
		fps:     opts.FPS,
	}
	for _, tr := range tracks {
		m.tracks = append(m.tracks, &liveTrack{LiveTrack: tr})
	}
	if err := m.reset(); err != nil {
		return LiveModel{}, err
	}
	return m, nil
}

func (m *LiveModel) reset() error {
	s, err := m.build()
	if err != nil {
		return err
	}
	m.sim = s
	m.now = 0
	m.frames = 0
	m.last = time.Time{}
	for _, tr := range m.tracks {
		tr.side = 0
		tr.history = tr.history[:0]
		smp, err := s.Sample(tr.Name, 0)
		if err != nil {
			return err
		}
		tr.sample = smp
		tr.start = smp.Value
		tr.history = append(tr.history, smp.Value)
	}
	return nil
}

func (m LiveModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return m.tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			m.last = time.Time{}
		case "f":
			for i := range m.tracks {
				m.flip(i)
			}
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		case "t":
			m.theme = NextTheme(m.theme)
		default:
			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				m.flip(int(key[0] - '1'))
			}
		}
	case tickMsg:
		m.advance(time.Time(msg))
		if m.err != nil {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *LiveModel) flip(i int) {
	if i < 0 || i >= len(m.tracks) {
		return
	}
	tr := m.tracks[i]
	tr.side ^= 1
	tr.start = tr.sample.Value
	if err := m.sim.Retarget(tr.Name, tr.Targets[tr.side]); err != nil {
		m.err = err
	}
}

func (m *LiveModel) advance(now time.Time) {
	if !m.running {
		return
	}
	if m.last.IsZero() {
		m.last = now
		return
	}
	dt := impel.Time(now.Sub(m.last) / time.Millisecond)
	if dt <= 0 {
		return
	}
	m.last = now
	dt = min(dt, maxFrameTime)

	m.sim.Step(dt)
	m.now += dt
	m.frames++
	for _, tr := range m.tracks {
		smp, err := m.sim.Sample(tr.Name, m.now)
		if err != nil {
			m.err = err
			return
		}
		tr.sample = smp
		tr.history = append(tr.history, smp.Value)
		if len(tr.history) > historyCapacity {
			tr.history = tr.history[len(tr.history)-historyCapacity:]
		}
	}
}

// Err returns the error that stopped the program, if any.
func (m LiveModel) Err() error {
	return m.err
}

func (m LiveModel) View() string {
	th := m.theme
	valueStyle := lipgloss.NewStyle().Foreground(th.Value)
	targetStyle := lipgloss.NewStyle().Foreground(th.Target)
	nameStyle := lipgloss.NewStyle().Foreground(th.Accent).Bold(true).Width(12)

	var b strings.Builder
	status := StatusRunning.Render("RUNNING")
	if !m.running {
		status = StatusPaused.Render("PAUSED")
	}
	b.WriteString(Title.Render("impel live") + "  " + status)
	b.WriteString(Subtle.Render(fmt.Sprintf("  t=%dms frames=%d theme=%s", m.now, m.frames, th.Name)))
	b.WriteString("\n\n")

	for i, tr := range m.tracks {
		lo, hi := tr.bounds()
		c := NewCanvas(traceWidth, 2)
		c.HLine(tr.sample.Target, lo, hi)
		c.Trace(tr.history, lo, hi)

		b.WriteString(nameStyle.Render(fmt.Sprintf("%d %s", i+1, tr.Name)))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%10.3f", tr.sample.Value)))
		b.WriteString(Subtle.Render(" → "))
		b.WriteString(targetStyle.Render(fmt.Sprintf("%-10.3f", tr.sample.Target)))
		b.WriteString(" " + Progress(tr.start, tr.sample.Value, tr.sample.Target, 20))
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(c.String()))
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(th.Warn).Render(m.err.Error()) + "\n")
	}
	b.WriteString(KeyHint.Render("space pause · f flip all · 1-9 flip one · r reset · t theme · q quit"))
	return Panel.Render(b.String())
}

// bounds spans both targets and the recent history.
func (tr *liveTrack) bounds() (float64, float64) {
	lo := min(tr.Targets[0], tr.Targets[1])
	hi := max(tr.Targets[0], tr.Targets[1])
	for _, v := range tr.history {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// RunLive runs the live view until the user quits.
func RunLive(build func() (*sim.Simulator, error), tracks []LiveTrack, opts LiveOptions) error {
	m, err := NewLiveModel(build, tracks, opts)
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if lm, ok := final.(LiveModel); ok {
		return lm.Err()
	}
	return nil
}
