package viz

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sethrj/celeritas/internal/field"
	"github.com/sethrj/celeritas/internal/propagate"
	"github.com/sethrj/celeritas/internal/track"
)

const (
	liveWidth  = 72
	liveHeight = 22
)

type tickMsg time.Time

// LiveModel is a bubbletea model that propagates one track segment per tick
// and draws the x-y projection of its trajectory.
type LiveModel struct {
	gtv     track.Geometry
	prop    *propagate.Propagator
	segment float64
	extent  float64

	canvas   *Canvas
	distance float64
	segments int
	status   string
	done     bool
	paused   bool

	frameRate int
}

// NewLive builds a live view for one primary in the given geometry and
// field. extent is the world half-width used to frame the canvas.
func NewLive(gtv track.Geometry, fld field.Field, opts propagate.Options, primary track.Track, segment, extent float64, frameRate int) *LiveModel {
	gtv.Init(primary.Pos, primary.Dir.Unit())
	drv := field.NewDriver(opts.Driver, field.Equation{Field: fld, Charge: primary.Charge})

	if frameRate <= 0 {
		frameRate = 30
	}
	m := &LiveModel{
		gtv:       gtv,
		prop:      propagate.New(opts, drv, gtv, primary.Momentum),
		segment:   segment,
		extent:    extent,
		canvas:    NewCanvas(liveWidth, liveHeight, -extent, extent, -extent, extent),
		status:    "running",
		frameRate: frameRate,
	}
	m.canvas.PlotRect(-extent, -extent, extent, extent)
	m.canvas.Plot(gtv.Pos()[0], gtv.Pos()[1])
	return m
}

func (m *LiveModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *LiveModel) Init() tea.Cmd {
	return m.tick()
}

func (m *LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		}
	case tickMsg:
		if m.done || m.paused {
			return m, m.tick()
		}
		m.step()
		return m, m.tick()
	}
	return m, nil
}

// step advances the track by one propagation segment.
func (m *LiveModel) step() {
	from := m.gtv.Pos()
	res := m.prop.Propagate(m.segment)
	m.distance += res.Distance
	m.segments++
	to := m.gtv.Pos()
	m.canvas.PlotLine(from[0], from[1], to[0], to[1])

	switch {
	case res.Looping:
		m.status = "looping"
		m.done = true
	case res.Boundary:
		m.gtv.CrossBoundary()
		if m.gtv.IsOutside() {
			m.status = "exited"
			m.done = true
		}
	}
}

func (m *LiveModel) View() string {
	title := TitleStyle.Render("celeritas live propagation")

	status := StatusRunning.Render(m.status)
	if m.done {
		status = StatusDone.Render(m.status)
	}
	if m.paused {
		status = StatusDone.Render("paused")
	}

	metrics := lipgloss.JoinHorizontal(lipgloss.Top,
		MetricLabel.Render("status "), status,
		MetricLabel.Render("   s "), MetricValue.Render(fmt.Sprintf("%.4g", m.distance)),
		MetricLabel.Render("   segments "), MetricValue.Render(fmt.Sprintf("%d", m.segments)),
	)

	help := KeyHint.Render("space pause  q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		PanelStyle.Render(m.canvas.String()),
		metrics,
		help,
	)
}
