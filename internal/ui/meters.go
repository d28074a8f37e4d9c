package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lumenjack/brsync/internal/audio"
)

// peakHoldDecay shrinks the peak markers a little on every frame so they
// trail the live level instead of sticking at the loudest moment
const peakHoldDecay = 0.985

const (
	meterBarMinWidth = 20
	meterBarMaxWidth = 60
)

// frameMsg carries one analysis frame into the model
type frameMsg audio.Frame

// sourceClosedMsg signals that the frame channel was closed
type sourceClosedMsg struct{}

type meterKeyMap struct {
	Quit key.Binding
}

func defaultMeterKeyMap() meterKeyMap {
	return meterKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// LevelsModel is the Bubble Tea model behind "brsync levels". It renders
// the three band levels as progress bars and redraws on every frame.
type LevelsModel struct {
	frames <-chan audio.Frame
	role   string

	bars  [3]progress.Model
	frame audio.Frame
	peaks [3]float64
	count uint64

	width int
	keys  meterKeyMap
}

var bandNames = [3]string{"bass", "mid", "treble"}

// NewLevelsModel creates the meter model reading from the given frame
// channel. role is shown in the status bar ("master" or "follower").
func NewLevelsModel(frames <-chan audio.Frame, role string) LevelsModel {
	m := LevelsModel{
		frames: frames,
		role:   role,
		width:  MinTerminalWidth,
		keys:   defaultMeterKeyMap(),
	}
	fills := [3]string{string(BassColor), string(MidColor), string(TrebleColor)}
	for i := range m.bars {
		m.bars[i] = progress.New(
			progress.WithSolidFill(fills[i]),
			progress.WithWidth(meterBarMinWidth),
			progress.WithoutPercentage(),
		)
	}
	return m
}

// Init implements tea.Model
func (m LevelsModel) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

// Update implements tea.Model
func (m LevelsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 20 // label, readout, padding
		if barWidth < meterBarMinWidth {
			barWidth = meterBarMinWidth
		}
		if barWidth > meterBarMaxWidth {
			barWidth = meterBarMaxWidth
		}
		for i := range m.bars {
			m.bars[i].Width = barWidth
		}

	case frameMsg:
		m.frame = audio.Frame(msg)
		m.count++
		for i, level := range [3]float64{m.frame.Bass, m.frame.Mid, m.frame.Treble} {
			m.peaks[i] *= peakHoldDecay
			if level > m.peaks[i] {
				m.peaks[i] = level
			}
		}
		return m, waitForFrame(m.frames)

	case sourceClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model
func (m LevelsModel) View() string {
	s := TitleStyle.Render("brsync levels") + "\n\n"

	levels := [3]float64{m.frame.Bass, m.frame.Mid, m.frame.Treble}
	for i, name := range bandNames {
		s += MeterLabelStyle.Render(name) +
			m.bars[i].ViewAs(levels[i]) +
			MeterValueStyle.Render(fmt.Sprintf("  %4.2f  peak %4.2f", levels[i], m.peaks[i])) +
			"\n"
	}

	s += "\n" + StatusBarStyle.Render(
		fmt.Sprintf("role %s · frame %d · seq %d · q to quit", m.role, m.count, m.frame.Seq),
	) + "\n"
	return s
}

// waitForFrame blocks on the channel and converts the result to a message
func waitForFrame(ch <-chan audio.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return sourceClosedMsg{}
		}
		return frameMsg(f)
	}
}

// RunLevels runs the meter TUI until the user quits, the frame source
// closes, or ctx is cancelled.
func RunLevels(ctx context.Context, frames <-chan audio.Frame, role string) error {
	p := tea.NewProgram(NewLevelsModel(frames, role), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled)) {
		return nil
	}
	return err
}
