package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"

	"github.com/reweaveco/reweave/pkg/artifact"
	"github.com/reweaveco/reweave/pkg/reassembly"
	"github.com/reweaveco/reweave/pkg/sse"
	"github.com/reweaveco/reweave/pkg/utils"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

var (
	watchTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	watchMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	watchAccentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	watchSectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	watchDividerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	watchLiveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	watchFrozenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	watchCompleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
)

// tailer folds raw transcript bytes into reassembly state. Bytes can arrive
// in arbitrary chunks; an incomplete trailing event block is carried in the
// remainder until its delimiter shows up.
type tailer struct {
	rules     reassembly.Rules
	remainder string
	state     reassembly.State
	events    int
	bytes     int
	finalized bool
}

func newTailer(rules reassembly.Rules) *tailer {
	return &tailer{rules: rules, state: reassembly.Initial()}
}

func (t *tailer) consume(chunk string) {
	t.bytes += len(chunk)

	blocks, remainder := sse.Split(t.remainder + chunk)
	t.remainder = remainder

	for _, block := range blocks {
		for _, payload := range sse.Parse(block) {
			msg, ok := reassembly.MessageFromPayload(payload)
			if !ok {
				continue
			}

			t.events++
			prev := t.state
			t.state = t.rules.Apply(t.state, msg)
			if t.rules.IsFinal(prev, t.state, msg) {
				t.finalized = true
			}
		}
	}
}

type chunkMsg string

type tailErrMsg struct{ err error }

type watchKeyMap struct {
	Raw  key.Binding
	Quit key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Raw, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Raw, k.Quit}}
}

func defaultKeyMap() watchKeyMap {
	return watchKeyMap{
		Raw:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "raw/files")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type watchModel struct {
	path    string
	tail    *tailer
	chunks  <-chan chunkMsg
	errs    <-chan tailErrMsg
	width   int
	height  int
	showRaw bool
	err     error
	keys    watchKeyMap
	help    help.Model
}

func runWatchTUI(ctx context.Context, path string, rules reassembly.Rules) error {
	chunks := make(chan chunkMsg, 16)
	errs := make(chan tailErrMsg, 1)

	followCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := followCapture(followCtx, path, chunks); err != nil && !errors.Is(err, context.Canceled) {
			errs <- tailErrMsg{err: err}
		}
	}()

	model := watchModel{
		path:   path,
		tail:   newTailer(rules),
		chunks: chunks,
		errs:   errs,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

// followCapture streams the capture file's bytes onto out, starting from the
// beginning and following appends via fsnotify.
func followCapture(ctx context.Context, path string, out chan<- chunkMsg) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening capture: %w", err)
	}
	defer file.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating capture watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching capture dir: %w", err)
	}

	buf := make([]byte, 4096)
	readAvailable := func() error {
		for {
			n, err := file.Read(buf)
			if n > 0 {
				select {
				case out <- chunkMsg(buf[:n]):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}
	}

	if err := readAvailable(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := readAvailable(); err != nil {
				return err
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("capture watcher error: %w", err)
		}
	}
}

func (m watchModel) waitForTail() bubbletea.Cmd {
	return func() bubbletea.Msg {
		select {
		case chunk := <-m.chunks:
			return chunk
		case err := <-m.errs:
			return err
		}
	}
}

func (m watchModel) Init() bubbletea.Cmd {
	return m.waitForTail()
}

func (m watchModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case chunkMsg:
		m.tail.consume(string(msg))
		return m, m.waitForTail()
	case tailErrMsg:
		m.err = msg.err
		return m, nil
	case bubbletea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, bubbletea.Quit
		case key.Matches(msg, m.keys.Raw):
			m.showRaw = !m.showRaw
			return m, nil
		}
	}

	return m, nil
}

func (m watchModel) View() string {
	lines := make([]string, 0, 16)

	header := watchTitleStyle.Render("reweave watch") + " " + watchMutedStyle.Render(m.path)
	lines = append(lines, header, m.rule(), "")

	lines = append(lines, m.viewStatus(), "")

	if m.err != nil {
		lines = append(lines, watchMutedStyle.Render("error: "+m.err.Error()))
		return strings.Join(lines, "\n")
	}

	if m.showRaw {
		lines = append(lines, m.viewRaw())
	} else {
		lines = append(lines, m.viewFiles())
	}

	lines = append(lines, "", m.help.View(m.keys))

	return strings.Join(lines, "\n")
}

func (m watchModel) viewStatus() string {
	status := watchLiveStyle.Render("streaming")
	if m.tail.finalized {
		status = watchCompleteStyle.Render("complete")
	} else if m.tail.state.Frozen() {
		status = watchFrozenStyle.Render("frozen")
	}

	return fmt.Sprintf("%s  %s  %s",
		status,
		watchMutedStyle.Render(fmt.Sprintf("%d events", m.tail.events)),
		watchMutedStyle.Render(fmt.Sprintf("%d bytes", m.tail.bytes)),
	)
}

func (m watchModel) viewFiles() string {
	files := artifact.ParseFiles(m.tail.state.BestText())
	if len(files) == 0 {
		return watchMutedStyle.Render("no complete files yet")
	}

	lines := []string{watchSectionStyle.Render("files"), m.rule()}
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("* %s %s",
			watchAccentStyle.Render(f.Path),
			watchMutedStyle.Render(fmt.Sprintf("%d bytes", len(f.Content))),
		))
	}

	return strings.Join(lines, "\n")
}

// viewRaw shows the tail of the reassembled text, clipped to the window.
func (m watchModel) viewRaw() string {
	text := m.tail.state.BestText()
	if text == "" {
		return watchMutedStyle.Render("no generation content yet")
	}

	maxLines := max(4, m.height-8)
	maxWidth := max(20, m.width-2)

	rawLines := strings.Split(text, "\n")
	if len(rawLines) > maxLines {
		rawLines = rawLines[len(rawLines)-maxLines:]
	}
	for i, line := range rawLines {
		rawLines[i] = utils.Truncate(line, maxWidth)
	}

	out := []string{watchSectionStyle.Render("reassembled text"), m.rule()}
	out = append(out, rawLines...)
	return strings.Join(out, "\n")
}

func (m watchModel) rule() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return watchDividerStyle.Render(strings.Repeat("─", width))
}
