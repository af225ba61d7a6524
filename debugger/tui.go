package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/luz/disasm"
)

// TUI is the full-screen front end for the debug surface: a registers
// pane, a disassembly pane, a memory pane, an output log, and a command
// line. The peripheral debug queue is not shown in any pane. It renders Debugger state; it never
// mutates architectural state directly, only through
// Debugger.ExecuteCommand.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	MainLayout      *tview.Flex
	RegisterView    *tview.TextView
	DisassemblyView *tview.TextView
	MemoryView      *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress uint32
}

// NewTUI builds the layout over an existing Debugger.
func NewTUI(dbg *Debugger) *TUI {
	t := &TUI{Debugger: dbg, App: tview.NewApplication()}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command (s, c, r, m ADDR N, set alias 0|1, q, help) ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.DisassemblyView, 0, 2, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(t.RegisterView, 11, 0, false).
			AddItem(t.MemoryView, 0, 1, false), 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			t.executeCommand("c")
			return nil
		case tcell.KeyF11:
			t.executeCommand("s")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd == "" {
		return
	}
	t.CommandInput.SetText("")
	if cmd == "q" || cmd == "quit" {
		t.App.Stop()
		return
	}
	t.executeCommand(cmd)
}

func (t *TUI) executeCommand(cmd string) {
	err := t.Debugger.ExecuteCommand(cmd)
	if output := t.Debugger.GetOutput(); output != "" {
		t.WriteOutput(output)
	}
	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
	}
	t.RefreshAll()
}

// WriteOutput appends text to the output log and scrolls to it.
func (t *TUI) WriteOutput(text string) {
	fmt.Fprint(t.OutputView, text)
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every pane from current Debugger/VM state.
func (t *TUI) RefreshAll() {
	t.updateRegisterView()
	t.updateDisassemblyView()
	t.updateMemoryView()
	t.App.Draw()
}

func (t *TUI) updateRegisterView() {
	cpu := t.Debugger.VM.CPU
	var lines []string
	for row := 0; row < 32; row += 4 {
		lines = append(lines, fmt.Sprintf("r%-2d=%08X r%-2d=%08X r%-2d=%08X r%-2d=%08X",
			row, cpu.GetRegister(row), row+1, cpu.GetRegister(row+1),
			row+2, cpu.GetRegister(row+2), row+3, cpu.GetRegister(row+3)))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("pc=%08X err=%08X", cpu.PC, cpu.ERR))
	lines = append(lines, fmt.Sprintf("cause=%s halt=%v cycles=%d", cpu.Cause, cpu.Halt, cpu.Cycles))
	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateDisassemblyView() {
	pc := t.Debugger.VM.CPU.PC
	var lines []string
	start := pc
	if start >= 5*4 {
		start -= 5 * 4
	} else {
		start = 0
	}
	for addr := start; addr < start+20*4; addr += 4 {
		word, err := t.Debugger.VM.Memory.Load32(addr)
		if err != nil {
			continue
		}
		marker := "  "
		color := "white"
		if addr == pc {
			marker, color = "->", "yellow"
		}
		lines = append(lines, fmt.Sprintf("[%s]%s 0x%08X: %s[white]", color, marker, addr,
			disasm.Disassemble(word, addr, t.Debugger.ShowAlias)))
	}
	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateMemoryView() {
	addr := t.MemoryAddress
	data := t.Debugger.VM.Memory.Bytes(addr, 256)
	var lines []string
	for row := 0; row < len(data); row += 16 {
		end := row + 16
		if end > len(data) {
			end = len(data)
		}
		var hex strings.Builder
		for _, b := range data[row:end] {
			fmt.Fprintf(&hex, "%02X ", b)
		}
		lines = append(lines, fmt.Sprintf("0x%08X: %s", addr+uint32(row), hex.String()))
	}
	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

// Run starts the full-screen application loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}
