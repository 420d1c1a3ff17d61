/*
 * onesmallstep - DSKY peripheral
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package peripherals

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	core "github.com/onesmallstep/agc/core"
)

// sevenSegTable maps a 5-bit AGC digit code to the classic a-g segment
// bitmask (bit0=a ... bit6=g), 0x00 meaning blank. Grounded on the Rust
// prototype's utils.rs SEVEN_SEG_TABLE/get_7seg lookup.
var sevenSegTable = [11]byte{0x3F, 0x06, 0x5B, 0x4F, 0x66, 0x6D, 0x7D, 0x07, 0x7F, 0x6F, 0x00}

func get7Seg(agcVal uint16) byte {
	switch agcVal {
	case 21:
		return sevenSegTable[0]
	case 3:
		return sevenSegTable[1]
	case 25:
		return sevenSegTable[2]
	case 27:
		return sevenSegTable[3]
	case 15:
		return sevenSegTable[4]
	case 30:
		return sevenSegTable[5]
	case 28:
		return sevenSegTable[6]
	case 19:
		return sevenSegTable[7]
	case 29:
		return sevenSegTable[8]
	case 31:
		return sevenSegTable[9]
	default:
		return sevenSegTable[10]
	}
}

func segmentToDigit(seg byte) rune {
	for d, s := range sevenSegTable {
		if s == seg {
			if d == 10 {
				return ' '
			}
			return rune('0' + d)
		}
	}
	return '?'
}

// dskyChannelDsalmout is the channel number the Rust prototype
// special-cases in DskyDisplay::write, beyond the core's own
// ChanDsky/ChanChan13.
const (
	dskyChannelDsalmout = 0o11
)

// DSKY implements core.Peripheral, decoding the AGC's 15-bit relay-word
// writes to channel 0o163 into the seven digit positions, VERB/NOUN/PROG,
// and the status-lamp flags, per the field layout in the Rust prototype's
// dsky.rs set_channel_dsky_value. A bubbletea/lipgloss model renders the
// current state; keypresses and the PRO (proceed) key feed back through
// the same transport the Rust prototype used a raw TCP socket for.
type DSKY struct {
	mu sync.Mutex

	digits  [15]byte // segment bitmasks, index 0 is leftmost
	verb    uint16
	noun    uint16
	prog    uint16
	outputFlags uint16
	dsalmout    uint16
	proceed     uint16 // bit 0o40000 set selects proceed-key bits in 13:0

	keyQueue []uint16
	keyVal   uint16

	tr   *transport
	wg   sync.WaitGroup
	done chan struct{}

	program *tea.Program
}

// NewDSKY constructs a DSKY peripheral listening for a remote front end
// (or this process's own TUI) on addr. Pass "" to run purely in-process
// with no network transport.
func NewDSKY(addr string) *DSKY {
	d := &DSKY{proceed: 0o20000}
	if addr != "" {
		d.tr = newTransport(addr)
	}
	return d
}

// Start begins serving the network transport, if one was configured, and
// starts the background loop that bridges inbound keypress/proceed
// packets into the same queue PushKey feeds.
func (d *DSKY) Start() error {
	if d.tr == nil {
		return nil
	}
	if err := d.tr.start(); err != nil {
		return err
	}
	d.done = make(chan struct{})
	d.wg.Add(1)
	go d.recvLoop()
	return nil
}

func (d *DSKY) Stop() {
	if d.tr != nil {
		close(d.done)
		d.wg.Wait()
		d.tr.stop()
	}
}

// recvLoop polls the transport for inbound packets and forwards each
// one's value into PushKey, matching the Rust prototype's
// handle_stream_input feeding keypress_tx, consumed by is_interrupt.
func (d *DSKY) recvLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			for {
				p, ok := d.tr.tryRecv()
				if !ok {
					break
				}
				d.PushKey(p.value)
			}
		}
	}
}

func (d *DSKY) parseFields(val uint16) (a uint16, b bool, c, e uint16) {
	a = (val >> 11) & 0xF
	c = (val >> 5) & 0x1F
	e = val & 0x1F
	b = val&(1<<10) != 0
	return
}

// Read implements core.Peripheral. Only ChanChan32 (the proceed-key OR)
// is actually consulted by the core's I/O dispatcher (spec.md 4.7); the
// other cases exist for direct inspection/tests.
func (d *DSKY) Read(channel uint16) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch channel {
	case core.ChanChan32:
		return d.proceed
	case core.ChanChan30, core.ChanChan31, core.ChanChan33:
		return 0o77777
	case core.ChanDsky:
		return d.outputFlags & 0o1771
	default:
		return d.keyVal & 0x1F
	}
}

// Write implements core.Peripheral. Every channel write in the system is
// routed here (spec.md 4.7); only ChanDsky, the CHAN13 flash-test bit,
// and DSALMOUT have any effect.
func (d *DSKY) Write(channel uint16, value uint16) {
	switch channel {
	case core.ChanDsky:
		d.setChannelDskyValue(value)
	case dskyChannelDsalmout:
		d.setDsalmoutFlags(value)
	case core.ChanChan13:
		d.mu.Lock()
		if value&0o01000 != 0 {
			d.outputFlags |= 0o00400
		} else {
			d.outputFlags &^= 0o00400
		}
		d.mu.Unlock()
	}
}

func (d *DSKY) setDsalmoutFlags(flags uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dsalmout == flags {
		return
	}
	d.dsalmout = flags
	d.outputFlags = (d.outputFlags &^ 0o00170) | (flags & 0o00170)
	if d.tr != nil {
		d.tr.send(packet{channel: dskyChannelDsalmout, value: flags})
	}
}

// setChannelDskyValue decodes one relay-word write per the field layout
// the Rust prototype's set_channel_dsky_value switches on: field "a"
// (bits 14:11) selects which digit pair, VERB, NOUN, or PROG is being
// loaded from the 5-bit codes in fields "c"/"e" (bits 9:5 and 4:0).
func (d *DSKY) setChannelDskyValue(val uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, _, c, e := d.parseFields(val)
	switch a {
	case 1:
		d.digits[13], d.digits[14] = get7Seg(c), get7Seg(e)
	case 2:
		d.digits[11], d.digits[12] = get7Seg(c), get7Seg(e)
	case 3:
		d.digits[9], d.digits[10] = get7Seg(c), get7Seg(e)
	case 4:
		d.digits[7], d.digits[8] = get7Seg(c), get7Seg(e)
	case 5:
		d.digits[5], d.digits[6] = get7Seg(c), get7Seg(e)
	case 6:
		d.digits[3], d.digits[4] = get7Seg(c), get7Seg(e)
	case 7:
		d.digits[1], d.digits[2] = get7Seg(c), get7Seg(e)
	case 8:
		d.digits[0] = get7Seg(e)
	case 9:
		d.noun = get7SegValue(c, e)
	case 10:
		d.verb = get7SegValue(c, e)
	case 11:
		d.prog = get7SegValue(c, e)
	}

	if d.tr != nil {
		d.tr.send(packet{channel: core.ChanDsky, value: val})
	}
}

func get7SegValue(c, e uint16) uint16 {
	return uint16(get7Seg(c))<<8 | uint16(get7Seg(e))
}

// PushKey enqueues an operator keypress (0-31, per the AGC's keycode
// table) or, with the 0o40000 bit set, a new proceed-key bit pattern -
// matching the Rust prototype's keypress_tx channel, fed here by the TUI
// or network transport instead of a crossbeam channel.
func (d *DSKY) PushKey(code uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyQueue = append(d.keyQueue, code)
}

// IsInterrupt implements core.Peripheral: draining one queued keypress
// raises KEYRUPT1 (spec.md 4.10's rupt bit table), matching the Rust
// prototype's is_interrupt, which also special-cases the PRO key (0o22)
// by clearing channel 0o163 bit 0o200 (the "uplink activity" lamp).
func (d *DSKY) IsInterrupt() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.keyQueue) == 0 {
		return 0
	}
	val := d.keyQueue[0]
	d.keyQueue = d.keyQueue[1:]

	if val&0o40000 != 0 {
		d.proceed = val &^ 0o40000
		return 0
	}
	d.keyVal = val
	if d.keyVal == 0o22 {
		d.outputFlags &^= 0o00200
	}
	return 1 << core.RuptKEYRUPT1
}

// Snapshot is a point-in-time read of the display state for the TUI.
type Snapshot struct {
	Verb, Noun, Prog string
	Digits           string
}

func (d *DSKY) snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	digits := make([]rune, len(d.digits))
	for i, seg := range d.digits {
		digits[i] = segmentToDigit(seg)
	}
	return Snapshot{
		Verb:   fmt.Sprintf("%c%c", segmentToDigit(byte(d.verb>>8)), segmentToDigit(byte(d.verb))),
		Noun:   fmt.Sprintf("%c%c", segmentToDigit(byte(d.noun>>8)), segmentToDigit(byte(d.noun))),
		Prog:   fmt.Sprintf("%c%c", segmentToDigit(byte(d.prog>>8)), segmentToDigit(byte(d.prog))),
		Digits: string(digits),
	}
}

// DisplayLines renders the current VERB/NOUN/PROG/digit state as plain
// text lines, for front ends that don't speak bubbletea (e.g. an ebiten
// panel driving its own redraw loop).
func (d *DSKY) DisplayLines() []string {
	snap := d.snapshot()
	return []string{
		fmt.Sprintf("V%s N%s P%s", snap.Verb, snap.Noun, snap.Prog),
		snap.Digits,
	}
}

// dskyModel is the bubbletea Elm-architecture model for the terminal
// front end, in the same Init/Update/View shape hejops-gone's bubbletea
// program uses. Keys 0-9 queue a digit keypress, "v"/"n" queue VERB/NOUN,
// enter queues PRO (proceed).
type dskyModel struct {
	dsky *DSKY
}

const dskyRepaintInterval = 100 * time.Millisecond

type dskyTickMsg time.Time

func dskyTick() tea.Cmd {
	return tea.Tick(dskyRepaintInterval, func(t time.Time) tea.Msg { return dskyTickMsg(t) })
}

func (m dskyModel) Init() tea.Cmd { return dskyTick() }

func (m dskyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dskyTickMsg:
		return m, dskyTick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			m.dsky.PushKey(0o40000 | 0o20000)
		case "v":
			m.dsky.PushKey(0o21)
		case "n":
			m.dsky.PushKey(0o31)
		default:
			if len(msg.Runes) == 1 && msg.Runes[0] >= '0' && msg.Runes[0] <= '9' {
				m.dsky.PushKey(uint16(msg.Runes[0]-'0') + 1)
			}
		}
	}
	return m, nil
}

var (
	dskyLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	dskyDigitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func (m dskyModel) View() string {
	snap := m.dsky.snapshot()
	return lipgloss.JoinVertical(lipgloss.Left,
		dskyLabelStyle.Render("VERB ")+dskyDigitStyle.Render(snap.Verb)+
			dskyLabelStyle.Render("  NOUN ")+dskyDigitStyle.Render(snap.Noun)+
			dskyLabelStyle.Render("  PROG ")+dskyDigitStyle.Render(snap.Prog),
		dskyDigitStyle.Render(snap.Digits),
		"[0-9] digit  [v]erb  [n]oun  [enter] proceed  [q]uit",
	)
}

// RunTUI starts the bubbletea program rendering this DSKY's state; it
// blocks until the user quits.
func (d *DSKY) RunTUI() error {
	d.program = tea.NewProgram(dskyModel{dsky: d})
	_, err := d.program.Run()
	return err
}
