/*
 * onesmallstep - DOWNRUPT peripheral
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
	"sync"

	core "github.com/onesmallstep/agc/core"
)

// Downrupt implements core.Peripheral for the telemetry downlink: it has
// no display and never interrupts on its own (IsInterrupt always 0, the
// RUPT_DOWNRUPT bit is raised by the timer subsystem itself, not this
// peripheral). Every write to channel 34 or 35 is forwarded verbatim over
// the network transport, matching the Rust prototype's DownruptPeriph.
type Downrupt struct {
	mu        sync.Mutex
	wordOrder bool

	tr *transport
}

// NewDownrupt constructs a DOWNRUPT peripheral forwarding telemetry words
// to addr. Pass "" to run with no network transport (writes are simply
// dropped after updating word-order state).
func NewDownrupt(addr string) *Downrupt {
	d := &Downrupt{}
	if addr != "" {
		d.tr = newTransport(addr)
	}
	return d
}

func (d *Downrupt) Start() error {
	if d.tr == nil {
		return nil
	}
	return d.tr.start()
}

func (d *Downrupt) Stop() {
	if d.tr != nil {
		d.tr.stop()
	}
}

// Read implements core.Peripheral. CHAN13 reports the word-order bit
// this peripheral itself latched; the CHAN30-35 inputs default high
// (spec.md 4.7).
func (d *Downrupt) Read(channel uint16) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch channel {
	case core.ChanChan13:
		if d.wordOrder {
			return 1 << 6
		}
		return 0
	case core.ChanChan30, core.ChanChan31, core.ChanChan32, core.ChanChan33, core.ChanChan34, core.ChanChan35:
		return 0o77777
	default:
		return 0
	}
}

// Write implements core.Peripheral: CHAN13 bit 6 selects telemetry word
// order, CHAN34/35 writes are the actual downlinked telemetry words.
func (d *Downrupt) Write(channel uint16, value uint16) {
	switch channel {
	case core.ChanChan13:
		d.mu.Lock()
		d.wordOrder = value&(1<<6) != 0
		d.mu.Unlock()
	case core.ChanChan34, core.ChanChan35:
		if d.tr != nil {
			d.tr.send(packet{channel: channel, value: value})
		}
	}
}

// IsInterrupt implements core.Peripheral. DOWNRUPT never latches its own
// interrupt edge; RUPT_DOWNRUPT is raised by the timer's pacing counter.
func (d *Downrupt) IsInterrupt() uint16 { return 0 }
