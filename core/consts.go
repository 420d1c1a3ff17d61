/*
   Guidance computer core definitions

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package core implements the instruction-accurate CPU of a historic
// 16-bit, word-addressed guidance computer: registers, edit registers,
// banked erasable and fixed memory, timers/scaler, I/O channels, the
// instruction decoder and executor, and the step/interrupt/watchdog
// control loop. The package is allocation-free at steady state and is
// strictly single-threaded: Step is the only mutator and never blocks.
package core

// Register file slot addresses (octal memory range 00-17).
const (
	RegA    = 0o00
	RegL    = 0o01
	RegQ    = 0o02
	RegEB   = 0o03
	RegFB   = 0o04
	RegZ    = 0o05
	RegBB   = 0o06
	RegZero = 0o07
	// 0o10-0o17 are plain 15-bit scratch slots; real hardware uses them
	// for interrupt-shadow copies (BRUPT/ARUPT/...), but nothing in this
	// core addresses them by name.
	numRegs = 0o20
)

// Edit register addresses (octal 20-23).
const (
	EditCYR = 0o20
	EditSR  = 0o21
	EditCYL = 0o22
	EditEDOP = 0o23
)

// Timer addresses (octal 24-31).
const (
	Time1 = 0o24
	Time2 = 0o25
	Time3 = 0o26
	Time4 = 0o27
	Time5 = 0o30
	Time6 = 0o31
)

// Special register addresses (octal 32-60).
const (
	SpecCDUX    = 0o32
	SpecCDUY    = 0o33
	SpecCDUZ    = 0o34
	SpecOPTX    = 0o35
	SpecOPTY    = 0o36
	SpecPIPAX   = 0o42
	SpecPIPAY   = 0o43
	SpecPIPAZ   = 0o44
	SpecInlink  = 0o45
	SpecOutlink = 0o46
	SpecCDUXCmd = 0o47
	SpecCDUYCmd = 0o50
	SpecCDUZCmd = 0o51
)

// Memory map region boundaries (octal), per the single address decoder.
const (
	mmRegistersLo = 0o00
	mmRegistersHi = 0o17
	mmEditLo      = 0o20
	mmEditHi      = 0o23
	mmTimerLo     = 0o24
	mmTimerHi     = 0o31
	mmSpecialLo   = 0o32
	mmSpecialHi   = 0o60
	mmErasableLo  = 0o61
	mmErasableHi  = 0o1777
	mmFixedLo     = 0o2000
	mmFixedHi     = 0o5777
	mmFixedBankedLo = 0o4000
)

// Erasable memory geometry.
const (
	RAMBankWords = 256
	RAMNumBanks  = 8
)

// Fixed memory geometry.
const (
	ROMBankWords = 1024
	ROMNumBanks  = 36
)

// I/O channel space.
const (
	NumChannels = 512

	ChanSuperbank = 0o07
	ChanL         = 0o01
	ChanQ         = 0o02
	ChanChan13    = 0o13
	ChanChan30    = 0o30
	ChanChan31    = 0o31
	ChanChan32    = 0o32
	ChanChan33    = 0o33
	ChanChan34    = 0o34
	ChanChan35    = 0o35
	ChanDsky      = 0o163
	ChanHiScaler  = 0o42
	ChanLoScaler  = 0o43

	Chan13Time6Bit = 0o40000
	Chan13Mask     = 0x47CF

	SuperbankBit = 1 << 6
)

// Interrupt bit numbers (priority 0 = highest), indices into the rupt mask.
const (
	RuptT3RUPT   = 0
	RuptT4RUPT   = 1
	RuptKEYRUPT1 = 2
	RuptKEYRUPT2 = 3
	RuptUPRUPT   = 4
	RuptDOWNRUPT = 5
	RuptRADARRUPT = 6
	RuptRUPT10   = 7
	RuptT5RUPT   = 8
	RuptT6RUPT   = 9

	NumRuptBits = 10
)

// Aliases matching the names used in spec/design discussion.
const (
	RuptTime3    = RuptT3RUPT
	RuptTime4    = RuptT4RUPT
	RuptTime5    = RuptT5RUPT
	RuptTime6    = RuptT6RUPT
	RuptDownrupt = RuptDOWNRUPT
)

// Unprogrammed-sequence kinds.
type UnprogSeq uint8

const (
	SeqPINC UnprogSeq = iota
	SeqMINC
	SeqDINC
	SeqPCDU
	SeqMCDU
	SeqSHINC
	SeqSHANC
	SeqFETCH
	SeqSTORE
	SeqGOJ
	SeqTCSAJ
	SeqRUPT
	SeqINOTRD
	SeqINOTLD
)

func (s UnprogSeq) cost() uint16 {
	switch s {
	case SeqGOJ, SeqTCSAJ, SeqSTORE, SeqFETCH, SeqRUPT:
		return 2
	default:
		return 1
	}
}

// Unprogrammed queue capacity.
const unprogQueueCap = 8

// Watchdog thresholds (design values, overridable via CPU.SetThresholds).
const (
	DefaultNightwatchTime  = 2560 // ~1.28s simulated at ~2us/MCT-third
	DefaultTCMonitorCount  = 2500 // ~5ms simulated
	DefaultRuptLockCount   = 70000
)

// Restart entry point.
const RestartPC = 0x800
