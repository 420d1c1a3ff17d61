package core

// Thresholds bundles the three watchdog design thresholds so they can
// be overridden (by configuration) without touching CPU internals.
type Thresholds struct {
	NightwatchTime uint32
	TCMonitorCount uint32
	RuptLockCount  int32
}

// DefaultThresholds returns the historical design values (spec.md 4.10).
func DefaultThresholds() Thresholds {
	return Thresholds{
		NightwatchTime: DefaultNightwatchTime,
		TCMonitorCount: DefaultTCMonitorCount,
		RuptLockCount:  DefaultRuptLockCount,
	}
}

// CPU is the instruction-accurate guidance-computer core: registers,
// memory map, unprogrammed queue, interrupt arbitration, and watchdogs.
// It is strictly single-threaded; Step is the only mutator and never
// blocks (spec.md 5).
type CPU struct {
	mm     *memoryMap
	unprog *unprogQueue

	ir     uint16 // last-fetched inst_data, for RESUME/interrupt save
	idxVal uint16
	ecFlag bool

	gint    bool
	isIrupt bool
	rupt    uint16 // pending interrupt mask, bit i = priority i

	shadowPC uint16
	shadowIR uint16

	totalCycles uint64

	nightwatchCycles uint32
	tcCount          uint32
	nonTcCount       uint32
	lastWasTC        bool
	ruptLockCount    int32

	thresholds Thresholds

	errf func(format string, args ...any)
}

// New constructs a CPU bound to a fresh memory map. Use LoadROM and
// SetPeripherals before the first Step.
func New() *CPU {
	cpu := &CPU{
		mm:         newMemoryMap(),
		unprog:     newUnprogQueue(),
		thresholds: DefaultThresholds(),
		errf:       func(string, ...any) {},
	}
	cpu.Reset()
	return cpu
}

// SetErrorLog installs the logging callback used for every non-fatal
// error path in spec.md 7. A nil callback silences logging.
func (c *CPU) SetErrorLog(f func(format string, args ...any)) {
	if f == nil {
		f = func(string, ...any) {}
	}
	c.errf = f
	c.mm.SetErrorLog(f)
}

// SetThresholds overrides the watchdog design thresholds.
func (c *CPU) SetThresholds(t Thresholds) { c.thresholds = t }

// SetDebugWrite toggles whether ROM writes are accepted.
func (c *CPU) SetDebugWrite(v bool) { c.mm.SetDebugWrite(v) }

// LoadROM installs a rope image addressed by logical (pre-swap) bank.
func (c *CPU) LoadROM(program *[ROMNumBanks][ROMBankWords]uint16) {
	c.mm.LoadROM(program)
}

// SetPeripherals installs the DSKY and DOWNRUPT peripheral slots.
func (c *CPU) SetPeripherals(dsky, downrupt Peripheral) {
	c.mm.SetPeripherals(dsky, downrupt)
}

// TotalCycles returns the running MCT total (spec.md 6).
func (c *CPU) TotalCycles() uint64 { return c.totalCycles }

// A, L, Q, Z expose the central registers for observers (tests, REPL).
func (c *CPU) A() uint16 { return c.mm.regs.a() }
func (c *CPU) L() uint16 { return c.mm.regs.l() }
func (c *CPU) Q() uint16 { return c.mm.regs.q() }
func (c *CPU) Z() uint16 { return c.mm.regs.z() }
func (c *CPU) GInt() bool { return c.gint }

// ReadMemory / WriteMemory expose the memory map for tests and tools.
func (c *CPU) ReadMemory(addr uint16) uint16        { return c.mm.read(addr) }
func (c *CPU) WriteMemory(addr uint16, value uint16) { c.mm.write(addr, value) }
func (c *CPU) ReadChannel(ch uint16) uint16          { return c.mm.readChannel(ch) }
func (c *CPU) WriteChannel(ch, value uint16)         { c.mm.writeChannel(ch, value) }

// RaiseInterrupt lets a peripheral-owning layer latch a rupt bit
// directly (used by peripherals whose IsInterrupt edge the dispatcher
// has already folded in via checkInterrupt; exposed for tests).
func (c *CPU) RaiseInterrupt(bit uint16) { c.rupt |= 1 << bit }

// Reset restores PC=0x800, gint=false, rupt=1<<DOWNRUPT, per spec.md 3.
// RAM and ROM are untouched.
func (c *CPU) Reset() {
	c.mm.reset()
	c.unprog.reset()
	c.mm.regs.setZ(RestartPC)
	c.ir = 0
	c.idxVal = 0
	c.ecFlag = false
	c.gint = false
	c.isIrupt = false
	c.rupt = 1 << RuptDownrupt
	c.shadowPC = 0
	c.shadowIR = 0
	c.totalCycles = 0
	c.nightwatchCycles = 0
	c.tcCount = 0
	c.nonTcCount = 0
	c.lastWasTC = false
	c.ruptLockCount = 0
}

// ruptDisabled reports whether interrupt dispatch must be held off this
// step (spec.md 4.10).
func (c *CPU) ruptDisabled() bool {
	return c.ecFlag || !c.gint || c.isIrupt || isOverflow(c.mm.regs.a())
}

func (c *CPU) ruptPending() bool { return c.rupt != 0 }

// lowestRuptBit returns the lowest-numbered pending interrupt bit.
func (c *CPU) lowestRuptBit() uint16 {
	for i := uint16(0); i < NumRuptBits; i++ {
		if c.rupt&(1<<i) != 0 {
			return i
		}
	}
	return 0
}

// dispatchInterrupt implements spec.md 4.10's interrupt dispatch.
func (c *CPU) dispatchInterrupt() {
	i := c.lowestRuptBit()
	c.shadowPC = (c.mm.regs.z() + 1) & 0o7777
	c.shadowIR = c.ir
	c.idxVal = 0
	c.mm.regs.setZ(RestartPC + i*4)
	c.rupt &^= 1 << i
	c.isIrupt = true
	if !c.unprog.push(SeqRUPT) {
		c.errf("unprogrammed queue full: dropped RUPT for interrupt bit %d", i)
	}
}

// checkInterrupt folds in any interrupt bits the peripheral dispatcher
// is currently signalling.
func (c *CPU) checkInterrupt() {
	c.rupt |= c.mm.checkInterrupt()
}

// Step advances the machine by one instruction-equivalent and returns
// the number of MCTs elapsed (spec.md 2, 4.10).
func (c *CPU) Step() uint16 {
	c.checkInterrupt()

	if c.unprog.len() > 0 {
		seq, _ := c.unprog.pop()
		cost := seq.cost()
		c.updateCycles(cost)
		if seq == SeqGOJ {
			c.restart()
			return cost
		}
		if !c.ruptDisabled() && c.ruptPending() {
			c.dispatchInterrupt()
		}
		return cost
	}

	if !c.ruptDisabled() && c.ruptPending() {
		c.dispatchInterrupt()
		return 0
	}

	pc := c.mm.regs.z()
	word := c.mm.read(pc)
	data := word + c.idxVal
	if c.ecFlag {
		data |= instExtendBit
	}
	decoded := decode(data)
	c.ir = data
	c.mm.regs.setZ(pc + 1)
	c.idxVal = 0
	if decoded.mnem != mnINDEX {
		c.ecFlag = false
	}

	cost := c.execute(decoded)
	c.updateCycles(cost)
	return cost
}

// updateCycles runs the three watchdogs over the MCTs just spent, after
// the instruction's own side effects (spec.md 4.10, 5).
func (c *CPU) updateCycles(mcts uint16) {
	c.totalCycles += uint64(mcts)

	rupt := c.mm.tmrs.pumpMCTs(mcts, c.unprog)
	c.rupt |= rupt

	c.nightwatchCycles += uint32(mcts)
	if c.nightwatchCycles >= c.thresholds.NightwatchTime {
		if c.mm.nightwatch == 0 {
			if !c.unprog.push(SeqGOJ) {
				c.errf("unprogrammed queue full: dropped GOJ from nightwatchman")
			}
		}
		c.nightwatchCycles = 0
		c.mm.nightwatch = 0
	}

	if c.tcCount >= c.thresholds.TCMonitorCount || c.nonTcCount >= c.thresholds.TCMonitorCount {
		if !c.unprog.push(SeqGOJ) {
			c.errf("unprogrammed queue full: dropped GOJ from TC-monitor")
		}
		c.tcCount = 0
		c.nonTcCount = 0
	}

	if c.isIrupt {
		c.ruptLockCount++
	} else {
		c.ruptLockCount--
	}
	if c.ruptLockCount >= c.thresholds.RuptLockCount || c.ruptLockCount <= -c.thresholds.RuptLockCount {
		if !c.unprog.push(SeqGOJ) {
			c.errf("unprogrammed queue full: dropped GOJ from rupt-lock")
		}
		c.ruptLockCount = 0
	}
}

// noteTC tracks consecutive TC/TCF vs non-TC instruction runs for the
// TC-trap watchdog; called from execute for every decoded instruction.
func (c *CPU) noteTC(isTC bool) {
	if isTC {
		c.tcCount++
		c.nonTcCount = 0
	} else {
		c.nonTcCount++
		c.tcCount = 0
	}
	c.lastWasTC = isTC
}

// restart implements the GOJ restart sequence (spec.md 4.10).
func (c *CPU) restart() {
	for _, ch := range []uint16{5, 6, 10, 11, 12, 13, 14, 34, 34} {
		c.mm.writeChannel(ch, 0)
	}
	ch163 := c.mm.readChannel(ChanDsky)
	c.mm.writeChannel(ChanDsky, ch163&^(1<<11))

	c.gint = false
	c.isIrupt = false
	c.tcCount = 0
	c.nonTcCount = 0

	c.mm.regs.setZ(RestartPC)

	ch163 = c.mm.readChannel(ChanDsky)
	c.mm.writeChannel(ChanDsky, ch163|0o200)
}
