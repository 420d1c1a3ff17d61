package core

// memoryMap is the single address decoder that routes every CPU memory
// reference to the right component and, for RAM/ROM, resolves bank
// selection including the EB/FB windows and the superbank remap
// (spec.md 4.5). It exclusively owns every addressable component; the
// CPU exclusively owns the memory map and the unprogrammed queue.
type memoryMap struct {
	regs    *registerFile
	edit    *editRegisters
	tmrs    *timers
	special *specialRegisters
	ram     *ram
	rom     *rom
	io      *io

	nightwatch       uint32
	nightwatchCycles uint32

	errf func(format string, args ...any)
}

func newMemoryMap() *memoryMap {
	regs := newRegisterFile()
	t := newTimers()
	mm := &memoryMap{
		regs:    regs,
		edit:    newEditRegisters(),
		tmrs:    t,
		special: newSpecialRegisters(),
		ram:     newRAM(),
		rom:     newROM(),
		io:      newIO(regs, t),
		errf:    func(string, ...any) {},
	}
	return mm
}

// SetErrorLog installs a callback used for the error-log policy entries
// of spec.md 7 (invalid ROM writes, bank access violations, dropped
// unprogrammed sequences). A nil callback is a silent no-op.
func (mm *memoryMap) SetErrorLog(f func(format string, args ...any)) {
	if f == nil {
		f = func(string, ...any) {}
	}
	mm.errf = f
	mm.tmrs.setErrorLog(f)
}

func (mm *memoryMap) reset() {
	mm.regs.reset()
	mm.edit.reset()
	mm.tmrs.reset()
	mm.special.reset()
	mm.io.reset()
	mm.nightwatch = 0
	mm.nightwatchCycles = 0
	// RAM and ROM are not cleared on reset (spec.md 3).
}

// SetDebugWrite enables or disables ROM writes for debugging/patching.
func (mm *memoryMap) SetDebugWrite(v bool) { mm.rom.setDebug(v) }

// LoadROM installs a rope image, addressed by logical (pre-swap) bank.
func (mm *memoryMap) LoadROM(program *[ROMNumBanks][ROMBankWords]uint16) {
	mm.rom.load(program)
}

// SetPeripherals installs the DSKY and DOWNRUPT peripheral slots.
func (mm *memoryMap) SetPeripherals(dsky, downrupt Peripheral) {
	mm.io.setDSKY(dsky)
	mm.io.setDownrupt(downrupt)
}

func (mm *memoryMap) checkInterrupt() uint16 { return mm.io.checkInterrupt() }

// read performs a 16-bit-address memory reference, applying
// sign-extension conventions the caller expects to be masked per-slot
// already (registers/edit/timers/special are already 15-bit values
// except A/Q).
func (mm *memoryMap) read(addr uint16) uint16 {
	switch {
	case addr <= mmRegistersHi:
		return mm.regs.read(addr)
	case addr <= mmEditHi:
		return mm.edit.read(addr)
	case addr <= mmTimerHi:
		return mm.tmrs.read(addr)
	case addr <= mmSpecialHi:
		if addr == 0o67 {
			mm.nightwatch++
		}
		return mm.special.read(addr)
	case addr <= mmErasableHi:
		if addr == 0o67 {
			mm.nightwatch++
		}
		bank, offset := mm.erasableLocation(addr)
		return mm.ram.read(bank, offset)
	case addr <= mmFixedHi:
		bank, offset, ok := mm.fixedLocation(addr)
		if !ok {
			mm.errf("bank access violation: fixed bank %o inaccessible under superbank", bank)
			return 0
		}
		return mm.rom.read(bank, offset)
	default:
		return 0
	}
}

func (mm *memoryMap) write(addr uint16, value uint16) {
	switch {
	case addr <= mmRegistersHi:
		mm.regs.write(addr, value)
	case addr <= mmEditHi:
		mm.edit.write(addr, value)
	case addr <= mmTimerHi:
		mm.tmrs.write(addr, value)
	case addr <= mmSpecialHi:
		mm.special.write(addr, value)
	case addr <= mmErasableHi:
		bank, offset := mm.erasableLocation(addr)
		aqSlot := bank == 0 && offset < 2
		if aqSlot {
			mm.ram.banks[0][offset] = value
		} else {
			mm.ram.write(bank, offset, value)
		}
	case addr <= mmFixedHi:
		bank, offset, ok := mm.fixedLocation(addr)
		if !ok {
			mm.errf("bank access violation: fixed bank %o inaccessible under superbank", bank)
			return
		}
		if !mm.rom.write(bank, offset, value) {
			mm.errf("invalid memory write: ROM bank %o offset %o while not in debug mode", bank, offset)
		}
	}
}

// erasableLocation resolves a logical erasable address to (bank,
// offset). The 1400-1777 window is switched via EB; every other
// address selects its bank directly from its own high bits.
func (mm *memoryMap) erasableLocation(addr uint16) (bank, offset uint16) {
	if addr >= 0o1400 {
		return mm.regs.ebank(), addr & 0xFF
	}
	return addr >> 8, addr & 0xFF
}

// fixedLocation resolves a logical fixed address to (bank, offset, ok).
// The 4000-5777 window is switched via FB with the superbank remap;
// every other address uses its own high bits directly.
func (mm *memoryMap) fixedLocation(addr uint16) (bank, offset uint16, ok bool) {
	offset = addr & 0o1777
	if addr < mmFixedBankedLo {
		return addr >> 10, offset, true
	}
	fb := mm.regs.fbank()
	if mm.io.superbank {
		switch {
		case fb >= 0o30 && fb <= 0o33:
			fb += 0o10
		case fb >= 0o34 && fb <= 0o37:
			return fb, offset, false
		}
	}
	return fb, offset, true
}

// checkEditing re-triggers the edit-register transform for addr if it
// falls in 0o20-23; called by any instruction whose effective operand
// lands there (spec.md 4.3).
func (mm *memoryMap) checkEditing(addr uint16) {
	if isEditAddr(addr) {
		mm.edit.write(addr, mm.edit.read(addr))
	}
}

// readChannel / writeChannel expose the I/O dispatcher to instructions.
func (mm *memoryMap) readChannel(channel uint16) uint16  { return mm.io.read(channel) }
func (mm *memoryMap) writeChannel(channel, value uint16) { mm.io.write(channel, value) }
