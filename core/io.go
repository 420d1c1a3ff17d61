package core

// io is the 512-address I/O channel dispatcher. It holds an internal
// backing store for channels with no peripheral side effect and routes
// every write to both the DSKY and DOWNRUPT peripheral slots
// unconditionally (spec.md 4.7).
type io struct {
	backing [NumChannels]uint16
	periph  peripherals

	regs   *registerFile
	timers *timers

	superbank bool
}

func newIO(regs *registerFile, t *timers) *io {
	chio := &io{regs: regs, timers: t}
	for i := range chio.backing {
		chio.backing[i] = 0
	}
	chio.backing[ChanChan30] = 0o77777
	chio.backing[ChanChan31] = 0o77777
	chio.backing[ChanChan32] = 0o77777
	chio.backing[ChanChan33] = 0o77777
	return chio
}

func (c *io) reset() {
	for i := range c.backing {
		c.backing[i] = 0
	}
	c.backing[ChanChan30] = 0o77777
	c.backing[ChanChan31] = 0o77777
	c.backing[ChanChan32] = 0o77777
	c.backing[ChanChan33] = 0o77777
	c.superbank = false
}

func (c *io) setDSKY(p Peripheral)     { c.periph.dsky = p }
func (c *io) setDownrupt(p Peripheral) { c.periph.downrupt = p }

func (c *io) read(channel uint16) uint16 {
	channel &= NumChannels - 1
	switch channel {
	case ChanL:
		return c.regs.l()
	case ChanQ:
		return c.regs.q()
	case ChanChan13:
		v := c.backing[channel] & Chan13Mask
		if c.timers.getTime6Enable() {
			v |= Chan13Time6Bit
		}
		return v
	case ChanChan32:
		v := c.backing[channel] & 0o17777
		if c.periph.dsky != nil {
			v |= c.periph.dsky.Read(channel) & 0o20000
		}
		return v
	case ChanHiScaler:
		return uint16((c.readScaler() >> 15) & 0o7777)
	case ChanLoScaler:
		return uint16(c.readScaler() & 0o77777)
	default:
		return c.backing[channel]
	}
}

func (c *io) write(channel uint16, value uint16) {
	channel &= NumChannels - 1
	switch channel {
	case ChanL:
		c.regs.setL(value)
	case ChanQ:
		c.regs.setQ(value)
	case ChanSuperbank:
		c.backing[channel] = value
		c.superbank = value&SuperbankBit != 0
	case ChanChan13:
		c.backing[channel] = value & 0o17777
		c.timers.setTime6Enable(value&Chan13Time6Bit != 0)
	case ChanChan34:
		c.backing[channel] = value
		c.timers.setDownruptFlag(0x1)
	case ChanChan35:
		c.backing[channel] = value
		c.timers.setDownruptFlag(0x2)
	default:
		c.backing[channel] = value
	}

	if c.periph.dsky != nil {
		c.periph.dsky.Write(channel, value)
	}
	if c.periph.downrupt != nil {
		c.periph.downrupt.Write(channel, value)
	}
}

// readScaler exposes the free-running scaler as a 27-bit split value
// across channels HISCALAR (bits 26:15) and LOSCALAR (bits 14:0); a
// supplemented instrumentation feature not present in spec.md's prose
// (see SPEC_FULL.md).
func (c *io) readScaler() uint32 {
	return c.timers.readScaler()
}

func (c *io) checkInterrupt() uint16 {
	var mask uint16
	if c.periph.dsky != nil {
		mask |= c.periph.dsky.IsInterrupt()
	}
	if c.periph.downrupt != nil {
		mask |= c.periph.downrupt.IsInterrupt()
	}
	return mask
}
