package core

// This file implements the ~35 instructions of spec.md 4.9. Every
// handler returns its MCT cost. Where spec.md gives an explicit cost
// (TC, CCS, BZF/BZMF, CA/CS/DCA/DCS, DAS, EDRUPT) that value is used
// verbatim; the remaining instructions are assigned costs within the
// documented 1-6 budget.

// readK returns the 16-bit sign-extended value at operand address k,
// using the A/Q registers directly when k names them, and triggers the
// edit-register post-read rewrite when k lands on 0o20-23 (spec.md 4.8).
func (c *CPU) readK(k uint16) uint16 {
	var v uint16
	switch k {
	case RegA:
		v = c.mm.regs.a()
	case RegQ:
		v = c.mm.regs.q()
	default:
		v = signExtend(c.mm.read(k))
	}
	c.mm.checkEditing(k)
	return v
}

// writeK stores a 16-bit value into operand address k, masking to 15
// bits unless k names A/Q, and triggers the edit-register rewrite.
func (c *CPU) writeK(k uint16, v uint16) {
	switch k {
	case RegA:
		c.mm.regs.setA(v)
	case RegQ:
		c.mm.regs.setQ(v)
	default:
		c.mm.write(k, v&0x7FFF)
	}
	c.mm.checkEditing(k)
}

func (c *CPU) skip(words uint16) {
	c.mm.regs.setZ((c.mm.regs.z() + words) & 0o7777)
}

// magSign splits a 15-bit 1's-complement value into (magnitude, isNegative).
func magSign(raw15 uint16) (uint16, bool) {
	if raw15&0x4000 != 0 {
		return (^raw15) & 0x7FFF, true
	}
	return raw15 & 0x7FFF, false
}

func encodeSP15(mag uint16, neg bool) uint16 {
	v := mag & 0x3FFF
	if neg {
		v = (^v) & 0x7FFF
	}
	return v
}

func encodeSP16(mag uint16, neg bool) uint16 {
	return signExtend(encodeSP15(mag, neg))
}

// execute dispatches a decoded instruction and returns its MCT cost.
func (c *CPU) execute(i inst) uint16 {
	isTC := i.mnem == mnTC || i.mnem == mnTCF
	defer c.noteTC(isTC)

	switch i.mnem {
	case mnInvalid:
		c.errf("decode-undefined instruction: data=%#o", i.data)
		return 0

	case mnTC:
		ret := c.mm.regs.z()
		k := i.kaddr()
		c.mm.regs.setQ(ret)
		c.mm.regs.setZ(k & 0o7777)
		c.ecFlag = false
		return 1

	case mnTCF:
		k := i.kaddr()
		c.mm.regs.setZ(k & 0o7777)
		c.ecFlag = false
		return 1

	case mnCCS:
		return c.execCCS(i)

	case mnBZF, mnBZMF:
		return c.execBranchZero(i)

	case mnCA:
		k := i.kaddr()
		c.mm.regs.setA(signExtend(c.mm.read(k)))
		c.mm.checkEditing(k)
		return 2
	case mnCS:
		k := i.kaddr()
		c.mm.regs.setA(signExtend((^c.mm.read(k)) & 0x7FFF))
		c.mm.checkEditing(k)
		return 2
	case mnDCA:
		return c.execDCA(i, false)
	case mnDCS:
		return c.execDCA(i, true)

	case mnAD:
		k := i.kaddr()
		c.mm.regs.setA(s16Add(c.mm.regs.a(), c.readK(k)))
		return 2
	case mnADS:
		k := i.kaddrRAM()
		sum := s16Add(c.mm.regs.a(), c.readK(k))
		c.mm.regs.setA(sum)
		c.writeK(k, sum)
		return 2
	case mnSU:
		k := i.kaddr9()
		c.mm.regs.setA(s16Add(c.mm.regs.a(), (^c.readK(k))&0xFFFF))
		return 2

	case mnDAS:
		return c.execDAS(i)

	case mnAUG:
		return c.execAugDim(i, true)
	case mnDIM:
		return c.execAugDim(i, false)

	case mnINCR:
		k := i.kaddrRAM()
		c.writeK(k, s15Add(c.readK(k), 1))
		return 2

	case mnMP:
		return c.execMP(i)
	case mnDV:
		return c.execDV(i)

	case mnMSU:
		return c.execMSU(i)

	case mnXCH:
		k := i.kaddrRAM()
		old := c.readK(k)
		c.writeK(k, overflowCorrection(c.mm.regs.a()))
		c.mm.regs.setA(signExtend(old & 0x7FFF))
		return 2
	case mnDXCH:
		return c.execDXCH(i)
	case mnLXCH:
		k := i.kaddrRAM()
		old := c.readK(k)
		c.writeK(k, c.mm.regs.l())
		c.mm.regs.setL(old & 0x7FFF)
		return 2
	case mnQXCH:
		k := i.kaddr9()
		old := c.readK(k)
		c.writeK(k, c.mm.regs.q())
		c.mm.regs.setQ(old)
		return 2

	case mnTS:
		return c.execTS(i)

	case mnMASK:
		k := i.kaddr9()
		raw15 := overflowCorrection(c.mm.regs.a()) & c.mm.read(k)
		c.mm.checkEditing(k)
		c.mm.regs.setA(signExtend(raw15))
		return 2

	case mnRAND, mnROR, mnRXOR, mnWAND, mnWOR:
		return c.execChannelLogic(i)

	case mnREAD:
		ch := i.channel()
		v := c.mm.readChannel(ch)
		if ch == ChanL || ch == ChanQ {
			c.mm.regs.setA(v)
		} else {
			c.mm.regs.setA(signExtend(v & 0x7FFF))
		}
		return 2
	case mnWRITE:
		ch := i.channel()
		c.mm.writeChannel(ch, c.mm.regs.a())
		return 2

	case mnEXTEND:
		c.ecFlag = true
		return 1

	case mnINDEX:
		k := i.kaddrRAM()
		c.idxVal = c.readK(k)
		return 1

	case mnINHINT:
		c.gint = false
		return 1
	case mnRELINT:
		c.gint = true
		return 1

	case mnRESUME:
		c.mm.regs.setZ(c.shadowPC & 0o7777)
		c.ir = c.shadowIR
		c.isIrupt = false
		c.gint = true
		return 1

	case mnEDRUPT:
		c.gint = false
		return 3

	default:
		c.errf("unimplemented instruction mnemonic: %v", i.mnem)
		return 0
	}
}

func (c *CPU) execCCS(i inst) uint16 {
	k := i.kaddr()
	var x uint16
	if k == RegA {
		x = c.mm.regs.a()
	} else {
		x = signExtend(c.mm.read(k))
		c.mm.checkEditing(k)
	}
	raw15 := overflowCorrection(x) & 0x7FFF

	switch {
	case raw15 == 0:
		c.mm.regs.setA(0)
		c.skip(2)
	case raw15 == 0x7FFF:
		c.mm.regs.setA(0xFFFF)
		c.skip(4)
	case raw15&0x4000 == 0:
		c.mm.regs.setA(signExtend(raw15 - 1))
		c.skip(3)
	default:
		mag, _ := magSign(raw15)
		c.mm.regs.setA(signExtend(mag - 1))
		c.skip(5)
	}
	return 2
}

func (c *CPU) execBranchZero(i inst) uint16 {
	a := overflowCorrection(c.mm.regs.a()) & 0x7FFF
	k := i.kaddr9()

	taken := a == 0
	if i.mnem == mnBZMF {
		taken = a == 0 || a&0x4000 != 0
	}
	if !taken {
		return 2
	}
	if k < mmFixedLo {
		c.errf("branch target %o is not in fixed memory", k)
		if i.mnem == mnBZMF {
			return 2
		}
	}
	c.mm.regs.setZ(k & 0o7777)
	return 1
}

func (c *CPU) execDCA(i inst, complement bool) uint16 {
	k := i.kaddr9()
	upper := c.mm.read(k)
	lower := c.mm.read(k + 1)
	if complement {
		upper = (^upper) & 0x7FFF
		lower = (^lower) & 0x7FFF
	}
	c.mm.regs.setA(signExtend(upper))
	c.mm.regs.setL(lower)
	c.mm.checkEditing(k)
	c.mm.checkEditing(k + 1)
	return 3
}

func combineDP(upperRaw, lowerRaw uint16) uint32 {
	return normalizeDP(upperRaw, lowerRaw)
}

func splitDP(v uint32) (uint16, uint16) {
	return uint16((v >> 15) & 0x7FFF), uint16(v & 0x7FFF)
}

func (c *CPU) execDAS(i inst) uint16 {
	k := i.kaddrRAM()
	memDP := combineDP(c.mm.read(k), c.mm.read(k+1))
	accDP := combineDP(overflowCorrection(c.mm.regs.a())&0x7FFF, c.mm.regs.l()&0x7FFF)
	sum := dpAdd(memDP, accDP)

	upper, lower := splitDP(sum)
	c.mm.write(k, upper)
	c.mm.write(k+1, lower)
	c.mm.checkEditing(k)
	c.mm.checkEditing(k + 1)

	if sum&(1<<29) != 0 {
		c.mm.regs.setA(0xFFFF)
		c.mm.regs.setL(0o77777)
	} else {
		c.mm.regs.setA(0)
		c.mm.regs.setL(0)
	}
	return 3
}

// execAugDim implements AUG (away=true, magnitude grows) and DIM
// (away=false, magnitude shrinks toward zero), both sign-preserving.
// Positive values move by +1, negative values by the 1's-complement
// encoding of -1, with the two swapped when moving toward zero.
func (c *CPU) execAugDim(i inst, away bool) uint16 {
	k := i.kaddr9()
	v := c.readK(k)
	raw15 := overflowCorrection(v) & 0x7FFF
	neg := raw15&0x4000 != 0

	grow := away != neg
	wide := k == RegA || k == RegQ
	switch {
	case grow && wide:
		v = s16Add(v, 1)
	case grow && !wide:
		v = s15Add(v, 1)
	case !grow && wide:
		v = s16Add(v, 0xFFFE)
	default:
		v = s15Add(v, 0o77776)
	}
	c.writeK(k, v)
	return 2
}

func (c *CPU) execMP(i inst) uint16 {
	k := i.kaddr9()
	x := overflowCorrection(signExtend(c.mm.read(k))) & 0x7FFF
	y := overflowCorrection(c.mm.regs.a()) & 0x7FFF
	c.mm.checkEditing(k)

	magX, signX := magSign(x)
	magY, signY := magSign(y)

	if magX == 0 && magY == 0 && signX != signY {
		c.mm.regs.setA(0xFFFF)
		c.mm.regs.setL(0o77777)
		return 3
	}

	product := uint32(magX) * uint32(magY)
	neg := signX != signY
	upperMag := uint16((product >> 14) & 0x3FFF)
	lowerMag := uint16(product & 0x3FFF)
	c.mm.regs.setA(encodeSP16(upperMag, neg))
	c.mm.regs.setL(encodeSP15(lowerMag, neg))
	return 3
}

func (c *CPU) execDV(i inst) uint16 {
	k := i.kaddr9()
	divisorRaw := overflowCorrection(signExtend(c.mm.read(k))) & 0x7FFF
	c.mm.checkEditing(k)
	divisorMag, divisorSign := magSign(divisorRaw)

	aRaw := overflowCorrection(c.mm.regs.a()) & 0x7FFF
	aMag, aSign := magSign(aRaw)
	lRaw := c.mm.regs.l() & 0x7FFF
	lMag := lRaw & 0x3FFF

	dividendMag := uint32(aMag)<<14 | uint32(lMag)
	dividendSign := aSign

	saturate := func() uint16 {
		resultSign := dividendSign != divisorSign
		c.mm.regs.setA(encodeSP16(0x3FFF, resultSign))
		c.mm.regs.setL(encodeSP15(0, dividendSign))
		return 3
	}

	if divisorMag == 0 {
		c.errf("divide by zero at %o", k)
		return saturate()
	}
	if uint32(aMag) >= uint32(divisorMag) {
		// |dividend_upper| >= |divisor|: saturates. When magnitudes are
		// exactly equal and the lower word is nonzero this branch is
		// logged as undefined upstream; treated as implementation-defined
		// here per spec.md 9 and saturated like any other overflow.
		return saturate()
	}

	quotientMag := dividendMag / uint32(divisorMag)
	remainderMag := dividendMag % uint32(divisorMag)
	quotientSign := dividendSign != divisorSign
	c.mm.regs.setA(encodeSP16(uint16(quotientMag), quotientSign))
	c.mm.regs.setL(encodeSP15(uint16(remainderMag), dividendSign))
	return 3
}

// execMSU implements MSU (modular subtract): A := A - memory[k] via the
// same end-around-carry subtraction SU uses. spec.md does not separate
// MSU's semantics from SU's beyond naming both as extended-order
// subtracts, so the two share the same arithmetic here.
func (c *CPU) execMSU(i inst) uint16 {
	k := i.kaddr9()
	v := c.readK(k)
	c.mm.regs.setA(s16Add(c.mm.regs.a(), (^v)&0xFFFF))
	return 2
}

func (c *CPU) execDXCH(i inst) uint16 {
	k := i.kaddrRAM()
	oldUpper := c.mm.read(k)
	oldLower := c.mm.read(k + 1)
	c.mm.write(k, overflowCorrection(c.mm.regs.a())&0x7FFF)
	c.mm.write(k+1, c.mm.regs.l()&0x7FFF)
	c.mm.checkEditing(k)
	c.mm.checkEditing(k + 1)
	c.mm.regs.setA(signExtend(oldUpper))
	c.mm.regs.setL(oldLower & 0x7FFF)
	return 3
}

func (c *CPU) execTS(i inst) uint16 {
	k := i.kaddrRAM()
	a := c.mm.regs.a()
	c.writeK(k, overflowCorrection(a)&0x7FFF)
	switch a & 0xC000 {
	case 0x4000:
		c.mm.regs.setA(0x0001)
		c.skip(1)
	case 0x8000:
		c.mm.regs.setA(0xFFFE)
		c.skip(1)
	}
	return 2
}

func (c *CPU) execChannelLogic(i inst) uint16 {
	ch := i.channel()
	wide := ch == 2

	a := c.mm.regs.a()
	chanVal := c.mm.readChannel(ch)

	var aOp, chOp uint16
	if wide {
		aOp, chOp = a, chanVal
	} else {
		aOp = overflowCorrection(a) & 0x7FFF
		chOp = chanVal & 0x7FFF
	}

	switch i.mnem {
	case mnRAND:
		res := aOp & chOp
		if wide {
			c.mm.regs.setA(res)
		} else {
			c.mm.regs.setA(signExtend(res))
		}
	case mnROR:
		res := aOp | chOp
		if wide {
			c.mm.regs.setA(res)
		} else {
			c.mm.regs.setA(signExtend(res))
		}
	case mnRXOR:
		res := aOp ^ chOp
		if wide {
			c.mm.regs.setA(res)
		} else {
			c.mm.regs.setA(signExtend(res))
		}
	case mnWAND:
		c.mm.writeChannel(ch, chOp&aOp)
	case mnWOR:
		c.mm.writeChannel(ch, chOp|aOp)
	}
	return 2
}
