package core

// romBankSwap implements the historical bank-numbering quirk: logical
// banks 0 and 2 are swapped, as are 1 and 3; every other bank maps to
// itself. This table is applied at the ROM access layer only, never to
// the fixed-bank register value itself.
var romBankSwap = [ROMNumBanks]uint16{
	2, 3, 0, 1, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19,
	20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35,
}

// rom is the fixed memory: 36 banks of 1024 words. Words are stored in
// big-endian byte order with a parity bit in bit 0, matching the binary
// rope image layout; reads undo both. Writes are dropped unless debug
// mode is enabled, in which case the core itself is used to load or
// patch programs.
type rom struct {
	banks [ROMNumBanks][ROMBankWords]uint16
	debug bool
}

func newROM() *rom {
	return &rom{}
}

// load installs a raw rope image addressed by logical bank (pre-swap,
// i.e. as produced by rope.Load), storing each logical bank at the
// physical slot read/write expect to find it at.
func (m *rom) load(program *[ROMNumBanks][ROMBankWords]uint16) {
	for logical, phys := range romBankSwap {
		m.banks[phys] = program[logical]
	}
}

func (m *rom) setDebug(v bool) { m.debug = v }

func (m *rom) read(bankIdx, offset uint16) uint16 {
	if int(bankIdx) >= ROMNumBanks || int(offset) >= ROMBankWords {
		return 0
	}
	phys := romBankSwap[bankIdx]
	raw := m.banks[phys][offset]
	return (beSwap16(raw) >> 1) & 0x7FFF
}

func (m *rom) write(bankIdx, offset, value uint16) bool {
	if int(bankIdx) >= ROMNumBanks || int(offset) >= ROMBankWords {
		return false
	}
	if !m.debug {
		return false
	}
	phys := romBankSwap[bankIdx]
	m.banks[phys][offset] = beSwap16((value&0x7FFF)<<1)
	return true
}

func beSwap16(v uint16) uint16 {
	return v<<8 | v>>8
}
