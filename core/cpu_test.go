package core

import "testing"

func TestTCSavesReturnAddressAndJumps(t *testing.T) {
	c := New()
	c.mm.regs.setZ(0x801) // post-fetch PC, as Step would have left it
	c.execute(decode(0o4010))
	if c.Z() != 0o4010 {
		t.Errorf("Z = %o, want 0o4010", c.Z())
	}
	if c.Q() != 0x801 {
		t.Errorf("Q = %#x, want 0x801 (saved return address)", c.Q())
	}
}

func TestCCSFourWayBranchZero(t *testing.T) {
	c := New()
	c.mm.regs.setZ(0x801)
	c.WriteMemory(RegA, 0)
	c.execute(decode(0o10000)) // CCS, k=RegA
	if c.Z() != 0x803 {
		t.Errorf("A=0: Z = %#x, want 0x803", c.Z())
	}
	if c.A() != 0 {
		t.Errorf("A=0: A = %#x, want 0", c.A())
	}
}

func TestCCSFourWayBranchPositive(t *testing.T) {
	c := New()
	c.mm.regs.setZ(0x801)
	c.WriteMemory(RegA, 5)
	c.execute(decode(0o10000)) // CCS, k=RegA
	if c.Z() != 0x804 {
		t.Errorf("A=5: Z = %#x, want 0x804", c.Z())
	}
	if c.A() != 4 {
		t.Errorf("A=5: A = %#x, want 4", c.A())
	}
}

func TestADEndAroundCarry(t *testing.T) {
	c := New()
	c.WriteMemory(RegA, 0xFFFE) // -1 in 1's complement
	c.WriteMemory(0o100, 3)
	c.execute(decode(0o70100)) // AD, k=0o100
	if c.A() != 2 {
		t.Errorf("A = %#x, want 2 (-1 + 3 via end-around carry)", c.A())
	}
}

func TestNightwatchmanTripsGOJ(t *testing.T) {
	c := New()
	c.SetDebugWrite(true)
	c.WriteMemory(0o4002, 0o4004) // TC 0x804
	c.WriteMemory(0o4004, 0o4002) // TC 0x802
	c.SetDebugWrite(false)

	c.SetThresholds(Thresholds{NightwatchTime: 3, TCMonitorCount: 1 << 20, RuptLockCount: 1 << 20})
	c.mm.regs.setZ(0o4002)

	for n := 0; n < 4; n++ {
		c.Step()
	}

	if c.Z() != RestartPC {
		t.Errorf("Z = %#x, want %#x (GOJ restart) after nightwatchman trip", c.Z(), uint16(RestartPC))
	}
	if c.ReadChannel(ChanDsky)&0o200 == 0 {
		t.Errorf("channel 0o163 bit 0o200 not set after GOJ restart")
	}
}
