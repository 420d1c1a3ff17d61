package core

// Peripheral is the external boundary contract for a channel-space
// collaborator (DSKY, DOWNRUPT). Implementations must be non-blocking
// and safe to call from whatever thread owns them; the core calls these
// methods synchronously from within Step and treats each call as atomic
// (spec.md 5, 6). Interrupt latches must be edge-safe: IsInterrupt
// returns the current bitset and clears any latched edges atomically.
type Peripheral interface {
	Read(channel uint16) uint16
	Write(channel uint16, value uint16)
	IsInterrupt() uint16
}

// peripherals is the tagged, fixed two-slot set the I/O dispatcher
// borrows for the lifetime of the CPU: one DSKY slot and one DOWNRUPT
// slot, matching the hard-wired channel routing of the real hardware
// rather than open polymorphism (spec.md 9).
type peripherals struct {
	dsky     Peripheral
	downrupt Peripheral
}
