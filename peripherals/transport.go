/*
 * onesmallstep - peripheral network transport
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

// Package peripherals implements the two channel-space collaborators the
// CORE's I/O dispatcher borrows for its lifetime: DSKY (keyboard/display)
// and DOWNRUPT (telemetry), plus the small raw-socket transport they both
// ride on. Grounded on the Rust prototype's vagc/dsky.rs and
// vagc/downrupt.rs, which expose each peripheral as a background TCP
// listener speaking 4-byte channel packets; reproduced here in the
// teacher's server-loop idiom (telnet/listener.go's wg/shutdown/accept
// pattern) instead of the prototype's crossbeam channels.
package peripherals

import (
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"sync"
)

// packet is the wire framing for one channel transaction: channel number
// in the high 9 bits' worth of the first two bytes, 15-bit value in the
// last two. The exact bit-packing library the Rust prototype used
// (dsky_protocol) was not present in the retrieved source, so this is a
// straightforward from-scratch reproduction of the same "one channel
// write/read per 4 bytes" shape rather than a byte-for-byte port.
type packet struct {
	channel uint16
	value   uint16
}

func encodePacket(p packet) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint16(b[0:2], p.channel)
	binary.BigEndian.PutUint16(b[2:4], p.value)
	return b
}

func decodePacket(b [4]byte) packet {
	return packet{
		channel: binary.BigEndian.Uint16(b[0:2]),
		value:   binary.BigEndian.Uint16(b[2:4]),
	}
}

// transport is a single-port TCP server broadcasting outgoing packets to
// every connected client and forwarding every byte a client sends back as
// incoming packets. Sends never block the CPU thread: outgoing packets go
// through a bounded channel and are dropped (counted) if no one is
// draining it.
type transport struct {
	addr string

	wg       sync.WaitGroup
	listener net.Listener
	shutdown chan struct{}

	out     chan packet
	in      chan packet
	dropped uint64
}

func newTransport(addr string) *transport {
	return &transport{
		addr:     addr,
		shutdown: make(chan struct{}),
		out:      make(chan packet, 64),
		in:       make(chan packet, 64),
	}
}

// start opens the listener and begins accepting connections in the
// background. Matches the teacher's telnet.Server.Start/acceptConnections
// split between listening and per-connection service loops.
func (tr *transport) start() error {
	l, err := net.Listen("tcp", tr.addr)
	if err != nil {
		return err
	}
	tr.listener = l
	tr.wg.Add(1)
	go tr.acceptLoop()
	return nil
}

func (tr *transport) stop() {
	close(tr.shutdown)
	if tr.listener != nil {
		tr.listener.Close()
	}
	tr.wg.Wait()
}

func (tr *transport) acceptLoop() {
	defer tr.wg.Done()
	for {
		conn, err := tr.listener.Accept()
		if err != nil {
			select {
			case <-tr.shutdown:
				return
			default:
				continue
			}
		}
		tr.wg.Add(1)
		go tr.serve(conn)
	}
}

func (tr *transport) serve(conn net.Conn) {
	defer tr.wg.Done()
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var buf [4]byte
		for {
			if _, err := io.ReadFull(conn, buf[:]); err != nil {
				return
			}
			select {
			case tr.in <- decodePacket(buf):
			default:
				slog.Warn("peripherals: incoming packet dropped, queue full")
			}
		}
	}()

	for {
		select {
		case <-tr.shutdown:
			return
		case <-done:
			return
		case p := <-tr.out:
			b := encodePacket(p)
			if _, err := conn.Write(b[:]); err != nil {
				return
			}
		}
	}
}

// send enqueues an outgoing packet without blocking; if the queue is full
// the packet is dropped and counted, matching spec.md 5's no-blocking
// requirement on anything Step touches.
func (tr *transport) send(p packet) {
	select {
	case tr.out <- p:
	default:
		tr.dropped++
	}
}

// tryRecv returns the next queued incoming packet, if any, without
// blocking.
func (tr *transport) tryRecv() (packet, bool) {
	select {
	case p := <-tr.in:
		return p, true
	default:
		return packet{}, false
	}
}
