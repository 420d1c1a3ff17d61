/*
 * onesmallstep - Core rope image loader
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

// Package rope loads a core rope binary image into the fixed-memory
// shape CPU.LoadROM expects: 36 logical banks of 1024 words apiece, each
// word still in the image's big-endian byte order with its parity bit
// (the ROM layer undoes both on read), read straight off disk with
// encoding/binary rather than an unsafe pointer cast.
package rope

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	core "github.com/onesmallstep/agc/core"
)

// Load reads a flat rope binary (36*1024 big-endian uint16 words, banks
// in ascending logical order) from name.
func Load(name string) (*[core.ROMNumBanks][core.ROMBankWords]uint16, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var program [core.ROMNumBanks][core.ROMBankWords]uint16
	reader := bufio.NewReader(file)

	// Decoding little-endian keeps each word's two bytes in the positions
	// the ROM layer's byte swap expects.
	for bank := 0; bank < core.ROMNumBanks; bank++ {
		if err := binary.Read(reader, binary.LittleEndian, &program[bank]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("rope image %s too short: ended in bank %d", name, bank)
			}
			return nil, err
		}
	}

	// A well-formed image ends exactly after the last bank; anything
	// left over is a sign the image doesn't match this core's layout.
	if extra, _ := reader.Peek(1); len(extra) != 0 {
		return nil, fmt.Errorf("rope image %s longer than %d banks of %d words", name, core.ROMNumBanks, core.ROMBankWords)
	}

	return &program, nil
}
