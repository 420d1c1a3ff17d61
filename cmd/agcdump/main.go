/*
 * onesmallstep - offline rope disassembler
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

// agcdump is a standalone offline disassembler for core rope images,
// grounded on the teacher's emu/disassemble opcode-table idiom but
// driven by core.Disassemble rather than its own opcode map, since the
// instruction set differs completely from System/370.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	core "github.com/onesmallstep/agc/core"
	rope "github.com/onesmallstep/agc/rope"
)

func main() {
	var bank int
	var count int

	root := &cobra.Command{
		Use:   "agcdump <rope-image>",
		Short: "Disassemble a core rope image",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			program, err := rope.Load(args[0])
			if err != nil {
				return err
			}
			if bank < 0 || bank >= core.ROMNumBanks {
				return fmt.Errorf("bank %d out of range 0-%d", bank, core.ROMNumBanks-1)
			}
			if count <= 0 || count > core.ROMBankWords {
				count = core.ROMBankWords
			}
			for offset := 0; offset < count; offset++ {
				raw := program[bank][offset]
				word := (beSwap16(raw) >> 1) & 0x7FFF
				fmt.Printf("%02o,%04o  %05o  %s\n", bank, offset, word, core.Disassemble(word))
			}
			return nil
		},
	}

	root.Flags().IntVarP(&bank, "bank", "b", 0, "logical fixed bank to dump (0-35)")
	root.Flags().IntVarP(&count, "count", "n", core.ROMBankWords, "number of words to dump")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func beSwap16(v uint16) uint16 {
	return v<<8 | v>>8
}
