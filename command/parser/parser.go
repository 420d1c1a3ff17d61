/*
 * onesmallstep - Command parser.
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

// Package parser implements the interactive debug console's command
// language: dump, step, break, continue, reset and quit against a running
// core.CPU. The tokenizer (cmdLine, getWord, matchCommand/matchList,
// abbreviation matching down to a configured minimum length) follows the
// teacher's command parser idiom; the command set itself is specific to
// driving a CPU rather than attaching/detaching S/370 unit-record devices.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	core "github.com/onesmallstep/agc/core"
)

type cmd struct {
	name     string
	min      int
	process  func(*cmdLine, *core.CPU) (bool, error)
	complete func(*cmdLine) []string
}

type cmdLine struct {
	line string
	pos  int
}

var breakpoints = map[uint16]bool{}

var cmdList = []cmd{
	{name: "dump", min: 1, process: dump},
	{name: "registers", min: 1, process: registers},
	{name: "step", min: 2, process: step},
	{name: "continue", min: 1, process: cont},
	{name: "break", min: 2, process: setBreak},
	{name: "unbreak", min: 3, process: clearBreak},
	{name: "reset", min: 3, process: reset},
	{name: "quit", min: 1, process: quit},
}

// ProcessCommand executes one command line against cpu. Returns true if
// the console should exit.
func ProcessCommand(commandLine string, cpu *core.CPU) (bool, error) {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	match := matchList(name)
	if len(match) == 0 {
		return false, errors.New("command not found: " + name)
	}
	if len(match) > 1 {
		return false, errors.New("ambiguous command: " + name)
	}
	return match[0].process(&line, cpu)
}

// CompleteCmd returns completion candidates for line, used by the liner
// reader's tab completion.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	if !line.isEOL() && line.line[line.pos] == ' ' {
		line.skipSpace()
		match := matchList(name)
		if len(match) != 1 || match[0].complete == nil {
			return nil
		}
		return match[0].complete(&line)
	}

	match := matchList(name)
	out := make([]string, len(match))
	for i, m := range match {
		out[i] = m.name
	}
	return out
}

func matchCommand(m cmd, name string) bool {
	if len(name) > len(m.name) {
		return false
	}
	for i := range name {
		if m.name[i] != name[i] {
			return false
		}
	}
	return len(name) >= m.min
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, name) {
			match = append(match, m)
		}
	}
	return match
}

func (l *cmdLine) isEOL() bool {
	return l.pos >= len(l.line) || l.line[l.pos] == '#'
}

func (l *cmdLine) skipSpace() {
	for !l.isEOL() && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

// getWord returns the next whitespace-delimited token, lower-cased.
func (l *cmdLine) getWord() string {
	l.skipSpace()
	start := l.pos
	for !l.isEOL() && !unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	return strings.ToLower(l.line[start:l.pos])
}

// getOctal parses the next token as an octal number (AGC convention).
func (l *cmdLine) getOctal() (uint16, error) {
	word := l.getWord()
	if word == "" {
		return 0, errors.New("expected an octal number")
	}
	v, err := strconv.ParseUint(word, 8, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid octal number %q: %w", word, err)
	}
	return uint16(v), nil
}

func dump(l *cmdLine, cpu *core.CPU) (bool, error) {
	addr, err := l.getOctal()
	if err != nil {
		return false, err
	}
	count := uint16(1)
	if word := l.getWord(); word != "" {
		n, err := strconv.ParseUint(word, 10, 16)
		if err != nil {
			return false, fmt.Errorf("invalid count %q: %w", word, err)
		}
		count = uint16(n)
	}
	for i := uint16(0); i < count; i++ {
		a := addr + i
		fmt.Printf("%05o  %05o\n", a, cpu.ReadMemory(a))
	}
	return false, nil
}

func registers(_ *cmdLine, cpu *core.CPU) (bool, error) {
	fmt.Printf("A=%05o L=%05o Q=%05o Z=%05o\n", cpu.A(), cpu.L(), cpu.Q(), cpu.Z())
	return false, nil
}

func step(l *cmdLine, cpu *core.CPU) (bool, error) {
	count := uint64(1)
	if word := l.getWord(); word != "" {
		n, err := strconv.ParseUint(word, 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid step count %q: %w", word, err)
		}
		count = n
	}
	for i := uint64(0); i < count; i++ {
		cpu.Step()
	}
	fmt.Printf("Z=%05o (after %d step(s))\n", cpu.Z(), count)
	return false, nil
}

func cont(_ *cmdLine, cpu *core.CPU) (bool, error) {
	for {
		cpu.Step()
		if breakpoints[cpu.Z()] {
			fmt.Printf("breakpoint hit at %05o\n", cpu.Z())
			return false, nil
		}
	}
}

func setBreak(l *cmdLine, _ *core.CPU) (bool, error) {
	addr, err := l.getOctal()
	if err != nil {
		return false, err
	}
	breakpoints[addr] = true
	return false, nil
}

func clearBreak(l *cmdLine, _ *core.CPU) (bool, error) {
	addr, err := l.getOctal()
	if err != nil {
		return false, err
	}
	delete(breakpoints, addr)
	return false, nil
}

func reset(_ *cmdLine, cpu *core.CPU) (bool, error) {
	cpu.Reset()
	return false, nil
}

func quit(_ *cmdLine, _ *core.CPU) (bool, error) {
	return true, nil
}
