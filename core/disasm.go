package core

import "fmt"

// operandKind classifies how an instruction's operand field should be
// printed, mirroring the width conventions execute() itself applies
// (kaddr/kaddrRAM/kaddr9/channel).
type operandKind int

const (
	operandNone operandKind = iota
	operandFull             // kaddr(): 12-bit, non-extended only
	operandRAM              // kaddrRAM(): 10-bit
	operandNine             // kaddr9(): 9-bit, extended only
	operandChan             // channel(): 9-bit, extended only
)

type mnemonicInfo struct {
	name    string
	operand operandKind
}

var mnemonicTable = map[mnemonic]mnemonicInfo{
	mnInvalid: {"???", operandNone},
	mnTC:      {"TC", operandFull},
	mnTCF:     {"TCF", operandFull},
	mnCCS:     {"CCS", operandFull},
	mnBZF:     {"BZF", operandNine},
	mnBZMF:    {"BZMF", operandNine},
	mnCA:      {"CA", operandFull},
	mnCS:      {"CS", operandFull},
	mnDAS:     {"DAS", operandRAM},
	mnDCA:     {"DCA", operandNine},
	mnDCS:     {"DCS", operandNine},
	mnDIM:     {"DIM", operandNine},
	mnDV:      {"DV", operandNine},
	mnDXCH:    {"DXCH", operandRAM},
	mnEDRUPT:  {"EDRUPT", operandNone},
	mnEXTEND:  {"EXTEND", operandNone},
	mnINCR:    {"INCR", operandRAM},
	mnINDEX:   {"INDEX", operandRAM},
	mnINHINT:  {"INHINT", operandNone},
	mnLXCH:    {"LXCH", operandRAM},
	mnMASK:    {"MASK", operandNine},
	mnMP:      {"MP", operandNine},
	mnMSU:     {"MSU", operandNine},
	mnQXCH:    {"QXCH", operandNine},
	mnRAND:    {"RAND", operandChan},
	mnREAD:    {"READ", operandChan},
	mnRELINT:  {"RELINT", operandNone},
	mnRESUME:  {"RESUME", operandNone},
	mnROR:     {"ROR", operandChan},
	mnRXOR:    {"RXOR", operandChan},
	mnSU:      {"SU", operandNine},
	mnTS:      {"TS", operandRAM},
	mnWAND:    {"WAND", operandChan},
	mnWOR:     {"WOR", operandChan},
	mnWRITE:   {"WRITE", operandChan},
	mnXCH:     {"XCH", operandRAM},
	mnAD:      {"AD", operandFull},
	mnADS:     {"ADS", operandRAM},
	mnAUG:     {"AUG", operandNine},
}

// Disassemble renders the mnemonic and operand for a raw instruction
// word, for use by an offline rope disassembler. Unrecognized bit
// patterns still produce output ("???") rather than an error,
// since a disassembler routinely walks over data words embedded in
// fixed memory.
func Disassemble(word uint16) string {
	i := decode(word)
	info, ok := mnemonicTable[i.mnem]
	if !ok {
		info = mnemonicInfo{"???", operandNone}
	}

	switch info.operand {
	case operandNone:
		return info.name
	case operandFull:
		return fmt.Sprintf("%s %05o", info.name, i.kaddr())
	case operandRAM:
		return fmt.Sprintf("%s %04o", info.name, i.kaddrRAM())
	case operandNine:
		return fmt.Sprintf("%s %03o", info.name, i.kaddr9())
	case operandChan:
		return fmt.Sprintf("%s %03o", info.name, i.channel())
	default:
		return info.name
	}
}
