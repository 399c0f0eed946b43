// Package asm writes RISC-V assembly text for the code generator and checks
// that the labels it references are consistent.
package asm

import (
	"fmt"
	"strings"
)

const WordSize = 4

type Register string

const (
	A0   Register = "a0"
	A1   Register = "a1"
	A2   Register = "a2"
	T0   Register = "t0"
	T1   Register = "t1"
	T2   Register = "t2"
	FP   Register = "fp"
	SP   Register = "sp"
	RA   Register = "ra"
	Zero Register = "zero"
)

// commentColumn is where trailing comments start when comments are enabled.
const commentColumn = 40

// Backend accumulates assembly text. Every Emit method takes a trailing
// comment, which is dropped unless comments were enabled.
type Backend struct {
	buf          strings.Builder
	emitComments bool
	labelCount   int
	external     map[string]bool
}

func NewBackend(emitComments bool) *Backend {
	return &Backend{emitComments: emitComments, external: map[string]bool{}}
}

// DeclareExternal marks labels that are defined outside the emitted text,
// such as runtime routines linked in later.
func (b *Backend) DeclareExternal(labels ...string) {
	for _, label := range labels {
		b.external[label] = true
	}
}

// FreshLabel returns a local label that has not been handed out before.
func (b *Backend) FreshLabel(prefix string) string {
	b.labelCount++
	return fmt.Sprintf("%s_%d", prefix, b.labelCount)
}

func (b *Backend) write(text, comment string) {
	if b.emitComments && comment != "" {
		if pad := commentColumn - len(text); pad > 0 {
			text += strings.Repeat(" ", pad)
		} else {
			text += " "
		}
		text += "# " + comment
	}
	b.buf.WriteString(text)
	b.buf.WriteByte('\n')
}

func (b *Backend) insn(mnemonic, operands, comment string) {
	if operands == "" {
		b.write("  "+mnemonic, comment)
		return
	}
	b.write("  "+mnemonic+" "+operands, comment)
}

func (b *Backend) EmitComment(comment string) {
	if b.emitComments {
		b.write("  # "+comment, "")
	}
}

func (b *Backend) EmitLocalLabel(label, comment string) {
	b.write(label+":", comment)
}

func (b *Backend) EmitGlobalLabel(label string) {
	b.write(".globl "+label, "")
	b.write(label+":", "")
}

func (b *Backend) EmitLI(rd Register, imm int32, comment string) {
	b.insn("li", fmt.Sprintf("%s, %d", rd, imm), comment)
}

func (b *Backend) EmitLA(rd Register, label, comment string) {
	b.insn("la", fmt.Sprintf("%s, %s", rd, label), comment)
}

func (b *Backend) EmitMV(rd, rs Register, comment string) {
	b.insn("mv", fmt.Sprintf("%s, %s", rd, rs), comment)
}

func (b *Backend) emitRRR(mnemonic string, rd, rs1, rs2 Register, comment string) {
	b.insn(mnemonic, fmt.Sprintf("%s, %s, %s", rd, rs1, rs2), comment)
}

func (b *Backend) EmitADD(rd, rs1, rs2 Register, comment string) {
	b.emitRRR("add", rd, rs1, rs2, comment)
}

func (b *Backend) EmitSUB(rd, rs1, rs2 Register, comment string) {
	b.emitRRR("sub", rd, rs1, rs2, comment)
}

func (b *Backend) EmitMUL(rd, rs1, rs2 Register, comment string) {
	b.emitRRR("mul", rd, rs1, rs2, comment)
}

func (b *Backend) EmitDIV(rd, rs1, rs2 Register, comment string) {
	b.emitRRR("div", rd, rs1, rs2, comment)
}

func (b *Backend) EmitREM(rd, rs1, rs2 Register, comment string) {
	b.emitRRR("rem", rd, rs1, rs2, comment)
}

func (b *Backend) EmitXOR(rd, rs1, rs2 Register, comment string) {
	b.emitRRR("xor", rd, rs1, rs2, comment)
}

func (b *Backend) EmitSLT(rd, rs1, rs2 Register, comment string) {
	b.emitRRR("slt", rd, rs1, rs2, comment)
}

func (b *Backend) EmitADDI(rd, rs Register, imm int, comment string) {
	b.insn("addi", fmt.Sprintf("%s, %s, %d", rd, rs, imm), comment)
}

func (b *Backend) EmitXORI(rd, rs Register, imm int, comment string) {
	b.insn("xori", fmt.Sprintf("%s, %s, %d", rd, rs, imm), comment)
}

func (b *Backend) EmitSLLI(rd, rs Register, imm int, comment string) {
	b.insn("slli", fmt.Sprintf("%s, %s, %d", rd, rs, imm), comment)
}

func (b *Backend) EmitSEQZ(rd, rs Register, comment string) {
	b.insn("seqz", fmt.Sprintf("%s, %s", rd, rs), comment)
}

func (b *Backend) EmitSNEZ(rd, rs Register, comment string) {
	b.insn("snez", fmt.Sprintf("%s, %s", rd, rs), comment)
}

// EmitLW loads rd from offset(rs).
func (b *Backend) EmitLW(rd, rs Register, offset int, comment string) {
	b.insn("lw", fmt.Sprintf("%s, %d(%s)", rd, offset, rs), comment)
}

// EmitSW stores rs2 at offset(rs1).
func (b *Backend) EmitSW(rs2, rs1 Register, offset int, comment string) {
	b.insn("sw", fmt.Sprintf("%s, %d(%s)", rs2, offset, rs1), comment)
}

// EmitLWLabel loads the word at label.
func (b *Backend) EmitLWLabel(rd Register, label, comment string) {
	b.insn("lw", fmt.Sprintf("%s, %s", rd, label), comment)
}

// EmitSWLabel stores rs at label using tmp for the address.
func (b *Backend) EmitSWLabel(rs Register, label string, tmp Register, comment string) {
	b.insn("sw", fmt.Sprintf("%s, %s, %s", rs, label, tmp), comment)
}

// EmitLBU loads the unsigned byte at offset(rs).
func (b *Backend) EmitLBU(rd, rs Register, offset int, comment string) {
	b.insn("lbu", fmt.Sprintf("%s, %d(%s)", rd, offset, rs), comment)
}

func (b *Backend) EmitSB(rs2, rs1 Register, offset int, comment string) {
	b.insn("sb", fmt.Sprintf("%s, %d(%s)", rs2, offset, rs1), comment)
}

func (b *Backend) emitBranch(mnemonic string, rs1, rs2 Register, label, comment string) {
	b.insn(mnemonic, fmt.Sprintf("%s, %s, %s", rs1, rs2, label), comment)
}

func (b *Backend) EmitBEQ(rs1, rs2 Register, label, comment string) {
	b.emitBranch("beq", rs1, rs2, label, comment)
}

func (b *Backend) EmitBNE(rs1, rs2 Register, label, comment string) {
	b.emitBranch("bne", rs1, rs2, label, comment)
}

func (b *Backend) EmitBLT(rs1, rs2 Register, label, comment string) {
	b.emitBranch("blt", rs1, rs2, label, comment)
}

func (b *Backend) EmitBGE(rs1, rs2 Register, label, comment string) {
	b.emitBranch("bge", rs1, rs2, label, comment)
}

func (b *Backend) EmitBEQZ(rs Register, label, comment string) {
	b.insn("beqz", fmt.Sprintf("%s, %s", rs, label), comment)
}

func (b *Backend) EmitBNEZ(rs Register, label, comment string) {
	b.insn("bnez", fmt.Sprintf("%s, %s", rs, label), comment)
}

func (b *Backend) EmitJ(label, comment string) {
	b.insn("j", label, comment)
}

func (b *Backend) EmitJAL(label, comment string) {
	b.insn("jal", label, comment)
}

func (b *Backend) EmitJALR(rs Register, comment string) {
	b.insn("jalr", string(rs), comment)
}

func (b *Backend) EmitJR(rs Register, comment string) {
	b.insn("jr", string(rs), comment)
}

func (b *Backend) EmitECALL(comment string) {
	b.insn("ecall", "", comment)
}

func (b *Backend) StartCode() {
	b.write(".text", "")
}

func (b *Backend) StartData() {
	b.write(".data", "")
}

// EmitAlign aligns to 2^pow bytes.
func (b *Backend) EmitAlign(pow int) {
	b.insn(".align", fmt.Sprintf("%d", pow), "")
}

func (b *Backend) EmitWordLiteral(value int32, comment string) {
	b.insn(".word", fmt.Sprintf("%d", value), comment)
}

func (b *Backend) EmitWordAddress(label, comment string) {
	b.insn(".word", label, comment)
}

// EmitString writes a NUL-terminated string.
func (b *Backend) EmitString(value, comment string) {
	b.insn(".string", quote(value), comment)
}

func quote(value string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range []byte(value) {
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Text returns the assembly written so far.
func (b *Backend) Text() string {
	return b.buf.String()
}

// Finish returns the assembly text after checking that no label is defined
// twice and that every referenced label is defined or external.
func (b *Backend) Finish() (string, error) {
	text := b.buf.String()
	if err := Check(strings.NewReader(text), b.external); err != nil {
		return "", fmt.Errorf("invalid assembly: %w", err)
	}
	return text, nil
}
