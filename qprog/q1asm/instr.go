package q1asm

import (
	"fmt"
	"strings"
)

// Instr is a single emitted Q1ASM instruction or label, grounded on the
// teacher's circuit.Operation value-object shape (G, Qubits, ..., in
// program order) — here reduced to the three things a sequencer assembly
// line needs: mnemonic, operands, and an optional label.
type Instr struct {
	Label    string // if non-empty, this line is "label:" with no mnemonic
	Mnemonic string
	Args     []string
	Comment  string
}

// Text renders the instruction the way a Q1ASM assembler expects:
// tab-indented mnemonic, comma-separated args, trailing "# comment".
func (i Instr) Text() string {
	if i.Label != "" {
		return i.Label + ":"
	}
	var b strings.Builder
	b.WriteByte('\t')
	b.WriteString(i.Mnemonic)
	if len(i.Args) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(i.Args, ","))
	}
	if i.Comment != "" {
		b.WriteString("\t# ")
		b.WriteString(i.Comment)
	}
	return b.String()
}

func label(s string) Instr { return Instr{Label: s} }

func instr(mnemonic string, args ...string) Instr {
	return Instr{Mnemonic: mnemonic, Args: args}
}

func instrC(comment, mnemonic string, args ...string) Instr {
	return Instr{Mnemonic: mnemonic, Args: args, Comment: comment}
}

func arg(v int64) string { return fmt.Sprintf("%d", v) }

// Program is the emitted per-bus Q1ASM, already split into its three
// labeled sections (spec §4.4: setup/main/stop).
type Program struct {
	Bus   string
	Setup []Instr
	Main  []Instr
	Stop  []Instr
}

// Lines returns the full program as one ordered instruction list under
// its section labels, ready to render to text.
func (p Program) Lines() []Instr {
	out := make([]Instr, 0, len(p.Setup)+len(p.Main)+len(p.Stop)+3)
	out = append(out, label("setup"))
	out = append(out, p.Setup...)
	out = append(out, label("main"))
	out = append(out, p.Main...)
	out = append(out, label("stop"))
	out = append(out, p.Stop...)
	return out
}

// Text renders the full program as assembler source text.
func (p Program) Text() string {
	var b strings.Builder
	for _, ins := range p.Lines() {
		b.WriteString(ins.Text())
		b.WriteByte('\n')
	}
	return b.String()
}
