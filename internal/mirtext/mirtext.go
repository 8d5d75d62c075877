// Package mirtext implements a line-oriented textual form of internal/mir
// blocks, used by cmd/pressuretrace and internal/pressuresvc to take MIR as
// input without a real instruction-selection pass upstream. One instruction
// per line, comma-separated operands of the form "<verb> <reg>"; a lone
// "debug" line is a debug-value pseudo instruction.
package mirtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tangzhangming/regpressure/internal/mir"
)

// RegResolver looks up a physical register by assembly name and records a
// virtual register the first time it is mentioned. *regclass.X86_64Target
// satisfies this.
type RegResolver interface {
	RegByName(name string) (mir.RegisterID, bool)
	DeclareVirtual(v mir.RegisterID)
}

// Parse reads source in the mirtext format against target's register names.
// Blank lines and lines starting with ';' are ignored.
func Parse(target RegResolver, source string) (*mir.Block, error) {
	block := mir.NewBlock()
	for i, rawLine := range strings.Split(source, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if line == "debug" {
			block.Debug()
			continue
		}

		instr := &mir.Instruction{}
		for _, field := range strings.Split(line, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			parts := strings.Fields(field)
			if len(parts) != 2 {
				return nil, fmt.Errorf("mirtext: line %d: malformed operand %q", lineNo, field)
			}
			verb, regName := parts[0], parts[1]

			reg, err := resolveReg(target, regName)
			if err != nil {
				return nil, fmt.Errorf("mirtext: line %d: %w", lineNo, err)
			}

			switch verb {
			case "def":
				instr.Def(reg)
			case "deaddef":
				instr.DeadDef(reg)
			case "use":
				instr.Use(reg)
			case "usekill":
				instr.UseKill(reg)
			case "defuse":
				instr.DefUse(reg)
			default:
				return nil, fmt.Errorf("mirtext: line %d: unknown verb %q", lineNo, verb)
			}
		}
		block.Add(instr)
	}
	return block, nil
}

func resolveReg(target RegResolver, name string) (mir.RegisterID, error) {
	if strings.HasPrefix(name, "%") {
		idx, err := strconv.Atoi(name[1:])
		if err != nil || idx < 0 {
			return 0, fmt.Errorf("invalid virtual register %q", name)
		}
		reg := mir.VirtReg(idx)
		target.DeclareVirtual(reg)
		return reg, nil
	}
	reg, ok := target.RegByName(name)
	if !ok {
		return 0, fmt.Errorf("unknown register %q", name)
	}
	return reg, nil
}

// Format renders block back into mirtext, using name to render a register
// id as display text (e.g. "%0" for virtual registers, "RAX" for physical
// ones); the caller supplies name, for instance built on VirtName.
func Format(block *mir.Block, name func(mir.RegisterID) string) string {
	var sb strings.Builder
	for _, instr := range block.Instrs {
		if instr.Debug {
			sb.WriteString("debug\n")
			continue
		}
		parts := make([]string, 0, len(instr.Ops))
		for _, op := range instr.Ops {
			parts = append(parts, formatOp(op, name))
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatOp(op mir.Operand, name func(mir.RegisterID) string) string {
	verb := "use"
	switch {
	case op.IsDef && op.Dead:
		verb = "deaddef"
	case op.IsDef && op.Reads:
		verb = "defuse"
	case op.IsDef:
		verb = "def"
	case op.Kill:
		verb = "usekill"
	}
	return verb + " " + name(op.Reg)
}

// VirtName renders a register for display: "%N" for virtual registers, or
// whatever physName returns for physical ones.
func VirtName(reg mir.RegisterID, physName func(mir.RegisterID) string) string {
	if reg.IsVirtual() {
		return "%" + strconv.Itoa(reg.VirtIndex())
	}
	return physName(reg)
}
