package mirtext

import (
	"testing"

	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/regclass"
)

func TestParseChain(t *testing.T) {
	target := regclass.NewX86_64Target()
	src := "def %0\nuse %0, def %1\nusekill %1\n"

	block, err := Parse(target, src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(block.Instrs) != 3 {
		t.Fatalf("len(Instrs) = %d, want 3", len(block.Instrs))
	}
	if target.NumVirtRegs() != 2 {
		t.Fatalf("NumVirtRegs() = %d, want 2", target.NumVirtRegs())
	}
}

func TestParsePhysicalRegister(t *testing.T) {
	target := regclass.NewX86_64Target()
	block, err := Parse(target, "def RAX\nusekill RAX\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rax, ok := target.RegByName("RAX")
	if !ok {
		t.Fatal("RAX should be a known register name")
	}
	if block.Instrs[0].Ops[0].Reg != rax {
		t.Fatalf("parsed register = %d, want %d", block.Instrs[0].Ops[0].Reg, rax)
	}
}

func TestParseDebugLine(t *testing.T) {
	target := regclass.NewX86_64Target()
	block, err := Parse(target, "def %0\ndebug\nusekill %0\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(block.Instrs) != 3 || !block.Instrs[1].Debug {
		t.Fatal("expected the middle instruction to be a debug value")
	}
}

func TestParseUnknownVerbErrors(t *testing.T) {
	target := regclass.NewX86_64Target()
	if _, err := Parse(target, "frob %0\n"); err == nil {
		t.Fatal("expected an error for an unknown verb")
	}
}

func TestParseUnknownRegisterErrors(t *testing.T) {
	target := regclass.NewX86_64Target()
	if _, err := Parse(target, "def NOTAREG\n"); err == nil {
		t.Fatal("expected an error for an unknown register name")
	}
}

func TestFormatRoundTripsVerbs(t *testing.T) {
	target := regclass.NewX86_64Target()
	src := "def %0\nuse %0, def %1\nusekill %1\n"
	block, err := Parse(target, src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	name := func(reg mir.RegisterID) string {
		return VirtName(reg, func(mir.RegisterID) string { return "?" })
	}
	out := Format(block, name)

	reparsed, err := Parse(regclass.NewX86_64Target(), out)
	if err != nil {
		t.Fatalf("re-Parse of formatted output: %v\n%s", err, out)
	}
	if len(reparsed.Instrs) != len(block.Instrs) {
		t.Fatalf("round trip changed instruction count: got %d, want %d", len(reparsed.Instrs), len(block.Instrs))
	}
	if again := Format(reparsed, name); again != out {
		t.Fatalf("round trip changed verbs:\ngot:\n%s\nwant:\n%s", again, out)
	}
}
