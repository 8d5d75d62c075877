package runner

import (
	"context"
	"testing"

	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/pressure"
	"github.com/tangzhangming/regpressure/internal/regclass"
)

func chainBlock(v0, v1 mir.RegisterID) *mir.Block {
	b := mir.NewBlock()
	b.Add((&mir.Instruction{}).Def(v0))
	b.Add((&mir.Instruction{}).UseKill(v0).Def(v1))
	b.Add((&mir.Instruction{}).UseKill(v1))
	return b
}

func TestRunAllTracksEveryRegion(t *testing.T) {
	target := regclass.NewX86_64Target()
	regions := make([]Region, 0, 4)
	for i := 0; i < 4; i++ {
		v0, v1 := mir.VirtReg(2*i), mir.VirtReg(2*i+1)
		target.DeclareVirtual(v0)
		target.DeclareVirtual(v1)
		regions = append(regions, Region{
			Name:    "region",
			Block:   chainBlock(v0, v1),
			Variant: pressure.VariantRegion,
		})
	}

	r := New(target, target, target, 2)
	results, err := RunAll(context.Background(), r, regions)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(results) != len(regions) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(regions))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("region %d: unexpected error: %v", i, res.Err)
		}
		if got := res.Result.MaxPressure[regclass.PressureSetGPR]; got != 1 {
			t.Fatalf("region %d: max pressure = %d, want 1", i, got)
		}
	}
}

func TestRunAllRecoversPanicPerRegion(t *testing.T) {
	target := regclass.NewX86_64Target()
	v0 := mir.VirtReg(0)
	target.DeclareVirtual(v0)

	bad := mir.NewBlock()
	bad.Add((&mir.Instruction{}).Def(v0))
	bad.Add((&mir.Instruction{}).Def(v0)) // second def with no intervening kill

	good := chainBlock(mir.VirtReg(1), mir.VirtReg(2))
	target.DeclareVirtual(mir.VirtReg(1))
	target.DeclareVirtual(mir.VirtReg(2))

	r := New(target, target, target, 2)
	results, err := RunAll(context.Background(), r, []Region{
		{Name: "bad", Block: bad, Variant: pressure.VariantRegion},
		{Name: "good", Block: good, Variant: pressure.VariantRegion},
	})
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if results[0].Err == nil {
		t.Fatal("expected the malformed region to report an error instead of panicking the whole run")
	}
	if results[1].Err != nil {
		t.Fatalf("good region should not be affected by the bad one: %v", results[1].Err)
	}
}
