package mem

import "testing"

func TestSimLoopback(t *testing.T) {
	sim := NewSim(BlockSize)

	sim.WriteBits(simSET0, 1<<5)
	if got := sim.ReadBits(simLEV0); got != 1<<5 {
		t.Errorf("Expected LEV0 0x20 after set, got 0x%X", got)
	}

	sim.WriteBits(simSET0+1, 1<<2)
	if got := sim.ReadBits(simLEV0 + 1); got != 1<<2 {
		t.Errorf("Expected LEV1 0x4 after set, got 0x%X", got)
	}

	sim.WriteBits(simCLR0, 1<<5)
	if got := sim.ReadBits(simLEV0); got != 0 {
		t.Errorf("Expected LEV0 0 after clear, got 0x%X", got)
	}

	if got := sim.ReadBits(simSET0); got != 0 {
		t.Errorf("Set register should read 0, got 0x%X", got)
	}
}

func TestSimScript(t *testing.T) {
	sim := NewSim(BlockSize)
	sim.Script(19, true, false, true)

	want := []uint32{1 << 19, 0, 1 << 19, 1 << 19}
	for i, w := range want {
		if got := sim.ReadBits(simLEV0); got != w {
			t.Errorf("Read %d: expected 0x%X, got 0x%X", i, w, got)
		}
	}
	if sim.Pending(19) != 0 {
		t.Errorf("Expected script consumed, %d left", sim.Pending(19))
	}

	// Bank 1 reads do not consume bank 0 scripts
	sim.Script(3, false)
	sim.ReadBits(simLEV0 + 1)
	if sim.Pending(3) != 1 {
		t.Errorf("Bank 1 read consumed a bank 0 script")
	}
}

func TestSimRecord(t *testing.T) {
	sim := NewSim(BlockSize)
	sim.WriteBits(0, 1)
	sim.Record(true)
	sim.WriteBits(1, 2)
	sim.SetBits(1, 4)

	w := sim.Writes()
	if len(w) != 2 {
		t.Fatalf("Expected 2 recorded writes, got %d", len(w))
	}
	if w[0] != (RegWrite{1, 2}) || w[1] != (RegWrite{1, 6}) {
		t.Errorf("Unexpected writes %v", w)
	}
}
