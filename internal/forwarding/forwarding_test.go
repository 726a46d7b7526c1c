package forwarding

import "testing"

func TestNoForwardingWhenNoMatch(t *testing.T) {
	a, b := Decide(Operands{Rs1: 1, Rs2: 2}, Snapshot{Rd: 3}, Snapshot{Rd: 4})
	if a != None || b != None {
		t.Errorf("Decide() = (%v, %v), want (None, None)", a, b)
	}
}

func TestExMemTakesPriorityOverMemWb(t *testing.T) {
	a, _ := Decide(Operands{Rs1: 5}, Snapshot{Rd: 5}, Snapshot{Rd: 5})
	if a != FromEXMEM {
		t.Errorf("forwardA = %v, want FromEXMEM", a)
	}
}

func TestMemWbFillsWhatExMemDidNot(t *testing.T) {
	a, b := Decide(Operands{Rs1: 5, Rs2: 6}, Snapshot{Rd: 5}, Snapshot{Rd: 6})
	if a != FromEXMEM {
		t.Errorf("forwardA = %v, want FromEXMEM", a)
	}
	if b != FromMEMWB {
		t.Errorf("forwardB = %v, want FromMEMWB", b)
	}
}

func TestBubbleLatchNeverForwards(t *testing.T) {
	a, b := Decide(Operands{Rs1: 5, Rs2: 5}, Snapshot{Bubble: true, Rd: 5}, Snapshot{Bubble: true, Rd: 5})
	if a != None || b != None {
		t.Errorf("Decide() = (%v, %v), want (None, None) for bubble latches", a, b)
	}
}

func TestRdZeroNeverForwards(t *testing.T) {
	a, b := Decide(Operands{Rs1: 0, Rs2: 0}, Snapshot{Rd: 0}, Snapshot{Rd: 0})
	if a != None || b != None {
		t.Errorf("Decide() = (%v, %v), want (None, None) when rd == 0", a, b)
	}
}
