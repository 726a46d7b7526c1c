// Package branchpredictor implements a per-PC two-bit saturating counter
// branch predictor.
package branchpredictor

const (
	// NumEntries is the size of the prediction table.
	NumEntries = 1024

	// Saturating counter states.
	StrongNotTaken uint8 = 0
	WeakNotTaken   uint8 = 1
	WeakTaken      uint8 = 2
	StrongTaken    uint8 = 3
)

// Predictor holds one two-bit saturating counter per indexed PC.
type Predictor struct {
	table [NumEntries]uint8
}

// New returns a predictor with every entry initialized to WeakTaken.
func New() *Predictor {
	p := &Predictor{}
	for i := range p.table {
		p.table[i] = WeakTaken
	}
	return p
}

func index(pc uint32) uint32 {
	return (pc >> 2) & (NumEntries - 1)
}

// Predict reports whether a branch at pc should be predicted taken.
func (p *Predictor) Predict(pc uint32) bool {
	return p.table[index(pc)] >= WeakTaken
}

// Update moves the counter for pc one step toward the observed outcome,
// saturating at the extremes.
func (p *Predictor) Update(pc uint32, actualTaken bool) {
	i := index(pc)
	if actualTaken {
		if p.table[i] < StrongTaken {
			p.table[i]++
		}
	} else {
		if p.table[i] > StrongNotTaken {
			p.table[i]--
		}
	}
}

// State exposes the raw counter value for a pc (test/observation use).
func (p *Predictor) State(pc uint32) uint8 {
	return p.table[index(pc)]
}
