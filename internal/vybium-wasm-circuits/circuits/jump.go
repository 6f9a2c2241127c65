package circuits

import (
	"fmt"

	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/plonk"
	"github.com/vybium/vybium-wasm-circuits/internal/vybium-wasm-circuits/specs"
)

// JumpConfig is the append-only record of control transfers. Rows carry
// strictly increasing eids; call steps look up their packed
// (eid, last_jump_eid, address) in it, and every row must in turn be the
// packed tuple of some call step.
type JumpConfig struct {
	enable      plonk.Column
	eid         plonk.Column
	lastJumpEid plonk.Column
	moid        plonk.Column
	fid         plonk.Column
	bid         plonk.Column
	iid         plonk.Column

	target plonk.Expression
}

// ConfigureJump declares the jump table
func ConfigureJump(cs *plonk.ConstraintSystem, rng *RangeConfig) *JumpConfig {
	j := &JumpConfig{
		enable:      cs.AdviceColumn("jump enable"),
		eid:         cs.AdviceColumn("jump eid"),
		lastJumpEid: cs.AdviceColumn("jump last jump eid"),
		moid:        cs.AdviceColumn("jump moid"),
		fid:         cs.AdviceColumn("jump fid"),
		bid:         cs.AdviceColumn("jump bid"),
		iid:         cs.AdviceColumn("jump iid"),
	}
	enable := j.enable.Cur()

	cs.CreateGate("jump enable",
		plonk.Bool(enable),
		plonk.Mul(plonk.Not(enable), j.enable.Next()),
	)
	rng.LookupCommon(cs, "jump eid increasing",
		plonk.Mul(enable, plonk.Sub(plonk.Sub(j.eid.Cur(), j.eid.Prev()), plonk.One())))
	for _, col := range []plonk.Column{j.lastJumpEid, j.moid, j.fid, j.bid, j.iid} {
		rng.LookupCommon(cs, cs.ColumnName(col)+" range", plonk.Mul(enable, col.Cur()))
	}

	j.target = plonk.Mul(enable, jumpExpr{
		eid:         j.eid.Cur(),
		lastJumpEid: j.lastJumpEid.Cur(),
		moid:        j.moid.Cur(),
		fid:         j.fid.Cur(),
		bid:         j.bid.Cur(),
		iid:         j.iid.Cur(),
	}.encode())
	return j
}

// Lookup constrains an encoded jump expression to the rows of the table
func (j *JumpConfig) Lookup(cs *plonk.ConstraintSystem, name string, input plonk.Expression) {
	cs.LookupAny(name, input, j.target)
}

// RequireIssuer constrains every enabled jump row to equal issuer evaluated
// on some row of another table
func (j *JumpConfig) RequireIssuer(cs *plonk.ConstraintSystem, name string, issuer plonk.Expression) {
	cs.LookupAny(name, j.target, issuer)
}

// Assign writes the jump rows in eid order
func (j *JumpConfig) Assign(asg *plonk.Assignment, entries []specs.JumpTableEntry) error {
	if len(entries) > asg.Rows() {
		return fmt.Errorf("%d jumps exceed %d rows", len(entries), asg.Rows())
	}
	for row, e := range entries {
		w := &rowWriter{asg: asg, row: row}
		w.uint(j.enable, 1)
		w.uint(j.eid, e.Eid)
		w.uint(j.lastJumpEid, e.LastJumpEid)
		w.uint(j.moid, uint64(e.Moid))
		w.uint(j.fid, uint64(e.Fid))
		w.uint(j.bid, uint64(e.Bid))
		w.uint(j.iid, uint64(e.Iid))
		if w.err != nil {
			return w.err
		}
	}
	return nil
}
