// Package menu classifies parsed IFR setup questions by reachability:
// whether the stock firmware UI would show them, hide them behind a
// condition a user could still satisfy, or keep them permanently
// locked out. The classification is heuristic over condition shapes
// and records its evidence; it never claims certainty beyond that.
package menu

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fwscope/fwscope/pkg/ifr"
	"github.com/fwscope/fwscope/pkg/scan"
)

// Verdict is the reachability class of a setup question.
type Verdict string

const (
	// VerdictVisible: no condition wraps the question.
	VerdictVisible = Verdict("visible")
	// VerdictSuppressedReachable: hidden behind a condition that
	// references another question, so some setting combination shows
	// it.
	VerdictSuppressedReachable = Verdict("suppressed-reachable")
	// VerdictLocked: hidden behind a constant expression or an explicit
	// Locked opcode; no setting combination shows it.
	VerdictLocked = Verdict("locked")
)

// Evidence is one observation that contributed to a verdict.
type Evidence struct {
	Source string `json:"source"`
	Offset uint64 `json:"offset"`
	Detail string `json:"detail"`
}

// Classification is the verdict for one question node, with the
// observations backing it.
type Classification struct {
	Node     *ifr.Node  `json:"node"`
	Verdict  Verdict    `json:"verdict"`
	Evidence []Evidence `json:"evidence"`
}

// vendorConstantQuestionIDs are question IDs vendors hard-wire into
// suppress expressions as always-true comparisons; a condition keyed
// on one of them can never flip at runtime.
var vendorConstantQuestionIDs = map[uint16]struct{}{
	0x0000: {},
	0xFFFF: {},
}

// Classify derives the verdict for a single question node from its
// recorded conditions.
func Classify(node *ifr.Node) Classification {
	cls := Classification{Node: node, Verdict: VerdictVisible}

	for _, cond := range node.Conditions {
		switch {
		case cond.Op == ifr.OpLocked:
			cls.Verdict = VerdictLocked
			cls.Evidence = append(cls.Evidence, Evidence{
				Source: "ifr",
				Offset: cond.Offset,
				Detail: "explicit Locked opcode in scope",
			})
		case isConstantExpr(cond.Expr):
			cls.Verdict = VerdictLocked
			cls.Evidence = append(cls.Evidence, Evidence{
				Source: "ifr",
				Offset: cond.Offset,
				Detail: fmt.Sprintf("%s with constant expression % X", cond.Op, cond.Expr),
			})
		case referencesQuestion(cond.Expr):
			if cls.Verdict != VerdictLocked {
				cls.Verdict = VerdictSuppressedReachable
			}
			qid, val := referencedQuestion(cond.Expr)
			cls.Evidence = append(cls.Evidence, Evidence{
				Source: "ifr",
				Offset: cond.Offset,
				Detail: fmt.Sprintf("%s references question 0x%04X (value 0x%04X)", cond.Op, qid, val),
			})
		case len(cond.Expr) > 0:
			if cls.Verdict == VerdictVisible {
				cls.Verdict = VerdictSuppressedReachable
			}
			cls.Evidence = append(cls.Evidence, Evidence{
				Source: "ifr",
				Offset: cond.Offset,
				Detail: fmt.Sprintf("%s with unclassified expression % X", cond.Op, cond.Expr),
			})
		}
	}
	return cls
}

// ClassifyPackage classifies every question in a parsed package, in
// stream order.
func ClassifyPackage(pkg *ifr.Package) []Classification {
	if pkg == nil || pkg.Root == nil {
		return nil
	}
	questions := pkg.Root.Questions()
	out := make([]Classification, 0, len(questions))
	for _, q := range questions {
		out = append(out, Classify(q))
	}
	return out
}

// CrossReference strengthens a classification with keyword scanner
// matches found near the question's opcode. The verdict never changes;
// only evidence is added.
func CrossReference(cls Classification, keywords []scan.Match, window uint64) Classification {
	for _, kw := range keywords {
		if kw.Kind != scan.KindKeyword {
			continue
		}
		delta := kw.Offset - cls.Node.Offset
		if cls.Node.Offset > kw.Offset {
			delta = cls.Node.Offset - kw.Offset
		}
		if delta > window {
			continue
		}
		cls.Evidence = append(cls.Evidence, Evidence{
			Source: "keyword",
			Offset: kw.Offset,
			Detail: fmt.Sprintf("keyword '%s' within 0x%X bytes", kw.Signature, delta),
		})
	}
	return cls
}

var (
	exprTrue  = []byte{byte(ifr.OpTrue), 0x02}
	exprFalse = []byte{byte(ifr.OpFalse), 0x02}
)

// isConstantExpr reports whether the expression can never change value
// at runtime: a bare True/False opcode, or an equality test against a
// question ID vendors use as a hard-wired constant.
func isConstantExpr(expr []byte) bool {
	if bytes.Equal(expr, exprTrue) || bytes.Equal(expr, exprFalse) {
		return true
	}
	if len(expr) >= 6 && ifr.Opcode(expr[0]) == ifr.OpEqIdVal {
		qid := binary.LittleEndian.Uint16(expr[2:])
		if _, found := vendorConstantQuestionIDs[qid]; found {
			return true
		}
	}
	return false
}

// referencesQuestion reports whether the expression compares against
// another question's value (EqIdVal/EqIdId/EqIdValList forms).
func referencesQuestion(expr []byte) bool {
	if len(expr) < 2 {
		return false
	}
	switch ifr.Opcode(expr[0]) {
	case ifr.OpEqIdVal, ifr.OpEqIdId, ifr.OpEqIdValList:
		return true
	}
	return false
}

// referencedQuestion extracts the question ID and compared value from
// an EqIdVal-shaped expression head.
func referencedQuestion(expr []byte) (qid, value uint16) {
	if len(expr) >= 4 {
		qid = binary.LittleEndian.Uint16(expr[2:])
	}
	if len(expr) >= 6 {
		value = binary.LittleEndian.Uint16(expr[4:])
	}
	return qid, value
}
