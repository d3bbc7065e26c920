package ifrmenus

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/ifr"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/menu"
	"github.com/fwscope/fwscope/pkg/report"
)

func testInput(t *testing.T, buf []byte) (analysis.Input, family.Tables) {
	tables, err := family.TablesFor(family.FamilyVanGogh, false)
	require.NoError(t, err)
	calc, err := analysis.NewCalculator(2)
	require.NoError(t, err)
	return analysis.Input{
		Image:      image.New(buf, tables.Layout),
		Signatures: tables.Signatures,
		Decoders:   tables.Decoders,
		Shared:     calc,
	}, tables
}

func ifrOp(code ifr.Opcode, openScope bool, payload ...byte) []byte {
	lb := byte(2 + len(payload))
	if openScope {
		lb |= 0x80
	}
	return append([]byte{byte(code), lb}, payload...)
}

func ifrEnd() []byte {
	return ifrOp(ifr.OpEnd, false)
}

func questionPayload(prompt, questionID uint16) []byte {
	p := make([]byte, 11)
	binary.LittleEndian.PutUint16(p[0:], prompt)
	binary.LittleEndian.PutUint16(p[4:], questionID)
	return p
}

func eqIDVal(questionID, value uint16) []byte {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint16(p[0:], questionID)
	binary.LittleEndian.PutUint16(p[2:], value)
	return ifrOp(ifr.OpEqIdVal, false, p...)
}

// testFormSet builds a form set with three questions: one visible,
// one suppressed behind a satisfiable comparison, one suppressed
// behind a constant True.
func testFormSet() []byte {
	header := make([]byte, 20)
	copy(header, []byte{
		0x04, 0x76, 0x9A, 0x7A, 0x78, 0x42, 0x2D, 0x4C,
		0xA0, 0x17, 0x52, 0x65, 0x4E, 0x74, 0x63, 0x68,
	})

	var stream []byte
	for _, chunk := range [][]byte{
		ifrOp(ifr.OpFormSet, true, header...),
		ifrOp(ifr.OpForm, true, 0x01, 0x00, 0x10, 0x00),
		ifrOp(ifr.OpNumeric, false, questionPayload(0x20, 0x0100)...),
		ifrOp(ifr.OpSuppressIf, true),
		eqIDVal(0x1234, 0x0001),
		ifrOp(ifr.OpOneOf, false, questionPayload(0x21, 0x0101)...),
		ifrEnd(), // SuppressIf
		ifrOp(ifr.OpSuppressIf, true),
		ifrOp(ifr.OpTrue, false),
		ifrOp(ifr.OpCheckBox, false, questionPayload(0x22, 0x0102)...),
		ifrEnd(), // SuppressIf
		ifrEnd(), // Form
		ifrEnd(), // FormSet
	} {
		stream = append(stream, chunk...)
	}
	return stream
}

func TestPass(t *testing.T) {
	ctx := context.Background()

	buf := make([]byte, 0x1000)
	copy(buf[0x100:], testFormSet())

	in, tables := testInput(t, buf)
	res, err := New(tables).Analyze(ctx, in)
	require.NoError(t, err)
	require.Len(t, res.Findings, 2)

	var suppressed, locked *report.Finding
	for i := range res.Findings {
		f := &res.Findings[i]
		require.Equal(t, report.FindingMenu, f.Kind)
		require.NotNil(t, f.Menu)
		switch f.Menu.Verdict {
		case menu.VerdictSuppressedReachable:
			suppressed = f
		case menu.VerdictLocked:
			locked = f
		}
	}

	require.NotNil(t, suppressed)
	require.Equal(t, report.ConfidenceHeuristic, suppressed.Confidence)
	require.Equal(t, uint16(0x0101), suppressed.Menu.Node.Question.QuestionID)

	require.NotNil(t, locked)
	require.Equal(t, report.ConfidenceProbable, locked.Confidence)
	require.Equal(t, uint16(0x0102), locked.Menu.Node.Question.QuestionID)
}
