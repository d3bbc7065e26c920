package analysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

type fakePass struct {
	id      PassID
	analyze func(ctx context.Context, in Input) (*Result, error)
}

func (p fakePass) ID() PassID {
	return p.id
}

func (p fakePass) Analyze(ctx context.Context, in Input) (*Result, error) {
	return p.analyze(ctx, in)
}

func testInput(t *testing.T, size int) Input {
	calc, err := NewCalculator(2)
	require.NoError(t, err)
	return Input{
		Image:      image.New(make([]byte, size), image.Layout{MirrorDelta: 0x800000}),
		Signatures: scan.MustNewSet("test-v1", nil),
		Decoders:   decode.MustNewRegistry(),
		Shared:     calc,
	}
}

func TestExecutor(t *testing.T) {
	t.Run("results_keep_registration_order", func(t *testing.T) {
		mkPass := func(id PassID) Pass {
			return fakePass{id: id, analyze: func(ctx context.Context, in Input) (*Result, error) {
				return &Result{Findings: []report.Finding{{Pass: id, Description: string(id)}}}, nil
			}}
		}
		results := NewExecutor(mkPass("a"), mkPass("b"), mkPass("c")).
			Execute(context.Background(), testInput(t, 0x100))
		require.Len(t, results, 3)
		require.Equal(t, PassID("a"), results[0].Pass)
		require.Equal(t, PassID("b"), results[1].Pass)
		require.Equal(t, PassID("c"), results[2].Pass)
	})

	t.Run("panicking_pass_becomes_diagnostic", func(t *testing.T) {
		boom := fakePass{id: "boom", analyze: func(ctx context.Context, in Input) (*Result, error) {
			panic("malformed input did this")
		}}
		ok := fakePass{id: "ok", analyze: func(ctx context.Context, in Input) (*Result, error) {
			return &Result{}, nil
		}}
		results := NewExecutor(boom, ok).Execute(context.Background(), testInput(t, 0x100))
		require.Len(t, results, 2)
		require.NotEmpty(t, results[0].Diagnostics)
		require.Contains(t, results[0].Diagnostics[0].Message, "boom")
		require.Empty(t, results[1].Diagnostics)
	})

	t.Run("failing_pass_does_not_affect_others", func(t *testing.T) {
		failing := fakePass{id: "failing", analyze: func(ctx context.Context, in Input) (*Result, error) {
			return nil, fmt.Errorf("no such structure")
		}}
		working := fakePass{id: "working", analyze: func(ctx context.Context, in Input) (*Result, error) {
			return &Result{Findings: []report.Finding{{Pass: "working"}}}, nil
		}}
		results := NewExecutor(failing, working).Execute(context.Background(), testInput(t, 0x100))
		require.NotEmpty(t, results[0].Diagnostics)
		require.Len(t, results[1].Findings, 1)
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("small_image_notes_missing_mirror", func(t *testing.T) {
		img := image.New(make([]byte, 0x1000), image.Layout{MirrorDelta: 0x800000})
		rep, err := Analyze(context.Background(), img, scan.MustNewSet("test-v1", nil), decode.MustNewRegistry(), nil)
		require.NoError(t, err)

		var messages []string
		for _, d := range rep.Diagnostics {
			messages = append(messages, d.Message)
		}
		require.Contains(t, fmt.Sprint(messages), "no mirror region")
		require.Contains(t, fmt.Sprint(messages), "signature set is empty")
	})

	t.Run("report_carries_image_identity", func(t *testing.T) {
		img := image.New(make([]byte, 0x1000), image.Layout{MirrorDelta: 0x800000})
		rep, err := Analyze(context.Background(), img, scan.MustNewSet("test-v1", nil), decode.MustNewRegistry(), nil)
		require.NoError(t, err)
		require.Equal(t, img.ID(), rep.ImageID)
		require.Equal(t, uint64(0x1000), rep.ImageSize)
		require.Equal(t, "test-v1", rep.SetVersion)
	})
}

func TestInputRegions(t *testing.T) {
	t.Run("small_image_has_primary_only", func(t *testing.T) {
		in := testInput(t, 0x1000)
		require.Equal(t, []image.RegionName{image.RegionPrimary}, in.Regions())
	})

	t.Run("full_image_has_both", func(t *testing.T) {
		in := testInput(t, 0x1000000)
		require.Equal(t, []image.RegionName{image.RegionPrimary, image.RegionMirror}, in.Regions())
	})
}
