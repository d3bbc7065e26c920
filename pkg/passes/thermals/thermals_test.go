package thermals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

func fanCurve() []byte {
	return []byte{
		40, 20,
		50, 35,
		60, 50,
		70, 65,
		80, 80,
		85, 90,
		90, 95,
		95, 100,
	}
}

func TestIsFanCurve(t *testing.T) {
	t.Run("accepts_percentage_curve", func(t *testing.T) {
		require.True(t, isFanCurve(fanCurve()))
	})

	t.Run("accepts_pwm_curve", func(t *testing.T) {
		curve := fanCurve()
		for i := 0; i < fanCurvePairs; i++ {
			curve[2*i+1] = byte(200 + i*5)
		}
		require.True(t, isFanCurve(curve))
	})

	t.Run("rejects_descending_temperatures", func(t *testing.T) {
		curve := fanCurve()
		curve[4] = 45
		require.False(t, isFanCurve(curve))
	})

	t.Run("rejects_narrow_spread", func(t *testing.T) {
		curve := fanCurve()
		for i := 0; i < fanCurvePairs; i++ {
			curve[2*i] = byte(60 + i)
		}
		require.False(t, isFanCurve(curve))
	})

	t.Run("rejects_mixed_speed_encodings", func(t *testing.T) {
		curve := fanCurve()
		curve[1] = 210
		require.False(t, isFanCurve(curve))
	})
}

func TestThermalLimitRun(t *testing.T) {
	t.Run("accepts_ascending_run_with_trip_point", func(t *testing.T) {
		length, ok := thermalLimitRun([]byte{60, 70, 85, 95, 0})
		require.True(t, ok)
		require.Equal(t, 4, length)
	})

	t.Run("rejects_run_without_trip_point", func(t *testing.T) {
		_, ok := thermalLimitRun([]byte{60, 70, 75, 80, 0})
		require.False(t, ok)
	})

	t.Run("tolerates_one_dip", func(t *testing.T) {
		_, ok := thermalLimitRun([]byte{60, 55, 85, 95, 0})
		require.True(t, ok)
	})

	t.Run("rejects_two_dips", func(t *testing.T) {
		_, ok := thermalLimitRun([]byte{60, 55, 85, 80, 95, 0})
		require.False(t, ok)
	})
}

func TestPass(t *testing.T) {
	buf := make([]byte, 0x400)
	copy(buf[0x100:], fanCurve())

	tables, err := family.TablesFor(family.FamilyVanGogh, false)
	require.NoError(t, err)
	calc, err := analysis.NewCalculator(2)
	require.NoError(t, err)
	in := analysis.Input{
		Image:      image.New(buf, tables.Layout),
		Signatures: tables.Signatures,
		Decoders:   tables.Decoders,
		Shared:     calc,
	}

	res, err := New().Analyze(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, res.Findings)

	var found bool
	for _, f := range res.Findings {
		if f.Match != nil && f.Match.Signature == "fan-curve" {
			found = true
			require.Equal(t, report.FindingMatch, f.Kind)
			require.Equal(t, report.ConfidenceHeuristic, f.Confidence)
			require.Equal(t, scan.KindThermal, f.Match.Kind)
		}
	}
	require.True(t, found)
}
