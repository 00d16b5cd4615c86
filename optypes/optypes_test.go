package optypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpTypeStrings(t *testing.T) {
	require.Equal(t, "DotGeneral", DotGeneral.String())
	require.Equal(t, "ConvertDType", ConvertDType.String())

	for _, opType := range OpTypeValues() {
		parsed, err := OpTypeString(opType.String())
		require.NoError(t, err)
		require.Equal(t, opType, parsed)
	}

	// Lower case names parse too.
	parsed, err := OpTypeString("reducesum")
	require.NoError(t, err)
	require.Equal(t, ReduceSum, parsed)

	_, err = OpTypeString("NotAnOp")
	require.Error(t, err)

	require.False(t, OpType(-1).IsAOpType())
	require.Equal(t, "OpType(999)", OpType(999).String())
}
