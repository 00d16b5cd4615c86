package mixprec

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/mixprec/ir"
	"github.com/gomlx/mixprec/optypes"
)

// constRule returns a rule that always classifies to the given category.
func constRule(category Category) RuleFunc {
	return func(node *ir.Node, target dtypes.DType) (Classification, error) {
		return Classification{Category: category}, nil
	}
}

func TestRegisterValidation(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(optypes.Add, 0, nil)
	require.ErrorIs(t, err, ErrInvalidRule)

	err = registry.Register(optypes.Invalid, 0, constRule(CategoryNever))
	require.ErrorIs(t, err, ErrInvalidRule)

	err = registry.Register(optypes.Last, 0, constRule(CategoryNever))
	require.ErrorIs(t, err, ErrInvalidRule)

	require.Equal(t, 0, registry.NumRules())
}

func TestResolveUnregistered(t *testing.T) {
	g := ir.New("resolve")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	add := ir.Add(x, x)

	registry := NewRegistry()
	classification, err := registry.Resolve(add, F16)
	require.NoError(t, err)
	require.Equal(t, Classification{
		Category:         CategoryFollow,
		AccumulatorDType: F16,
		OutputDType:      F16,
	}, classification)
}

func TestResolvePriorities(t *testing.T) {
	g := ir.New("priorities")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	add := ir.Add(x, x)

	// Higher priority wins in either registration order.
	registry := NewRegistry()
	require.NoError(t, registry.Register(optypes.Add, 10, constRule(CategoryNever)))
	require.NoError(t, registry.Register(optypes.Add, 0, constRule(CategoryAlways)))
	classification, err := registry.Resolve(add, F16)
	require.NoError(t, err)
	require.Equal(t, CategoryNever, classification.Category)

	registry = NewRegistry()
	require.NoError(t, registry.Register(optypes.Add, 0, constRule(CategoryAlways)))
	require.NoError(t, registry.Register(optypes.Add, 10, constRule(CategoryNever)))
	classification, err = registry.Resolve(add, F16)
	require.NoError(t, err)
	require.Equal(t, CategoryNever, classification.Category)

	// Ties go to the latest registration.
	require.NoError(t, registry.Register(optypes.Add, 10, constRule(CategoryAlways)))
	classification, err = registry.Resolve(add, F16)
	require.NoError(t, err)
	require.Equal(t, CategoryAlways, classification.Category)
	require.Equal(t, 3, registry.NumRules())
}

func TestRegistryClone(t *testing.T) {
	g := ir.New("clone")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	exp := ir.Exp(x)

	original := DefaultRegistry()
	clone := original.Clone()
	require.Equal(t, original.NumRules(), clone.NumRules())

	// Overriding Exp on the clone leaves the original alone.
	require.NoError(t, clone.Register(optypes.Exp, 0, constRule(CategoryFollow)))
	fromClone, err := clone.Resolve(exp, F16)
	require.NoError(t, err)
	require.Equal(t, CategoryFollow, fromClone.Category)
	fromOriginal, err := original.Resolve(exp, F16)
	require.NoError(t, err)
	require.Equal(t, CategoryNever, fromOriginal.Category)
	require.Equal(t, original.NumRules()+1, clone.NumRules())
}

// TestDefaultRegistryTable spot-checks the stock classification table.
func TestDefaultRegistryTable(t *testing.T) {
	g := ir.New("table")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	input := ir.Parameter(g, "input", MS(F32, 1, 1, 4, 4))
	kernel := ir.Parameter(g, "kernel", MS(F32, 1, 1, 2, 2))

	registry := DefaultRegistry()
	resolve := func(node *ir.Node) Classification {
		classification, err := registry.Resolve(node, F16)
		require.NoError(t, err)
		return classification
	}

	// Compute-bound operations are Always, with the dtype attributes left to
	// the pass defaults.
	dot := resolve(ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil))
	require.Equal(t, CategoryAlways, dot.Category)
	require.Equal(t, dtypes.InvalidDType, dot.AccumulatorDType)
	require.Equal(t, dtypes.InvalidDType, dot.OutputDType)
	conv := resolve(ir.ConvGeneral(input, kernel, []int{1, 1}, [][2]int{{0, 0}, {0, 0}}))
	require.Equal(t, CategoryAlways, conv.Category)

	// Numerically sensitive operations are Never.
	for _, node := range []*ir.Node{
		ir.Exp(x), ir.Log(x), ir.Logistic(x), ir.Erf(x),
		ir.Rsqrt(x), ir.Pow(x, x), ir.ReduceSum(x, 0), ir.ReduceProduct(x, 0),
	} {
		require.Equalf(t, CategoryNever, resolve(node).Category, "operation %s", node.OpType())
	}

	// Everything else follows.
	for _, node := range []*ir.Node{
		ir.Add(x, x), ir.Tanh(x), ir.ReduceMax(x, 0), ir.Sqrt(x),
	} {
		require.Equalf(t, CategoryFollow, resolve(node).Category, "operation %s", node.OpType())
	}
}

func TestCategoryString(t *testing.T) {
	require.Equal(t, "None", CategoryNone.String())
	require.Equal(t, "Always", CategoryAlways.String())
	require.Equal(t, "Follow", CategoryFollow.String())
	require.Equal(t, "Never", CategoryNever.String())
	require.Equal(t, "unknown", Category(42).String())
}
