package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandEnv_Braced(t *testing.T) {
	t.Setenv("SHESHA_TEST_BRACED", "braced-value")
	require.Equal(t, "braced-value", expandEnv("${SHESHA_TEST_BRACED}"))
}

func TestExpandEnv_BracedWithDefault(t *testing.T) {
	require.Equal(t, "fallback", expandEnv("${SHESHA_TEST_UNSET_XYZ:-fallback}"))

	t.Setenv("SHESHA_TEST_BRACED_DEFAULT", "set-value")
	require.Equal(t, "set-value", expandEnv("${SHESHA_TEST_BRACED_DEFAULT:-fallback}"))
}

func TestExpandEnv_BareVar(t *testing.T) {
	t.Setenv("SHESHA_TEST_BARE", "bare-value")
	require.Equal(t, "bare-value", expandEnv("$SHESHA_TEST_BARE"))
	require.Equal(t, "prefix-bare-value-suffix", expandEnv("prefix-$SHESHA_TEST_BARE-suffix"))
}

func TestExpandEnv_BareVarUnset(t *testing.T) {
	require.Equal(t, "", expandEnv("$SHESHA_TEST_UNSET_BARE_XYZ"))
}

func TestExpandEnv_MixedForms(t *testing.T) {
	t.Setenv("SHESHA_TEST_MIXED_A", "A")
	t.Setenv("SHESHA_TEST_MIXED_B", "B")
	require.Equal(t, "A-B-fallback", expandEnv("${SHESHA_TEST_MIXED_A}-$SHESHA_TEST_MIXED_B-${SHESHA_TEST_MIXED_UNSET:-fallback}"))
}
