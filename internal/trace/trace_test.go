package trace

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddStep_InsertionOrder(t *testing.T) {
	tr := New()
	tr.AddStep(CodeGenerated, "a", 0)
	tr.AddStep(CodeOutput, "b", 0)
	tr.AddStep(FinalAnswer, "c", 0)

	steps := tr.Steps()
	require.Len(t, steps, 3)
	require.Equal(t, CodeGenerated, steps[0].Type)
	require.Equal(t, CodeOutput, steps[1].Type)
	require.Equal(t, FinalAnswer, steps[2].Type)
	require.LessOrEqual(t, steps[0].Timestamp, steps[1].Timestamp)
	require.LessOrEqual(t, steps[1].Timestamp, steps[2].Timestamp)
}

func TestAddStep_Options(t *testing.T) {
	tr := New()
	step := tr.AddStep(SubcallResponse, "resp", 2, WithTokens(42), WithDuration(150*time.Millisecond))
	require.Equal(t, 42, step.TokensUsed)
	require.Equal(t, int64(150), step.DurationMS)
}

func TestUsage_Monotonic(t *testing.T) {
	u := &Usage{}
	_, _, total0 := u.Snapshot()
	u.Add(10, 5)
	_, _, total1 := u.Snapshot()
	u.Add(3, 1)
	_, _, total2 := u.Snapshot()

	require.LessOrEqual(t, total0, total1)
	require.LessOrEqual(t, total1, total2)
	require.Equal(t, 19, total2)
}

func TestTrace_WriteTo_NewlineDelimitedJSON(t *testing.T) {
	tr := New()
	tr.AddStep(CodeGenerated, "gen", 0)
	tr.AddStep(CodeOutput, "out", 0, WithDuration(10*time.Millisecond))
	tr.AddStep(FinalAnswer, "42", 0)

	var buf bytes.Buffer
	n, err := tr.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 3)

	var first Step
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.Equal(t, CodeGenerated, first.Type)
	require.Equal(t, "gen", first.Content)

	var third Step
	require.NoError(t, json.Unmarshal(lines[2], &third))
	require.Equal(t, FinalAnswer, third.Type)
	require.Equal(t, "42", third.Content)
}

func TestTrace_WriteTo_Empty(t *testing.T) {
	tr := New()
	var buf bytes.Buffer
	n, err := tr.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	require.Equal(t, 0, buf.Len())
}

func TestTrace_SubcallPairing(t *testing.T) {
	tr := New()
	tr.AddStep(SubcallRequest, "req", 0)
	time.Sleep(time.Millisecond)
	resp := tr.AddStep(SubcallResponse, "resp", 0)

	steps := tr.Steps()
	req := steps[0]
	require.Equal(t, SubcallRequest, req.Type)
	require.Equal(t, SubcallResponse, resp.Type)
	require.Equal(t, req.Iteration, resp.Iteration)
	require.GreaterOrEqual(t, resp.Timestamp, req.Timestamp)
}
