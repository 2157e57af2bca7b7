package drawer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/drihop/pkg/pipeline"
	"github.com/askiada/drihop/pkg/pipeline/drawer"
	"github.com/askiada/drihop/pkg/pipeline/measure"
)

func TestPipelineDrawer(t *testing.T) {
	t.Parallel()

	fileName := filepath.Join(t.TempDir(), "pipeline.dot")
	msr := measure.NewDefaultMeasure()

	pipe, err := pipeline.New(context.Background(),
		measure.PipelineMeasure(msr),
		drawer.PipelineDrawer(drawer.NewDOTDrawer(fileName), msr),
	)
	require.NoError(t, err)

	root, err := pipeline.AddRootStep(pipe, "rows", func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; i < 5; i++ {
			rootChan <- i
		}

		return nil
	})
	require.NoError(t, err)

	step, err := pipeline.AddStepOneToOne(pipe, "blend", root, func(ctx context.Context, input int) (int, error) {
		return input + 1, nil
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "composite", step, func(ctx context.Context, input int) error {
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, pipe.Run())

	content, err := os.ReadFile(fileName)
	require.NoError(t, err)

	dot := string(content)
	assert.Contains(t, dot, "digraph")
	for _, name := range []string{"start", "rows", "blend", "composite", "end"} {
		assert.Contains(t, dot, `"`+name+`"`)
	}
	assert.Equal(t, int64(5), msr.GetMetric("composite").Count())
}

func TestDOTDrawerDuplicateStep(t *testing.T) {
	t.Parallel()

	d := drawer.NewDOTDrawer(filepath.Join(t.TempDir(), "g.dot"))
	require.NoError(t, d.AddStep("a"))
	require.NoError(t, d.AddStep("a"))
	require.NoError(t, d.AddStep("b"))
	require.NoError(t, d.AddLink("a", "b"))
	require.NoError(t, d.AddLink("a", "b"))
	assert.Error(t, d.AddLink("a", "missing"))
}
