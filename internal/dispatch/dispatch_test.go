package dispatch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/re-cinq/taskforge/internal/apperr"
	"github.com/re-cinq/taskforge/internal/gitdriver"
	"github.com/re-cinq/taskforge/internal/store"
	"github.com/re-cinq/taskforge/internal/workflow"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	st, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.RunMigrations(context.Background()))
	engine := workflow.New(st, gitdriver.New(""), nil)
	return New(engine, nil)
}

func TestUnknownAction(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Dispatch(context.Background(), "nonsense_action", nil)
	require.EqualError(t, err, "Unknown action: nonsense_action")
}

func TestMissingRequiredFields(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Dispatch(context.Background(), "project_create", Params{"name": "only name"})
	require.EqualError(t, err, "id required")
}

func TestProjectCreateRoundTrip(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	out, err := d.Dispatch(ctx, "project_create", Params{"id": "p1", "name": "Project One"})
	require.NoError(t, err)
	proj, ok := out.(*workflow.Project)
	require.True(t, ok, "expected *workflow.Project, got %T", out)
	require.True(t, proj.HasBuildStep)
	require.True(t, proj.HasDeployStep)

	got, err := d.Dispatch(ctx, "project_get", Params{"id": "p1"})
	require.NoError(t, err)
	pc, ok := got.(*workflow.ProjectContext)
	require.True(t, ok, "expected *workflow.ProjectContext, got %T", got)
	require.Equal(t, "p1", pc.Project.ID)
}

func TestNumericStringCoercion(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, "project_create", Params{"id": "p1", "name": "Project One"})
	require.NoError(t, err)

	// A CLI-style caller passes every field as a string; the normalization
	// pass must coerce "task_type" (string) fine and "priority" from a
	// stringified number into int64.
	out, err := d.Dispatch(ctx, "task_add", Params{
		"project_id": "p1",
		"title":      "Do the thing",
		"task_type":  "feature",
		"priority":   "5",
	})
	require.NoError(t, err)
	task, ok := out.(*workflow.Task)
	require.True(t, ok, "expected *workflow.Task, got %T", out)
	require.Equal(t, 5, task.Priority)
	require.True(t, task.RequiresBranching)
	require.True(t, task.RequiresHumanReview)
}

func TestDispatchPassesThroughEngineErrors(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, "project_get", Params{"id": "does-not-exist"})
	require.Error(t, err)
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, apperr.NotFound, kind)
}
