package provision

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/britney/internal/errors"
	"github.com/britney/internal/ollama"
	"github.com/britney/pkg/models"
)

type progressStream struct {
	chunks []ollama.Chunk
	err    error
	pos    int
}

func (s *progressStream) Next() (ollama.Chunk, error) {
	if s.pos < len(s.chunks) {
		s.pos++
		return s.chunks[s.pos-1], nil
	}
	if s.err != nil {
		return ollama.Chunk{}, s.err
	}
	return ollama.Chunk{}, io.EOF
}

func (s *progressStream) Close() error { return nil }

// fakeRuntime adds the target model to its listing once a build succeeds
type fakeRuntime struct {
	models     []models.ModelDescriptor
	listErr    error
	modelfile  string
	showErr    error
	buildErr   error
	shown      []string
	creates    []ollama.CreateRequest
	listCalls  int
	addOnBuild bool
}

func (r *fakeRuntime) ListModels(context.Context) ([]models.ModelDescriptor, error) {
	r.listCalls++
	return r.models, r.listErr
}

func (r *fakeRuntime) ShowModelfile(_ context.Context, name string) (string, error) {
	r.shown = append(r.shown, name)
	return r.modelfile, r.showErr
}

func (r *fakeRuntime) CreateModel(_ context.Context, req ollama.CreateRequest) (ollama.ChunkStream, error) {
	r.creates = append(r.creates, req)
	stream := &progressStream{
		chunks: []ollama.Chunk{{Status: "reading model metadata"}, {Malformed: true}, {Status: "success", Done: true}},
		err:    r.buildErr,
	}
	if r.buildErr == nil && r.addOnBuild {
		r.models = append(r.models, models.ModelDescriptor{Name: req.Model + ":latest", Present: true})
	}
	return stream, nil
}

const dolphinDefinition = `# Modelfile generated by "ollama show"
FROM /models/blobs/sha256-abc
TEMPLATE """{{ .System }}
{{ .Prompt }}"""
SYSTEM You are Dolphin, a helpful AI assistant.
PARAMETER stop "<|im_end|>"
`

func newTestProvisioner(t *testing.T, rt *fakeRuntime, desired string) (*Provisioner, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Modelfile")
	p := New(rt, Config{TargetName: "Britney", DesiredModel: desired, ModelfilePath: path}, "You are Britney.")
	return p, path
}

func TestEnsureReadyNoModelsIsUnavailable(t *testing.T) {
	rt := &fakeRuntime{}
	p, path := newTestProvisioner(t, rt, "")

	err := p.EnsureReady(context.Background())

	assert.ErrorIs(t, err, perrors.ErrUnavailable)
	assert.NoFileExists(t, path)
	assert.Empty(t, rt.creates)
}

func TestEnsureReadyListFailure(t *testing.T) {
	rt := &fakeRuntime{listErr: errors.New("connection refused")}
	p, path := newTestProvisioner(t, rt, "")

	err := p.EnsureReady(context.Background())

	var pe *perrors.ProvisionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, perrors.StageList, pe.Stage)
	assert.NoFileExists(t, path)
}

func TestEnsureReadyAlreadyAliveIsNoop(t *testing.T) {
	rt := &fakeRuntime{models: []models.ModelDescriptor{{Name: "llama3"}, {Name: "britney:latest"}}}
	p, path := newTestProvisioner(t, rt, "")

	require.NoError(t, p.EnsureReady(context.Background()))

	assert.Empty(t, rt.shown)
	assert.Empty(t, rt.creates)
	assert.NoFileExists(t, path)
}

func TestEnsureReadyBuildsOnceThenIsIdempotent(t *testing.T) {
	rt := &fakeRuntime{
		models:     []models.ModelDescriptor{{Name: "dolphin-mistral:latest"}, {Name: "llama3"}},
		modelfile:  dolphinDefinition,
		addOnBuild: true,
	}
	p, path := newTestProvisioner(t, rt, "")

	require.NoError(t, p.EnsureReady(context.Background()))
	require.NoError(t, p.EnsureReady(context.Background()))

	require.Len(t, rt.creates, 1)
	assert.Equal(t, 2, rt.listCalls)
	assert.Equal(t, []string{"dolphin-mistral:latest"}, rt.shown)

	req := rt.creates[0]
	assert.Equal(t, "Britney", req.Model)
	assert.Equal(t, "dolphin-mistral:latest", req.From)
	assert.Equal(t, "You are Britney.", req.System)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, req.Modelfile, string(written))
	assert.Contains(t, string(written), `SYSTEM """You are Britney."""`)
	assert.NotContains(t, string(written), "Dolphin")
	assert.Contains(t, string(written), `PARAMETER stop "<|im_end|>"`)
}

func TestEnsureReadyPrefersDesiredModel(t *testing.T) {
	rt := &fakeRuntime{
		models:    []models.ModelDescriptor{{Name: "dolphin-mistral:latest"}, {Name: "llama3"}},
		modelfile: "FROM llama3\n",
	}
	p, _ := newTestProvisioner(t, rt, "llama3")

	require.NoError(t, p.EnsureReady(context.Background()))

	assert.Equal(t, []string{"llama3"}, rt.shown)
	require.Len(t, rt.creates, 1)
	assert.Equal(t, "llama3", rt.creates[0].From)
}

func TestEnsureReadyIntrospectFailure(t *testing.T) {
	rt := &fakeRuntime{
		models:  []models.ModelDescriptor{{Name: "llama3"}},
		showErr: errors.New("model not found"),
	}
	p, path := newTestProvisioner(t, rt, "")

	err := p.EnsureReady(context.Background())

	var pe *perrors.ProvisionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, perrors.StageIntrospect, pe.Stage)
	assert.Equal(t, "llama3", pe.Model)
	assert.NoFileExists(t, path)
}

func TestEnsureReadySubstitutionFailure(t *testing.T) {
	rt := &fakeRuntime{
		models:    []models.ModelDescriptor{{Name: "llama3"}},
		modelfile: "PARAMETER temperature 0.2\n",
	}
	p, path := newTestProvisioner(t, rt, "")

	err := p.EnsureReady(context.Background())

	var pe *perrors.ProvisionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, perrors.StageSubstitute, pe.Stage)
	assert.ErrorIs(t, err, perrors.ErrNoBaseDirective)
	assert.NoFileExists(t, path)
	assert.Empty(t, rt.creates)
}

func TestEnsureReadyBuildFailure(t *testing.T) {
	rt := &fakeRuntime{
		models:    []models.ModelDescriptor{{Name: "llama3"}},
		modelfile: "FROM llama3\n",
		buildErr:  errors.New("unexpected EOF"),
	}
	p, path := newTestProvisioner(t, rt, "")

	err := p.EnsureReady(context.Background())

	assert.ErrorIs(t, err, perrors.ErrBuildFailed)
	assert.FileExists(t, path)
}

func TestAliveMatchesSubstringCaseInsensitive(t *testing.T) {
	p := New(nil, Config{TargetName: "Britney"}, "")

	assert.True(t, p.Alive([]models.ModelDescriptor{{Name: "Britney:latest"}}))
	assert.True(t, p.Alive([]models.ModelDescriptor{{Name: "team/britney-v2"}}))
	assert.False(t, p.Alive([]models.ModelDescriptor{{Name: "brit"}}))
	assert.False(t, p.Alive(nil))
}
