package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracing(name string, trace *[]string) Stage {
	return Stage{
		Name: name,
		Handler: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				*trace = append(*trace, name)
				next.ServeHTTP(w, r)
			})
		},
	}
}

func TestPipeline_RunsInOrder(t *testing.T) {
	var trace []string
	root, err := NewPipeline(tracing("a", &trace), tracing("b", &trace))
	require.NoError(t, err)

	gateStage := tracing("gate", &trace)
	gateStage.Requires = []string{"a"}
	gate, err := root.Extend(gateStage)
	require.NoError(t, err)

	h := root.Then(gate.Then(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "gate", "handler"}, trace)
	assert.Equal(t, []string{"a", "b", "gate"}, gate.Names())
	assert.Len(t, gate.Middlewares(), 1)
}

func TestPipeline_RejectsBadOrdering(t *testing.T) {
	var trace []string
	needsA := tracing("b", &trace)
	needsA.Requires = []string{"a"}

	_, err := NewPipeline(needsA, tracing("a", &trace))
	assert.ErrorContains(t, err, `"b" requires "a"`)

	_, err = NewPipeline(needsA)
	assert.Error(t, err)

	root, err := NewPipeline(tracing("x", &trace))
	require.NoError(t, err)
	_, err = root.Extend(needsA)
	assert.Error(t, err)
}

func TestPipeline_RejectsInvalidStages(t *testing.T) {
	var trace []string

	_, err := NewPipeline(tracing("a", &trace), tracing("a", &trace))
	assert.ErrorContains(t, err, "twice")

	_, err = NewPipeline(Stage{Name: "nil"})
	assert.ErrorContains(t, err, "no handler")

	_, err = NewPipeline(Stage{Handler: tracing("x", &trace).Handler})
	assert.ErrorContains(t, err, "no name")

	root, err := NewPipeline(tracing("a", &trace))
	require.NoError(t, err)
	_, err = root.Extend(tracing("a", &trace))
	assert.ErrorContains(t, err, "twice")
}
