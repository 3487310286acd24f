package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
)

func TestResolveCourseExactMatchSkipsModel(t *testing.T) {
	stub := &stubAgent{reply: "Sentiment and Summarisation"}
	r := NewResolver(stub, testCatalog())

	got, err := r.ResolveCourse(context.Background(), "Data Ethics")
	require.NoError(t, err)
	assert.Equal(t, "Data Ethics", got)
	assert.Empty(t, stub.prompts, "exact match must not call the model")
}

func TestResolveCourseFuzzy(t *testing.T) {
	stub := &stubAgent{reply: "  \"Data Ethics\"\n"}
	r := NewResolver(stub, testCatalog())

	got, err := r.ResolveCourse(context.Background(), "data ethic")
	require.NoError(t, err)
	assert.Equal(t, "Data Ethics", got)

	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "- Data Ethics\n- Sentiment and Summarisation\n")
	assert.Contains(t, stub.prompts[0], `"data ethic"`)
}

func TestResolveCourseRejectsInventedTitle(t *testing.T) {
	r := NewResolver(&stubAgent{reply: "Dtaa Ethics"}, testCatalog())

	got, err := r.ResolveCourse(context.Background(), "dtaa ethics")
	assert.ErrorIs(t, err, lqerrors.ErrCourseNotResolved)
	assert.Empty(t, got)

	var lqErr *lqerrors.LearnqError
	require.True(t, errors.As(err, &lqErr))
	assert.Equal(t, "Dtaa Ethics", lqErr.Context["suggestion"])
}

func TestResolveCourseEmptyCandidate(t *testing.T) {
	stub := &stubAgent{reply: "Data Ethics"}
	_, err := NewResolver(stub, testCatalog()).ResolveCourse(context.Background(), "  ")

	assert.ErrorIs(t, err, lqerrors.ErrCourseNotResolved)
	assert.Empty(t, stub.prompts)
}

func TestResolveCourseTransportError(t *testing.T) {
	r := NewResolver(&stubAgent{err: errors.New("timeout")}, testCatalog())

	_, err := r.ResolveCourse(context.Background(), "ethics")
	assert.ErrorIs(t, err, lqerrors.ErrTranslationTransport)
}

func TestResolveUser(t *testing.T) {
	stub := &stubAgent{reply: "Jane Smith"}
	r := NewResolver(stub, testCatalog())

	got, err := r.ResolveUser(context.Background(), "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got)
	assert.Empty(t, stub.prompts)

	got, err = r.ResolveUser(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got)
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "learner name")

	stub.reply = "Janet Smith"
	_, err = r.ResolveUser(context.Background(), "janet")
	assert.ErrorIs(t, err, lqerrors.ErrCourseNotResolved)
}

func TestCleanMatch(t *testing.T) {
	assert.Equal(t, "Data Ethics", cleanMatch(" `Data Ethics` "))
	assert.Equal(t, "Data Ethics", cleanMatch("'Data Ethics'"))
	assert.Equal(t, `"`, cleanMatch(`"`))
}
