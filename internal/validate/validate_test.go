package validate

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anybridge/internal/anytype"
	"anybridge/pkg/apierr"
)

type fakeLister struct {
	calls int32
	types map[string][]anytype.Type
	err   error
}

func (f *fakeLister) ListTypes(ctx context.Context, spaceID string, limit, offset int, token string) (anytype.TypeList, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return anytype.TypeList{}, f.err
	}
	return anytype.TypeList{Types: f.types[spaceID]}, nil
}

func TestValidate_EmptyInputShortCircuits(t *testing.T) {
	lister := &fakeLister{}
	v := NewTypeValidator(lister)

	result, err := v.Validate(context.Background(), nil, "sp1", "")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, lister.calls)
}

func TestValidate_CachesPerSpace(t *testing.T) {
	lister := &fakeLister{types: map[string][]anytype.Type{
		"sp1": {{ID: "t1", Key: "page"}, {ID: "t2", Key: "task"}},
		"sp2": {{ID: "t9", Key: "note"}},
	}}
	v := NewTypeValidator(lister)
	ctx := context.Background()

	result, err := v.Validate(ctx, []string{"t1"}, "sp1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, result)
	assert.Equal(t, int32(1), lister.calls)

	// Second call for the same space is served from cache.
	_, err = v.Validate(ctx, []string{"t2"}, "sp1", "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), lister.calls)

	// A different space triggers its own fetch.
	_, err = v.Validate(ctx, []string{"t9"}, "sp2", "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), lister.calls)
}

func TestValidate_KeysAcceptedAlongsideIDs(t *testing.T) {
	lister := &fakeLister{types: map[string][]anytype.Type{
		"sp1": {{ID: "t1", Key: "page"}},
	}}
	v := NewTypeValidator(lister)

	result, err := v.Validate(context.Background(), []string{"page"}, "sp1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"page"}, result)
}

func TestValidate_InvalidTypes(t *testing.T) {
	lister := &fakeLister{types: map[string][]anytype.Type{
		"sp1": {{ID: "t1"}, {ID: "t2"}},
	}}
	v := NewTypeValidator(lister)

	_, err := v.Validate(context.Background(), []string{"t1", "bogus"}, "sp1", "")
	require.Error(t, err)

	var invalid *apierr.InvalidTypesError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"bogus"}, invalid.Invalid)
	assert.Equal(t, []string{"t1", "t2"}, invalid.Valid)
}

func TestValidate_TypeNotFoundPassesThrough(t *testing.T) {
	lister := &fakeLister{err: apierr.NewUpstreamError(http.StatusNotFound, "type not found")}
	v := NewTypeValidator(lister)

	result, err := v.Validate(context.Background(), []string{"anything"}, "sp1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"anything"}, result)
}

func TestValidate_OtherErrorsPropagate(t *testing.T) {
	lister := &fakeLister{err: apierr.NewUpstreamError(http.StatusBadGateway, "storage unavailable")}
	v := NewTypeValidator(lister)

	_, err := v.Validate(context.Background(), []string{"t1"}, "sp1", "")
	var upstream *apierr.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
}

func TestValidate_EmptyTypeListNotCached(t *testing.T) {
	lister := &fakeLister{types: map[string][]anytype.Type{}}
	v := NewTypeValidator(lister)
	ctx := context.Background()

	result, err := v.Validate(ctx, []string{"t1"}, "sp1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, result)
	assert.Equal(t, int32(1), lister.calls)

	// An empty set must not be cached, the space may still be
	// initializing. The next call fetches again.
	_, err = v.Validate(ctx, []string{"t1"}, "sp1", "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), lister.calls)
}

func TestValidate_GlobalKeyForEmptySpace(t *testing.T) {
	lister := &fakeLister{types: map[string][]anytype.Type{
		"": {{ID: "t1"}},
	}}
	v := NewTypeValidator(lister)
	ctx := context.Background()

	_, err := v.Validate(ctx, []string{"t1"}, "", "")
	require.NoError(t, err)
	_, err = v.Validate(ctx, []string{"t1"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), lister.calls)
}

func TestValidate_ConcurrentMissesCollapse(t *testing.T) {
	lister := &fakeLister{types: map[string][]anytype.Type{
		"sp1": {{ID: "t1"}},
	}}
	v := NewTypeValidator(lister)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Validate(context.Background(), []string{"t1"}, "sp1", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&lister.calls))
}
