package records

import (
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoConsecrators(t *testing.T) {
	principal := int64(1)

	assert.NoError(t, ValidateCoConsecrators(2, &principal, nil))
	assert.NoError(t, ValidateCoConsecrators(2, &principal, []int64{3, 4}))
	assert.NoError(t, ValidateCoConsecrators(2, nil, []int64{3, 4}))

	// subject as co-consecrator
	err := ValidateCoConsecrators(2, &principal, []int64{2})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	// principal duplicated as co-consecrator
	err = ValidateCoConsecrators(2, &principal, []int64{1})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	// duplicate id
	err = ValidateCoConsecrators(2, &principal, []int64{3, 3})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestFilterCoConsecrators(t *testing.T) {
	principal := int64(1)

	assert.Equal(t, []int64{2, 3}, FilterCoConsecrators(4, &principal, []int64{2, 2, 3}))
	assert.Equal(t, []int64{3}, FilterCoConsecrators(2, &principal, []int64{1, 2, 3}))
	assert.Nil(t, FilterCoConsecrators(2, &principal, []int64{1, 2}))
	assert.Equal(t, []int64{1, 3}, FilterCoConsecrators(2, nil, []int64{1, 3}))
}
