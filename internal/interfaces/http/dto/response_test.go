package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuccessResponseOmitsErrorAndMeta(t *testing.T) {
	raw, err := json.Marshal(NewSuccessResponse(map[string]string{"status": "idle"}))
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":true,"data":{"status":"idle"}}`, string(raw))
}

func TestNewErrorResponseCarriesCodeAndMessage(t *testing.T) {
	resp := NewErrorResponse(ErrCodeNotFound, "sync profile not found")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "sync profile not found", resp.Error.Message)
	assert.Nil(t, resp.Data)
}

func TestNewSuccessResponseWithMetaRoundsPagesUp(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
	}{
		{"exact fit", 40, 20, 2},
		{"partial last page", 41, 20, 3},
		{"empty list", 0, 20, 0},
		{"single item", 1, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.wantPages, resp.Meta.TotalPages)
			assert.Equal(t, tt.total, resp.Meta.Total)
		})
	}
}

func TestDefaultListRequest(t *testing.T) {
	req := DefaultListRequest()
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 20, req.PageSize)
}
