package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaces(t *testing.T) {
	assert.Equal(t, []Namespace{NamespaceComments, NamespaceSearch, NamespaceVideo}, Namespaces())
}

func TestParseNamespace(t *testing.T) {
	tests := []struct {
		input   string
		want    Namespace
		wantErr bool
	}{
		{input: "video", want: NamespaceVideo},
		{input: "Comments", want: NamespaceComments},
		{input: " SEARCH ", want: NamespaceSearch},
		{input: "videos", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseNamespace(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownNamespace)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNamespace_Partition(t *testing.T) {
	assert.Equal(t, "videos", NamespaceVideo.Partition())
	assert.Equal(t, "comments", NamespaceComments.Partition())
	assert.Equal(t, "searches", NamespaceSearch.Partition())
	assert.False(t, Namespace("other").Valid())
	assert.Empty(t, Namespace("other").Partition())
}
