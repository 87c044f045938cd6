package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/youseo/pkg/version"
)

func TestBuildMetadataDefaults(t *testing.T) {
	assert.NotEmpty(t, version.GetVersion())
	assert.NotEmpty(t, version.GetGitCommit())
	assert.NotEmpty(t, version.GetBuildDate())
}
