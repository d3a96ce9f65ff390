package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type phase string

type inner struct {
	Code int
	At   time.Time
}

type source struct {
	Name  string
	Phase phase
	Lines []string
	Inner *inner
}

type innerOut struct {
	Code int
	At   time.Time
}

type target struct {
	Name  string
	Phase string
	Lines []string
	Inner *innerOut
	Extra int
}

func TestStructAssign(t *testing.T) {
	now := time.Now()
	src := source{Name: "ada", Phase: "linked", Lines: []string{"a"}, Inner: &inner{Code: 7, At: now}}
	dst := target{Extra: 3}

	require.NoError(t, StructAssign(src, &dst))
	assert.Equal(t, "ada", dst.Name)
	assert.Equal(t, "linked", dst.Phase)
	assert.Equal(t, []string{"a"}, dst.Lines)
	require.NotNil(t, dst.Inner)
	assert.Equal(t, 7, dst.Inner.Code)
	assert.True(t, now.Equal(dst.Inner.At))
	assert.Equal(t, 3, dst.Extra)

	// 深拷贝，修改源不影响目标
	src.Lines[0] = "b"
	assert.Equal(t, "a", dst.Lines[0])
}
