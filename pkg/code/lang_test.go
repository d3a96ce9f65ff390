package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalDefaultLang_ReadyAtPackageInit(t *testing.T) {
	assert.Equal(t, FALLBACK_LNG, GetGlobalDefaultLang())
	assert.Equal(t, "Success", Success.Msg())
	assert.Equal(t, "Success", sussCodes[Success.Code()])
}

func TestSetGlobalDefaultLang(t *testing.T) {
	t.Cleanup(func() { _ = SetGlobalDefaultLang(FALLBACK_LNG) })

	assert.NoError(t, SetGlobalDefaultLang("zh-CN"))
	assert.Equal(t, "zh_cn", GetGlobalDefaultLang())
	assert.Equal(t, "成功", Success.Msg())
	assert.Equal(t, "Not connected to the display", ErrorNotConnected.MsgIn("en"))

	assert.Error(t, SetGlobalDefaultLang("klingon"))
	assert.Equal(t, FALLBACK_LNG, GetGlobalDefaultLang())
	assert.Equal(t, "Success", Success.Msg())
}
