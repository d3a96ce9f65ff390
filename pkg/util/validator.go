package util

import (
	"regexp"
	"unicode/utf8"
)

const (
	// DisplayNameMinLength minimum display name length
	// DisplayNameMinLength 显示名称最小长度
	DisplayNameMinLength = 2
	// DisplayNameMaxLength maximum display name length
	// DisplayNameMaxLength 显示名称最大长度
	DisplayNameMaxLength = 32
)

var (
	// Starts and ends alphanumeric, only alphanumerics and . _ @ - in between, 2-32 long
	// 字母数字开头和结尾，中间只允许字母数字以及 . _ @ -，长度 2-32
	displayNameShape = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._@-]{0,30}[a-zA-Z0-9]$`)
	// Two special characters in a row
	// 连续两个特殊字符
	displayNameRepeat = regexp.MustCompile(`[._@-]{2}`)
)

// IsValidDisplayName verifies the name a controller links with
// IsValidDisplayName 验证控制端用于链接的显示名称
// name: display name to be verified
// name: 待验证的显示名称
// return: true if the name satisfies the naming policy
// 返回值: 满足命名规则时返回 true
func IsValidDisplayName(name string) bool {
	return displayNameShape.MatchString(name) && !displayNameRepeat.MatchString(name)
}

// ShouldShowDisplayNameError reports whether an invalid name is long enough to complain about
// ShouldShowDisplayNameError 名称无效且已达到最小长度时才提示错误，避免输入过程中闪烁
func ShouldShowDisplayNameError(name string) bool {
	return !IsValidDisplayName(name) && utf8.RuneCountInString(name) >= DisplayNameMinLength
}
