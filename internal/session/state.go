// Package session drives the connect, link and disconnect lifecycle of one controller
// Package session 驱动单个控制端的连接、链接、断开生命周期
package session

import (
	"strings"

	"github.com/haierkeys/screen-connect-controller/pkg/transport"
)

// NamespaceTag first segment of every link path
// NamespaceTag 链接路径的首段
const NamespaceTag = "c"

// State the pair the lifecycle is evaluated on
// State 生命周期求值所依据的状态对
type State struct {
	Status           transport.Status
	DisconnectIntent bool
}

// CommandKind transport command kind
// CommandKind 传输命令类型
type CommandKind string

const (
	CommandConnect    CommandKind = "connect"
	CommandLink       CommandKind = "link"
	CommandDisconnect CommandKind = "disconnect"
)

// Command a transport command to issue
// Command 需要发出的传输命令
type Command struct {
	Kind CommandKind
	// Path link path, only for CommandLink
	// Path 链接路径，仅 CommandLink 使用
	Path string
}

// Evaluate returns the commands implied by moving from prev to cur
// Evaluate 返回从 prev 变化到 cur 所需发出的命令
//
// Connect fires once per entry into initializing, disconnect once per entry
// into (connected, intent). Evaluating an unchanged state yields nothing.
func Evaluate(prev, cur State) []Command {
	var cmds []Command
	if cur.Status == transport.StatusInitializing && prev.Status != transport.StatusInitializing {
		cmds = append(cmds, Command{Kind: CommandConnect})
	}
	if closing(cur) && !closing(prev) {
		cmds = append(cmds, Command{Kind: CommandDisconnect})
	}
	return cmds
}

func closing(s State) bool {
	return s.Status == transport.StatusConnected && s.DisconnectIntent
}

// LinkPath builds c/<target>/<identifier>
// LinkPath 构建 c/<target>/<identifier>
func LinkPath(target, identifier string) string {
	return strings.Join([]string{NamespaceTag, target, identifier}, "/")
}
