package util

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	deviceID     string
	deviceIDOnce sync.Once
)

// appID salts the machine id so the raw id never leaves the device
// appID 对机器 ID 加盐，原始 ID 不会离开设备
const appID = "screen-connect-controller"

// GetDeviceID 获取当前控制端设备的标识符
// 优先使用 machineid 的加盐 ID，失败则使用主机名哈希
// 返回值: 设备 ID 字符串，全部失败时返回 "unknown"
func GetDeviceID() string {
	deviceIDOnce.Do(func() {
		// 1. 尝试使用 machineid 库
		if id, err := machineid.ProtectedID(appID); err == nil && id != "" {
			deviceID = shortHash(id)
			return
		}

		// 2. 尝试使用主机名
		if host, err := os.Hostname(); err == nil && strings.TrimSpace(host) != "" {
			deviceID = shortHash(appID + "/" + host)
			return
		}

		deviceID = "unknown"
	})
	return deviceID
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
