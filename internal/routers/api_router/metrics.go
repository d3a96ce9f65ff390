package api_router

import (
	"expvar"
	"fmt"
	"sync"

	"github.com/haierkeys/screen-connect-controller/internal/app"
	"github.com/haierkeys/screen-connect-controller/pkg/util"

	"github.com/gin-gonic/gin"
)

var publishOnce sync.Once

// publishBuildInfo exposes the controller build under the "controller" key
func publishBuildInfo() {
	publishOnce.Do(func() {
		expvar.Publish("controller", expvar.Func(func() any {
			return map[string]string{
				"name":      app.Name,
				"version":   app.Version,
				"gitTag":    app.GitTag,
				"buildTime": app.BuildTime,
				"device":    util.GetDeviceID(),
			}
		}))
	})
}

// Expvar writes every published expvar as one JSON object
// Expvar 将所有已发布的 expvar 输出为一个 JSON 对象
func Expvar(c *gin.Context) {
	publishBuildInfo()

	c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	fmt.Fprintf(c.Writer, "{\n")
	first := true
	expvar.Do(func(kv expvar.KeyValue) {
		if !first {
			fmt.Fprintf(c.Writer, ",\n")
		}
		first = false
		fmt.Fprintf(c.Writer, "%q: %s", kv.Key, kv.Value.String())
	})
	fmt.Fprintf(c.Writer, "\n}\n")
}
