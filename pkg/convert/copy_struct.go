package convert

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// StructAssign
// dst 目标结构体指针，src 源结构体
// 它会把 src 与 dst 的相同字段名的值深拷贝到 dst 中，可转换的命名类型（如 type Status string）一并转换
func StructAssign(src any, dst any) error {
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true}); err != nil {
		return errors.Wrap(err, "struct assign")
	}
	return nil
}
