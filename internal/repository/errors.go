// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrStorageUnavailable 表示存储层不可达或操作失败。
// 调用方必须中止当前操作，不得带着过期的内存状态继续。
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrNotFound 表示查询的记录不存在。
var ErrNotFound = gorm.ErrRecordNotFound

// storageErr 将底层驱动错误包装为 ErrStorageUnavailable。
// 记录不存在属于正常查询结果，原样透传。
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
