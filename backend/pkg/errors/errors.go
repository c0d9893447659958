package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrCacheMiss 查询缓存未命中（或缓存不可用时的降级返回值）
var ErrCacheMiss = errors.New("缓存未命中")
