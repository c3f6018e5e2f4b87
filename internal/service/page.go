package service

import (
	"fmt"
	"math"
)

// Page 分页结果；Approximate 表示 Total 只是有界候选池的大小
type Page[T any] struct {
	Items       []T
	Page        int
	Size        int
	Total       int64
	Approximate bool
}

// checkPage 还保证 page*size+size 不溢出 int
func checkPage(page, size, maxSize int) error {
	if size <= 0 || (maxSize > 0 && size > maxSize) {
		return fmt.Errorf("size must be in (0, %d]: %w", maxSize, ErrInvalidArgument)
	}
	if page < 0 {
		return fmt.Errorf("page must be >= 0: %w", ErrInvalidArgument)
	}
	if page > (math.MaxInt-size)/size {
		return fmt.Errorf("page %d out of range: %w", page, ErrInvalidArgument)
	}
	return nil
}

// paginate 对已排序切片做内存分页；越界返回空页，total 保持为全长
func paginate[T any](items []T, page, size int) Page[T] {
	total := len(items)
	from := page * size
	if from >= total {
		return Page[T]{Items: []T{}, Page: page, Size: size, Total: int64(total)}
	}
	to := from + size
	if to > total {
		to = total
	}
	return Page[T]{Items: items[from:to], Page: page, Size: size, Total: int64(total)}
}
