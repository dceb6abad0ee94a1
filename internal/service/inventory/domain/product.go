package domain

import "strings"

// Product 是目录里的一个产品条目，名字全局唯一。
// 创建后不可变，核心流程里没有删除路径。
type Product struct {
	ID   int64
	Name string
}

// NewProduct 校验并构造产品。名字只做去首尾空白，大小写敏感交给存储的唯一索引。
func NewProduct(name string) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return &Product{Name: name}, nil
}

// ProductSummary 是产品列表的读模型，quantity 在没有库存行时为 0。
type ProductSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
