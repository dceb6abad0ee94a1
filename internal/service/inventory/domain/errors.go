package domain

import "errors"

// 业务错误集合。interfaces 层依赖这些哨兵错误决定 HTTP 状态码，
// application 层依赖它们区分"业务拒绝"和"存储故障"。
var (
	// 校验类错误，在开启事务之前就会被拒绝
	ErrNameRequired    = errors.New("inventory: product name is required")
	ErrInvalidQuantity = errors.New("inventory: quantity must be a positive integer")
	ErrInvalidDate     = errors.New("inventory: purchase date must be YYYY-MM-DD")

	// 业务规则拒绝，不是缺陷，也不重试
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrProductNotStocked = errors.New("inventory: product has no stock record")

	// 并发同名建品冲突，插入和回查都失败时才会暴露给调用方
	ErrNameTaken         = errors.New("inventory: product name already exists")
	ErrDuplicateNameRace = errors.New("inventory: concurrent product creation collided")

	ErrProductNotFound  = errors.New("inventory: product not found")
	ErrPurchaseNotFound = errors.New("inventory: purchase not found")
)
