package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// ProductModel 对应数据库中的 products 表。
// name 上的唯一索引是并发同名建品的最终仲裁者。
type ProductModel struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:255;not null;uniqueIndex"`
}

func (ProductModel) TableName() string {
	return "products"
}

// StockModel 对应 stocks 表。product_id 上的唯一索引把
// "每个产品最多一行库存"从应用层约定变成存储层约束。
type StockModel struct {
	ID        int64        `gorm:"primaryKey;autoIncrement"`
	ProductID int64        `gorm:"not null;uniqueIndex"`
	Quantity  int          `gorm:"not null"`
	Product   ProductModel `gorm:"foreignKey:ProductID"`
}

func (StockModel) TableName() string {
	return "stocks"
}

// PurchaseModel 对应 purchases 表，purchase_date 只存日期。
type PurchaseModel struct {
	ID           int64        `gorm:"primaryKey;autoIncrement"`
	ProductID    int64        `gorm:"not null;index"`
	Quantity     int          `gorm:"not null"`
	PurchaseDate time.Time    `gorm:"type:date;not null"`
	Product      ProductModel `gorm:"foreignKey:ProductID"`
}

func (PurchaseModel) TableName() string {
	return "purchases"
}

// AutoMigrate 启动时建表，顺序保证外键目标先存在。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ProductModel{}, &StockModel{}, &PurchaseModel{})
}
