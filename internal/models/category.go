package models

type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;uniqueIndex"`
	Slug string `json:"slug" gorm:"size:120;uniqueIndex"`
}

type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:40;uniqueIndex"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}
