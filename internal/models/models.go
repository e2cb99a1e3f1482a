package models

// Tables lists every model stored in PostgreSQL, in migration order.
func Tables() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Tag{},
		&Post{},
		&Media{},
		&PostFlag{},
		&Comment{},
		&Reaction{},
		&Bookmark{},
		&Follow{},
		&Notification{},
		&DeviceToken{},
	}
}
