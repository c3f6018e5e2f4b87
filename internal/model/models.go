package model

// All 返回需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{}, &Follow{}, &FollowRequest{},
		&Content{}, &Like{}, &Save{}, &Comment{},
		&Notification{}, &Outbox{}, &Activity{},
	}
}
