package service

// Actor 当前请求的调用者
type Actor struct {
	UserID      uint
	IsStaff     bool
	IsSuperuser bool
}

// Strict 去掉特权，只按本人身份做归属判断
func (a Actor) Strict() Actor {
	return Actor{UserID: a.UserID}
}

// scopeUserID 列表查询的用户范围，超级用户返回 0 表示不限
func (a Actor) scopeUserID() uint {
	if a.IsSuperuser {
		return 0
	}
	return a.UserID
}

// findOwned 加载资源并校验归属
// 不存在与不属于调用者都返回同一个 notFound，不暴露资源是否存在
func findOwned[T any](actor Actor, load func() (*T, error), owner func(*T) uint, notFound error) (*T, error) {
	item, err := load()
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound
	}
	if !actor.IsSuperuser && owner(item) != actor.UserID {
		return nil, notFound
	}
	return item, nil
}
