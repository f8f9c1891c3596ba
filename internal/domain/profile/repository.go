package profile

import "context"

// Repository Profile 集合持久化接口
type Repository interface {
	Load(ctx context.Context) ([]*Profile, error)
	Save(ctx context.Context, profiles []*Profile) error
}
