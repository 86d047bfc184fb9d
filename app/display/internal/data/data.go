package data

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/kyadav2270/iva-agent/app/display/internal/conf"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/config"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/storage"
)

// Data 持久层句柄，复用 evaluator 侧的 PostgreSQL 存储
type Data struct {
	store *storage.Storage
}

func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	store, err := storage.NewStorage(config.DBConfig{
		Host:     c.Database.Host,
		Port:     int(c.Database.Port),
		User:     c.Database.User,
		Password: c.Database.Password,
		Name:     c.Database.Name,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			helper.Errorf("关闭数据库失败: %v", err)
		}
	}
	return &Data{store: store}, cleanup, nil
}

// Store 暴露底层存储，评估引擎直接写入同一个库
func (d *Data) Store() *storage.Storage {
	return d.store
}
