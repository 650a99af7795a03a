package repository

import (
	"errors"

	"gena-go/internal/entitlement"
	"gena-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	// GetOrCreate 按用户 ID 查找用户；不存在时在同一事务内创建
	// users/plans/settings/usage 四行默认记录。操作是幂等的。
	GetOrCreate(userID int64) (*model.User, error)
	FindByID(userID int64) (*model.User, error)
	Count() (int64, error)
	// Delete 删除用户的全部行集（数据清除请求专用）。
	Delete(userID int64) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetOrCreate 实现首次联系时的原子建档。
func (r *userRepository) GetOrCreate(userID int64) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, "user_id = ?", userID).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageErr("find user", err)
	}

	// 四行记录要么全部创建，要么全部不创建。
	// ON CONFLICT DO NOTHING 让并发的首次联系保持幂等。
	err = r.db.Transaction(func(tx *gorm.DB) error {
		user = model.User{UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
			return err
		}
		plan := model.Plan{UserID: userID, Tier: entitlement.TierFree}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&plan).Error; err != nil {
			return err
		}
		settings := model.Settings{
			UserID:  userID,
			Model:   entitlement.DefaultModel(entitlement.TierFree),
			Persona: entitlement.DefaultPersona(entitlement.TierFree),
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
			return err
		}
		usage := model.Usage{UserID: userID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&usage).Error
	})
	if err != nil {
		return nil, storageErr("create user rows", err)
	}

	// 重新读取，保证并发创建时返回的是已落库的行。
	if err := r.db.First(&user, "user_id = ?", userID).Error; err != nil {
		return nil, storageErr("reload user", err)
	}
	return &user, nil
}

// FindByID 根据用户 ID 从数据库中查找一个用户。
func (r *userRepository) FindByID(userID int64) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, "user_id = ?", userID).Error; err != nil {
		return nil, storageErr("find user", err)
	}
	return &user, nil
}

// Count 返回用户总数。
func (r *userRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return 0, storageErr("count users", err)
	}
	return total, nil
}

// Delete 在同一事务内删除用户的全部行集。
func (r *userRepository) Delete(userID int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&model.MessageHistory{}, &model.Usage{}, &model.Settings{}, &model.Plan{}, &model.User{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return storageErr("delete user rows", err)
}
