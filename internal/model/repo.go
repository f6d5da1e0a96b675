package model

import (
	"context"
	"time"

	"bloodbank/internal/entity"
	"bloodbank/internal/model/sql"
)

var (
	ErrStockGuard    = sql.ErrStockGuard
	ErrStatusChanged = sql.ErrStatusChanged
)

// Repository 定义数据库操作接口
type Repository interface {
	// Transaction 在同一个事务内执行 fn，fn 内只能使用 tx
	Transaction(ctx context.Context, fn func(tx Repository) error) error
	Ping(ctx context.Context) error
	Close() error

	// 用户管理
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	CountUsers(ctx context.Context) (int64, error)

	// 献血者
	CreateDonor(ctx context.Context, donor *entity.DbDonor) error
	GetDonor(ctx context.Context, donorID string) (*entity.DbDonor, error)
	DonorExists(ctx context.Context, donorID string) (bool, error)
	FindDonorConflict(ctx context.Context, phone string, email *string, excludeDonorID string) (string, error)
	UpdateDonor(ctx context.Context, donorID string, updates entity.DonorUpdates) error
	TouchLastDonation(ctx context.Context, donorID string, date time.Time) error
	ListDonors(ctx context.Context, params *entity.DonorQuery) ([]entity.DbDonor, *entity.Meta, error)
	ListEligibleDonors(ctx context.Context, params entity.EligibleDonorQuery) ([]entity.DbDonor, error)

	// 献血记录
	CreateDonation(ctx context.Context, donation *entity.DbDonation) error
	GetDonation(ctx context.Context, donationID string) (*entity.DbDonation, error)
	DonationExists(ctx context.Context, donationID string) (bool, error)
	UpdateDonation(ctx context.Context, donationID string, updates entity.DonationUpdates) error
	SyncDonationSnapshots(ctx context.Context, donorID, donorName, bloodGroup string) (int64, error)
	ListDonationsByDonor(ctx context.Context, donorID string) ([]entity.DbDonation, error)
	ListDonations(ctx context.Context, params *entity.DonationQuery) ([]entity.DbDonation, *entity.Meta, error)
	RecentDonations(ctx context.Context, limit int) ([]entity.DbDonation, error)
	ExpiringDonations(ctx context.Context, from, to time.Time) ([]entity.ExpiringGroup, error)

	// 库存
	ListInventory(ctx context.Context) ([]entity.DbInventory, error)
	GetInventory(ctx context.Context, bloodGroup string) (*entity.DbInventory, error)
	EnsureInventoryLine(ctx context.Context, bloodGroup, status string, at time.Time) (bool, error)
	AddInventoryUnits(ctx context.Context, bloodGroup string, delta int, at time.Time) (int, error)
	SetInventoryStatus(ctx context.Context, bloodGroup, status string) error

	// 用血申请
	CreateBloodRequest(ctx context.Context, request *entity.DbBloodRequest) error
	GetBloodRequest(ctx context.Context, requestID string) (*entity.DbBloodRequest, error)
	BloodRequestExists(ctx context.Context, requestID string) (bool, error)
	UpdateBloodRequest(ctx context.Context, requestID, expectedStatus string, updates entity.BloodRequestUpdates) error
	ListBloodRequests(ctx context.Context, params *entity.BloodRequestQuery) ([]entity.DbBloodRequest, *entity.Meta, error)

	// 报表
	CountDonors(ctx context.Context, eligibleOnly bool) (int64, error)
	SumPassedUnits(ctx context.Context) (int64, error)
	CountBloodRequests(ctx context.Context, status string) (int64, error)
	MonthlyDonations(ctx context.Context, since time.Time) ([]entity.MonthlyUnits, error)
	DonorGroupDistribution(ctx context.Context) ([]entity.GroupCount, error)
	OrphanDonationIDs(ctx context.Context) ([]string, error)
	InvalidGroupDonationIDs(ctx context.Context) ([]string, error)
	EligibleDonorsDonatedAfter(ctx context.Context, since time.Time) ([]string, error)
	ExportSnapshot(ctx context.Context) (*entity.Snapshot, error)
}

// gormStore 将 sql.GormRepository 适配为 Repository，事务回调中传入同样包装过的 tx
type gormStore struct {
	*sql.GormRepository
}

func (s gormStore) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return s.GormRepository.Transaction(ctx, func(tx *sql.GormRepository) error {
		return fn(gormStore{GormRepository: tx})
	})
}

// NewGormStore wraps an opened repository.
func NewGormStore(repo *sql.GormRepository) Repository {
	return gormStore{GormRepository: repo}
}
