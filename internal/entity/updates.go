package entity

import "time"

// UserUpdates 用户更新字段
type UserUpdates struct {
	DisplayName  *string
	Email        *string
	PasswordHash *string
	IsActive     *bool
	LastLoginAt  *time.Time
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.DisplayName != nil {
		updates["display_name"] = *u.DisplayName
	}
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.LastLoginAt != nil {
		updates["last_login_at"] = *u.LastLoginAt
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// DonorUpdates 献血者更新字段。Email 为空指针时不更新；ClearEmail 将其置空。
type DonorUpdates struct {
	Name         *string
	DateOfBirth  *time.Time
	Age          *int
	Gender       *string
	BloodGroup   *string
	City         *string
	Phone        *string
	Email        *string
	ClearEmail   bool
	MedicalNotes *string
	Eligible     *bool
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u DonorUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.DateOfBirth != nil {
		updates["date_of_birth"] = *u.DateOfBirth
	}
	if u.Age != nil {
		updates["age"] = *u.Age
	}
	if u.Gender != nil {
		updates["gender"] = *u.Gender
	}
	if u.BloodGroup != nil {
		updates["blood_group"] = *u.BloodGroup
	}
	if u.City != nil {
		updates["city"] = *u.City
	}
	if u.Phone != nil {
		updates["phone"] = *u.Phone
	}
	if u.ClearEmail {
		updates["email"] = nil
	} else if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.MedicalNotes != nil {
		updates["medical_notes"] = *u.MedicalNotes
	}
	if u.Eligible != nil {
		updates["eligible"] = *u.Eligible
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u DonorUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// TouchesSnapshot reports whether donation history snapshots must follow.
func (u DonorUpdates) TouchesSnapshot() bool {
	return u.Name != nil || u.BloodGroup != nil
}

// DonationUpdates 献血记录可变字段
type DonationUpdates struct {
	TestResult *string
	Notes      *string
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u DonationUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.TestResult != nil {
		updates["test_result"] = *u.TestResult
	}
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u DonationUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// BloodRequestUpdates 用血申请状态变更字段
type BloodRequestUpdates struct {
	Status         *string
	FulfilledUnits *int
	FulfilledDate  *time.Time
	ApprovedBy     *uint
	Notes          *string
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u BloodRequestUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Status != nil {
		updates["request_status"] = *u.Status
	}
	if u.FulfilledUnits != nil {
		updates["fulfilled_units"] = *u.FulfilledUnits
	}
	if u.FulfilledDate != nil {
		updates["fulfilled_date"] = *u.FulfilledDate
	}
	if u.ApprovedBy != nil {
		updates["approved_by"] = *u.ApprovedBy
	}
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u BloodRequestUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
