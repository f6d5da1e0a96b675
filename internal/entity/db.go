package entity

import (
	"bloodbank/internal/entity/common"
)

type Meta = common.Meta
type BaseParams = common.BaseParams
