package entity

import (
	"repurpose/internal/entity/common"
)

type StringArray = common.StringArray
type Meta = common.Meta
type BaseParams = common.BaseParams

var NewMeta = common.NewMeta
