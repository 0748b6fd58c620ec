package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ── PostgreSQL UUID[] 自定义类型 ──

// IDList 对应 PostgreSQL UUID[] 类型，实现 GORM Scanner/Valuer 接口。
// 元素顺序无业务含义，按集合使用。
type IDList []string

// Scan 将 PostgreSQL 返回的 {a,b,c} 文本解析为 []string。
func (l *IDList) Scan(src interface{}) error {
	if src == nil {
		*l = IDList{}
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("IDList.Scan: unsupported type %T", src)
	}
	s = strings.Trim(s, "{}")
	if s == "" {
		*l = IDList{}
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(IDList, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"`)
		if p == "" || strings.EqualFold(p, "NULL") {
			continue
		}
		out = append(out, p)
	}
	*l = out
	return nil
}

// Value 将 []string 序列化为 PostgreSQL {a,b,c} 文本；nil 写为空数组。
func (l IDList) Value() (driver.Value, error) {
	return "{" + strings.Join(l, ",") + "}", nil
}

// Contains 是否包含 id
func (l IDList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Add 追加 id（已存在时不变），返回新列表与是否发生变化
func (l IDList) Add(id string) (IDList, bool) {
	if l.Contains(id) {
		return l, false
	}
	out := make(IDList, len(l), len(l)+1)
	copy(out, l)
	return append(out, id), true
}

// Remove 删除 id 的所有出现，返回新列表与是否发生变化
func (l IDList) Remove(id string) (IDList, bool) {
	out := make(IDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(out) != len(l)
}

// Union 合并多个列表并去重，保持首次出现的顺序
func Union(lists ...IDList) IDList {
	seen := make(map[string]struct{})
	out := IDList{}
	for _, l := range lists {
		for _, id := range l {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
