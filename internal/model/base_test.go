package model

import (
	"reflect"
	"testing"
)

func TestIDList_ScanValue(t *testing.T) {
	var l IDList
	if err := l.Scan([]byte(`{a1,"b2", c3}`)); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if !reflect.DeepEqual(l, IDList{"a1", "b2", "c3"}) {
		t.Errorf("实际=%v", l)
	}

	v, _ := l.Value()
	if v != "{a1,b2,c3}" {
		t.Errorf("Value 实际=%v", v)
	}

	if err := l.Scan(nil); err != nil || len(l) != 0 {
		t.Errorf("NULL 应解析为空列表，实际=%v err=%v", l, err)
	}
	if err := l.Scan("{}"); err != nil || len(l) != 0 {
		t.Errorf("{} 应解析为空列表，实际=%v", l)
	}
	if err := l.Scan(42); err == nil {
		t.Error("不支持的类型应返回错误")
	}

	var empty IDList
	if v, _ := empty.Value(); v != "{}" {
		t.Errorf("nil 列表应写为 {}，实际=%v", v)
	}
}

func TestIDList_AddIsIdempotent(t *testing.T) {
	l := IDList{"m1"}
	l, changed := l.Add("m2")
	if !changed {
		t.Error("首次添加应返回 changed=true")
	}
	l, changed = l.Add("m2")
	if changed {
		t.Error("重复添加应返回 changed=false")
	}
	if !reflect.DeepEqual(l, IDList{"m1", "m2"}) {
		t.Errorf("实际=%v", l)
	}
}

func TestIDList_RemoveAllOccurrences(t *testing.T) {
	l := IDList{"u1", "u2", "u1"}
	l, changed := l.Remove("u1")
	if !changed || !reflect.DeepEqual(l, IDList{"u2"}) {
		t.Errorf("实际=%v changed=%v", l, changed)
	}
	l, changed = l.Remove("u1")
	if changed || !reflect.DeepEqual(l, IDList{"u2"}) {
		t.Errorf("再次删除应无变化，实际=%v changed=%v", l, changed)
	}
}

func TestUnion_Dedup(t *testing.T) {
	got := Union(IDList{"x", "m1"}, IDList{"m1", "m2"}, nil)
	if !reflect.DeepEqual(got, IDList{"x", "m1", "m2"}) {
		t.Errorf("实际=%v", got)
	}
}

func TestRoleHelpers(t *testing.T) {
	if !IsValidRole(RoleHRManager) || IsValidRole("leader") {
		t.Error("角色枚举校验错误")
	}
}
