package service

import (
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"workforce-hub/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (*exportService, *mockUserRepo, *mockDeptRepo) {
	repo, users, depts := newMockRepository()
	svc := NewExportService(repo, zap.NewNop()).(*exportService)
	svc.now = func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }
	return svc, users, depts
}

// ── ExportHierarchy 测试 ──

func TestExportService_ExportHierarchy(t *testing.T) {
	svc, users, depts := setupTestExportService()

	_ = depts.Create(context.Background(), &model.Department{DepartmentID: "d1", Name: "Sales", HeadID: strPtr("hod")})
	_ = depts.Create(context.Background(), &model.Department{DepartmentID: "d2", Name: "Vacant"})
	users.add(&model.User{UserID: "hod", Name: "Helen", Email: "helen@example.com", Role: model.RoleDepartmentHead,
		DepartmentID: strPtr("d1"), ManagedManagerIDs: model.IDList{"m1"}, ManagedMemberIDs: model.IDList{"u1", "gone"}})
	users.add(&model.User{UserID: "m1", Name: "Mark", Email: "mark@example.com", Role: model.RoleManager, DepartmentID: strPtr("d1")})
	users.add(&model.User{UserID: "u1", Name: "Una", Email: "una@example.com", Role: model.RoleMember,
		DepartmentID: strPtr("d1"), ManagerID: strPtr("m1")})

	buf, filename, err := svc.ExportHierarchy(context.Background())
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "hierarchy_20261015.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("解析 Excel 失败: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Departments" || sheets[1] != "Users" {
		t.Fatalf("Sheet 列表不符: %v", sheets)
	}

	rows, _ := f.GetRows("Departments")
	if len(rows) != 3 {
		t.Fatalf("期望 3 行（含表头），实际 %d", len(rows))
	}
	sales := rows[1]
	if sales[0] != "Sales" || sales[1] != "Helen" || sales[2] != "Mark" || sales[3] != "Una" {
		t.Errorf("Sales 行不符: %v", sales)
	}
	if rows[2][0] != "Vacant" || rows[2][1] != "-" {
		t.Errorf("无负责人部门行不符: %v", rows[2])
	}

	userRows, _ := f.GetRows("Users")
	if len(userRows) != 4 {
		t.Fatalf("期望 4 行（含表头），实际 %d", len(userRows))
	}
	found := false
	for _, r := range userRows[1:] {
		if r[0] == "Una" {
			found = true
			if r[3] != "Sales" || r[4] != "Mark" {
				t.Errorf("Una 行不符: %v", r)
			}
		}
	}
	if !found {
		t.Error("Users Sheet 缺少 Una")
	}
}

func TestExportService_ExportHierarchy_Empty(t *testing.T) {
	svc, _, _ := setupTestExportService()

	buf, _, err := svc.ExportHierarchy(context.Background())
	if err != nil {
		t.Fatalf("空数据导出不应失败: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("解析 Excel 失败: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("Users")
	if len(rows) != 1 {
		t.Errorf("期望仅表头，实际 %d 行", len(rows))
	}
}
