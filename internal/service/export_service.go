package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"workforce-hub/backend/internal/model"
	"workforce-hub/backend/internal/repository"
	apperrors "workforce-hub/backend/pkg/errors"
)

const (
	sheetDepartments = "Departments"
	sheetUsers       = "Users"
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写出。
type ExportService interface {
	// ExportHierarchy 导出组织架构为 Excel，返回内容与建议文件名
	ExportHierarchy(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportHierarchy
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Departments"：部门 | 负责人 | 经理 | 无经理成员
//   - Sheet "Users"：姓名 | 邮箱 | 角色 | 部门 | 直属经理 | 状态

func (s *exportService) ExportHierarchy(ctx context.Context) (*bytes.Buffer, string, error) {
	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		s.logger.Error("查询部门失败", zap.Error(err))
		return nil, "", err
	}
	users, err := s.repo.User.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, "", err
	}

	userByID := make(map[string]*model.User, len(users))
	for i := range users {
		userByID[users[i].UserID] = &users[i]
	}
	deptName := make(map[string]string, len(depts))
	for _, d := range depts {
		deptName[d.DepartmentID] = d.Name
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetDepartments)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.KindInternal, err, "failed to generate workbook")
	}
	if _, err := f.NewSheet(sheetUsers); err != nil {
		return nil, "", apperrors.Wrap(apperrors.KindInternal, err, "failed to generate workbook")
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── Departments ──
	writeHeader(f, sheetDepartments, headerStyle, "Department", "Head", "Managers", "Unmanaged Members")
	f.SetColWidth(sheetDepartments, "A", "B", 20)
	f.SetColWidth(sheetDepartments, "C", "D", 40)

	row := 2
	for _, d := range depts {
		head, managers, members := "-", "", ""
		if d.HeadID != nil {
			if h, ok := userByID[*d.HeadID]; ok {
				head = h.Name
				managers = joinNames(userByID, h.ManagedManagerIDs)
				members = joinNames(userByID, h.ManagedMemberIDs)
			}
		}
		f.SetCellValue(sheetDepartments, cell("A", row), d.Name)
		f.SetCellValue(sheetDepartments, cell("B", row), head)
		f.SetCellValue(sheetDepartments, cell("C", row), managers)
		f.SetCellValue(sheetDepartments, cell("D", row), members)
		row++
	}

	// ── Users ──
	writeHeader(f, sheetUsers, headerStyle, "Name", "Email", "Role", "Department", "Manager", "Status")
	f.SetColWidth(sheetUsers, "A", "F", 22)

	row = 2
	for i := range users {
		u := &users[i]
		manager := ""
		if m, ok := userByID[u.MgrID()]; ok {
			manager = m.Name
		}
		f.SetCellValue(sheetUsers, cell("A", row), u.Name)
		f.SetCellValue(sheetUsers, cell("B", row), u.Email)
		f.SetCellValue(sheetUsers, cell("C", row), u.Role)
		f.SetCellValue(sheetUsers, cell("D", row), deptName[u.DeptID()])
		f.SetCellValue(sheetUsers, cell("E", row), manager)
		f.SetCellValue(sheetUsers, cell("F", row), u.Status)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", apperrors.Wrap(apperrors.KindInternal, err, "failed to generate workbook")
	}

	filename := fmt.Sprintf("hierarchy_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, style int, titles ...string) {
	for i, t := range titles {
		c := cell(colName(i), 1)
		f.SetCellValue(sheet, c, t)
		f.SetCellStyle(sheet, c, c, style)
	}
}

// joinNames 按 id 顺序拼接姓名，跳过已不存在的用户
func joinNames(userByID map[string]*model.User, ids model.IDList) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if u, ok := userByID[id]; ok {
			names = append(names, u.Name)
		}
	}
	return strings.Join(names, ", ")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
