package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OpenClique85/openclique-sub004/backend/config"
	"github.com/OpenClique85/openclique-sub004/backend/internal/dto"
	"github.com/OpenClique85/openclique-sub004/backend/internal/model"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportsDisabled    = errors.New("导出功能已关停")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	// ExportFlagKey 控制导出闸门的功能开关
	ExportFlagKey = "exports_enabled"

	// 工单导出单次上限，超出的让运营加过滤条件
	exportTicketMaxRows = 5000

	// 没有结束时间的场次按两小时算
	fallbackEventDuration = 2 * time.Hour
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 全部导出受 exports_enabled 开关控制；开关不存在时回退配置默认值
//   - 每次导出落一条审计
type ExportService interface {
	// ExportSignups 某场次的报名名单导出为 Excel
	ExportSignups(ctx context.Context, instanceID, actorID string) (*bytes.Buffer, string, error)
	// ExportTickets 按筛选条件导出工单为 Excel
	ExportTickets(ctx context.Context, req *dto.TicketListRequest, actorID string) (*bytes.Buffer, string, error)
	// ExportAnomalies 异常巡检报告导出为 Excel（现算快照，不吃缓存）
	ExportAnomalies(ctx context.Context, actorID string) (*bytes.Buffer, string, error)
	// ExportCalendar 时间窗内已排期场次导出为 iCalendar
	ExportCalendar(ctx context.Context, from, to time.Time, actorID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg     *config.Config
	repo    *repository.Repository
	flags   FeatureFlagService
	anomaly AnomalyService
	audit   *auditRecorder
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, flags FeatureFlagService, anomaly AnomalyService, audit *auditRecorder, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, flags: flags, anomaly: anomaly, audit: audit, logger: logger}
}

// ensureEnabled 导出闸门：开关存在以开关为准，不存在回退配置默认值
func (s *exportService) ensureEnabled(ctx context.Context) error {
	flag, err := s.flags.Get(ctx, ExportFlagKey)
	if err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			if s.cfg.Feature.ExportsEnabled {
				return nil
			}
			return ErrExportsDisabled
		}
		return err
	}
	if !flag.Enabled {
		return ErrExportsDisabled
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// ExportSignups — 场次报名名单导出为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportSignups(ctx context.Context, instanceID, actorID string) (*bytes.Buffer, string, error) {
	if err := s.ensureEnabled(ctx); err != nil {
		return nil, "", err
	}

	// 1. 场次必须存在
	instance, err := s.repo.Instance.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInstanceNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 取全部报名（导出不分页）
	signups, err := s.repo.Signup.ListByInstance(ctx, instanceID)
	if err != nil {
		s.logger.Error("查询报名列表失败", zap.Error(err))
		return nil, "", err
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "报名表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 20)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "E", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 报名名单", instance.Title))
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	headers := []string{"账号", "昵称", "状态", "报名时间", "完成时间"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}

	row := 3
	for i := range signups {
		su := &signups[i]
		handle, display := "", ""
		if su.User != nil {
			handle = su.User.Handle
			display = su.User.DisplayName
		}
		completed := "-"
		if su.CompletedAt != nil {
			completed = su.CompletedAt.Format("2006-01-02 15:04")
		}
		f.SetCellValue(sheetName, cell("A", row), handle)
		f.SetCellValue(sheetName, cell("B", row), display)
		f.SetCellValue(sheetName, cell("C", row), string(su.Status))
		f.SetCellValue(sheetName, cell("D", row), su.SignedUpAt.Format("2006-01-02 15:04"))
		f.SetCellValue(sheetName, cell("E", row), completed)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.audit.record(ctx, actorID, model.AuditActionExport, "instance", &instanceID,
		fmt.Sprintf("导出报名名单 %d 条", len(signups)))

	filename := fmt.Sprintf("报名_%s_%s.xlsx", instance.Title, time.Now().Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportTickets — 工单导出为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportTickets(ctx context.Context, req *dto.TicketListRequest, actorID string) (*bytes.Buffer, string, error) {
	if err := s.ensureEnabled(ctx); err != nil {
		return nil, "", err
	}

	// 导出忽略请求分页，单次取到上限
	req.Page = 1
	req.PageSize = exportTicketMaxRows
	tickets, total, err := s.repo.Ticket.List(ctx, req)
	if err != nil {
		s.logger.Error("查询工单列表失败", zap.Error(err))
		return nil, "", err
	}
	if total > exportTicketMaxRows {
		s.logger.Warn("工单导出被截断", zap.Int64("total", total), zap.Int("max", exportTicketMaxRows))
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "工单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "B", 40)
	f.SetColWidth(sheetName, "C", "D", 16)
	f.SetColWidth(sheetName, "E", "F", 12)
	f.SetColWidth(sheetName, "G", "G", 20)

	headers := []string{"工单号", "主题", "发起人", "受理人", "优先级", "状态", "创建时间"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}

	row := 2
	for i := range tickets {
		t := &tickets[i]
		opener, assignee := "", "-"
		if t.Opener != nil {
			opener = t.Opener.Handle
		}
		if t.Assignee != nil {
			assignee = t.Assignee.Handle
		}
		f.SetCellValue(sheetName, cell("A", row), t.TicketID)
		f.SetCellValue(sheetName, cell("B", row), t.Subject)
		f.SetCellValue(sheetName, cell("C", row), opener)
		f.SetCellValue(sheetName, cell("D", row), assignee)
		f.SetCellValue(sheetName, cell("E", row), t.Priority)
		f.SetCellValue(sheetName, cell("F", row), string(t.Status))
		f.SetCellValue(sheetName, cell("G", row), t.CreatedAt.Format("2006-01-02 15:04"))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.audit.record(ctx, actorID, model.AuditActionExport, "ticket", nil,
		fmt.Sprintf("导出工单 %d 条", len(tickets)))

	filename := fmt.Sprintf("工单_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportAnomalies — 异常巡检报告导出为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportAnomalies(ctx context.Context, actorID string) (*bytes.Buffer, string, error) {
	if err := s.ensureEnabled(ctx); err != nil {
		return nil, "", err
	}

	// 导出是留档用途，强制重算拿当下快照
	report, err := s.anomaly.GetReport(ctx, true)
	if err != nil {
		s.logger.Error("生成异常报告失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "异常报告"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 38)
	f.SetColWidth(sheetName, "E", "E", 20)
	f.SetColWidth(sheetName, "F", "F", 40)
	f.SetColWidth(sheetName, "G", "G", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1",
		fmt.Sprintf("异常巡检报告 — 生成于 %s（总体严重度 %s）",
			report.GeneratedAt.Format("2006-01-02 15:04"), report.OverallSeverity))
	f.MergeCell(sheetName, "A1", "G1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	headers := []string{"分类", "严重度", "对象类型", "对象ID", "场次", "说明", "参照时间"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}

	buckets := []struct {
		name  string
		items []dto.AnomalyItem
	}{
		{"pending_too_long", report.PendingTooLong},
		{"quest_ended_not_completed", report.QuestEndedNotCompleted},
		{"empty_squads", report.EmptySquads},
		{"draft_too_long", report.DraftTooLong},
		{"missing_xp", report.MissingXP},
	}

	row := 3
	total := 0
	for _, bucket := range buckets {
		for i := range bucket.items {
			item := &bucket.items[i]
			observed := "-"
			if item.ObservedAt != nil {
				observed = item.ObservedAt.Format("2006-01-02 15:04")
			}
			f.SetCellValue(sheetName, cell("A", row), bucket.name)
			f.SetCellValue(sheetName, cell("B", row), item.Severity)
			f.SetCellValue(sheetName, cell("C", row), item.SubjectKind)
			f.SetCellValue(sheetName, cell("D", row), item.SubjectID)
			f.SetCellValue(sheetName, cell("E", row), item.InstanceTitle)
			f.SetCellValue(sheetName, cell("F", row), item.Message)
			f.SetCellValue(sheetName, cell("G", row), observed)
			row++
			total++
		}
	}

	// 残缺报告照样导出，失败的检查在表尾点名
	for _, checkErr := range report.CheckErrors {
		f.SetCellValue(sheetName, cell("A", row), "check_failed")
		f.SetCellValue(sheetName, cell("F", row), checkErr)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.audit.record(ctx, actorID, model.AuditActionExport, "anomaly", nil,
		fmt.Sprintf("导出异常报告 %d 条", total))

	filename := fmt.Sprintf("异常_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar — 已排期场次导出为 iCalendar (RFC 5545)
// ═══════════════════════════════════════════════════════════
//
// 只包含窗口内已排期且未取消的场次；无结束时间的事件按
// fallbackEventDuration 补全，订阅端才能正常渲染时长。

func (s *exportService) ExportCalendar(ctx context.Context, from, to time.Time, actorID string) (*bytes.Buffer, string, error) {
	if err := s.ensureEnabled(ctx); err != nil {
		return nil, "", err
	}

	instances, err := s.repo.Instance.ListScheduledBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("查询排期场次失败", zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//OpenClique//Admin Console//CN")

	now := time.Now()
	for i := range instances {
		inst := &instances[i]
		if inst.ScheduledDate == nil {
			continue
		}

		event := cal.AddEvent(inst.InstanceID + "@openclique")
		event.SetDtStampTime(now)
		event.SetStartAt(*inst.ScheduledDate)
		if inst.EndDatetime != nil {
			event.SetEndAt(*inst.EndDatetime)
		} else {
			event.SetEndAt(inst.ScheduledDate.Add(fallbackEventDuration))
		}
		event.SetSummary(inst.Title)
		if inst.Location != "" {
			event.SetLocation(inst.Location)
		}
		desc := fmt.Sprintf("状态：%s", inst.Status)
		if inst.Quest != nil {
			desc = fmt.Sprintf("任务：%s\n%s", inst.Quest.Title, desc)
		}
		event.SetDescription(desc)
	}

	buf := bytes.NewBufferString(cal.Serialize())

	s.audit.record(ctx, actorID, model.AuditActionExport, "instance", nil,
		fmt.Sprintf("导出日历 %s ~ %s 共 %d 场", from.Format("2006-01-02"), to.Format("2006-01-02"), len(instances)))

	filename := fmt.Sprintf("场次_%s_%s.ics", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
